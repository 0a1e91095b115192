package handler

import (
	"errors"
	"io"
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/model"
	"shopadmin/internal/service"
	"shopadmin/internal/storage"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

const msgProductNotFound = "Product not found."

type ProductEnvelope struct {
	response.Response
	Product *model.Product `json:"product"`
}

type ProductHandler struct {
	catalog service.CatalogService
	gate    *middleware.Gate
}

func NewProductHandler(catalog service.CatalogService, gate *middleware.Gate) *ProductHandler {
	return &ProductHandler{catalog: catalog, gate: gate}
}

// RegisterRoutes binds the admin catalog under /products and the public
// read-only listing under /storefront/products.
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products", h.gate.Authenticate(), h.gate.RequireRole(model.RoleAdmin))
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}

	storefront := router.Group("/storefront/products")
	{
		storefront.GET("", h.ListProducts)
		storefront.GET("/:id", h.GetProduct)
	}
}

// ListProducts handles GET /products and GET /storefront/products
// @Summary      List products
// @Description  Returns the whole catalog ordered by id
// @Tags         products
// @Produce      json
// @Success      200  {array}   model.Product
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /products [get]
// @Router       /storefront/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /storefront/products/:id
// @Summary      Product detail
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  model.Product
// @Failure      404  {object}  response.Response
// @Router       /storefront/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, msgProductNotFound)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products
// @Summary      Create product
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        name         formData  string  true   "Name"
// @Param        description  formData  string  false  "Description"
// @Param        price        formData  number  true   "Price"
// @Param        quantity     formData  int     true   "Quantity"
// @Param        image        formData  file    false  "JPEG, PNG or GIF up to 2 MiB"
// @Success      201  {object}  ProductEnvelope
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, image, ok := bindProduct(c)
	if !ok {
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), req, image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ProductEnvelope{
		Response: response.Success("Product created successfully."),
		Product:  product,
	})
}

// UpdateProduct handles PUT /products/:id
// @Summary      Update product
// @Description  Without an image the current one is kept; a new image replaces it.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      int     true   "Product ID"
// @Param        name         formData  string  true   "Name"
// @Param        description  formData  string  false  "Description"
// @Param        price        formData  number  true   "Price"
// @Param        quantity     formData  int     true   "Quantity"
// @Param        image        formData  file    false  "JPEG, PNG or GIF up to 2 MiB"
// @Success      200  {object}  ProductEnvelope
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, msgProductNotFound)
	if !ok {
		return
	}
	req, image, ok := bindProduct(c)
	if !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, req, image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProductEnvelope{
		Response: response.Success("Product updated successfully."),
		Product:  product,
	})
}

// DeleteProduct handles DELETE /products/:id
// @Summary      Delete product
// @Description  Removes the product and its image
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, msgProductNotFound)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Product deleted successfully."))
}

// bindProduct reads the form fields and the optional image. At most one
// byte past the size limit is read so oversized files are still rejected
// by validation without buffering them whole.
func bindProduct(c *gin.Context) (service.ProductRequest, *storage.Upload, bool) {
	var req service.ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadPayload(c)
		return req, nil, false
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return req, nil, true
	}
	if err != nil {
		respondBadPayload(c)
		return req, nil, false
	}

	f, err := header.Open()
	if err != nil {
		respondBadPayload(c)
		return req, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		respondBadPayload(c)
		return req, nil, false
	}
	return req, &storage.Upload{Filename: header.Filename, Data: data}, true
}
