package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	"shopadmin/internal/storage"
	appErr "shopadmin/pkg/errors"
	"shopadmin/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const productNamespace = "products"

const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductRequest carries the editable product fields. Price and quantity
// arrive as text from multipart forms, so they are validated before parsing.
type ProductRequest struct {
	Name        string      `form:"name" json:"name" validate:"required,max=255"`
	Description string      `form:"description" json:"description"`
	Price       json.Number `form:"price" json:"price" validate:"required,decimal,nonneg,money"`
	Quantity    json.Number `form:"quantity" json:"quantity" validate:"required,integer,int32,nonneg"`
}

// EventPublisher receives catalog change notifications.
type EventPublisher interface {
	Publish(event string, data any)
}

type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, req ProductRequest, image *storage.Upload) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, req ProductRequest, image *storage.Upload) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type catalogService struct {
	repo   repository.ProductRepository
	tx     repository.TransactionManager
	blobs  storage.BlobStore
	events EventPublisher
}

// NewCatalogService returns a CatalogService. events may be nil.
func NewCatalogService(repo repository.ProductRepository, tx repository.TransactionManager, blobs storage.BlobStore, events EventPublisher) CatalogService {
	return &catalogService{repo: repo, tx: tx, blobs: blobs, events: events}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErr.Internal(err, msgInternal)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErr.NotFound(msgProductNotFound)
	}
	if err != nil {
		return nil, appErr.Internal(err, msgInternal)
	}
	return product, nil
}

// CreateProduct stores the image before the record. If the insert fails the
// stored image is removed again.
func (s *catalogService) CreateProduct(ctx context.Context, req ProductRequest, image *storage.Upload) (*model.Product, error) {
	if fields := validateProduct(req, image); fields != nil {
		return nil, appErr.Validation(fields)
	}

	product := &model.Product{}
	applyProductFields(product, req)

	if image != nil {
		asset, err := s.blobs.Put(ctx, productNamespace, image)
		if err != nil {
			return nil, appErr.Internal(err, msgInternal)
		}
		product.SetImage(asset.Key, asset.URL)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if product.HasImage() {
			s.discardBlob(ctx, *product.ImageKey)
		}
		return nil, appErr.Internal(err, msgInternal)
	}

	s.publish(EventProductCreated, product)
	return product, nil
}

// UpdateProduct replaces the image delete-then-store. If storing the new
// image fails the record keeps no image reference rather than one to a
// deleted asset.
func (s *catalogService) UpdateProduct(ctx context.Context, id uint, req ProductRequest, image *storage.Upload) (*model.Product, error) {
	var (
		updated    *model.Product
		storeErr   error
		oldDeleted bool
		newKey     string
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.FindByIDForUpdate(txCtx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.NotFound(msgProductNotFound)
		}
		if err != nil {
			return appErr.Internal(err, msgInternal)
		}

		if fields := validateProduct(req, image); fields != nil {
			return appErr.Validation(fields)
		}
		applyProductFields(product, req)

		if image != nil {
			if product.HasImage() {
				if err := s.blobs.Delete(txCtx, *product.ImageKey); err != nil {
					return appErr.Internal(err, msgInternal)
				}
				oldDeleted = true
				product.ClearImage()
			}

			asset, err := s.blobs.Put(txCtx, productNamespace, image)
			if err != nil {
				storeErr = appErr.Internal(err, msgInternal)
				if oldDeleted {
					if err := s.repo.ClearImage(txCtx, product.ID); err != nil {
						return appErr.Internal(err, msgInternal)
					}
				}
				// commit only the cleared reference
				return nil
			}
			newKey = asset.Key
			product.SetImage(asset.Key, asset.URL)
		}

		if err := s.repo.Update(txCtx, product); err != nil {
			return appErr.Internal(err, msgInternal)
		}
		updated = product
		return nil
	})
	if err != nil {
		if newKey != "" {
			s.discardBlob(ctx, newKey)
		}
		if oldDeleted {
			s.detachImage(ctx, id)
		}
		return nil, err
	}
	if storeErr != nil {
		return nil, storeErr
	}

	s.publish(EventProductUpdated, updated)
	return updated, nil
}

// DeleteProduct removes the image, then the record. Products without an
// image never reach the blob store.
func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	var imageDeleted bool

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.FindByIDForUpdate(txCtx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.NotFound(msgProductNotFound)
		}
		if err != nil {
			return appErr.Internal(err, msgInternal)
		}

		if product.HasImage() {
			if err := s.blobs.Delete(txCtx, *product.ImageKey); err != nil {
				return appErr.Internal(err, msgInternal)
			}
			imageDeleted = true
		}

		if err := s.repo.Delete(txCtx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErr.NotFound(msgProductNotFound)
			}
			return appErr.Internal(err, msgInternal)
		}
		return nil
	})
	if err != nil {
		if imageDeleted {
			s.detachImage(ctx, id)
		}
		return err
	}

	s.publish(EventProductDeleted, map[string]uint{"id": id})
	return nil
}

// discardBlob removes an asset no record refers to.
func (s *catalogService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.L().Error("failed to remove orphaned product image", zap.String("key", key), zap.Error(err))
	}
}

// detachImage clears the image reference of a record whose asset is gone.
func (s *catalogService) detachImage(ctx context.Context, id uint) {
	if err := s.repo.ClearImage(context.WithoutCancel(ctx), id); err != nil {
		logger.L().Error("product references a deleted image", zap.Uint("product_id", id), zap.Error(err))
	}
}

func (s *catalogService) publish(event string, data any) {
	if s.events != nil {
		s.events.Publish(event, data)
	}
}

func validateProduct(req ProductRequest, image *storage.Upload) map[string]string {
	fields := validateStruct(req)
	if msg := validateImage(image); msg != "" {
		fields = mergeFields(fields, map[string]string{"image": msg})
	}
	return fields
}

func validateImage(image *storage.Upload) string {
	if image == nil {
		return ""
	}
	if image.Size() == 0 {
		return "The image failed to upload."
	}
	if image.Size() > storage.MaxImageSize {
		return "The image may not be greater than 2048 kilobytes."
	}
	if _, _, ok := storage.DetectImage(image.Data); !ok {
		return "The image must be a file of type: jpeg, png, jpg, gif."
	}
	return ""
}

// applyProductFields copies a validated request onto product.
func applyProductFields(product *model.Product, req ProductRequest) {
	product.Name = req.Name
	product.Description = req.Description
	product.Price = decimal.RequireFromString(req.Price.String())
	qty, _ := strconv.Atoi(req.Quantity.String())
	product.Quantity = qty
}
