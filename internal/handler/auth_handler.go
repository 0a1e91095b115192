package handler

import (
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/model"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LoginEnvelope struct {
	response.Response
	User  service.UserResponse `json:"user"`
	Role  model.Role           `json:"role"`
	Token string               `json:"token"`
}

type UserEnvelope struct {
	response.Response
	User *service.UserResponse `json:"user"`
}

type MeEnvelope struct {
	response.Response
	User *service.UserResponse `json:"user"`
	Role model.Role            `json:"role"`
}

type AuthHandler struct {
	authService service.AuthService
	gate        *middleware.Gate
}

func NewAuthHandler(authService service.AuthService, gate *middleware.Gate) *AuthHandler {
	return &AuthHandler{authService: authService, gate: gate}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/register", h.Register)
	router.GET("/me", h.gate.Authenticate(), h.Me)
}

// Login handles POST /login
// @Summary      Login
// @Description  Authenticates by email and password and returns a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  LoginEnvelope
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidCredentials)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginEnvelope{
		Response: response.Success("Login successful."),
		User:     res.User,
		Role:     res.Role,
		Token:    res.Token,
	})
}

// Register handles POST /register
// @Summary      Register
// @Description  Creates a user account. The role is always "user".
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      200      {object}  UserEnvelope
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{
		Response: response.Success("Registration successful."),
		User:     user,
	})
}

// Me handles GET /me
// @Summary      Current user
// @Description  Returns the caller's current record so clients can re-check a cached session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MeEnvelope
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, service.ErrUnauthenticated)
		return
	}

	user, err := h.authService.Me(c.Request.Context(), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MeEnvelope{
		Response: response.Response{Status: response.StatusSuccess},
		User:     user,
		Role:     user.Role,
	})
}
