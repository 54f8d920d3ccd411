package handler

import (
	"net/http"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	svc   service.AuthService
	guard *middleware.SessionGuard
}

func NewAuthHandler(svc service.AuthService, guard *middleware.SessionGuard) *AuthHandler {
	return &AuthHandler{svc: svc, guard: guard}
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group) {
	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.Me, h.guard.Require())
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Register(c.Request().Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		return mapError(err)
	}
	return h.signIn(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Login(c.Request().Context(), req.Username, req.Password, models.Role(req.Role))
	if err != nil {
		return mapError(err)
	}
	return h.signIn(c, http.StatusOK, user)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.guard.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	who := middleware.IdentityFrom(c)
	return c.JSON(http.StatusOK, dto.IdentityResponse{UserID: who.UserID, Role: who.Role})
}

// signIn starts a fresh session for user.
func (h *AuthHandler) signIn(c echo.Context, status int, user *models.User) error {
	who := models.Identity{SessionID: uuid.NewString(), Role: user.Role, UserID: user.ID}
	if err := h.guard.Start(c, who); err != nil {
		return err
	}
	return c.JSON(status, dto.IdentityResponse{UserID: user.ID, Role: user.Role})
}
