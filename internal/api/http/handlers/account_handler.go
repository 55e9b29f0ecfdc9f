package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
)

// AccountHandler exposes self-service account endpoints.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register handles POST /api/register.
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Login:     req.Login,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		ImageURL:  req.ImageURL,
		LangKey:   req.LangKey,
	}); err != nil {
		return err
	}
	return c.SendStatus(http.StatusCreated)
}

// Activate handles GET /api/activate?key=.
func (h *AccountHandler) Activate(c *fiber.Ctx) error {
	if _, err := h.accounts.Activate(c.UserContext(), c.Query("key")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}

// Account handles GET /api/account.
func (h *AccountHandler) Account(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.EntryPoint(c)
	}
	user, err := h.accounts.Account(c.UserContext(), identity.Username)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// SaveAccount handles POST /api/account.
func (h *AccountHandler) SaveAccount(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.EntryPoint(c)
	}
	var req dto.AccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateAccount(c.UserContext(), identity.Username, service.AccountInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		ImageURL:  req.ImageURL,
		LangKey:   req.LangKey,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// ChangePassword handles POST /api/account/change-password.
func (h *AccountHandler) ChangePassword(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.EntryPoint(c)
	}
	var req dto.PasswordChangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.UserContext(), identity.Username, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}

// RequestPasswordReset handles POST /api/account/reset-password/init.
func (h *AccountHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.ResetInitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.accounts.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}

// FinishPasswordReset handles POST /api/account/reset-password/finish.
func (h *AccountHandler) FinishPasswordReset(c *fiber.Ctx) error {
	var req dto.KeyAndPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.accounts.CompletePasswordReset(c.UserContext(), req.NewPassword, req.Key); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}
