package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// UserJWTHandler issues session tokens.
type UserJWTHandler struct {
	accounts *service.AccountService
	tokens   *auth.TokenProvider
	logger   *zap.Logger
}

// NewUserJWTHandler constructs handler.
func NewUserJWTHandler(accounts *service.AccountService, tokens *auth.TokenProvider, logger *zap.Logger) *UserJWTHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserJWTHandler{accounts: accounts, tokens: tokens, logger: logger}
}

// Authorize handles POST /api/authenticate. The token is returned in the body
// and echoed in the Authorization header.
func (h *UserJWTHandler) Authorize(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest(apperrors.CodeBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewUnauthorizedCode(service.CodeBadCredentials, "bad credentials")
	}

	identity, err := h.accounts.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		h.logger.Debug("authentication failed", zap.String("username", req.Username), zap.Error(err))
		return err
	}

	token, err := h.tokens.CreateToken(identity, req.RememberMe)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	auth.SetIdentity(c, identity)
	c.Set(auth.AuthorizationHeader, auth.BearerPrefix+token)
	return c.JSON(dto.TokenResponse{IDToken: token})
}

// IsAuthenticated handles GET /api/authenticate. It returns the login of the
// caller or an empty body.
func (h *UserJWTHandler) IsAuthenticated(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return c.SendString("")
	}
	return c.SendString(identity.Username)
}
