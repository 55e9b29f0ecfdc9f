package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// parseBody decodes the JSON body into req and validates it.
func parseBody(c *fiber.Ctx, req dto.Validatable) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewBadRequest(apperrors.CodeBadRequest, "invalid payload")
	}
	return dto.Validate(req)
}
