package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/observability"
)

// ManagementHandler exposes runtime metrics and the log level.
type ManagementHandler struct {
	metrics *observability.Metrics
	level   zap.AtomicLevel
	logger  *zap.Logger
}

// NewManagementHandler constructs handler.
func NewManagementHandler(metrics *observability.Metrics, level zap.AtomicLevel, logger *zap.Logger) *ManagementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagementHandler{metrics: metrics, level: level, logger: logger}
}

// Metrics handles GET /management/metrics.
func (h *ManagementHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

// Level handles GET /management/loggers.
func (h *ManagementHandler) Level(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"level": h.level.Level().String()})
}

// SetLevel handles PUT /management/loggers.
func (h *ManagementHandler) SetLevel(c *fiber.Ctx) error {
	var req dto.LoggerLevelRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.level.UnmarshalText([]byte(req.Level)); err != nil {
		return dto.ValidationError(err)
	}
	h.logger.Info("log level changed", zap.String("level", h.level.Level().String()))
	return c.JSON(fiber.Map{"level": h.level.Level().String()})
}
