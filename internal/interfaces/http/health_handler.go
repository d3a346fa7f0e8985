package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/pkg/logger"
)

const healthTimeout = 2 * time.Second

// Pinger verifica la conexión con el almacenamiento (pgxpool.Pool lo implementa).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responde el estado del servicio.
type HealthHandler struct {
	service string
	db      Pinger
}

// NewHealthHandler construye el handler. db puede ser nil.
func NewHealthHandler(service string, db Pinger) *HealthHandler {
	return &HealthHandler{service: service, db: db}
}

// Check godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("health: base de datos no responde")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "service": h.service})
		}
	}
	return c.JSON(fiber.Map{"status": "ok", "service": h.service})
}
