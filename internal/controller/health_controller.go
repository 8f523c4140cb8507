package controller

import (
	"ai-act-intake-be/internal/dto"
	"ai-act-intake-be/internal/pkg/serverutils"
	"ai-act-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Counter is anything that knows how many live things it holds.
type Counter interface {
	Count() int
}

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	GetHealth(ctx *fiber.Ctx) error
}

type healthController struct {
	index       service.IIndexService
	sessions    Counter
	connections Counter
}

func NewHealthController(index service.IIndexService, sessions, connections Counter) IHealthController {
	return &healthController{index: index, sessions: sessions, connections: connections}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.GetHealth)
}

// GetHealth reports 503 while the index cannot serve queries.
func (c *healthController) GetHealth(ctx *fiber.Ctx) error {
	st := c.index.Status(ctx.UserContext())
	res := dto.HealthResponse{
		Status:         "ok",
		IndexReady:     st.Ready,
		ActiveSessions: c.sessions.Count(),
		Connections:    c.connections.Count(),
	}
	if !st.Ready {
		res.Status = "degraded"
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.NewResponse(false, fiber.StatusServiceUnavailable, "Index not ready", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Healthy", res))
}
