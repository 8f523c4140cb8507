package controller

import (
	"errors"

	"ai-act-intake-be/internal/pkg/serverutils"
	"ai-act-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IIntakeController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	TerminateSession(ctx *fiber.Ctx) error
	GetStats(ctx *fiber.Ctx) error
}

type intakeController struct {
	service service.IIntakeService
}

func NewIntakeController(service service.IIntakeService) IIntakeController {
	return &intakeController{service: service}
}

func (c *intakeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/intake/v1")
	h.Get("/ws", c.ServeWs)
	h.Get("/sessions", c.GetAllSessions)
	h.Get("/sessions/:id", c.GetSession)
	h.Delete("/sessions/:id", c.TerminateSession)
	h.Get("/stats", c.GetStats)
}

// ServeWs upgrades the connection and runs one intake session on it.
func (c *intakeController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(c.service.Serve)(ctx)
}

func (c *intakeController) GetAllSessions(ctx *fiber.Ctx) error {
	res := c.service.GetAll(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Active sessions", res))
}

func (c *intakeController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), ctx.Params("id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session", res))
}

func (c *intakeController) TerminateSession(ctx *fiber.Ctx) error {
	res := c.service.Terminate(ctx.UserContext(), ctx.Params("id"))
	if !res.Local {
		// Another instance may still hold it; the termination was broadcast.
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.NewResponse(true, fiber.StatusAccepted, "Termination requested", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Session terminated", res))
}

func (c *intakeController) GetStats(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Intake stats", c.service.Stats()))
}
