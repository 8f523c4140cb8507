package controller

import (
	"errors"

	"ai-act-intake-be/internal/dto"
	"ai-act-intake-be/internal/pkg/serverutils"
	"ai-act-intake-be/internal/service"
	"ai-act-intake-be/pkg/rag/index"

	"github.com/gofiber/fiber/v2"
)

type IIndexController interface {
	RegisterRoutes(r fiber.Router)
	GetStatus(ctx *fiber.Ctx) error
	Rebuild(ctx *fiber.Ctx) error
}

type indexController struct {
	service service.IIndexService
}

func NewIndexController(service service.IIndexService) IIndexController {
	return &indexController{service: service}
}

func (c *indexController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/index/v1")
	h.Get("/status", c.GetStatus)
	h.Post("/rebuild", c.Rebuild)
}

func (c *indexController) GetStatus(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Index status", c.service.Status(ctx.UserContext())))
}

func (c *indexController) Rebuild(ctx *fiber.Ctx) error {
	var req dto.RebuildIndexRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RequestRebuild(ctx.UserContext(), &req)
	if errors.Is(err, index.ErrRebuildBusy) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.NewResponse(true, fiber.StatusAccepted, "Rebuild queued", res))
}
