package controller

import (
	"github.com/u9401066/medvision-mcp/internal/pkg/serverutils"
	"github.com/u9401066/medvision-mcp/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IEngineController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
}

type engineController struct {
	analysisService service.IAnalysisService
}

func NewEngineController(analysisService service.IAnalysisService) IEngineController {
	return &engineController{
		analysisService: analysisService,
	}
}

func (c *engineController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/engine/v1")
	h.Get("status", c.Status)
}

func (c *engineController) Status(ctx *fiber.Ctx) error {
	res, err := c.analysisService.EngineStatus(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get engine status", res))
}
