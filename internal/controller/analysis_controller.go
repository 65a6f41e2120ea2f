package controller

import (
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/pkg/serverutils"
	"github.com/u9401066/medvision-mcp/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	AnalyzeRegion(ctx *fiber.Ctx) error
	AnalyzeImage(ctx *fiber.Ctx) error
}

type analysisController struct {
	analysisService service.IAnalysisService
}

func NewAnalysisController(analysisService service.IAnalysisService) IAnalysisController {
	return &analysisController{
		analysisService: analysisService,
	}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analysis/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("region", c.AnalyzeRegion)
	h.Post("image", c.AnalyzeImage)
}

func (c *analysisController) AnalyzeRegion(ctx *fiber.Ctx) error {
	var req dto.AnalyzeRegionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.analysisService.AnalyzeRegion(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success analyze region", res))
}

func (c *analysisController) AnalyzeImage(ctx *fiber.Ctx) error {
	var req dto.AnalyzeImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.analysisService.AnalyzeImage(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success analyze image", res))
}
