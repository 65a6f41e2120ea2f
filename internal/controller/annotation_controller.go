package controller

import (
	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/pkg/serverutils"
	"github.com/u9401066/medvision-mcp/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAnnotationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Edit(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type annotationController struct {
	annotationService service.IAnnotationService
}

func NewAnnotationController(annotationService service.IAnnotationService) IAnnotationController {
	return &annotationController{
		annotationService: annotationService,
	}
}

func (c *annotationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/annotation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Put(":id", c.Edit)
	h.Get("", c.List)
}

func (c *annotationController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateAnnotationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.annotationService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create annotation", res))
}

func (c *annotationController) Edit(ctx *fiber.Ctx) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.EditAnnotationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.annotationService.Edit(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success edit annotation", res))
}

func (c *annotationController) List(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Query("session_id"))
	if err != nil {
		return apperror.Validation("invalid session_id query parameter")
	}

	var imageId *uuid.UUID
	if raw := ctx.Query("image_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperror.Validation("invalid image_id query parameter")
		}
		imageId = &id
	}

	includeSuperseded := ctx.QueryBool("include_superseded", false)

	res, err := c.annotationService.List(ctx.Context(), sessionId, imageId, includeSuperseded)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list annotations", res))
}
