package controller

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/canvas"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/pkg/logger"
	"github.com/u9401066/medvision-mcp/internal/pkg/serverutils"
	"github.com/u9401066/medvision-mcp/internal/service"
	internalWS "github.com/u9401066/medvision-mcp/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type ICanvasController interface {
	RegisterRoutes(r fiber.Router)
	RegisterWebsocket(app *fiber.App)
	Push(ctx *fiber.Ctx) error
	Sync(ctx *fiber.Ctx) error
}

type canvasController struct {
	canvasService service.ICanvasService
	coordinator   *canvas.Coordinator
	hub           *internalWS.Hub
	logger        logger.ILogger
}

func NewCanvasController(
	canvasService service.ICanvasService,
	coordinator *canvas.Coordinator,
	hub *internalWS.Hub,
	log logger.ILogger,
) ICanvasController {
	return &canvasController{
		canvasService: canvasService,
		coordinator:   coordinator,
		hub:           hub,
		logger:        log,
	}
}

func (c *canvasController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/canvas/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("push", c.Push)
	h.Post("sync", c.Sync)
}

// RegisterWebsocket mounts the workspace socket outside the /api group so the
// upgrade path stays clear of the JSON error middleware.
func (c *canvasController) RegisterWebsocket(app *fiber.App) {
	app.Get("/ws/:session_id", c.serveWorkspace)
}

func (c *canvasController) Push(ctx *fiber.Ctx) error {
	var req dto.PushToCanvasRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.canvasService.Push(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success push to canvas", res))
}

func (c *canvasController) Sync(ctx *fiber.Ctx) error {
	var req dto.SyncCanvasStateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.canvasService.Sync(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success sync canvas state", res))
}

// flushOnAttach drains whatever queued up while no workspace was connected.
// Runs off the hub loop so a slow flush cannot stall other registrations.
func (c *canvasController) flushOnAttach(sessionID uuid.UUID) {
	go func() {
		if err := c.coordinator.Flush(context.Background(), sessionID); err != nil {
			c.logger.Warn("CanvasController", "Flush on attach failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

func (c *canvasController) serveWorkspace(ctx *fiber.Ctx) error {
	sessionID, err := uuid.Parse(ctx.Params("session_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("CanvasController", "Starting workspace session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(c.hub, conn, sessionID, c.flushOnAttach, c.coordinator.OnDisconnect)
		c.logger.Info("CanvasController", "Workspace session ended", map[string]interface{}{"session_id": sessionID})
	})(ctx)
}
