package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/service"
	"github.com/noah-isme/gema-forum-api/internal/utils"
)

// ReplyHandler provides HTTP endpoints for thread replies.
type ReplyHandler struct {
	service service.ReplyService
	logger  zerolog.Logger
}

// NewReplyHandler constructs a handler instance.
func NewReplyHandler(service service.ReplyService, logger zerolog.Logger) *ReplyHandler {
	return &ReplyHandler{
		service: service,
		logger:  logger.With().Str("component", "reply_handler").Logger(),
	}
}

// Register binds the reply routes. limiter throttles reply creation and runs after requireUser.
func (h *ReplyHandler) Register(router fiber.Router, requireUser, limiter fiber.Handler) {
	requireUser = orNext(requireUser)
	limiter = orNext(limiter)

	router.Get("/threads/:channel/:thread/replies", h.list)
	router.Post("/threads/:channel/:thread/replies", requireUser, limiter, h.create)
	router.Delete("/replies/:id", requireUser, h.delete)
}

func (h *ReplyHandler) list(c *fiber.Ctx) error {
	threadID, err := parseUintParamValue(c, "thread")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "thread not found")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	result, err := h.service.List(middleware.RequestContext(c), c.Params("channel"), threadID, page, pageSize)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list replies")
	}

	meta := result.Pagination
	return utils.SendPage(c, "replies", result.Items, meta.TotalItems, meta.Page, meta.PageSize, meta.TotalPages)
}

func (h *ReplyHandler) create(c *fiber.Ctx) error {
	threadID, err := parseUintParamValue(c, "thread")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "thread not found")
	}

	var payload dto.ReplyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	reply, err := h.service.Create(middleware.RequestContext(c), c.Params("channel"), threadID, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create reply")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reply created", reply)
}

func (h *ReplyHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "reply not found")
	}

	if err := h.service.Delete(middleware.RequestContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete reply")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
