package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/service"
	"github.com/noah-isme/gema-forum-api/internal/utils"
)

// ThreadHandler provides HTTP endpoints for forum threads.
type ThreadHandler struct {
	service service.ThreadService
	logger  zerolog.Logger
}

// NewThreadHandler constructs a handler instance.
func NewThreadHandler(service service.ThreadService, logger zerolog.Logger) *ThreadHandler {
	return &ThreadHandler{
		service: service,
		logger:  logger.With().Str("component", "thread_handler").Logger(),
	}
}

// Register binds the thread routes. requireUser guards the mutating endpoints.
func (h *ThreadHandler) Register(router fiber.Router, requireUser fiber.Handler) {
	requireUser = orNext(requireUser)

	router.Get("/threads", h.list)
	router.Post("/threads", requireUser, h.create)
	router.Get("/threads/:channel", h.listByChannel)
	router.Get("/threads/:channel/:thread", h.show)
	router.Delete("/threads/:channel/:thread", requireUser, h.delete)
}

func (h *ThreadHandler) list(c *fiber.Ctx) error {
	return h.respondList(c, queryString(c, "channel"))
}

func (h *ThreadHandler) listByChannel(c *fiber.Ctx) error {
	channel := c.Params("channel")
	return h.respondList(c, &channel)
}

func (h *ThreadHandler) respondList(c *fiber.Ctx, channel *string) error {
	query := dto.ThreadListQuery{
		Channel:    channel,
		By:         queryString(c, "by"),
		Popular:    queryFlag(c, "popular"),
		Unanswered: queryFlag(c, "unanswered"),
	}

	threads, err := h.service.List(middleware.RequestContext(c), query)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list threads")
	}

	return utils.SendList(c, "threads", threads)
}

func (h *ThreadHandler) show(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "thread")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "thread not found")
	}

	thread, err := h.service.Show(middleware.RequestContext(c), c.Params("channel"), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load thread")
	}

	return utils.SendSuccess(c, "thread", thread)
}

func (h *ThreadHandler) create(c *fiber.Ctx) error {
	var payload dto.ThreadCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	thread, err := h.service.Create(middleware.RequestContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create thread")
	}

	c.Location(thread.Path)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "thread created", thread)
}

func (h *ThreadHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "thread")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "thread not found")
	}

	if err := h.service.Delete(middleware.RequestContext(c), c.Params("channel"), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete thread")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
