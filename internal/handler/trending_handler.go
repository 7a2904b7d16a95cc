package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/service"
	"github.com/noah-isme/gema-forum-api/internal/utils"
)

// TrendingHandler serves the most read threads.
type TrendingHandler struct {
	service service.TrendingService
	logger  zerolog.Logger
}

// NewTrendingHandler constructs a trending handler.
func NewTrendingHandler(service service.TrendingService, logger zerolog.Logger) *TrendingHandler {
	return &TrendingHandler{
		service: service,
		logger:  logger.With().Str("component", "trending_handler").Logger(),
	}
}

// Register binds trending routes.
func (h *TrendingHandler) Register(router fiber.Router) {
	router.Get("/trending", h.top)
}

// RegisterAdmin binds moderation routes. Callers must guard the router.
func (h *TrendingHandler) RegisterAdmin(router fiber.Router) {
	router.Delete("/trending", h.reset)
}

func (h *TrendingHandler) top(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	threads, err := h.service.Top(middleware.RequestContext(c), limit)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load trending threads")
	}

	if threads == nil {
		threads = []dto.TrendingThreadResponse{}
	}

	return utils.OK(c, threads, "trending threads", fiber.Map{
		"limit": h.service.Limit(limit),
		"count": len(threads),
	})
}

func (h *TrendingHandler) reset(c *fiber.Ctx) error {
	if err := h.service.Reset(middleware.RequestContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "failed to reset trending threads")
	}

	requestLogger(h.logger, c).Info().Msg("trending board reset")
	return c.SendStatus(fiber.StatusNoContent)
}
