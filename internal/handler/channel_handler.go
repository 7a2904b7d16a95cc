package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/service"
	"github.com/noah-isme/gema-forum-api/internal/utils"
)

// ChannelHandler serves the channel directory.
type ChannelHandler struct {
	service service.ChannelService
	logger  zerolog.Logger
}

// NewChannelHandler constructs a channel handler.
func NewChannelHandler(service service.ChannelService, logger zerolog.Logger) *ChannelHandler {
	return &ChannelHandler{
		service: service,
		logger:  logger.With().Str("component", "channel_handler").Logger(),
	}
}

// Register binds channel routes.
func (h *ChannelHandler) Register(router fiber.Router) {
	router.Get("/channels", h.list)
}

func (h *ChannelHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(middleware.RequestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list channels")
	}

	c.Set("X-Cache-Hit", strconv.FormatBool(result.CacheHit))
	return utils.SendList(c, "channels", result.Items)
}
