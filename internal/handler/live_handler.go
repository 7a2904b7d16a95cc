package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/service"
	"github.com/noah-isme/gema-forum-api/internal/utils"
)

const (
	livePingInterval = 30 * time.Second
	// liveDedupeWindow is how many delivered reply ids a connection remembers.
	liveDedupeWindow = 256
)

// LiveReplyMessage is the frame pushed to websocket subscribers.
type LiveReplyMessage struct {
	Type  string            `json:"type"`
	Reply dto.ReplyResponse `json:"reply"`
}

// LiveHandler streams new replies of a thread over a websocket.
type LiveHandler struct {
	threads service.ThreadService
	feed    service.ReplyFeed
	logger  zerolog.Logger
}

// NewLiveHandler constructs a live handler.
func NewLiveHandler(threads service.ThreadService, feed service.ReplyFeed, logger zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		threads: threads,
		feed:    feed,
		logger:  logger.With().Str("component", "live_handler").Logger(),
	}
}

// Register binds the websocket route.
func (h *LiveHandler) Register(router fiber.Router) {
	router.Get("/threads/:channel/:thread/live", h.upgrade, websocket.New(h.serve))
}

func (h *LiveHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id, err := parseUintParamValue(c, "thread")
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, "thread not found")
	}

	thread, err := h.threads.Find(middleware.RequestContext(c), c.Params("channel"), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load thread")
	}

	c.Locals("thread_id", thread.ID)
	return c.Next()
}

func (h *LiveHandler) serve(conn *websocket.Conn) {
	threadID, _ := conn.Locals("thread_id").(uint)
	correlation, _ := conn.Locals("correlation_id").(string)
	logger := h.logger.With().Uint("thread_id", threadID).Str("correlation_id", correlation).Logger()

	replies, cleanup := h.feed.Subscribe(threadID)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info().Msg("live subscriber connected")
	defer logger.Info().Msg("live subscriber disconnected")

	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	seen := newRecentReplies(liveDedupeWindow)
	for {
		select {
		case reply, ok := <-replies:
			if !ok {
				return
			}
			if !seen.add(reply.ID) {
				continue
			}
			if err := conn.WriteJSON(LiveReplyMessage{Type: "reply", Reply: reply}); err != nil {
				logger.Debug().Err(err).Msg("live write loop terminated")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("live ping failed")
				return
			}
		case <-done:
			return
		}
	}
}

// recentReplies is a fixed-size set of the latest reply ids; the oldest id is evicted first.
type recentReplies struct {
	ids  map[uint]struct{}
	ring []uint
	next int
}

func newRecentReplies(size int) *recentReplies {
	if size <= 0 {
		size = 1
	}
	return &recentReplies{
		ids:  make(map[uint]struct{}, size),
		ring: make([]uint, 0, size),
	}
}

// add reports whether id was not seen recently and remembers it.
func (r *recentReplies) add(id uint) bool {
	if _, ok := r.ids[id]; ok {
		return false
	}

	if len(r.ring) < cap(r.ring) {
		r.ring = append(r.ring, id)
	} else {
		delete(r.ids, r.ring[r.next])
		r.ring[r.next] = id
		r.next = (r.next + 1) % len(r.ring)
	}
	r.ids[id] = struct{}{}
	return true
}
