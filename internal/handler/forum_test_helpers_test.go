package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-forum-api/internal/config"
	"github.com/noah-isme/gema-forum-api/internal/database"
	"github.com/noah-isme/gema-forum-api/internal/handler"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/models"
	"github.com/noah-isme/gema-forum-api/internal/observability"
	"github.com/noah-isme/gema-forum-api/internal/repository"
	"github.com/noah-isme/gema-forum-api/internal/router"
	"github.com/noah-isme/gema-forum-api/internal/service"
)

const testSecret = "test-secret"

type forumServer struct {
	app   *fiber.App
	db    *gorm.DB
	redis *miniredis.Miniredis
	feed  service.ReplyFeed

	john, jane, admin models.User
	php, golang       models.Channel
}

type serverOptions struct {
	repliesPerMinute int
}

func newForumServer(t *testing.T, opts serverOptions) *forumServer {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	if opts.repliesPerMinute == 0 {
		opts.repliesPerMinute = 100
	}

	cfg := config.Config{
		AppName:          "forum-test",
		AppEnv:           "test",
		JWTSecret:        testSecret,
		ChannelsCacheTTL: time.Minute,
		RepliesPageSize:  20,
		RepliesPerMinute: opts.repliesPerMinute,
		TrendingLimit:    5,
		SeedEnabled:      true,
		SeedToken:        "seed-token",
	}

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	threadRepo := repository.NewThreadRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	userRepo := repository.NewUserRepository(db)

	channels := service.NewChannelService(channelRepo, redisClient, cfg.ChannelsCacheTTL, logger)
	trending := service.NewTrendingService(redisClient, cfg.TrendingLimit, logger)
	feed := service.NewReplyFeed(nil, nil, "", logger)
	threads := service.NewThreadService(threadRepo, channelRepo, userRepo, trending, validate, logger)
	replies := service.NewReplyService(replyRepo, threadRepo, userRepo, feed, cfg.RepliesPageSize, validate, logger)
	seeds := service.NewSeedService(channelRepo, userRepo, channels, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ThreadHandler:   handler.NewThreadHandler(threads, logger),
		ReplyHandler:    handler.NewReplyHandler(replies, logger),
		ChannelHandler:  handler.NewChannelHandler(channels, logger),
		TrendingHandler: handler.NewTrendingHandler(trending, logger),
		LiveHandler:     handler.NewLiveHandler(threads, feed, logger),
		SeedHandler:     handler.NewSeedHandler(seeds, logger),
		JWTMiddleware:   middleware.JWTOptional(cfg.JWTSecret),
		ReplyLimiter:    middleware.RateLimit("replies", cfg.RepliesPerMinute, time.Minute),
		MetricsHandler:  observability.MetricsHandler(),
	})

	srv := &forumServer{
		app:    app,
		db:     db,
		redis:  mr,
		feed:   feed,
		john:   models.User{Name: "john"},
		jane:   models.User{Name: "jane"},
		admin:  models.User{Name: "root"},
		php:    models.Channel{Slug: "php", Name: "PHP"},
		golang: models.Channel{Slug: "go", Name: "Go"},
	}
	for _, user := range []*models.User{&srv.john, &srv.jane, &srv.admin} {
		require.NoError(t, db.Create(user).Error)
	}
	for _, channel := range []*models.Channel{&srv.php, &srv.golang} {
		require.NoError(t, db.Create(channel).Error)
	}
	return srv
}

func (s *forumServer) thread(t *testing.T, title string, channel models.Channel, owner models.User, replies int) models.Thread {
	t.Helper()
	thread := models.Thread{
		Title:        title,
		Body:         "body of " + title,
		ChannelID:    channel.ID,
		UserID:       owner.ID,
		RepliesCount: replies,
	}
	require.NoError(t, s.db.Omit("Channel", "Owner").Create(&thread).Error)
	return thread
}

func (s *forumServer) reply(t *testing.T, thread models.Thread, owner models.User, body string) {
	t.Helper()
	require.NoError(t, repository.NewReplyRepository(s.db).Create(context.Background(), &models.Reply{ThreadID: thread.ID, UserID: owner.ID, Body: body}))
}

func tokenFor(t *testing.T, user models.User, role string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, user.ID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *forumServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return s.send(t, method, path, body, token, nil)
}

func (s *forumServer) seed(t *testing.T, path string, body interface{}, seedToken string) *http.Response {
	t.Helper()
	return s.send(t, http.MethodPost, path, body, "", map[string]string{"X-Seed-Token": seedToken})
}

func (s *forumServer) send(t *testing.T, method, path string, body interface{}, token string, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope[T any] struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    T                      `json:"data"`
	Details map[string]string      `json:"details"`
	Meta    map[string]interface{} `json:"meta"`
}

type threadPayload struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Path         string `json:"path"`
	RepliesCount int    `json:"replies_count"`
	Visits       int    `json:"visits"`
	Channel      struct {
		Slug string `json:"slug"`
	} `json:"channel"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func listTitles(t *testing.T, resp *http.Response) []string {
	t.Helper()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var payload envelope[[]threadPayload]
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)
	titles := make([]string, 0, len(payload.Data))
	for _, thread := range payload.Data {
		titles = append(titles, thread.Title)
	}
	return titles
}
