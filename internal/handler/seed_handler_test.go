package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/handler"
	"github.com/noah-isme/gema-forum-api/internal/service"
)

type mockSeedService struct {
	channelsErr  error
	usersErr     error
	lastToken    string
	lastChannels []dto.SeedChannel
	lastUsers    []dto.SeedUser
	affected     int64
}

func (m *mockSeedService) SeedChannels(_ context.Context, token string, items []dto.SeedChannel) (int64, error) {
	m.lastToken = token
	m.lastChannels = items
	if m.channelsErr != nil {
		return 0, m.channelsErr
	}
	return m.affected, nil
}

func (m *mockSeedService) SeedUsers(_ context.Context, token string, items []dto.SeedUser) (int64, error) {
	m.lastToken = token
	m.lastUsers = items
	if m.usersErr != nil {
		return 0, m.usersErr
	}
	return m.affected, nil
}

func TestSeedHandler_ChannelsSuccess(t *testing.T) {
	svc := &mockSeedService{affected: 2}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

	payload := map[string]interface{}{"items": []dto.SeedChannel{{Slug: "php", Name: "PHP"}, {Slug: "go", Name: "Go"}}}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/channels", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Seed-Token", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response envelope[struct {
		Affected int64 `json:"affected"`
	}]
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, int64(2), response.Data.Affected)
	require.Equal(t, "secret", svc.lastToken)
	require.Len(t, svc.lastChannels, 2)
}

func TestSeedHandler_UsersErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{name: "disabled", err: service.ErrSeedDisabled, statusCode: fiber.StatusForbidden, message: "seeding disabled"},
		{name: "unauthorized", err: service.ErrSeedUnauthorized, statusCode: fiber.StatusForbidden, message: "invalid token"},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError, message: "seed operation failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSeedService{usersErr: tc.err}
			app := fiber.New()
			handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

			body, err := json.Marshal(map[string]interface{}{"items": []dto.SeedUser{{Name: "john"}}})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/users", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Seed-Token", "secret")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			var response envelope[interface{}]
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
			require.Equal(t, tc.message, response.Message)
		})
	}
}

func TestSeedHandler_InvalidPayload(t *testing.T) {
	svc := &mockSeedService{}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/channels", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Nil(t, svc.lastChannels)
}
