package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/models"
	"github.com/noah-isme/gema-forum-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// ChannelCacheInvalidator drops cached channel listings after the directory changes.
type ChannelCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// SeedService upserts forum reference data.
type SeedService interface {
	SeedChannels(ctx context.Context, token string, items []dto.SeedChannel) (int64, error)
	SeedUsers(ctx context.Context, token string, items []dto.SeedUser) (int64, error)
}

type seedService struct {
	channels  repository.ChannelRepository
	users     repository.UserRepository
	cache     ChannelCacheInvalidator
	validator *validator.Validate
	enabled   bool
	trusted   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service. cache may be nil.
func NewSeedService(channels repository.ChannelRepository, users repository.UserRepository, cache ChannelCacheInvalidator, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		channels:  channels,
		users:     users,
		cache:     cache,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

// NewTrustedSeedService constructs a seeder for operators that already hold database access,
// such as the CLI. It skips the enabled flag and token checks.
func NewTrustedSeedService(channels repository.ChannelRepository, users repository.UserRepository, cache ChannelCacheInvalidator, validate *validator.Validate, logger zerolog.Logger) SeedService {
	svc := NewSeedService(channels, users, cache, validate, true, "", logger).(*seedService)
	svc.trusted = true
	return svc
}

func (s *seedService) SeedChannels(ctx context.Context, token string, items []dto.SeedChannel) (int64, error) {
	if err := s.guard(token); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(dto.SeedChannelsRequest{Items: items}); err != nil {
		return 0, err
	}

	rows := make([]models.Channel, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.Channel{
			Slug: normalizeSlug(item.Slug),
			Name: strings.TrimSpace(item.Name),
		})
	}

	affected, err := s.channels.UpsertBatch(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("seed channels: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info().Int64("affected", affected).Msg("channels seeded")
	return affected, nil
}

func (s *seedService) SeedUsers(ctx context.Context, token string, items []dto.SeedUser) (int64, error) {
	if err := s.guard(token); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(dto.SeedUsersRequest{Items: items}); err != nil {
		return 0, err
	}

	rows := make([]models.User, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.User{
			Name:  strings.TrimSpace(item.Name),
			Email: strings.TrimSpace(item.Email),
		})
	}

	affected, err := s.users.UpsertBatch(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}

	s.logger.Info().Int64("affected", affected).Msg("users seeded")
	return affected, nil
}

func (s *seedService) guard(token string) error {
	if s.trusted {
		return nil
	}
	if !s.enabled {
		return ErrSeedDisabled
	}

	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return ErrSeedUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) != 1 {
		return ErrSeedUnauthorized
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(slug)), " ", "-")
}
