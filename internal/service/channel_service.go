package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/observability"
	"github.com/noah-isme/gema-forum-api/internal/repository"
)

const channelsCacheKey = "forum:channels:v1"

// ChannelService exposes the channel directory.
type ChannelService interface {
	List(ctx context.Context) (dto.ChannelListResponse, error)
	Invalidate(ctx context.Context)
}

type channelService struct {
	repo   repository.ChannelRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewChannelService constructs the channel service. cache may be nil.
func NewChannelService(repo repository.ChannelRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ChannelService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &channelService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "channel_service").Logger(),
	}
}

func (s *channelService) List(ctx context.Context) (dto.ChannelListResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, channelsCacheKey).Result()
		switch {
		case err == nil && cached != "":
			var items []dto.ChannelResponse
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				observability.ChannelsCache().WithLabelValues("hit").Inc()
				return dto.ChannelListResponse{Items: items, CacheHit: true}, nil
			}
		case err != nil && !errors.Is(err, redis.Nil):
			observability.ChannelsCache().WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Msg("failed to read channels cache")
		}
	}

	channels, err := s.repo.List(ctx)
	if err != nil {
		return dto.ChannelListResponse{}, fmt.Errorf("list channels: %w", err)
	}

	items := dto.NewChannelResponseSlice(channels)

	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, channelsCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache channels")
			}
		}
	}

	observability.ChannelsCache().WithLabelValues("miss").Inc()

	return dto.ChannelListResponse{Items: items}, nil
}

func (s *channelService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, channelsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate channels cache")
	}
}
