package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-forum-api/internal/dto"
)

const (
	trendingKey          = "forum:trending_threads"
	defaultTrendingLimit = 5
	maxTrendingLimit     = 50
)

// TrendingService ranks threads by how often they are read.
type TrendingService interface {
	Record(ctx context.Context, thread dto.ThreadResponse) error
	Forget(ctx context.Context, threadID uint) error
	Top(ctx context.Context, limit int) ([]dto.TrendingThreadResponse, error)
	Limit(requested int) int
	Reset(ctx context.Context) error
}

type trendingService struct {
	redis        *redis.Client
	defaultLimit int
	logger       zerolog.Logger
}

type trendingMember struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// NewTrendingService constructs the trending board. Without a Redis client it records nothing
// and always reports an empty board.
func NewTrendingService(client *redis.Client, defaultLimit int, logger zerolog.Logger) TrendingService {
	if defaultLimit <= 0 || defaultLimit > maxTrendingLimit {
		defaultLimit = defaultTrendingLimit
	}
	return &trendingService{
		redis:        client,
		defaultLimit: defaultLimit,
		logger:       logger.With().Str("component", "trending_service").Logger(),
	}
}

func (s *trendingService) Record(ctx context.Context, thread dto.ThreadResponse) error {
	if s.redis == nil {
		return nil
	}

	member, err := json.Marshal(trendingMember{ID: thread.ID, Title: thread.Title, Path: thread.Path})
	if err != nil {
		return err
	}

	return s.redis.ZIncrBy(ctx, trendingKey, 1, string(member)).Err()
}

// Forget drops every board entry of the thread.
func (s *trendingService) Forget(ctx context.Context, threadID uint) error {
	if s.redis == nil {
		return nil
	}

	members, err := s.redis.ZRange(ctx, trendingKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read trending threads: %w", err)
	}

	stale := make([]interface{}, 0, 1)
	for _, raw := range members {
		var member trendingMember
		if err := json.Unmarshal([]byte(raw), &member); err != nil || member.ID == threadID {
			stale = append(stale, raw)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	return s.redis.ZRem(ctx, trendingKey, stale...).Err()
}

// Limit resolves the number of entries Top returns for a requested limit.
func (s *trendingService) Limit(requested int) int {
	if requested <= 0 {
		return s.defaultLimit
	}
	if requested > maxTrendingLimit {
		return maxTrendingLimit
	}
	return requested
}

func (s *trendingService) Top(ctx context.Context, limit int) ([]dto.TrendingThreadResponse, error) {
	limit = s.Limit(limit)

	out := make([]dto.TrendingThreadResponse, 0, limit)
	if s.redis == nil {
		return out, nil
	}

	entries, err := s.redis.ZRevRangeWithScores(ctx, trendingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read trending threads: %w", err)
	}

	for _, entry := range entries {
		raw, ok := entry.Member.(string)
		if !ok {
			continue
		}
		var member trendingMember
		if err := json.Unmarshal([]byte(raw), &member); err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed trending entry")
			continue
		}
		out = append(out, dto.TrendingThreadResponse{
			ID:    member.ID,
			Title: member.Title,
			Path:  member.Path,
			Reads: entry.Score,
		})
	}

	return out, nil
}

func (s *trendingService) Reset(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, trendingKey).Err()
}
