package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/models"
	"github.com/noah-isme/gema-forum-api/internal/observability"
	"github.com/noah-isme/gema-forum-api/internal/repository"
)

const maxRepliesPageSize = 100

// ReplyPublisher receives replies as soon as they are stored.
type ReplyPublisher interface {
	Publish(ctx context.Context, reply dto.ReplyResponse)
}

// ReplyService exposes reply use-cases.
type ReplyService interface {
	List(ctx context.Context, channelSlug string, threadID uint, page, pageSize int) (dto.ReplyPage, error)
	Create(ctx context.Context, channelSlug string, threadID uint, payload dto.ReplyCreateRequest) (dto.ReplyResponse, error)
	Delete(ctx context.Context, replyID uint) error
}

type replyService struct {
	replies         repository.ReplyRepository
	threads         repository.ThreadRepository
	users           repository.UserRepository
	publisher       ReplyPublisher
	validator       *validator.Validate
	logger          zerolog.Logger
	tracer          trace.Tracer
	sanitizer       *bluemonday.Policy
	defaultPageSize int
}

// NewReplyService constructs a reply service. publisher may be nil.
func NewReplyService(replies repository.ReplyRepository, threads repository.ThreadRepository, users repository.UserRepository, publisher ReplyPublisher, defaultPageSize int, validate *validator.Validate, logger zerolog.Logger) ReplyService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &replyService{
		replies:         replies,
		threads:         threads,
		users:           users,
		publisher:       publisher,
		validator:       validate,
		logger:          logger.With().Str("component", "reply_service").Logger(),
		tracer:          otel.Tracer("github.com/noah-isme/gema-forum-api/internal/service/reply"),
		sanitizer:       policy,
		defaultPageSize: clampPageSize(defaultPageSize, 20),
	}
}

func (s *replyService) List(ctx context.Context, channelSlug string, threadID uint, page, pageSize int) (dto.ReplyPage, error) {
	if _, err := findThread(ctx, s.threads, channelSlug, threadID); err != nil {
		return dto.ReplyPage{}, err
	}

	page = maxInt(page, 1)
	pageSize = clampPageSize(pageSize, s.defaultPageSize)

	replies, total, err := s.replies.ListByThread(ctx, repository.ReplyFilter{
		ThreadID: threadID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.ReplyPage{}, fmt.Errorf("list replies: %w", err)
	}

	return dto.ReplyPage{
		Items: dto.NewReplyResponseSlice(replies),
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		},
	}, nil
}

func (s *replyService) Create(ctx context.Context, channelSlug string, threadID uint, payload dto.ReplyCreateRequest) (dto.ReplyResponse, error) {
	actor := middleware.ActorFromContext(ctx)
	if !actor.Authenticated() {
		return dto.ReplyResponse{}, ErrUnauthenticated
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ReplyResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.ReplyResponse{}, ErrEmptyContent
	}

	spanCtx, span := s.tracer.Start(ctx, "replies.create", trace.WithAttributes(
		attribute.Int64("reply.thread_id", int64(threadID)),
		attribute.Int64("reply.user_id", int64(actor.UserID)),
	))
	defer span.End()

	if _, err := findThread(spanCtx, s.threads, channelSlug, threadID); err != nil {
		return dto.ReplyResponse{}, err
	}

	owner, err := s.users.FindByID(spanCtx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReplyResponse{}, ErrUnknownUser
		}
		return dto.ReplyResponse{}, fmt.Errorf("load user: %w", err)
	}

	reply := models.Reply{
		ThreadID: threadID,
		UserID:   actor.UserID,
		Body:     body,
	}

	if err := s.replies.Create(spanCtx, &reply); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReplyResponse{}, ErrThreadNotFound
		}
		return dto.ReplyResponse{}, fmt.Errorf("create reply: %w", err)
	}
	reply.Owner = owner

	observability.RepliesWritten().WithLabelValues("create").Inc()
	s.logger.Info().Uint("reply_id", reply.ID).Uint("thread_id", threadID).Uint("user_id", actor.UserID).Msg("reply created")

	response := dto.NewReplyResponse(reply)
	if s.publisher != nil {
		s.publisher.Publish(spanCtx, response)
	}

	return response, nil
}

func (s *replyService) Delete(ctx context.Context, replyID uint) error {
	actor := middleware.ActorFromContext(ctx)
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}

	spanCtx, span := s.tracer.Start(ctx, "replies.delete", trace.WithAttributes(
		attribute.Int64("reply.id", int64(replyID)),
	))
	defer span.End()

	reply, err := s.replies.FindByID(spanCtx, replyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplyNotFound
		}
		return fmt.Errorf("load reply: %w", err)
	}

	if err := authorizeMutation(reply.UserID, actor); err != nil {
		return err
	}

	if err := s.replies.Delete(spanCtx, reply); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplyNotFound
		}
		return fmt.Errorf("delete reply: %w", err)
	}

	observability.RepliesWritten().WithLabelValues("delete").Inc()
	s.logger.Info().Uint("reply_id", reply.ID).Uint("thread_id", reply.ThreadID).Uint("user_id", actor.UserID).Msg("reply deleted")
	return nil
}

func clampPageSize(size, fallback int) int {
	if size <= 0 {
		return fallback
	}
	if size > maxRepliesPageSize {
		return maxRepliesPageSize
	}
	return size
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
