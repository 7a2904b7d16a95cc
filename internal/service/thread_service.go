package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/models"
	"github.com/noah-isme/gema-forum-api/internal/observability"
	"github.com/noah-isme/gema-forum-api/internal/repository"
)

// ReadRecorder is notified of every successful thread detail read and of deleted threads.
type ReadRecorder interface {
	Record(ctx context.Context, thread dto.ThreadResponse) error
	Forget(ctx context.Context, threadID uint) error
}

// ThreadService exposes thread use-cases.
type ThreadService interface {
	List(ctx context.Context, query dto.ThreadListQuery) ([]dto.ThreadResponse, error)
	Show(ctx context.Context, channelSlug string, id uint) (dto.ThreadResponse, error)
	Find(ctx context.Context, channelSlug string, id uint) (dto.ThreadResponse, error)
	Create(ctx context.Context, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error)
	Delete(ctx context.Context, channelSlug string, id uint) error
}

type threadService struct {
	threads     repository.ThreadRepository
	channels    repository.ChannelRepository
	users       repository.UserRepository
	reads       ReadRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	titlePolicy *bluemonday.Policy
	bodyPolicy  *bluemonday.Policy
}

// NewThreadService constructs a thread service. reads may be nil.
func NewThreadService(threads repository.ThreadRepository, channels repository.ChannelRepository, users repository.UserRepository, reads ReadRecorder, validate *validator.Validate, logger zerolog.Logger) ThreadService {
	bodyPolicy := bluemonday.UGCPolicy()
	bodyPolicy.AllowElements("br")

	return &threadService{
		threads:     threads,
		channels:    channels,
		users:       users,
		reads:       reads,
		validator:   validate,
		logger:      logger.With().Str("component", "thread_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-forum-api/internal/service/thread"),
		titlePolicy: bluemonday.StrictPolicy(),
		bodyPolicy:  bodyPolicy,
	}
}

func (s *threadService) List(ctx context.Context, query dto.ThreadListQuery) ([]dto.ThreadResponse, error) {
	filter := repository.ThreadFilter{
		Channel:    query.Channel,
		By:         query.By,
		Popular:    query.Popular,
		Unanswered: query.Unanswered,
	}

	threads, err := s.threads.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	return dto.NewThreadResponseSlice(threads), nil
}

func (s *threadService) Show(ctx context.Context, channelSlug string, id uint) (dto.ThreadResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "threads.show", trace.WithAttributes(
		attribute.Int64("thread.id", int64(id)),
		attribute.String("thread.channel", channelSlug),
	))
	defer span.End()

	thread, err := findThread(spanCtx, s.threads, channelSlug, id)
	if err != nil {
		return dto.ThreadResponse{}, err
	}

	visits, err := s.threads.IncrementVisits(spanCtx, thread.ID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ThreadResponse{}, ErrThreadNotFound
		}
		return dto.ThreadResponse{}, fmt.Errorf("record visit: %w", err)
	}
	thread.Visits = visits
	observability.ThreadVisits().Inc()

	response := dto.NewThreadResponse(thread)

	if s.reads != nil {
		if err := s.reads.Record(spanCtx, response); err != nil {
			s.logger.Warn().
				Err(err).
				Uint("thread_id", thread.ID).
				Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
				Msg("failed to record thread read")
		}
	}

	return response, nil
}

// Find loads a thread without counting a visit.
func (s *threadService) Find(ctx context.Context, channelSlug string, id uint) (dto.ThreadResponse, error) {
	thread, err := findThread(ctx, s.threads, channelSlug, id)
	if err != nil {
		return dto.ThreadResponse{}, err
	}
	return dto.NewThreadResponse(thread), nil
}

func (s *threadService) Create(ctx context.Context, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error) {
	actor := middleware.ActorFromContext(ctx)
	if !actor.Authenticated() {
		return dto.ThreadResponse{}, ErrUnauthenticated
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ThreadResponse{}, err
	}

	title := strings.TrimSpace(s.titlePolicy.Sanitize(payload.Title))
	body := strings.TrimSpace(s.bodyPolicy.Sanitize(payload.Body))
	if title == "" || body == "" {
		return dto.ThreadResponse{}, ErrEmptyContent
	}

	spanCtx, span := s.tracer.Start(ctx, "threads.create", trace.WithAttributes(
		attribute.Int64("thread.user_id", int64(actor.UserID)),
		attribute.Int64("thread.channel_id", int64(payload.ChannelID)),
	))
	defer span.End()

	if _, err := s.users.FindByID(spanCtx, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ThreadResponse{}, ErrUnknownUser
		}
		return dto.ThreadResponse{}, fmt.Errorf("load user: %w", err)
	}

	if _, err := s.channels.FindByID(spanCtx, payload.ChannelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ThreadResponse{}, ErrChannelNotFound
		}
		return dto.ThreadResponse{}, fmt.Errorf("load channel: %w", err)
	}

	thread := models.Thread{
		Title:     title,
		Body:      body,
		ChannelID: payload.ChannelID,
		UserID:    actor.UserID,
		Metadata:  datatypes.JSONMap{"created_by_role": actor.Role},
	}

	if err := s.threads.Create(spanCtx, &thread); err != nil {
		span.RecordError(err)
		return dto.ThreadResponse{}, fmt.Errorf("create thread: %w", err)
	}

	created, err := s.threads.FindByID(spanCtx, thread.ID)
	if err != nil {
		return dto.ThreadResponse{}, fmt.Errorf("reload thread: %w", err)
	}

	s.logger.Info().
		Uint("thread_id", created.ID).
		Uint("user_id", actor.UserID).
		Str("channel", created.Channel.Slug).
		Msg("thread created")

	return dto.NewThreadResponse(created), nil
}

func (s *threadService) Delete(ctx context.Context, channelSlug string, id uint) error {
	actor := middleware.ActorFromContext(ctx)
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}

	thread, err := findThread(ctx, s.threads, channelSlug, id)
	if err != nil {
		return err
	}

	if err := authorizeMutation(thread.UserID, actor); err != nil {
		return err
	}

	if err := s.threads.Delete(ctx, thread.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("delete thread: %w", err)
	}

	if s.reads != nil {
		if err := s.reads.Forget(ctx, thread.ID); err != nil {
			s.logger.Warn().Err(err).Uint("thread_id", thread.ID).Msg("failed to drop thread from trending board")
		}
	}

	s.logger.Info().Uint("thread_id", thread.ID).Uint("user_id", actor.UserID).Msg("thread deleted")
	return nil
}

// findThread loads a thread and checks it is addressed under its own channel. An empty slug
// skips the channel check.
func findThread(ctx context.Context, threads repository.ThreadRepository, channelSlug string, id uint) (models.Thread, error) {
	thread, err := threads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Thread{}, ErrThreadNotFound
		}
		return models.Thread{}, fmt.Errorf("load thread: %w", err)
	}

	if channelSlug != "" && thread.Channel.Slug != channelSlug {
		return models.Thread{}, ErrThreadNotFound
	}

	return thread, nil
}

func authorizeMutation(ownerID uint, actor middleware.Actor) error {
	if actor.UserID == ownerID {
		return nil
	}
	if actor.HasRole(middleware.AuthRoleAdmin, middleware.AuthRoleModerator) {
		return nil
	}
	return ErrForumForbidden
}
