package dto

import (
	"time"

	"github.com/noah-isme/gema-forum-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ThreadListQuery carries the listing filters parsed from the request.
type ThreadListQuery struct {
	Channel    *string
	By         *string
	Popular    bool
	Unanswered bool
}

// ThreadCreateRequest is the payload to open a thread.
type ThreadCreateRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=255"`
	Body      string `json:"body" validate:"required,min=2,max=20000"`
	ChannelID uint   `json:"channel_id" validate:"required"`
}

// ReplyCreateRequest is the payload to answer a thread.
type ReplyCreateRequest struct {
	Body string `json:"body" validate:"required,min=2,max=5000"`
}

// ChannelResponse describes a channel.
type ChannelResponse struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ChannelListResponse wraps the channel directory.
type ChannelListResponse struct {
	Items    []ChannelResponse `json:"items"`
	CacheHit bool              `json:"cache_hit"`
}

// OwnerResponse describes the author of a thread or reply.
type OwnerResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ThreadResponse describes a thread summary returned by listings and the detail view.
type ThreadResponse struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Path         string            `json:"path"`
	Channel      ChannelResponse   `json:"channel"`
	Owner        OwnerResponse     `json:"owner"`
	RepliesCount int               `json:"replies_count"`
	Visits       int               `json:"visits"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ReplyResponse describes a serialized reply.
type ReplyResponse struct {
	ID        uint          `json:"id"`
	ThreadID  uint          `json:"thread_id"`
	Owner     OwnerResponse `json:"owner"`
	Body      string        `json:"body"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ReplyPage is one page of a thread's replies.
type ReplyPage struct {
	Items      []ReplyResponse
	Pagination PaginationMeta
}

// TrendingThreadResponse is one entry of the trending board.
type TrendingThreadResponse struct {
	ID    uint    `json:"id"`
	Title string  `json:"title"`
	Path  string  `json:"path"`
	Reads float64 `json:"reads"`
}

// NewChannelResponse converts a channel model.
func NewChannelResponse(model models.Channel) ChannelResponse {
	return ChannelResponse{ID: model.ID, Slug: model.Slug, Name: model.Name}
}

// NewChannelResponseSlice converts channels to DTOs.
func NewChannelResponseSlice(items []models.Channel) []ChannelResponse {
	out := make([]ChannelResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewChannelResponse(item))
	}
	return out
}

// NewThreadResponse converts a thread model. Channel and Owner must be preloaded.
func NewThreadResponse(model models.Thread) ThreadResponse {
	response := ThreadResponse{
		ID:           model.ID,
		Title:        model.Title,
		Body:         model.Body,
		Path:         model.Path(),
		Channel:      NewChannelResponse(model.Channel),
		Owner:        OwnerResponse{ID: model.Owner.ID, Name: model.Owner.Name},
		RepliesCount: model.RepliesCount,
		Visits:       model.Visits,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
	if model.Metadata != nil {
		response.Metadata = make(map[string]string)
		for key, value := range model.Metadata {
			if str, ok := value.(string); ok {
				response.Metadata[key] = str
			}
		}
	}
	return response
}

// NewThreadResponseSlice converts threads to DTOs, preserving order.
func NewThreadResponseSlice(items []models.Thread) []ThreadResponse {
	out := make([]ThreadResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewThreadResponse(item))
	}
	return out
}

// NewReplyResponse converts a reply model.
func NewReplyResponse(model models.Reply) ReplyResponse {
	return ReplyResponse{
		ID:        model.ID,
		ThreadID:  model.ThreadID,
		Owner:     OwnerResponse{ID: model.Owner.ID, Name: model.Owner.Name},
		Body:      model.Body,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewReplyResponseSlice converts replies to DTOs.
func NewReplyResponseSlice(items []models.Reply) []ReplyResponse {
	out := make([]ReplyResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewReplyResponse(item))
	}
	return out
}
