package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-forum-api/internal/models"
)

// ReplyFilter paginates reply listings of a single thread.
type ReplyFilter struct {
	ThreadID uint
	Page     int
	PageSize int
}

// ReplyRepository persists replies and keeps the owning thread's reply counter in step.
type ReplyRepository interface {
	ListByThread(ctx context.Context, filter ReplyFilter) ([]models.Reply, int64, error)
	FindByID(ctx context.Context, id uint) (models.Reply, error)
	Create(ctx context.Context, reply *models.Reply) error
	Delete(ctx context.Context, reply models.Reply) error
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository constructs a GORM-backed repository.
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) ListByThread(ctx context.Context, filter ReplyFilter) ([]models.Reply, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Reply{}).Where("thread_id = ?", filter.ThreadID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		// Pages past the last one are empty; checking first keeps the offset from overflowing.
		pages := (total + int64(filter.PageSize) - 1) / int64(filter.PageSize)
		if int64(page-1) >= pages {
			return []models.Reply{}, total, nil
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var replies []models.Reply
	if err := query.Preload("Owner").Order("created_at ASC, id ASC").Find(&replies).Error; err != nil {
		return nil, 0, err
	}

	return replies, total, nil
}

func (r *replyRepository) FindByID(ctx context.Context, id uint) (models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).Preload("Owner").First(&reply, id).Error; err != nil {
		return models.Reply{}, err
	}
	return reply, nil
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner").Create(reply).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Thread{}).
			Where("id = ?", reply.ThreadID).
			UpdateColumn("replies_count", gorm.Expr("replies_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *replyRepository) Delete(ctx context.Context, reply models.Reply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Reply{}, reply.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.Thread{}).
			Where("id = ? AND replies_count > 0", reply.ThreadID).
			UpdateColumn("replies_count", gorm.Expr("replies_count - ?", 1)).
			Error
	})
}
