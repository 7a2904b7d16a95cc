package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-forum-api/internal/models"
)

// ThreadFilter is the set of optional listing filters. The zero value lists every thread in
// creation order.
type ThreadFilter struct {
	// Channel restricts the listing to the channel with this slug.
	Channel *string
	// By restricts the listing to threads owned by the user with exactly this name.
	By *string
	// Popular reorders the listing by reply count, busiest first.
	Popular bool
	// Unanswered keeps only threads without replies.
	Unanswered bool
}

// Apply narrows and orders a thread query according to the filter.
func (f ThreadFilter) Apply(db *gorm.DB) *gorm.DB {
	query := db
	fresh := db.Session(&gorm.Session{NewDB: true})

	if f.Channel != nil {
		channels := fresh.Model(&models.Channel{}).Select("id").Where("slug = ?", *f.Channel)
		query = query.Where("threads.channel_id IN (?)", channels)
	}

	if f.By != nil {
		users := fresh.Model(&models.User{}).Select("id").Where("name = ?", *f.By)
		query = query.Where("threads.user_id IN (?)", users)
	}

	if f.Unanswered {
		query = query.Where("threads.replies_count = ?", 0)
	}

	if f.Popular {
		query = query.Order("threads.replies_count DESC")
	}

	return query.Order("threads.id ASC")
}

// ThreadRepository persists forum threads.
type ThreadRepository interface {
	List(ctx context.Context, filter ThreadFilter) ([]models.Thread, error)
	FindByID(ctx context.Context, id uint) (models.Thread, error)
	Create(ctx context.Context, thread *models.Thread) error
	Delete(ctx context.Context, id uint) error
	IncrementVisits(ctx context.Context, id uint) (int, error)
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository constructs a GORM-backed repository.
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) List(ctx context.Context, filter ThreadFilter) ([]models.Thread, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Thread{}).
		Preload("Channel").
		Preload("Owner")

	var threads []models.Thread
	if err := filter.Apply(query).Find(&threads).Error; err != nil {
		return nil, err
	}

	return threads, nil
}

func (r *threadRepository) FindByID(ctx context.Context, id uint) (models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).
		Preload("Channel").
		Preload("Owner").
		First(&thread, id).Error; err != nil {
		return models.Thread{}, err
	}
	return thread, nil
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	thread.RepliesCount = 0
	thread.Visits = 0
	return r.db.WithContext(ctx).Omit("Channel", "Owner").Create(thread).Error
}

func (r *threadRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Thread{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IncrementVisits bumps the visit counter in the database and returns the stored value.
func (r *threadRepository) IncrementVisits(ctx context.Context, id uint) (int, error) {
	var visits int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Thread{}).
			Where("id = ?", id).
			UpdateColumn("visits", gorm.Expr("visits + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var fresh models.Thread
		if err := tx.Select("id", "visits").First(&fresh, id).Error; err != nil {
			return err
		}
		visits = fresh.Visits
		return nil
	})
	if err != nil {
		return 0, err
	}
	return visits, nil
}
