package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-forum-api/internal/models"
)

// ChannelRepository exposes persistence helpers for channels.
type ChannelRepository interface {
	List(ctx context.Context) ([]models.Channel, error)
	FindByID(ctx context.Context, id uint) (models.Channel, error)
	FindBySlug(ctx context.Context, slug string) (models.Channel, error)
	UpsertBatch(ctx context.Context, items []models.Channel) (int64, error)
}

type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository constructs the repository implementation.
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) List(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *channelRepository) FindByID(ctx context.Context, id uint) (models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		return models.Channel{}, err
	}
	return channel, nil
}

func (r *channelRepository) FindBySlug(ctx context.Context, slug string) (models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&channel).Error; err != nil {
		return models.Channel{}, err
	}
	return channel, nil
}

func (r *channelRepository) UpsertBatch(ctx context.Context, items []models.Channel) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}
