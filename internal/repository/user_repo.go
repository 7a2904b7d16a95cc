package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-forum-api/internal/models"
)

// UserRepository exposes the user lookups the forum needs.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (models.User, error)
	UpsertBatch(ctx context.Context, items []models.User) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the repository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) UpsertBatch(ctx context.Context, items []models.User) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}
