package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-forum-api/internal/database"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/models"
	"github.com/noah-isme/gema-forum-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type forumEnv struct {
	db       *gorm.DB
	threads  repository.ThreadRepository
	replies  repository.ReplyRepository
	channels repository.ChannelRepository
	users    repository.UserRepository

	john, jane, mod models.User
	php, golang     models.Channel
}

func newForumEnv(t *testing.T) *forumEnv {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &forumEnv{
		db:       db,
		threads:  repository.NewThreadRepository(db),
		replies:  repository.NewReplyRepository(db),
		channels: repository.NewChannelRepository(db),
		users:    repository.NewUserRepository(db),
		john:     models.User{Name: "john"},
		jane:     models.User{Name: "jane"},
		mod:      models.User{Name: "mod"},
		php:      models.Channel{Slug: "php", Name: "PHP"},
		golang:   models.Channel{Slug: "go", Name: "Go"},
	}
	for _, user := range []*models.User{&env.john, &env.jane, &env.mod} {
		require.NoError(t, db.Create(user).Error)
	}
	for _, channel := range []*models.Channel{&env.php, &env.golang} {
		require.NoError(t, db.Create(channel).Error)
	}
	return env
}

func (e *forumEnv) thread(t *testing.T, title string, channel models.Channel, owner models.User, replies int) models.Thread {
	t.Helper()
	thread := models.Thread{
		Title:        title,
		Body:         "body of " + title,
		ChannelID:    channel.ID,
		UserID:       owner.ID,
		RepliesCount: replies,
	}
	require.NoError(t, e.db.Omit("Channel", "Owner").Create(&thread).Error)
	return thread
}

func (e *forumEnv) visits(t *testing.T, id uint) int {
	t.Helper()
	var thread models.Thread
	require.NoError(t, e.db.Select("visits").First(&thread, id).Error)
	return thread.Visits
}

func actingAs(user models.User, role string) context.Context {
	return middleware.ContextWithActor(context.Background(), middleware.Actor{UserID: user.ID, Role: role})
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func isValidation(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
