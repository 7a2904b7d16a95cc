package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-forum-api/internal/dto"
	"github.com/noah-isme/gema-forum-api/internal/models"
)

type recordingPublisher struct {
	mu      sync.Mutex
	replies []dto.ReplyResponse
}

func (p *recordingPublisher) Publish(_ context.Context, reply dto.ReplyResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply)
}

func newReplyServiceForTest(env *forumEnv, publisher ReplyPublisher) ReplyService {
	return NewReplyService(env.replies, env.threads, env.users, publisher, 20, testValidator(), testLogger())
}

func (e *forumEnv) repliesCount(t *testing.T, id uint) int {
	t.Helper()
	var thread models.Thread
	require.NoError(t, e.db.Select("replies_count").First(&thread, id).Error)
	return thread.RepliesCount
}

func TestReplyServiceListPaginates(t *testing.T) {
	env := newForumEnv(t)
	thread := env.thread(t, "busy", env.php, env.john, 0)
	for i := 1; i <= 25; i++ {
		require.NoError(t, env.replies.Create(context.Background(), &models.Reply{ThreadID: thread.ID, UserID: env.jane.ID, Body: fmt.Sprintf("reply %d", i)}))
	}
	svc := newReplyServiceForTest(env, nil)

	first, err := svc.List(context.Background(), "php", thread.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, first.Items, 20)
	require.Equal(t, int64(25), first.Pagination.TotalItems)
	require.Equal(t, 1, first.Pagination.Page)
	require.Equal(t, 20, first.Pagination.PageSize)
	require.Equal(t, 2, first.Pagination.TotalPages)
	require.Equal(t, "reply 1", first.Items[0].Body)

	second, err := svc.List(context.Background(), "php", thread.ID, 2, 20)
	require.NoError(t, err)
	require.Len(t, second.Items, 5)
	require.Equal(t, int64(25), second.Pagination.TotalItems)

	capped, err := svc.List(context.Background(), "php", thread.ID, 1, 1000)
	require.NoError(t, err)
	require.Equal(t, 100, capped.Pagination.PageSize)
	require.Len(t, capped.Items, 25)
}

func TestReplyServiceListPastLastPageIsEmpty(t *testing.T) {
	env := newForumEnv(t)
	thread := env.thread(t, "short", env.php, env.john, 0)
	for i := 1; i <= 3; i++ {
		require.NoError(t, env.replies.Create(context.Background(), &models.Reply{ThreadID: thread.ID, UserID: env.jane.ID, Body: fmt.Sprintf("reply %d", i)}))
	}
	svc := newReplyServiceForTest(env, nil)

	for _, page := range []int{3, math.MaxInt} {
		result, err := svc.List(context.Background(), "php", thread.ID, page, 2)
		require.NoError(t, err)
		require.Empty(t, result.Items)
		require.Equal(t, int64(3), result.Pagination.TotalItems)
		require.Equal(t, 2, result.Pagination.TotalPages)
	}
}

func TestReplyServiceListRequiresMatchingThread(t *testing.T) {
	env := newForumEnv(t)
	thread := env.thread(t, "php thread", env.php, env.john, 0)
	svc := newReplyServiceForTest(env, nil)

	_, err := svc.List(context.Background(), "go", thread.ID, 1, 20)
	require.ErrorIs(t, err, ErrThreadNotFound)

	empty, err := svc.List(context.Background(), "php", thread.ID, 1, 20)
	require.NoError(t, err)
	require.Empty(t, empty.Items)
	require.Zero(t, empty.Pagination.TotalItems)
	require.Zero(t, empty.Pagination.TotalPages)
}

func TestReplyServiceCreatePublishesAndCounts(t *testing.T) {
	env := newForumEnv(t)
	thread := env.thread(t, "answer me", env.php, env.john, 0)
	publisher := &recordingPublisher{}
	svc := newReplyServiceForTest(env, publisher)

	reply, err := svc.Create(actingAs(env.jane, "member"), "php", thread.ID, dto.ReplyCreateRequest{Body: "an <b>answer</b><script>x</script>"})
	require.NoError(t, err)
	require.Equal(t, "an <b>answer</b>", reply.Body)
	require.Equal(t, "jane", reply.Owner.Name)
	require.Equal(t, thread.ID, reply.ThreadID)
	require.Equal(t, 1, env.repliesCount(t, thread.ID))

	require.Len(t, publisher.replies, 1)
	require.Equal(t, reply.ID, publisher.replies[0].ID)
}

func TestReplyServiceCreateFailures(t *testing.T) {
	env := newForumEnv(t)
	thread := env.thread(t, "answer me", env.php, env.john, 0)
	publisher := &recordingPublisher{}
	svc := newReplyServiceForTest(env, publisher)
	payload := dto.ReplyCreateRequest{Body: "a reply"}

	_, err := svc.Create(context.Background(), "php", thread.ID, payload)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Create(actingAs(env.jane, "member"), "php", thread.ID, dto.ReplyCreateRequest{Body: ""})
	require.True(t, isValidation(err))

	_, err = svc.Create(actingAs(env.jane, "member"), "go", thread.ID, payload)
	require.ErrorIs(t, err, ErrThreadNotFound)

	ghost := env.jane
	ghost.ID = 404
	_, err = svc.Create(actingAs(ghost, "member"), "php", thread.ID, payload)
	require.ErrorIs(t, err, ErrUnknownUser)

	require.Zero(t, env.repliesCount(t, thread.ID))
	require.Empty(t, publisher.replies)
}

func TestReplyServiceDelete(t *testing.T) {
	env := newForumEnv(t)
	thread := env.thread(t, "answer me", env.php, env.john, 0)
	svc := newReplyServiceForTest(env, nil)

	reply, err := svc.Create(actingAs(env.jane, "member"), "php", thread.ID, dto.ReplyCreateRequest{Body: "first"})
	require.NoError(t, err)
	other, err := svc.Create(actingAs(env.jane, "member"), "php", thread.ID, dto.ReplyCreateRequest{Body: "second"})
	require.NoError(t, err)
	require.Equal(t, 2, env.repliesCount(t, thread.ID))

	require.ErrorIs(t, svc.Delete(actingAs(env.john, "member"), reply.ID), ErrForumForbidden)
	require.NoError(t, svc.Delete(actingAs(env.jane, "member"), reply.ID))
	require.NoError(t, svc.Delete(actingAs(env.mod, "admin"), other.ID))
	require.ErrorIs(t, svc.Delete(actingAs(env.jane, "member"), reply.ID), ErrReplyNotFound)

	require.Zero(t, env.repliesCount(t, thread.ID))
}
