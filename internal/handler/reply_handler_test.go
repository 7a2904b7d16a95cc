package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type replyPagePayload struct {
	Success bool `json:"success"`
	Data    []struct {
		ID    uint   `json:"id"`
		Body  string `json:"body"`
		Owner struct {
			Name string `json:"name"`
		} `json:"owner"`
	} `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func TestListRepliesPaginates(t *testing.T) {
	srv := newForumServer(t, serverOptions{})
	thread := srv.thread(t, "chatty", srv.php, srv.john, 0)
	for i := 1; i <= 3; i++ {
		srv.reply(t, thread, srv.jane, fmt.Sprintf("reply %d", i))
	}

	resp := srv.do(t, http.MethodGet, fmt.Sprintf("/threads/php/%d/replies?page=2&page_size=2", thread.ID), nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload replyPagePayload
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, int64(3), payload.Total)
	require.Equal(t, 2, payload.Page)
	require.Equal(t, 2, payload.PageSize)
	require.Equal(t, 2, payload.TotalPages)
	require.Len(t, payload.Data, 1)
	require.Equal(t, "reply 3", payload.Data[0].Body)
	require.Equal(t, "jane", payload.Data[0].Owner.Name)
}

func TestListRepliesTotalIsIndependentOfPageSize(t *testing.T) {
	srv := newForumServer(t, serverOptions{})
	thread := srv.thread(t, "chatty", srv.php, srv.john, 0)
	for i := 1; i <= 4; i++ {
		srv.reply(t, thread, srv.jane, fmt.Sprintf("reply %d", i))
	}

	for _, size := range []int{1, 3, 50} {
		resp := srv.do(t, http.MethodGet, fmt.Sprintf("/threads/php/%d/replies?page_size=%d", thread.ID, size), nil, "")
		var payload replyPagePayload
		decodeResponse(t, resp, &payload)
		require.Equal(t, int64(4), payload.Total)
	}
}

func TestListRepliesErrors(t *testing.T) {
	srv := newForumServer(t, serverOptions{})
	thread := srv.thread(t, "php", srv.php, srv.john, 0)

	resp := srv.do(t, http.MethodGet, fmt.Sprintf("/threads/go/%d/replies", thread.ID), nil, "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/threads/php/%d/replies?page=abc", thread.ID), nil, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateReplyUpdatesCount(t *testing.T) {
	srv := newForumServer(t, serverOptions{})
	thread := srv.thread(t, "question", srv.php, srv.john, 0)
	path := fmt.Sprintf("/threads/php/%d/replies", thread.ID)

	resp := srv.do(t, http.MethodPost, path, map[string]string{"body": "anonymous"}, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = srv.do(t, http.MethodPost, path, map[string]string{"body": "an answer"}, tokenFor(t, srv.jane, "member"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	require.Empty(t, listTitles(t, srv.do(t, http.MethodGet, "/threads?unanswered=1", nil, "")))

	resp = srv.do(t, http.MethodGet, "/threads?popular=1", nil, "")
	var payload envelope[[]threadPayload]
	decodeResponse(t, resp, &payload)
	require.Equal(t, 1, payload.Data[0].RepliesCount)
}

func TestCreateReplyIsRateLimited(t *testing.T) {
	srv := newForumServer(t, serverOptions{repliesPerMinute: 2})
	thread := srv.thread(t, "question", srv.php, srv.john, 0)
	path := fmt.Sprintf("/threads/php/%d/replies", thread.ID)
	token := tokenFor(t, srv.jane, "member")

	for i := 0; i < 2; i++ {
		resp := srv.do(t, http.MethodPost, path, map[string]string{"body": fmt.Sprintf("answer %d", i)}, token)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := srv.do(t, http.MethodPost, path, map[string]string{"body": "one too many"}, token)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()

	other := srv.do(t, http.MethodPost, path, map[string]string{"body": "different user"}, tokenFor(t, srv.john, "member"))
	require.Equal(t, fiber.StatusCreated, other.StatusCode)
	other.Body.Close()
}

func TestDeleteReply(t *testing.T) {
	srv := newForumServer(t, serverOptions{})
	thread := srv.thread(t, "question", srv.php, srv.john, 0)

	resp := srv.do(t, http.MethodPost, fmt.Sprintf("/threads/php/%d/replies", thread.ID), map[string]string{"body": "mine"}, tokenFor(t, srv.jane, "member"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created envelope[struct {
		ID uint `json:"id"`
	}]
	decodeResponse(t, resp, &created)
	path := fmt.Sprintf("/replies/%d", created.Data.ID)

	resp = srv.do(t, http.MethodDelete, path, nil, tokenFor(t, srv.john, "member"))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = srv.do(t, http.MethodDelete, path, nil, tokenFor(t, srv.admin, "admin"))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = srv.do(t, http.MethodDelete, path, nil, tokenFor(t, srv.admin, "admin"))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, []string{"question"}, listTitles(t, srv.do(t, http.MethodGet, "/threads?unanswered", nil, "")))
}
