package service

import "errors"

var (
	// ErrThreadNotFound indicates the thread does not exist under the requested channel.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrReplyNotFound indicates the reply does not exist.
	ErrReplyNotFound = errors.New("reply not found")
	// ErrChannelNotFound indicates a write referenced a channel that does not exist.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrUnauthenticated indicates a write was attempted without a user.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrUnknownUser indicates the authenticated user has no forum profile.
	ErrUnknownUser = errors.New("user is not registered with the forum")
	// ErrForumForbidden indicates the user attempted an operation they are not allowed to perform.
	ErrForumForbidden = errors.New("insufficient permissions for forum operation")
	// ErrEmptyContent indicates the submitted text was empty once sanitised.
	ErrEmptyContent = errors.New("content empty after sanitization")
)
