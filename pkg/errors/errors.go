package livedesk_errors

import (
	"errors"
	"time"
)

// Business and concurrency errors surfaced by the chat engine.
var (
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConversationClosed = errors.New("conversation closed")
	ErrAwaitingAgent      = errors.New("awaiting agent")
	ErrAgentBusy          = errors.New("agent busy")
	ErrAlreadyAssigned    = errors.New("already assigned")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRateLimited        = errors.New("rate limited")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
