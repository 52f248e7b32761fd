package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session groups the history entries of one orchestration run
type Session struct {
	ID        uuid.UUID
	Network   string
	Mode      NetworkMode
	StartedAt time.Time
}

// NewSession starts a session for a network
func NewSession(network string, mode NetworkMode, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Network:   network,
		Mode:      mode,
		StartedAt: now.UTC(),
	}
}

// Key is the timestamp the history log files the session under
func (s *Session) Key() string {
	return s.StartedAt.Format(time.RFC3339Nano)
}
