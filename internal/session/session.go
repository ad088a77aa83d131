package session

import (
	"sync"
	"time"

	"github.com/genetech/leadchat/internal/flow"
)

// Session holds the conversational state for one session token.
//
// The embedded mutex serializes turns: concurrent requests for the same
// token queue behind each other, so flow state and the log never interleave.
type Session struct {
	mu sync.Mutex

	Token        string
	Log          ConversationLog
	Lead         flow.State
	Consultation flow.State
	LastActive   time.Time
}

// Lock acquires the per-session turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }
