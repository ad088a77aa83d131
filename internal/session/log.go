// Package session provides per-conversation state: the bounded message log,
// the session record with its flow states, and a concurrency-safe store with
// idle-session eviction.
package session

import (
	"strings"
	"time"
)

// MaxHistory is the number of messages retained in a conversation log.
// Older messages fall off the front once the window is full.
const MaxHistory = 10

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationLog holds the most recent messages of a conversation.
// It is not safe for concurrent use; callers hold the session lock.
type ConversationLog struct {
	Messages []Message `json:"messages"`
}

// Append adds a message to the log and trims the window so at most
// MaxHistory messages remain.
func (l *ConversationLog) Append(role Role, content string) {
	l.Messages = append(l.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	if len(l.Messages) > MaxHistory {
		l.Messages = l.Messages[len(l.Messages)-MaxHistory:]
	}
}

// Render returns the log as a newline-joined transcript in chronological
// order, e.g. "User: hi\nAssistant: hello". An empty log renders as "".
func (l *ConversationLog) Render() string {
	if len(l.Messages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range l.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch m.Role {
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

// Len returns the number of messages currently in the window.
func (l *ConversationLog) Len() int {
	return len(l.Messages)
}
