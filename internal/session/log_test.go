package session

import (
	"fmt"
	"strings"
	"testing"
)

func TestConversationLogAppendBounds(t *testing.T) {
	var log ConversationLog
	for i := 0; i < MaxHistory+5; i++ {
		log.Append(RoleUser, fmt.Sprintf("message %d", i))
	}
	if log.Len() != MaxHistory {
		t.Fatalf("expected window of %d messages, got %d", MaxHistory, log.Len())
	}
	// Oldest surviving message is the 6th appended (0-indexed 5).
	if log.Messages[0].Content != "message 5" {
		t.Errorf("expected oldest message to be 'message 5', got %q", log.Messages[0].Content)
	}
	if log.Messages[MaxHistory-1].Content != fmt.Sprintf("message %d", MaxHistory+4) {
		t.Errorf("expected newest message to survive, got %q", log.Messages[MaxHistory-1].Content)
	}
}

func TestConversationLogRender(t *testing.T) {
	var log ConversationLog
	if log.Render() != "" {
		t.Errorf("expected empty render for empty log, got %q", log.Render())
	}
	log.Append(RoleUser, "hello")
	log.Append(RoleAssistant, "hi, how can I help?")
	log.Append(RoleUser, "tell me about pricing")

	got := log.Render()
	want := "User: hello\nAssistant: hi, how can I help?\nUser: tell me about pricing"
	if got != want {
		t.Errorf("unexpected transcript:\ngot:  %q\nwant: %q", got, want)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("transcript should not end with a newline")
	}
}
