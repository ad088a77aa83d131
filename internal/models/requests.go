package models

import (
	"errors"
	"strings"
)

// Request and response payloads for the HTTP API.

// ChatRequest is the body of POST /chat. SessionID is optional; a new session
// is minted when it is absent.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// Validate checks required fields for a chat request.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// LeadStatusUpdateRequest is the body of PUT /leads/{id}.
type LeadStatusUpdateRequest struct {
	Status string `json:"status"`
}

// Validate checks required fields for a status update.
func (r LeadStatusUpdateRequest) Validate() error {
	if strings.TrimSpace(r.Status) == "" {
		return errors.New("status is required")
	}
	return nil
}

// FollowupRequest is the body of POST /leads/{id}/followup. With Send unset
// the endpoint only drafts; Subject and Body override the generated draft.
type FollowupRequest struct {
	Context string `json:"context,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
	Send    bool   `json:"send,omitempty"`
}

// FollowupResponse carries the drafted email and whether it was delivered.
type FollowupResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sent    bool   `json:"sent"`
}
