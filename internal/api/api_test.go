package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/genetech/leadchat/internal/models"
	"github.com/genetech/leadchat/internal/store"
	"github.com/openai/openai-go"
)

// mockClient feeds scripted completions to every GenAI-backed collaborator.
type mockClient struct {
	responses []string
	calls     int
	err       error
}

func (m *mockClient) next() (string, error) {
	if m.err != nil {
		return "", m.err
	}
	i := m.calls
	m.calls++
	if i >= len(m.responses) {
		if len(m.responses) == 0 {
			return "", errors.New("no scripted response")
		}
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func (m *mockClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.next()
}

func (m *mockClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	return m.next()
}

type mockMailer struct {
	sent []string
	err  error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestServer(client *mockClient) (*Server, *store.InMemoryStore, *mockMailer) {
	st := store.NewInMemoryStore()
	mailer := &mockMailer{}
	return NewServer(st, client, mailer), st, mailer
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, result interface{}) models.APIResponse {
	t.Helper()
	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v\nbody: %s", err, w.Body.String())
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			t.Fatalf("decode result: %v\nresult: %s", err, envelope.Result)
		}
	}
	return models.APIResponse{Status: envelope.Status, Message: envelope.Message}
}

func seedLead(t *testing.T, st *store.InMemoryStore) int64 {
	t.Helper()
	id, err := st.InsertLead(context.Background(), models.Lead{
		Name:               "Sara Khan",
		Email:              "sara@example.com",
		ProjectDescription: "a customer portal",
		Timeline:           "3 months",
		ProjectType:        "personal",
		Status:             models.StatusNewLead,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return id
}

func TestHealthHandler(t *testing.T) {
	srv, _, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result map[string]string
	decodeEnvelope(t, w, &result)
	if result["status"] != "healthy" {
		t.Errorf("result = %v", result)
	}
}

func TestChatHandlerMintsSessionID(t *testing.T) {
	client := &mockClient{responses: []string{"greeting_feedback", "Hello! How can I help?"}}
	srv, _, _ := newTestServer(client)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/chat", models.ChatRequest{Message: "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result models.ChatResponse
	decodeEnvelope(t, w, &result)
	if result.SessionID == "" {
		t.Error("session_id should be minted when absent")
	}
	if result.Response != "Hello! How can I help?" {
		t.Errorf("response = %q", result.Response)
	}
}

func TestChatHandlerKeepsProvidedSessionID(t *testing.T) {
	client := &mockClient{responses: []string{"greeting_feedback", "Hello again!"}}
	srv, _, _ := newTestServer(client)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/chat", models.ChatRequest{SessionID: "abc-123", Message: "hi"})
	var result models.ChatResponse
	decodeEnvelope(t, w, &result)
	if result.SessionID != "abc-123" {
		t.Errorf("SessionID = %q, want abc-123", result.SessionID)
	}
	if srv.sessions.Get("abc-123") == nil {
		t.Error("session should exist under the provided token")
	}
}

func TestChatHandlerRequiresMessage(t *testing.T) {
	srv, _, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/chat", models.ChatRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatHandlerMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodGet, "/chat", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q, want POST", allow)
	}
}

func TestListLeads(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/leads", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var leads []models.Lead
	decodeEnvelope(t, w, &leads)
	if len(leads) != 1 || leads[0].Email != "sara@example.com" {
		t.Errorf("leads = %+v", leads)
	}
}

func TestCreateLead(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/leads", models.Lead{
		Name:               "Omar Farooq",
		Email:              "omar@example.com",
		ProjectDescription: "an inventory system",
		Timeline:           "6 weeks",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Lead
	decodeEnvelope(t, w, &created)
	if created.ID == 0 {
		t.Error("created lead should carry its assigned ID")
	}
	if created.Status != models.StatusNewLead {
		t.Errorf("Status = %q, want default", created.Status)
	}
	leads, _ := st.ListLeads(context.Background())
	if len(leads) != 1 {
		t.Errorf("store holds %d leads, want 1", len(leads))
	}
}

func TestCreateLeadRejectsInvalidEmail(t *testing.T) {
	srv, _, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/leads", models.Lead{
		Name:               "Omar",
		Email:              "not-an-email",
		ProjectDescription: "an app",
		Timeline:           "soon",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestGetLead(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	id := seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodGet, fmt.Sprintf("/leads/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var lead models.Lead
	decodeEnvelope(t, w, &lead)
	if lead.ID != id {
		t.Errorf("ID = %d, want %d", lead.ID, id)
	}

	w = doJSON(t, srv.Handler(), http.MethodGet, "/leads/9999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing lead status = %d, want 404", w.Code)
	}

	w = doJSON(t, srv.Handler(), http.MethodGet, "/leads/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad ID status = %d, want 400", w.Code)
	}
}

func TestUpdateLeadStatus(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	id := seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodPut, fmt.Sprintf("/leads/%d", id),
		models.LeadStatusUpdateRequest{Status: models.StatusClosed})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	lead, _ := st.GetLead(context.Background(), id)
	if lead.Status != models.StatusClosed {
		t.Errorf("Status = %q, want %q", lead.Status, models.StatusClosed)
	}

	w = doJSON(t, srv.Handler(), http.MethodPut, fmt.Sprintf("/leads/%d", id),
		models.LeadStatusUpdateRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty status update = %d, want 400", w.Code)
	}
}

func TestDeleteLead(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	id := seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodDelete, fmt.Sprintf("/leads/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	lead, _ := st.GetLead(context.Background(), id)
	if lead != nil {
		t.Error("lead should be gone after delete")
	}
}

func TestLeadStatsEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/leads/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats models.LeadStats
	decodeEnvelope(t, w, &stats)
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
	if stats.ByStatus[models.StatusNewLead] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
}

func TestFollowupDraftOnly(t *testing.T) {
	client := &mockClient{responses: []string{"Subject: About your portal\n\nDear Sara,\n\nLet's talk."}}
	srv, st, mailer := newTestServer(client)
	id := seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodPost, fmt.Sprintf("/leads/%d/followup", id),
		models.FollowupRequest{Context: "be brief"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result models.FollowupResponse
	decodeEnvelope(t, w, &result)
	if result.Subject != "About your portal" {
		t.Errorf("Subject = %q", result.Subject)
	}
	if result.Sent {
		t.Error("draft-only request must not send")
	}
	if len(mailer.sent) != 0 {
		t.Errorf("mailer invoked %d times, want 0", len(mailer.sent))
	}
}

func TestFollowupSendMarksContacted(t *testing.T) {
	srv, st, mailer := newTestServer(&mockClient{})
	id := seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodPost, fmt.Sprintf("/leads/%d/followup", id),
		models.FollowupRequest{Subject: "Hello", Body: "Following up.", Send: true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result models.FollowupResponse
	decodeEnvelope(t, w, &result)
	if !result.Sent {
		t.Error("Sent should be true")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "sara@example.com" {
		t.Errorf("mailer.sent = %v", mailer.sent)
	}
	lead, _ := st.GetLead(context.Background(), id)
	if lead.Status != models.StatusContacted {
		t.Errorf("Status = %q, want %q", lead.Status, models.StatusContacted)
	}
}

func TestFollowupSendFailure(t *testing.T) {
	srv, st, mailer := newTestServer(&mockClient{})
	mailer.err = errors.New("relay unreachable")
	id := seedLead(t, st)

	w := doJSON(t, srv.Handler(), http.MethodPost, fmt.Sprintf("/leads/%d/followup", id),
		models.FollowupRequest{Subject: "Hello", Body: "Following up.", Send: true})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	lead, _ := st.GetLead(context.Background(), id)
	if lead.Status != models.StatusNewLead {
		t.Errorf("Status = %q, failed send must not mark contacted", lead.Status)
	}
}

func TestFollowupMissingLead(t *testing.T) {
	srv, _, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/leads/42/followup", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListConsultations(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	if _, err := st.InsertConsultation(context.Background(), models.Consultation{
		Name:             "Omar",
		Email:            "omar@example.com",
		ConsultationType: "General Consultation",
		Status:           models.StatusNewRequest,
	}); err != nil {
		t.Fatalf("seed consultation: %v", err)
	}

	w := doJSON(t, srv.Handler(), http.MethodGet, "/consultations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var consultations []models.Consultation
	decodeEnvelope(t, w, &consultations)
	if len(consultations) != 1 || consultations[0].Name != "Omar" {
		t.Errorf("consultations = %+v", consultations)
	}
}

func TestUnknownLeadSubresource(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	id := seedLead(t, st)
	w := doJSON(t, srv.Handler(), http.MethodGet, fmt.Sprintf("/leads/%d/unknown", id), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Not found") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRunFollowupPass(t *testing.T) {
	client := &mockClient{responses: []string{"Subject: Checking in\n\nStill interested?"}}
	srv, st, mailer := newTestServer(client)

	stale, err := st.InsertLead(context.Background(), models.Lead{
		CreatedAt:          time.Now().UTC().Add(-5 * 24 * time.Hour),
		Name:               "Sara Khan",
		Email:              "sara@example.com",
		ProjectDescription: "a customer portal",
		Timeline:           "3 months",
		Status:             models.StatusNewLead,
	})
	if err != nil {
		t.Fatalf("seed stale lead: %v", err)
	}
	fresh := seedLead(t, st)

	srv.runFollowupPass(context.Background())

	if len(mailer.sent) != 1 || mailer.sent[0] != "sara@example.com" {
		t.Fatalf("mailer.sent = %v, want only the stale lead", mailer.sent)
	}
	staleLead, _ := st.GetLead(context.Background(), stale)
	if staleLead.Status != models.StatusContacted {
		t.Errorf("stale lead status = %q, want %q", staleLead.Status, models.StatusContacted)
	}
	freshLead, _ := st.GetLead(context.Background(), fresh)
	if freshLead.Status != models.StatusNewLead {
		t.Errorf("fresh lead status = %q, must stay untouched", freshLead.Status)
	}
}

func TestAddDocument(t *testing.T) {
	srv, st, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/documents", models.Document{
		Title:   "services",
		Content: "We build custom LMS platforms and mobile apps.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc models.Document
	decodeEnvelope(t, w, &doc)
	if doc.ID == 0 {
		t.Errorf("document ID not assigned")
	}
	hits, err := st.SearchDocuments(context.Background(), "LMS", 5)
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
}

func TestAddDocumentRequiresContent(t *testing.T) {
	srv, _, _ := newTestServer(&mockClient{})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/documents", models.Document{Title: "empty"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
