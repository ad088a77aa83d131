package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/genetech/leadchat/internal/mail"
	"github.com/genetech/leadchat/internal/models"
	"github.com/google/uuid"
)

// chatHandler handles POST /chat
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("chatHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("chatHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("chatHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		slog.Debug("chatHandler minted new session", "sessionID", sessionID)
	}

	reply := s.router.HandleTurn(r.Context(), sessionID, req.Message)
	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatResponse{
		SessionID: sessionID,
		Response:  reply,
	}))
}

// leadsHandler handles GET /leads and POST /leads
func (s *Server) leadsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("leadsHandler invoked", "method", r.Method, "path", r.URL.Path)
	switch r.Method {
	case http.MethodGet:
		leads, err := s.st.ListLeads(r.Context())
		if err != nil {
			slog.Error("leadsHandler list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list leads"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(leads))
	case http.MethodPost:
		var lead models.Lead
		if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
			slog.Warn("leadsHandler invalid JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if lead.Status == "" {
			lead.Status = models.StatusNewLead
		}
		id, err := s.st.InsertLead(r.Context(), lead)
		if err != nil {
			if isValidationError(err) {
				slog.Warn("leadsHandler validation failed", "error", err)
				writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
				return
			}
			slog.Error("leadsHandler insert failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create lead"))
			return
		}
		lead.ID = id
		slog.Info("Lead created via API", "id", id)
		writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Lead created successfully", lead))
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// leadResourceHandler dispatches /leads/stats, /leads/{id}, and
// /leads/{id}/followup.
func (s *Server) leadResourceHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/leads/"), "/")
	if rest == "stats" {
		s.leadStatsHandler(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		slog.Warn("leadResourceHandler invalid lead ID", "path", r.URL.Path)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid lead ID"))
		return
	}

	switch {
	case len(parts) == 1:
		s.leadHandler(w, r, id)
	case len(parts) == 2 && parts[1] == "followup":
		s.leadFollowupHandler(w, r, id)
	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
	}
}

// leadStatsHandler handles GET /leads/stats
func (s *Server) leadStatsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("leadStatsHandler invoked", "method", r.Method)
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	stats, err := s.st.LeadStats(r.Context())
	if err != nil {
		slog.Error("leadStatsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to compute statistics"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// leadHandler handles GET, PUT, and DELETE on /leads/{id}
func (s *Server) leadHandler(w http.ResponseWriter, r *http.Request, id int64) {
	slog.Debug("leadHandler invoked", "method", r.Method, "id", id)
	switch r.Method {
	case http.MethodGet:
		lead, err := s.st.GetLead(r.Context(), id)
		if err != nil {
			slog.Error("leadHandler get failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get lead"))
			return
		}
		if lead == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Lead not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(lead))
	case http.MethodPut:
		var req models.LeadStatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("leadHandler invalid JSON", "error", err, "id", id)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("leadHandler validation failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		if err := s.st.UpdateLeadStatus(r.Context(), id, req.Status); err != nil {
			slog.Error("leadHandler status update failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update lead"))
			return
		}
		slog.Info("Lead status updated", "id", id, "status", req.Status)
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Lead updated successfully", nil))
	case http.MethodDelete:
		if err := s.st.DeleteLead(r.Context(), id); err != nil {
			slog.Error("leadHandler delete failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete lead"))
			return
		}
		slog.Info("Lead deleted", "id", id)
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Lead deleted successfully", nil))
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// leadFollowupHandler handles POST /leads/{id}/followup. Without "send" in
// the body it only drafts the email so a human can review it first.
func (s *Server) leadFollowupHandler(w http.ResponseWriter, r *http.Request, id int64) {
	slog.Debug("leadFollowupHandler invoked", "method", r.Method, "id", id)
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req models.FollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Warn("leadFollowupHandler invalid JSON", "error", err, "id", id)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	lead, err := s.st.GetLead(r.Context(), id)
	if err != nil {
		slog.Error("leadFollowupHandler get failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get lead"))
		return
	}
	if lead == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Lead not found"))
		return
	}

	email := mail.Email{Subject: req.Subject, Body: req.Body}
	if email.Subject == "" || email.Body == "" {
		email = s.drafter.Draft(r.Context(), lead.Email, lead.ProjectDescription, req.Context)
	}

	sent := false
	if req.Send {
		if err := s.mailer.Send(r.Context(), lead.Email, email.Subject, email.Body); err != nil {
			slog.Error("leadFollowupHandler send failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to send email"))
			return
		}
		sent = true
		if err := s.st.UpdateLeadStatus(r.Context(), id, models.StatusContacted); err != nil {
			// The email is already out; surface the stale status in logs only.
			slog.Warn("leadFollowupHandler status update failed", "error", err, "id", id)
		}
		slog.Info("Follow-up email sent", "id", id, "to", lead.Email)
	}

	writeJSONResponse(w, http.StatusOK, models.Success(models.FollowupResponse{
		Subject: email.Subject,
		Body:    email.Body,
		Sent:    sent,
	}))
}

// consultationsHandler handles GET /consultations
func (s *Server) consultationsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("consultationsHandler invoked", "method", r.Method)
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	consultations, err := s.st.ListConsultations(r.Context())
	if err != nil {
		slog.Error("consultationsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list consultations"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(consultations))
}

// documentsHandler handles POST /documents, adding a knowledge-base snippet
// used by the company-info responder.
func (s *Server) documentsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("documentsHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		slog.Warn("documentsHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(doc.Content) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Document content is required"))
		return
	}
	id, err := s.st.AddDocument(r.Context(), doc)
	if err != nil {
		slog.Error("documentsHandler insert failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to add document"))
		return
	}
	doc.ID = id
	slog.Info("Document added via API", "id", id, "title", doc.Title)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Document added successfully", doc))
}

// healthHandler handles GET /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}

// isValidationError reports whether err stems from record validation rather
// than the storage backend.
func isValidationError(err error) bool {
	return errors.Is(err, models.ErrMissingName) ||
		errors.Is(err, models.ErrMissingEmail) ||
		errors.Is(err, models.ErrInvalidEmail) ||
		errors.Is(err, models.ErrMissingDescription) ||
		errors.Is(err, models.ErrMissingTimeline)
}
