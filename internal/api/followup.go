package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/genetech/leadchat/internal/models"
)

// DefaultFollowupAfter is how long a lead may sit uncontacted before the
// scheduled follow-up pass emails it.
const DefaultFollowupAfter = 72 * time.Hour

const followupContext = "This is an automated follow-up: the lead was captured a few days ago and has not been contacted yet."

// runFollowupPass drafts and sends a follow-up email to every lead that is
// still in the new status past the follow-up age, then marks it contacted.
// Failures are logged per lead; one bad address does not stop the pass.
func (s *Server) runFollowupPass(ctx context.Context) {
	leads, err := s.st.ListLeads(ctx)
	if err != nil {
		slog.Error("Server.runFollowupPass: list failed", "error", err)
		return
	}

	cutoff := time.Now().UTC().Add(-s.opts.FollowupAfter)
	sent := 0
	for _, lead := range leads {
		if lead.Status != models.StatusNewLead || lead.CreatedAt.After(cutoff) {
			continue
		}
		email := s.drafter.Draft(ctx, lead.Email, lead.ProjectDescription, followupContext)
		if err := s.mailer.Send(ctx, lead.Email, email.Subject, email.Body); err != nil {
			slog.Error("Server.runFollowupPass: send failed", "error", err, "id", lead.ID)
			continue
		}
		if err := s.st.UpdateLeadStatus(ctx, lead.ID, models.StatusContacted); err != nil {
			slog.Warn("Server.runFollowupPass: status update failed", "error", err, "id", lead.ID)
		}
		sent++
	}
	if sent > 0 {
		slog.Info("Server.runFollowupPass: follow-ups sent", "sent", sent, "scanned", len(leads))
	}
}
