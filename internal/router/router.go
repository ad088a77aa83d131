// Package router dispatches user turns: it classifies the message intent,
// drives the active slot-filling flow when one is in progress, delegates
// informational intents to the stateless responders, and persists completed
// flows.
package router

import (
	"context"
	"log/slog"

	"github.com/genetech/leadchat/internal/flow"
	"github.com/genetech/leadchat/internal/models"
	"github.com/genetech/leadchat/internal/session"
	"github.com/genetech/leadchat/internal/store"
)

// Fixed replies for persistence outcomes and degraded turns.
const (
	leadSavedReply = "Perfect! I have all the information I need about your project. Our team will contact you shortly with a detailed proposal."

	leadSaveFailedReply = "I apologize, but there was an issue saving your information. Please try again or contact our team directly."

	consultationSavedReply = `Perfect! Our team will reach out to you shortly for the consultation.

For direct consultation, you can also contact our COO Shamim Rajani:
• Email: shamim@genetech.io
• LinkedIn: linkedin.com/in/shamimrajani`

	consultationSaveFailedReply = "I apologize, but there was an issue saving your consultation request. Please try again or contact our team directly."

	completedClosingReply = "You're very welcome! Feel free to reach out anytime if you need help with your project or consultation."

	technicalIssueReply = "I apologize for the technical issue. Please try asking your question again, or contact our team directly for assistance."
)

// Classifier assigns a routing intent to a user message.
type Classifier interface {
	Classify(ctx context.Context, userText, transcript string) models.Intent
}

// Responders generate the replies for informational intents. Implementations
// must degrade to fixed fallback text rather than fail.
type Responders interface {
	Greeting(ctx context.Context, userText string) string
	Irrelevant(ctx context.Context, userText string) string
	JobOpportunity() string
	ContactInfo(ctx context.Context) string
	Portfolio(ctx context.Context, userText string) string
	ClientsReviews(ctx context.Context, userText string) string
	CompanyInfo(ctx context.Context, question string) string
}

// Router owns one turn of conversation processing per session.
type Router struct {
	sessions   *session.Store
	classifier Classifier
	judge      flow.Judge
	responders Responders
	store      store.Store

	lead         *flow.Definition
	consultation *flow.Definition
}

// New creates a Router wired to its collaborators.
func New(sessions *session.Store, classifier Classifier, judge flow.Judge, responders Responders, st store.Store) *Router {
	return &Router{
		sessions:     sessions,
		classifier:   classifier,
		judge:        judge,
		responders:   responders,
		store:        st,
		lead:         flow.LeadDefinition(),
		consultation: flow.ConsultationDefinition(),
	}
}

// HandleTurn processes one user message for the given session token and
// returns the assistant's reply. The reply is always non-empty; collaborator
// failures degrade to fixed strings. Both the user message and the reply are
// recorded in the session's conversation log.
func (r *Router) HandleTurn(ctx context.Context, sessionToken, userText string) string {
	sess := r.sessions.GetOrCreate(sessionToken)
	sess.Lock()
	defer sess.Unlock()

	// The transcript snapshot for classification and judging excludes the
	// message being processed; it is passed alongside separately.
	transcript := sess.Log.Render()
	sess.Log.Append(session.RoleUser, userText)

	intent := r.effectiveIntent(ctx, sess, userText, transcript)
	slog.Debug("Router.HandleTurn: dispatching", "session", sessionToken, "intent", intent)

	reply := r.dispatch(ctx, sess, intent, userText, transcript)
	if reply == "" {
		slog.Error("Router.HandleTurn: empty reply from dispatch", "intent", intent)
		reply = technicalIssueReply
	}
	sess.Log.Append(session.RoleAssistant, reply)
	return reply
}

// effectiveIntent forces the in-flow intent while a flow is collecting or has
// a save pending, so a mid-flow answer like "no" or "next month" is never
// re-routed elsewhere and a failed save can be retried on the next turn.
func (r *Router) effectiveIntent(ctx context.Context, sess *session.Session, userText, transcript string) models.Intent {
	if sess.Lead.Active || sess.Lead.ReadyToPersist {
		return models.IntentBusinessInterest
	}
	if sess.Consultation.Active || sess.Consultation.ReadyToPersist {
		return models.IntentConsultationRequest
	}
	return r.classifier.Classify(ctx, userText, transcript)
}

func (r *Router) dispatch(ctx context.Context, sess *session.Session, intent models.Intent, userText, transcript string) string {
	switch intent {
	case models.IntentBusinessInterest:
		return r.runFlow(ctx, sess, r.lead, &sess.Lead, userText, transcript)
	case models.IntentConsultationRequest:
		return r.runFlow(ctx, sess, r.consultation, &sess.Consultation, userText, transcript)
	case models.IntentGreetingFeedback:
		return r.responders.Greeting(ctx, userText)
	case models.IntentJobOpportunity:
		return r.responders.JobOpportunity()
	case models.IntentCompanyContactInfo:
		return r.responders.ContactInfo(ctx)
	case models.IntentPortfolioRequest:
		return r.responders.Portfolio(ctx, userText)
	case models.IntentClientsReviews:
		return r.responders.ClientsReviews(ctx, userText)
	case models.IntentIrrelevant:
		return r.responders.Irrelevant(ctx, userText)
	default:
		return r.responders.CompanyInfo(ctx, userText)
	}
}

// runFlow advances one slot-filling flow by a single turn.
func (r *Router) runFlow(ctx context.Context, sess *session.Session, def *flow.Definition, st *flow.State, userText, transcript string) string {
	if st.ReadyToPersist && !st.Active {
		// A previous persist attempt failed; retry with the preserved state.
		slog.Info("Router.runFlow: retrying pending persist", "kind", def.Kind)
		return r.persist(ctx, sess, def, st)
	}
	if !st.Active {
		return def.Start(st)
	}
	res := def.Step(ctx, r.judge, st, userText, transcript)
	switch res.Kind {
	case flow.ResultReadyToPersist:
		return r.persist(ctx, sess, def, st)
	case flow.ResultJustCompleted:
		return completedClosingReply
	default:
		return res.Reply
	}
}

// persist writes the completed flow's record. On success the flow state is
// fully reset; on failure it is preserved untouched so a later turn can retry
// without re-collecting anything.
func (r *Router) persist(ctx context.Context, sess *session.Session, def *flow.Definition, st *flow.State) string {
	full := sess.Log.Render()
	switch def.Kind {
	case models.FlowKindConsultation:
		record := flow.BuildConsultation(st, full)
		id, err := r.store.InsertConsultation(ctx, record)
		if err != nil {
			slog.Error("Router.persist: consultation insert failed", "error", err, "email", record.Email)
			return consultationSaveFailedReply
		}
		slog.Info("Router.persist: consultation saved", "id", id)
		st.Reset()
		return consultationSavedReply
	default:
		record := flow.BuildLead(st, full)
		id, err := r.store.InsertLead(ctx, record)
		if err != nil {
			slog.Error("Router.persist: lead insert failed", "error", err, "email", record.Email)
			return leadSaveFailedReply
		}
		slog.Info("Router.persist: lead saved", "id", id)
		st.Reset()
		return leadSavedReply
	}
}
