// Package assist provides the LLM-backed collaborators the router delegates
// to: the intent classifier, the stage judge for the slot-filling flows, and
// the stateless responders for informational queries.
//
// Every collaborator degrades to a fixed response when generation fails, so
// the assistant never surfaces a raw error to the user.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genetech/leadchat/internal/genai"
	"github.com/genetech/leadchat/internal/models"
)

// CompanyName is the business the assistant fronts for.
const CompanyName = "Genetech Solutions"

const classifierSystemPrompt = `You are an expert intent classifier for ` + CompanyName + ` FAQ bot. Your job is to analyze user messages and classify them accurately.

CLASSIFICATION CATEGORIES:
1. "greeting_feedback" - Simple greetings ("hi", "hello", "hey"), thank you messages ("thanks", "thank you"), feedback responses ("that's helpful", "great"), or general conversational responses
2. "business_interest" - User wants to engage ` + CompanyName + ` for work or shows commercial intent for project development, e.g. "can you develop a website for me"
3. "consultation_request" - User specifically asks for consultation, wants to contact someone, asks "how do I contact you", "can I get a quick consultation", wants to speak with the team
4. "company_info" - Questions specifically about ` + CompanyName + `'s services, team, processes, or pricing that require company knowledge, e.g. "do you provide cybersecurity services?"
5. "job_opportunity" - User expressing interest in jobs, careers, employment, or the hiring process at ` + CompanyName + `
6. "company_contact_info" - User asking for company contact information, phone numbers, or email addresses, e.g. "what is your company email?"
7. "portfolio_request" - User asking for portfolio information, links, or examples of completed projects
8. "clients_reviews" - User asking about clients, the client list, reviews, or testimonials
9. "irrelevant" - General knowledge questions not specific to ` + CompanyName + `

CRITICAL DISTINCTIONS:
- "consultation_request" = user wants to talk or consult with someone (personal consultation)
- "company_contact_info" = user wants company contact details (informational)
- "business_interest" = user wants to hire for specific project work
- "portfolio_request" = user wants to see examples of work done
- "clients_reviews" = user wants the client list or customer reviews

CRITICAL: If the user is answering questions about their project needs, requirements, or business intentions, classify as "business_interest" even if their answer seems negative or unclear.

Respond with ONLY the category name.`

// Classifier assigns one of the routing intents to a user message.
type Classifier struct {
	client genai.ClientInterface
}

// NewClassifier creates an intent classifier backed by the given GenAI client.
func NewClassifier(client genai.ClientInterface) *Classifier {
	return &Classifier{client: client}
}

// Classify determines the intent of a user message given the conversation so
// far. Classification failures and unknown labels fall back to
// models.DefaultIntent so routing always proceeds.
func (c *Classifier) Classify(ctx context.Context, userText, transcript string) models.Intent {
	var user strings.Builder
	if transcript != "" {
		fmt.Fprintf(&user, "CONVERSATION CONTEXT:\n%s\n\n", transcript)
	}
	fmt.Fprintf(&user, "USER MESSAGE: %q", userText)

	raw, err := c.client.GeneratePrompt(ctx, classifierSystemPrompt, user.String())
	if err != nil {
		slog.Error("Classifier.Classify: generation failed, using default intent", "error", err, "default", models.DefaultIntent)
		return models.DefaultIntent
	}
	intent := models.Intent(strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"`)))
	if !models.IsValidIntent(intent) {
		slog.Warn("Classifier.Classify: unknown label, using default intent", "label", raw, "default", models.DefaultIntent)
		return models.DefaultIntent
	}
	slog.Debug("Classifier.Classify: classified message", "intent", intent)
	return intent
}
