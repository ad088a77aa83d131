package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genetech/leadchat/internal/genai"
)

// DefaultSubject is used when the generated draft carries no subject line.
const DefaultSubject = "Following up on your inquiry with Genetech Solutions"

const drafterSystemPrompt = `You are a professional email writer for Genetech Solutions, a leading software development company specializing in custom solutions, mobile apps, web development, and AI integration.
Your task is to craft a personalized email to a potential client who has expressed interest in our services.

Guidelines for the email:
- Use a professional, friendly, and consultative tone that reflects Genetech Solutions' brand
- Personalize the email by referencing their specific project description
- Highlight how our services can address their specific needs
- Include a clear call-to-action for the next steps
- Keep the email concise (3-4 paragraphs) but informative
- Format the email with a subject line, greeting, body, and closing
- Do not include placeholders like [Name] or [Company]

The email must start with a line of the form "Subject: ..." followed by the greeting, body, and closing, signed off as the Genetech Solutions Team.`

// Email is a drafted follow-up ready for review or delivery.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Drafter generates personalized follow-up emails for leads.
type Drafter struct {
	client genai.ClientInterface
}

// NewDrafter creates a drafter backed by the given GenAI client.
func NewDrafter(client genai.ClientInterface) *Drafter {
	return &Drafter{client: client}
}

// Draft generates a follow-up email for a lead. A failed or empty generation
// degrades to a fixed template referencing the project description, so the
// caller always receives a usable draft.
func (d *Drafter) Draft(ctx context.Context, recipientEmail, projectDescription, extraContext string) Email {
	userPrompt := fmt.Sprintf("RECIPIENT EMAIL: %s\nPROJECT DESCRIPTION: %s\nCONTEXT: %s",
		recipientEmail, projectDescription, extraContext)

	raw, err := d.client.GeneratePrompt(ctx, drafterSystemPrompt, userPrompt)
	if err != nil || strings.TrimSpace(raw) == "" {
		slog.Error("Drafter.Draft: generation failed, using fallback template", "recipient", recipientEmail, "error", err)
		return Email{
			Subject: DefaultSubject,
			Body:    fallbackBody(projectDescription),
		}
	}
	return parseDraft(raw)
}

// parseDraft splits a generated draft into subject and body. The subject is
// taken from the first "Subject:" line; everything after it is the body. A
// draft without one keeps the whole text as body under the default subject.
func parseDraft(raw string) Email {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Subject:") {
			return Email{
				Subject: strings.TrimSpace(strings.TrimPrefix(line, "Subject:")),
				Body:    strings.TrimSpace(strings.Join(lines[i+1:], "\n")),
			}
		}
	}
	return Email{
		Subject: DefaultSubject,
		Body:    strings.TrimSpace(raw),
	}
}

func fallbackBody(projectDescription string) string {
	return fmt.Sprintf(`Dear Valued Client,

Thank you for your interest in Genetech Solutions. Based on your project description: %s, we believe our team can help you achieve your goals.

We specialize in custom software development, mobile apps, web solutions, and AI integration. Our experts would be delighted to discuss your project in more detail.

Please let us know a convenient time for a call or meeting.

Best regards,
Genetech Solutions Team`, projectDescription)
}
