package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genetech/leadchat/internal/genai"
)

// Fixed fallback responses used when generation fails.
const (
	greetingFallback = "Hello! Welcome to " + CompanyName + ". How can I help you today?"

	irrelevantFallback = "While I focus on " + CompanyName + "'s services, I'd love to show you how our tech solutions can benefit your business. Let's connect and explore how we can help streamline your operations!"

	portfolioFallback = "Sure, here's the link to our portfolio:\nhttps://www.genetechsolutions.com/portfolio"

	clientsFallback = "We have diverse clients across the world, you can check it out:\nOur Clients - https://www.genetechsolutions.com/clients"

	jobOpportunityReply = "I am happy that you are interested to build your career in " + CompanyName + ". Please visit https://www.genetechsolutions.com/jobs to find more interesting vacancies. Apply then our HR team will shortly contact you soon."

	contactInfoFallback = `Here are the ways to contact ` + CompanyName + `:

• Pakistan Office: +92 21 3455 8425
• USA Office: +1 734-519-1414
• General Email: info@genetech.co
• Direct Consultation with COO Shamim Rajani:
  • Email: shamim@genetech.io
  • LinkedIn: linkedin.com/in/shamimrajani

Feel free to reach out through any of these channels - our team is ready to help with your project needs!`

	knowledgeUnavailableReply = "I apologize, but I'm currently unable to access our company database. Please contact our team directly for detailed information about our services at info@genetech.co"

	knowledgeNoMatchReply = "Thanks for your interest in " + CompanyName + "! I don't have specific information about that topic in our database right now. I'd recommend reaching out to our team directly at info@genetech.co - they'll be able to give you detailed answers and discuss how we can help with your specific needs!"

	knowledgeErrorReply = "Thanks for your interest in " + CompanyName + "! I'm having a small technical hiccup right now. Please reach out to our team directly at info@genetech.co and they'll be happy to answer your questions and discuss your project needs!"
)

// Retriever finds knowledge-base snippets relevant to a question.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// companyInfoSnippets is how many knowledge snippets feed one answer.
const companyInfoSnippets = 10

// Responders groups the stateless reply generators for informational intents.
type Responders struct {
	client    genai.ClientInterface
	retriever Retriever
}

// NewResponders creates the responder set.
func NewResponders(client genai.ClientInterface, retriever Retriever) *Responders {
	return &Responders{client: client, retriever: retriever}
}

// Greeting answers greetings, thanks, and feedback messages.
func (r *Responders) Greeting(ctx context.Context, userText string) string {
	system := `You are ` + CompanyName + `'s friendly AI assistant handling greetings, feedback, and thank you messages.

Guidelines:
- Keep responses concise (1-2 sentences maximum)
- Sound natural and human-like, not robotic
- For greetings: welcome them and briefly mention how you can help
- For thank you messages: acknowledge graciously and offer continued assistance
- For feedback: thank them and show appreciation

Examples:
User: "hi" -> "Hello! Welcome to ` + CompanyName + `. How can I help you today?"
User: "thank you" -> "You're very welcome! Feel free to reach out anytime if you need help to Grow your Business."
User: "that was helpful" -> "So glad I could help! Let me know if you have any other questions."`
	return r.generate(ctx, "Greeting", system, fmt.Sprintf("User message: %q", userText), greetingFallback)
}

// Irrelevant gently redirects off-topic questions toward business topics.
func (r *Responders) Irrelevant(ctx context.Context, userText string) string {
	system := `You are ` + CompanyName + `'s professional AI assistant handling off-topic queries.

For queries not related to ` + CompanyName + ` or its services:
- Do NOT give rigid "I cannot help" responses
- Gently acknowledge their question and smoothly redirect to how our services can benefit their business
- Always end with a warm invitation to connect or learn more about our solutions
- Keep responses to 1 sentence maximum`
	return r.generate(ctx, "Irrelevant", system, fmt.Sprintf("User message: %q", userText), irrelevantFallback)
}

// JobOpportunity answers career questions with a fixed pointer to the jobs page.
func (r *Responders) JobOpportunity() string {
	return jobOpportunityReply
}

// ContactInfo presents the company's contact channels.
func (r *Responders) ContactInfo(ctx context.Context) string {
	system := `You are ` + CompanyName + `'s professional AI assistant providing contact information.

Present the following details in a clear, organized bullet point format:

• Pakistan Office: +92 21 3455 8425
• USA Office: +1 734-519-1414
• General Email: info@genetech.co
• Direct Consultation with COO Shamim Rajani:
  • Email: shamim@genetech.io
  • LinkedIn: linkedin.com/in/shamimrajani

Format your response with a friendly opening, the contact information in bullet points, and a closing that invites them to get in touch. Keep the tone professional but approachable.`
	return r.generate(ctx, "ContactInfo", system, "The user asked for the company's contact information.", contactInfoFallback)
}

// Portfolio replies with the most relevant portfolio link.
func (r *Responders) Portfolio(ctx context.Context, userText string) string {
	system := `You are ` + CompanyName + `'s professional AI assistant handling portfolio queries.

STRICT RESPONSE RULES:
- Maximum 2 lines ONLY
- Always start with "Sure, here's the link to our [Portfolio Type] portfolio:"
- Provide the exact link on the second line
- NO additional explanations or marketing text

Portfolio Links:
- Web Development: https://genetechsolutions.com/portfolio/web-development.html
- Mobile Applications: https://www.genetechsolutions.com/portfolio/mobile-apps
- Personal Branding Websites: https://www.genetechsolutions.com/portfolio/personal-branding-websites
- LMS Development: https://www.genetechsolutions.com/portfolio/lms
- E-commerce Solutions: https://www.genetechsolutions.com/portfolio/online-shops
- General Portfolio: https://www.genetechsolutions.com/portfolio

Match keywords to the most relevant portfolio link. If unsure, default to the general portfolio link.`
	return r.generate(ctx, "Portfolio", system, fmt.Sprintf("User message: %q", userText), portfolioFallback)
}

// ClientsReviews replies with the client list or testimonial links.
func (r *Responders) ClientsReviews(ctx context.Context, userText string) string {
	system := `You are ` + CompanyName + `'s professional AI assistant handling client and review queries.

STRICT RESPONSE RULES:
- Maximum 2 lines ONLY
- NO additional explanations or marketing text

For client inquiries (who are your clients, client list, etc.):
Line 1: "We have diverse clients across the world, you can check it out:"
Line 2: "Our Clients - https://www.genetechsolutions.com/clients"

For review/testimonial inquiries (reviews, testimonials, feedback, etc.):
Line 1: "We have so many excellent reviews and love from all over the world, you can see more about reviews in detail in below link:"
Line 2: "https://www.genetechsolutions.com/testimonials"`
	return r.generate(ctx, "ClientsReviews", system, fmt.Sprintf("User message: %q", userText), clientsFallback)
}

// CompanyInfo answers company questions grounded on knowledge-base snippets.
func (r *Responders) CompanyInfo(ctx context.Context, question string) string {
	if r.retriever == nil {
		return knowledgeUnavailableReply
	}
	snippets, err := r.retriever.Search(ctx, question, companyInfoSnippets)
	if err != nil {
		slog.Error("Responders.CompanyInfo: knowledge search failed", "error", err)
		return knowledgeUnavailableReply
	}
	if len(snippets) == 0 {
		slog.Debug("Responders.CompanyInfo: no snippets matched", "question", question)
		return knowledgeNoMatchReply
	}

	system := `You are ` + CompanyName + `'s professional AI assistant. Respond to customer inquiries with warmth, expertise, and a gentle nudge toward action.

Guidelines:
- Keep answers concise and conversational (1 sentence max)
- Use a warm, human-like tone that builds trust
- Focus on benefits and value to the customer
- Always include a soft call-to-action that moves toward a decision
- If the information isn't in the context, politely redirect to direct contact`
	user := fmt.Sprintf("Context:\n%s\n\nCustomer Question:\n%s", strings.Join(snippets, "\n\n"), question)
	return r.generate(ctx, "CompanyInfo", system, user, knowledgeErrorReply)
}

// generate runs one completion and substitutes the fallback on any failure.
func (r *Responders) generate(ctx context.Context, name, system, user, fallback string) string {
	reply, err := r.client.GeneratePrompt(ctx, system, user)
	if err != nil {
		slog.Error("Responders."+name+": generation failed, using fallback", "error", err)
		return fallback
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fallback
	}
	return reply
}
