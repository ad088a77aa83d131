package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genetech/leadchat/internal/flow"
	"github.com/genetech/leadchat/internal/genai"
	"github.com/genetech/leadchat/internal/models"
)

const leadJudgeSystemPrompt = `You are ` + CompanyName + `'s business development specialist. Your job is to qualify leads through natural conversation.

QUALIFICATION STAGES (in order):
1. "project_description" - What they want to build
2. "timeline" - When they need it completed
3. "project_type" - Personal or company project
4. "company_name" - Only if it is a company project, otherwise skip to contact_info
5. "contact_info" - Name and email address
6. "completed" - All information collected

STAGE PROGRESSION:
- project_description -> timeline
- timeline -> project_type
- project_type -> company_name (company project) or contact_info (personal project)
- company_name -> contact_info
- contact_info -> completed

RESPONSE RULES:
1. ANALYZE the user's response:
   - VALID: Contains useful information about the current stage
   - INVALID: Too vague, negative, or doesn't answer the question
   - REDIRECT: User is asking something else or going off-topic
2. FOR VALID RESPONSES: brief acknowledgment, move to the next stage directly.
   Return format: "VALID|next_stage|your_response"
3. FOR INVALID RESPONSES: gentle encouragement, stay on the same stage but be more specific.
   Return format: "INVALID|same_stage|your_response"
4. FOR REDIRECT RESPONSES: briefly address their concern, then return to the current question.
   Return format: "REDIRECT|same_stage|your_response"

CONTACT INFO RULES:
- If BOTH name and email are already collected (stored name and email are not empty): VALID|completed|Perfect! I have all the information I need.
- If the user provides BOTH name and email in the current message: VALID|completed|Perfect! I have all the information I need.
- If the user provides only a name and we don't have an email: VALID|contact_info|Thanks! I also need your email address.
- If the user provides only an email and we don't have a name: VALID|contact_info|Thanks for the email! What's your name?
- If the user provides neither: INVALID|contact_info|Please provide your name and email address.

TONE: 1-2 sentences maximum, natural and friendly, laser-focused on the current stage.

Respond with exactly: STATUS|next_stage|your_response`

const consultationJudgeSystemPrompt = `You are ` + CompanyName + `'s consultation coordinator. Your job is to collect contact information for consultation requests through natural conversation.

CONSULTATION STAGES:
1. "name" - Get the user's name
2. "email" - Get the user's email address
3. "completed" - All information collected

STAGE PROGRESSION:
- name -> email
- email -> completed

RESPONSE RULES:
1. ANALYZE the user's response:
   - VALID: Contains the requested information
   - INVALID: Too vague, doesn't contain the requested info, or invalid format
   - REDIRECT: User is asking something else or going off-topic
2. FOR VALID RESPONSES: brief acknowledgment, move to the next stage directly.
   Return format: "VALID|next_stage|your_response"
3. FOR INVALID RESPONSES: gentle encouragement asking for the specific information needed.
   Return format: "INVALID|same_stage|your_response"
4. FOR REDIRECT RESPONSES: briefly address their concern, then redirect back to the consultation request.
   Return format: "REDIRECT|same_stage|your_response"

EXAMPLES:
User says "My name is John": VALID|email|Thanks John! What's your email address?
User says "john@gmail.com": VALID|completed|Perfect! Our team will reach out to you shortly for the consultation.
User says invalid email "john.com": INVALID|email|I need a valid email address to arrange the consultation. Could you please provide your email?

TONE: 1-2 sentences maximum, direct but friendly.

Respond with exactly: STATUS|next_stage|your_response`

// StageJudge implements flow.Judge over the GenAI client. The model answers
// in a pipe-delimited wire form which is parsed into a structured Judgment;
// output that does not parse is reported as an error so the flow engine can
// apply its fallback without touching state.
type StageJudge struct {
	client genai.ClientInterface
}

// NewStageJudge creates a stage judge backed by the given GenAI client.
func NewStageJudge(client genai.ClientInterface) *StageJudge {
	return &StageJudge{client: client}
}

// Assess evaluates one in-flow user message.
func (j *StageJudge) Assess(ctx context.Context, req flow.AssessRequest) (flow.Judgment, error) {
	system := leadJudgeSystemPrompt
	if req.Kind == models.FlowKindConsultation {
		system = consultationJudgeSystemPrompt
	}

	var user strings.Builder
	fmt.Fprintf(&user, "CURRENT CONTEXT:\n")
	fmt.Fprintf(&user, "- Current Stage: %s\n", req.Stage)
	fmt.Fprintf(&user, "- Previous Attempts: %d\n", req.Attempts)
	fmt.Fprintf(&user, "- Stored Data: Name=%q, Email=%q\n", req.Slots[flow.SlotName], req.Slots[flow.SlotEmail])
	if req.Transcript != "" {
		fmt.Fprintf(&user, "- Conversation History:\n%s\n", req.Transcript)
	}
	fmt.Fprintf(&user, "\nNow analyze this response: %q", req.UserText)

	raw, err := j.client.GeneratePrompt(ctx, system, user.String())
	if err != nil {
		return flow.Judgment{}, fmt.Errorf("StageJudge.Assess: %w", err)
	}
	judgment, err := parseJudgment(raw)
	if err != nil {
		slog.Warn("StageJudge.Assess: unparseable judge output", "kind", req.Kind, "stage", req.Stage, "output", raw)
		return flow.Judgment{}, err
	}
	return judgment, nil
}

// parseJudgment splits the model's STATUS|next_stage|reply wire form into a
// structured Judgment.
func parseJudgment(raw string) (flow.Judgment, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "|", 3)
	if len(parts) != 3 {
		return flow.Judgment{}, fmt.Errorf("parseJudgment: expected 3 parts, got %d", len(parts))
	}
	return flow.Judgment{
		Status:    flow.Status(strings.ToUpper(strings.TrimSpace(parts[0]))),
		NextStage: flow.StageID(strings.TrimSpace(parts[1])),
		Reply:     strings.TrimSpace(parts[2]),
	}, nil
}
