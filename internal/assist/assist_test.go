package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/genetech/leadchat/internal/flow"
	"github.com/genetech/leadchat/internal/models"
)

// mockClient implements genai.ClientInterface with canned output.
type mockClient struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (m *mockClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	return m.response, m.err
}

func (m *mockClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	return m.response, m.err
}

// stubRetriever implements Retriever with canned snippets.
type stubRetriever struct {
	snippets []string
	err      error
}

func (s *stubRetriever) Search(ctx context.Context, query string, limit int) ([]string, error) {
	return s.snippets, s.err
}

func TestClassifyKnownIntent(t *testing.T) {
	client := &mockClient{response: "business_interest"}
	c := NewClassifier(client)
	intent := c.Classify(context.Background(), "can you build me a website?", "")
	if intent != models.IntentBusinessInterest {
		t.Errorf("expected business_interest, got %q", intent)
	}
	if !strings.Contains(client.lastUser, "can you build me a website?") {
		t.Error("user message not forwarded to the model")
	}
}

func TestClassifyNormalizesLabel(t *testing.T) {
	client := &mockClient{response: "  \"Consultation_Request\"  "}
	c := NewClassifier(client)
	if intent := c.Classify(context.Background(), "how do I contact you?", ""); intent != models.IntentConsultationRequest {
		t.Errorf("expected consultation_request, got %q", intent)
	}
}

func TestClassifyUnknownLabelFallsBack(t *testing.T) {
	client := &mockClient{response: "sales_pitch"}
	c := NewClassifier(client)
	if intent := c.Classify(context.Background(), "hmm", ""); intent != models.DefaultIntent {
		t.Errorf("expected default intent, got %q", intent)
	}
}

func TestClassifyErrorFallsBack(t *testing.T) {
	client := &mockClient{err: errors.New("model unavailable")}
	c := NewClassifier(client)
	if intent := c.Classify(context.Background(), "hi", ""); intent != models.DefaultIntent {
		t.Errorf("expected default intent on error, got %q", intent)
	}
}

func TestClassifyIncludesTranscript(t *testing.T) {
	client := &mockClient{response: "irrelevant"}
	c := NewClassifier(client)
	c.Classify(context.Background(), "why is the sky blue?", "User: hi\nAssistant: hello")
	if !strings.Contains(client.lastUser, "User: hi") {
		t.Error("transcript not included in the classification prompt")
	}
}

func TestParseJudgment(t *testing.T) {
	j, err := parseJudgment("VALID|timeline|Got it! When do you need this completed?")
	if err != nil {
		t.Fatalf("parseJudgment failed: %v", err)
	}
	if j.Status != flow.StatusValid || j.NextStage != flow.StageTimeline {
		t.Errorf("unexpected judgment: %+v", j)
	}
	if j.Reply != "Got it! When do you need this completed?" {
		t.Errorf("unexpected reply: %q", j.Reply)
	}
}

func TestParseJudgmentPreservesPipesInReply(t *testing.T) {
	j, err := parseJudgment("INVALID|contact_info|Please share name | email together.")
	if err != nil {
		t.Fatalf("parseJudgment failed: %v", err)
	}
	if j.Reply != "Please share name | email together." {
		t.Errorf("reply should keep pipes past the second delimiter, got %q", j.Reply)
	}
}

func TestParseJudgmentMalformed(t *testing.T) {
	for _, raw := range []string{"", "just some prose", "VALID|timeline"} {
		if _, err := parseJudgment(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestStageJudgeAssess(t *testing.T) {
	client := &mockClient{response: "valid | timeline | Great, noted!"}
	j := NewStageJudge(client)
	judgment, err := j.Assess(context.Background(), flow.AssessRequest{
		Kind:     models.FlowKindLead,
		Stage:    flow.StageProjectDescription,
		UserText: "an online store",
		Attempts: 1,
		Slots:    map[flow.Slot]string{flow.SlotName: "Jane"},
	})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if judgment.Status != flow.StatusValid || judgment.NextStage != flow.StageTimeline {
		t.Errorf("unexpected judgment: %+v", judgment)
	}
	if !strings.Contains(client.lastSystem, "business development specialist") {
		t.Error("lead assessment should use the lead system prompt")
	}
	if !strings.Contains(client.lastUser, `Name="Jane"`) {
		t.Errorf("stored slots should appear in the prompt, got:\n%s", client.lastUser)
	}
}

func TestStageJudgeSelectsConsultationPrompt(t *testing.T) {
	client := &mockClient{response: "VALID|email|Thanks! What's your email?"}
	j := NewStageJudge(client)
	if _, err := j.Assess(context.Background(), flow.AssessRequest{
		Kind:  models.FlowKindConsultation,
		Stage: flow.StageName,
	}); err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if !strings.Contains(client.lastSystem, "consultation coordinator") {
		t.Error("consultation assessment should use the consultation system prompt")
	}
}

func TestStageJudgeReportsGenerationError(t *testing.T) {
	client := &mockClient{err: errors.New("model unavailable")}
	j := NewStageJudge(client)
	if _, err := j.Assess(context.Background(), flow.AssessRequest{Kind: models.FlowKindLead}); err == nil {
		t.Fatal("expected error from failing client")
	}
}

func TestStageJudgeReportsMalformedOutput(t *testing.T) {
	client := &mockClient{response: "Sure! Here is my analysis of the message."}
	j := NewStageJudge(client)
	if _, err := j.Assess(context.Background(), flow.AssessRequest{Kind: models.FlowKindLead}); err == nil {
		t.Fatal("expected error for unparseable output")
	}
}

func TestRespondersFallbacks(t *testing.T) {
	client := &mockClient{err: errors.New("model unavailable")}
	r := NewResponders(client, &stubRetriever{})
	ctx := context.Background()

	if got := r.Greeting(ctx, "hi"); got != greetingFallback {
		t.Errorf("unexpected greeting fallback: %q", got)
	}
	if got := r.Irrelevant(ctx, "why is the sky blue?"); got != irrelevantFallback {
		t.Errorf("unexpected irrelevant fallback: %q", got)
	}
	if got := r.Portfolio(ctx, "show me your work"); got != portfolioFallback {
		t.Errorf("unexpected portfolio fallback: %q", got)
	}
	if got := r.ClientsReviews(ctx, "who are your clients?"); got != clientsFallback {
		t.Errorf("unexpected clients fallback: %q", got)
	}
	if got := r.ContactInfo(ctx); got != contactInfoFallback {
		t.Errorf("unexpected contact fallback: %q", got)
	}
}

func TestJobOpportunityIsFixed(t *testing.T) {
	r := NewResponders(&mockClient{}, nil)
	if got := r.JobOpportunity(); !strings.Contains(got, "genetechsolutions.com/jobs") {
		t.Errorf("job reply should point at the jobs page, got %q", got)
	}
}

func TestCompanyInfoUsesSnippets(t *testing.T) {
	client := &mockClient{response: "We offer full-cycle web development. Want to talk?"}
	r := NewResponders(client, &stubRetriever{snippets: []string{"Genetech builds web apps.", "Founded in 2004."}})
	got := r.CompanyInfo(context.Background(), "do you build web apps?")
	if got != "We offer full-cycle web development. Want to talk?" {
		t.Errorf("unexpected reply: %q", got)
	}
	if !strings.Contains(client.lastUser, "Genetech builds web apps.") {
		t.Error("snippets should be injected into the prompt context")
	}
}

func TestCompanyInfoNoSnippets(t *testing.T) {
	r := NewResponders(&mockClient{response: "unused"}, &stubRetriever{})
	if got := r.CompanyInfo(context.Background(), "do you sell hardware?"); got != knowledgeNoMatchReply {
		t.Errorf("expected no-match reply, got %q", got)
	}
}

func TestCompanyInfoRetrieverError(t *testing.T) {
	r := NewResponders(&mockClient{response: "unused"}, &stubRetriever{err: errors.New("db down")})
	if got := r.CompanyInfo(context.Background(), "services?"); got != knowledgeUnavailableReply {
		t.Errorf("expected unavailable reply, got %q", got)
	}
}
