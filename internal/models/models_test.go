package models

import (
	"errors"
	"testing"
)

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"jane.doe@example.com", true},
		{"user+tag@sub.domain.co", true},
		{"a_b%c@host.io", true},
		{"no-at-sign.example.com", false},
		{"missing@tld", false},
		{"spaces in@example.com", false},
		{"", false},
		{"@example.com", false},
		{"user@.com", true}, // the pattern does not validate domain shape
	}
	for _, c := range cases {
		if got := ValidEmail(c.email); got != c.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", c.email, got, c.want)
		}
	}
}

func TestLeadValidate(t *testing.T) {
	lead := Lead{
		Name:               "Jane Doe",
		Email:              "jane@example.com",
		ProjectDescription: "E-commerce site",
		Timeline:           "3 months",
	}
	if err := lead.Validate(); err != nil {
		t.Errorf("expected valid lead, got error: %v", err)
	}

	missing := lead
	missing.Name = ""
	if err := missing.Validate(); !errors.Is(err, ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}

	badEmail := lead
	badEmail.Email = "not-an-email"
	if err := badEmail.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}

	noDesc := lead
	noDesc.ProjectDescription = ""
	if err := noDesc.Validate(); !errors.Is(err, ErrMissingDescription) {
		t.Errorf("expected ErrMissingDescription, got %v", err)
	}

	noTimeline := lead
	noTimeline.Timeline = ""
	if err := noTimeline.Validate(); !errors.Is(err, ErrMissingTimeline) {
		t.Errorf("expected ErrMissingTimeline, got %v", err)
	}
}

func TestConsultationValidate(t *testing.T) {
	c := Consultation{Name: "Sam", Email: "sam@example.com"}
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid consultation, got error: %v", err)
	}
	c.Email = ""
	if err := c.Validate(); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("expected ErrMissingEmail, got %v", err)
	}
}

func TestIsValidIntent(t *testing.T) {
	for _, i := range []Intent{
		IntentGreetingFeedback, IntentBusinessInterest, IntentConsultationRequest,
		IntentCompanyInfo, IntentJobOpportunity, IntentCompanyContactInfo,
		IntentPortfolioRequest, IntentClientsReviews, IntentIrrelevant,
	} {
		if !IsValidIntent(i) {
			t.Errorf("expected %q to be valid", i)
		}
	}
	if IsValidIntent(Intent("sales_pitch")) {
		t.Error("expected unknown label to be invalid")
	}
}

func TestAPIResponseBuilder(t *testing.T) {
	resp := Success(map[string]string{"k": "v"})
	if resp.Status != string(APIStatusOK) {
		t.Errorf("expected ok status, got %q", resp.Status)
	}
	resp = Error("boom")
	if resp.Status != string(APIStatusError) || resp.Message != "boom" {
		t.Errorf("unexpected error response: %+v", resp)
	}
}
