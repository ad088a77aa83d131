// Package models defines the core data structures for leadchat.
//
// It includes the lead and consultation records, intent labels, and the API
// response envelope shared across modules.
package models

import (
	"errors"
	"regexp"
	"time"
)

// Intent classifies what a user message is asking for.
type Intent string

const (
	IntentGreetingFeedback    Intent = "greeting_feedback"
	IntentBusinessInterest    Intent = "business_interest"
	IntentConsultationRequest Intent = "consultation_request"
	IntentCompanyInfo         Intent = "company_info"
	IntentJobOpportunity      Intent = "job_opportunity"
	IntentCompanyContactInfo  Intent = "company_contact_info"
	IntentPortfolioRequest    Intent = "portfolio_request"
	IntentClientsReviews      Intent = "clients_reviews"
	IntentIrrelevant          Intent = "irrelevant"
)

// DefaultIntent is used when classification fails or yields an unknown label.
const DefaultIntent = IntentCompanyInfo

// IsValidIntent checks if the given intent label is one we route on.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentGreetingFeedback, IntentBusinessInterest, IntentConsultationRequest,
		IntentCompanyInfo, IntentJobOpportunity, IntentCompanyContactInfo,
		IntentPortfolioRequest, IntentClientsReviews, IntentIrrelevant:
		return true
	default:
		return false
	}
}

// FlowKind identifies which slot-filling flow a record or state belongs to.
type FlowKind string

const (
	FlowKindLead         FlowKind = "lead"
	FlowKindConsultation FlowKind = "consultation"
)

// Record status values. Inserts always start in the corresponding new status.
const (
	StatusNewLead    = "New Lead"
	StatusNewRequest = "New Request"
	StatusContacted  = "Contacted"
	StatusClosed     = "Closed"
)

// Error variables for record validation.
var (
	ErrMissingName        = errors.New("name is required")
	ErrMissingEmail       = errors.New("email is required")
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrMissingDescription = errors.New("project description is required")
	ErrMissingTimeline    = errors.New("timeline is required")
)

// emailRegex matches a complete, plausible email address.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s is a well-formed email address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Lead represents a qualified project inquiry captured by the lead flow.
type Lead struct {
	ID                 int64     `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	CompanyName        string    `json:"company_name,omitempty"`
	ProjectDescription string    `json:"project_description"`
	Timeline           string    `json:"timeline,omitempty"`
	ProjectType        string    `json:"project_type,omitempty"`
	Status             string    `json:"status"`
	FullConversation   string    `json:"full_conversation,omitempty"`
}

// Validate checks the fields required before a lead may be stored.
func (l *Lead) Validate() error {
	if l.Name == "" {
		return ErrMissingName
	}
	if l.Email == "" {
		return ErrMissingEmail
	}
	if !ValidEmail(l.Email) {
		return ErrInvalidEmail
	}
	if l.ProjectDescription == "" {
		return ErrMissingDescription
	}
	if l.Timeline == "" {
		return ErrMissingTimeline
	}
	return nil
}

// Consultation represents a consultation booking captured by the consultation flow.
type Consultation struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	ConsultationType string    `json:"consultation_type"`
	Status           string    `json:"status"`
	FullConversation string    `json:"full_conversation,omitempty"`
}

// Validate checks the fields required before a consultation may be stored.
func (c *Consultation) Validate() error {
	if c.Name == "" {
		return ErrMissingName
	}
	if c.Email == "" {
		return ErrMissingEmail
	}
	if !ValidEmail(c.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// DayCount holds the number of leads created on a single day.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// LeadStats aggregates lead counts for the admin dashboard.
type LeadStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Daily    []DayCount     `json:"daily"` // last 7 days, oldest first
}

// Document is a knowledge-base snippet used for company info answers.
type Document struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
