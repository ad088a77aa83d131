package flow

import (
	"strings"
	"time"

	"github.com/genetech/leadchat/internal/models"
)

// Lead flow stages, in progression order. The company name stage is only
// visited when the project classifies as a company engagement; the judge
// skips it for personal projects.
const (
	StageProjectDescription StageID = "project_description"
	StageTimeline           StageID = "timeline"
	StageProjectType        StageID = "project_type"
	StageCompanyName        StageID = "company_name"
	StageContactInfo        StageID = "contact_info"
)

// Slots shared by both flows.
const (
	SlotName  Slot = "name"
	SlotEmail Slot = "email"
)

// Lead flow slots.
const (
	SlotProjectDescription  Slot = "project_description"
	SlotTimeline            Slot = "timeline"
	SlotProjectType         Slot = "project_type"
	SlotCompanyName         Slot = "company_name"
	SlotCompleteDescription Slot = "complete_description"
)

const (
	leadStartPrompt    = "I'd love to help with your project. To provide the best solution, could you tell me more about your requirements?"
	leadFallbackPrompt = "I'd love to learn more about your project. Could you share some details about what you're looking to build or achieve?"
	leadGuardPrompt    = "I still need your complete contact information. Please provide your name and email address."
)

// LeadDefinition builds the lead qualification flow.
func LeadDefinition() *Definition {
	return &Definition{
		Kind:        models.FlowKindLead,
		StartPrompt: leadStartPrompt,
		Fallback: func(st *State) string {
			return leadFallbackPrompt
		},
		Stages: []Stage{
			{
				ID: StageProjectDescription,
				Accept: func(st *State, text string) {
					st.SetSlot(SlotProjectDescription, text)
				},
			},
			{
				ID: StageTimeline,
				Accept: func(st *State, text string) {
					st.SetSlot(SlotTimeline, text)
				},
			},
			{
				ID: StageProjectType,
				Accept: func(st *State, text string) {
					st.SetSlot(SlotProjectType, ClassifyProjectType(text))
				},
			},
			{
				ID: StageCompanyName,
				Accept: func(st *State, text string) {
					st.SetSlot(SlotCompanyName, text)
				},
			},
			{
				ID: StageContactInfo,
				Scrape: func(st *State, text string) {
					name, email := ExtractNameEmail(text)
					st.FillSlot(SlotName, name)
					st.FillSlot(SlotEmail, email)
				},
			},
		},
		Guard: func(st *State) (StageID, string, bool) {
			if st.Slot(SlotName) == "" || !models.ValidEmail(st.Slot(SlotEmail)) {
				return StageContactInfo, leadGuardPrompt, false
			}
			return "", "", true
		},
		Finalize: func(st *State, transcript string) {
			st.SetSlot(SlotCompleteDescription, buildCompleteDescription(st, transcript))
		},
	}
}

// buildCompleteDescription assembles the persisted project description from
// the collected slots plus the conversation transcript.
func buildCompleteDescription(st *State, transcript string) string {
	var parts []string
	if v := st.Slot(SlotProjectDescription); v != "" {
		parts = append(parts, "Project Requirements: "+v)
	}
	if v := st.Slot(SlotTimeline); v != "" {
		parts = append(parts, "Timeline: "+v)
	}
	if v := st.Slot(SlotProjectType); v != "" {
		if strings.EqualFold(v, "company") {
			parts = append(parts, "Project Type: Company Project")
			if cn := st.Slot(SlotCompanyName); cn != "" {
				parts = append(parts, "Company Name: "+cn)
			}
		} else {
			parts = append(parts, "Project Type: Personal Project")
		}
	}
	if v := st.Slot(SlotName); v != "" {
		parts = append(parts, "Contact Person: "+v)
	}
	parts = append(parts, "\n--- Full Conversation Context ---\n"+transcript)
	return strings.Join(parts, "\n")
}

// BuildLead materializes the record to persist from a completed lead flow.
func BuildLead(st *State, transcript string) models.Lead {
	description := st.Slot(SlotCompleteDescription)
	if description == "" {
		description = st.Slot(SlotProjectDescription)
	}
	projectType := st.Slot(SlotProjectType)
	if projectType == "" {
		projectType = "personal"
	}
	return models.Lead{
		CreatedAt:          time.Now().UTC(),
		Name:               st.Slot(SlotName),
		Email:              st.Slot(SlotEmail),
		CompanyName:        st.Slot(SlotCompanyName),
		ProjectDescription: description,
		Timeline:           st.Slot(SlotTimeline),
		ProjectType:        projectType,
		Status:             models.StatusNewLead,
		FullConversation:   transcript,
	}
}
