package flow

import (
	"time"

	"github.com/genetech/leadchat/internal/models"
)

// Consultation flow stages.
const (
	StageName  StageID = "name"
	StageEmail StageID = "email"
)

// SlotConsultationType is fixed for flows started from the chat surface.
const SlotConsultationType Slot = "consultation_type"

// DefaultConsultationType labels consultations booked through the assistant.
const DefaultConsultationType = "General Consultation"

const (
	consultationStartPrompt = "I'd be happy to arrange a consultation for you! To get started, could you please tell me your name?"
	consultationNamePrompt  = "Could you please tell me your name so I can arrange a consultation for you?"
	consultationEmailPrompt = "Could you please provide your email address so our team can reach out to you?"
)

// ConsultationDefinition builds the consultation booking flow.
func ConsultationDefinition() *Definition {
	return &Definition{
		Kind:        models.FlowKindConsultation,
		StartPrompt: consultationStartPrompt,
		Fallback: func(st *State) string {
			if st.Stage == StageEmail {
				return consultationEmailPrompt
			}
			return consultationNamePrompt
		},
		Stages: []Stage{
			{
				ID: StageName,
				Scrape: func(st *State, text string) {
					name, _ := ExtractNameEmail(text)
					st.FillSlot(SlotName, name)
				},
				Accept: func(st *State, text string) {
					// The judge accepted this as a name; when pattern
					// extraction found nothing, use the cleaned message.
					st.FillSlot(SlotName, CleanedName(text))
				},
			},
			{
				ID: StageEmail,
				Scrape: func(st *State, text string) {
					_, email := ExtractNameEmail(text)
					if models.ValidEmail(email) {
						st.FillSlot(SlotEmail, email)
					}
				},
			},
		},
		Guard: func(st *State) (StageID, string, bool) {
			if st.Slot(SlotName) == "" {
				return StageName, consultationNamePrompt, false
			}
			if !models.ValidEmail(st.Slot(SlotEmail)) {
				return StageEmail, consultationEmailPrompt, false
			}
			return "", "", true
		},
		Finalize: func(st *State, transcript string) {
			st.FillSlot(SlotConsultationType, DefaultConsultationType)
		},
	}
}

// BuildConsultation materializes the record to persist from a completed
// consultation flow.
func BuildConsultation(st *State, transcript string) models.Consultation {
	consultationType := st.Slot(SlotConsultationType)
	if consultationType == "" {
		consultationType = DefaultConsultationType
	}
	return models.Consultation{
		CreatedAt:        time.Now().UTC(),
		Name:             st.Slot(SlotName),
		Email:            st.Slot(SlotEmail),
		ConsultationType: consultationType,
		Status:           models.StatusNewRequest,
		FullConversation: transcript,
	}
}
