// Package flow implements the slot-filling state machines that collect lead
// and consultation details over multiple conversation turns.
//
// A Definition describes the stages of one flow; State carries the per-session
// progress through it. Stage answers are judged by an external collaborator
// (the Judge) that decides whether a user message is a valid answer and which
// stage comes next; the engine owns slot capture, attempt counting, and the
// completion guard. ReadyToPersist is only ever set by the engine, never by
// the judge.
package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/genetech/leadchat/internal/models"
)

// StageID identifies a stage within a flow definition.
type StageID string

// StageCompleted is the terminal pseudo-stage a judge may advance to.
const StageCompleted StageID = "completed"

// Slot names a piece of collected information.
type Slot string

// Status is the judge's verdict on a user message.
type Status string

const (
	// StatusValid means the message answers the current stage's question.
	StatusValid Status = "VALID"
	// StatusInvalid means the message is too vague or off the mark.
	StatusInvalid Status = "INVALID"
	// StatusRedirect means the user asked something else mid-flow.
	StatusRedirect Status = "REDIRECT"
)

// Judgment is the structured result of assessing one user message.
type Judgment struct {
	Status    Status
	NextStage StageID
	Reply     string
}

// AssessRequest carries everything a judge needs to evaluate a message.
type AssessRequest struct {
	Kind       models.FlowKind
	Stage      StageID
	UserText   string
	Transcript string
	Attempts   int
	Slots      map[Slot]string
}

// Judge evaluates a user message against the current stage.
type Judge interface {
	Assess(ctx context.Context, req AssessRequest) (Judgment, error)
}

// State is the per-session progress through one flow.
type State struct {
	Active         bool
	Stage          StageID
	Attempts       int
	ReadyToPersist bool
	Slots          map[Slot]string
}

// Slot returns the value collected for s, or "".
func (st *State) Slot(s Slot) string {
	return st.Slots[s]
}

// SetSlot stores v for s, replacing any previous value.
func (st *State) SetSlot(s Slot, v string) {
	if st.Slots == nil {
		st.Slots = make(map[Slot]string)
	}
	st.Slots[s] = v
}

// FillSlot stores v for s only when v is non-empty and the slot is still
// unset. Scraped values never overwrite information already collected.
func (st *State) FillSlot(s Slot, v string) {
	if v == "" || st.Slots[s] != "" {
		return
	}
	st.SetSlot(s, v)
}

// Reset returns the state to its zero value, dropping all collected slots.
func (st *State) Reset() {
	*st = State{}
}

func (st *State) slotsCopy() map[Slot]string {
	out := make(map[Slot]string, len(st.Slots))
	for k, v := range st.Slots {
		out[k] = v
	}
	return out
}

// Stage describes one step of a flow.
type Stage struct {
	ID StageID
	// Scrape runs on every message handled at this stage, regardless of the
	// judge's verdict. Used to harvest names and email addresses as soon as
	// they appear.
	Scrape func(st *State, text string)
	// Accept runs when the judge marks the message VALID, before advancing.
	Accept func(st *State, text string)
}

// Definition describes a complete flow: its stages, prompts, and the
// completion guard that re-validates collected slots before persistence.
type Definition struct {
	Kind        models.FlowKind
	StartPrompt string
	Stages      []Stage
	// Fallback returns the prompt used when the judge fails or produces
	// output the engine cannot act on. State is left unchanged.
	Fallback func(st *State) string
	// Guard re-validates the collected slots when the judge advances to
	// completed. When not satisfied it names the stage to force back to and
	// the engine's own corrective prompt.
	Guard func(st *State) (back StageID, prompt string, ok bool)
	// Finalize runs once when the guard passes, before ReadyToPersist is set.
	Finalize func(st *State, transcript string)
}

// First returns the opening stage of the definition.
func (d *Definition) First() StageID {
	return d.Stages[0].ID
}

func (d *Definition) stage(id StageID) (Stage, bool) {
	for _, s := range d.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (d *Definition) validStage(id StageID) bool {
	if id == StageCompleted {
		return true
	}
	_, ok := d.stage(id)
	return ok
}

// Start activates the flow and returns the opening prompt. Calling Start on
// an already-active flow is a no-op that re-asks the current stage's question;
// it never wipes collected slots or restarts progress.
func (d *Definition) Start(st *State) string {
	if st.Active {
		slog.Debug("Flow.Start: flow already active", "kind", d.Kind, "stage", st.Stage)
		return d.Fallback(st)
	}
	st.Active = true
	st.Stage = d.First()
	st.Attempts = 0
	if st.Slots == nil {
		st.Slots = make(map[Slot]string)
	}
	slog.Info("Flow.Start: flow activated", "kind", d.Kind, "stage", st.Stage)
	return d.StartPrompt
}

// ResultKind tags the outcome of a Step.
type ResultKind int

const (
	// ResultReply carries an ordinary reply to relay to the user.
	ResultReply ResultKind = iota
	// ResultReadyToPersist signals that all slots are collected and validated.
	ResultReadyToPersist
	// ResultJustCompleted signals the flow had already finished when the
	// message arrived; the caller answers with a fixed closing line.
	ResultJustCompleted
)

// Result is the tagged outcome of handling one in-flow message.
type Result struct {
	Kind  ResultKind
	Reply string
}

// Step handles one user message while the flow is active. The judge's verdict
// drives stage advancement; the engine scrapes slots, counts attempts, and
// guards completion. A failing or malformed judge leaves the flow state
// unchanged and yields the definition's fallback prompt.
func (d *Definition) Step(ctx context.Context, judge Judge, st *State, userText, transcript string) Result {
	if st.ReadyToPersist {
		st.Active = false
		slog.Debug("Flow.Step: flow already completed", "kind", d.Kind)
		return Result{Kind: ResultJustCompleted}
	}

	cur, ok := d.stage(st.Stage)
	if !ok {
		// Unknown stage in state, restart from the beginning of the flow.
		slog.Error("Flow.Step: unknown stage in state, resetting to first", "kind", d.Kind, "stage", st.Stage)
		st.Stage = d.First()
		cur, _ = d.stage(st.Stage)
	}

	if cur.Scrape != nil {
		cur.Scrape(st, userText)
	}

	j, err := judge.Assess(ctx, AssessRequest{
		Kind:       d.Kind,
		Stage:      st.Stage,
		UserText:   userText,
		Transcript: transcript,
		Attempts:   st.Attempts,
		Slots:      st.slotsCopy(),
	})
	if err != nil {
		slog.Error("Flow.Step: judge failed", "kind", d.Kind, "stage", st.Stage, "error", err)
		return Result{Kind: ResultReply, Reply: d.Fallback(st)}
	}

	j.Status = Status(strings.ToUpper(strings.TrimSpace(string(j.Status))))
	j.NextStage = StageID(strings.TrimSpace(string(j.NextStage)))
	j.Reply = strings.TrimSpace(j.Reply)
	if j.Reply == "" || !d.validStage(j.NextStage) {
		slog.Error("Flow.Step: unusable judgment", "kind", d.Kind, "stage", st.Stage, "status", j.Status, "nextStage", j.NextStage)
		return Result{Kind: ResultReply, Reply: d.Fallback(st)}
	}

	switch j.Status {
	case StatusValid:
		if cur.Accept != nil {
			cur.Accept(st, userText)
		}
		st.Attempts = 0
		if j.NextStage == StageCompleted {
			if back, prompt, satisfied := d.Guard(st); !satisfied {
				slog.Debug("Flow.Step: completion guard not satisfied", "kind", d.Kind, "back", back)
				st.Stage = back
				return Result{Kind: ResultReply, Reply: prompt}
			}
			if d.Finalize != nil {
				d.Finalize(st, transcript)
			}
			st.Stage = StageCompleted
			st.Active = false
			st.ReadyToPersist = true
			slog.Info("Flow.Step: flow completed", "kind", d.Kind)
			return Result{Kind: ResultReadyToPersist, Reply: j.Reply}
		}
		slog.Debug("Flow.Step: stage advanced", "kind", d.Kind, "from", st.Stage, "to", j.NextStage)
		st.Stage = j.NextStage
		return Result{Kind: ResultReply, Reply: j.Reply}
	case StatusInvalid, StatusRedirect:
		st.Attempts++
		slog.Debug("Flow.Step: answer rejected", "kind", d.Kind, "stage", st.Stage, "status", j.Status, "attempts", st.Attempts)
		return Result{Kind: ResultReply, Reply: j.Reply}
	default:
		slog.Error("Flow.Step: unknown judgment status", "kind", d.Kind, "status", j.Status)
		return Result{Kind: ResultReply, Reply: d.Fallback(st)}
	}
}
