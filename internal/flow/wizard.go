// Package flow implements the recruiting application wizard: an ordered
// sequence of steps collecting fields toward a single final submission.
// Navigation never hard-blocks on step validation; the intake service is
// the binding gate and Validate here is advisory display only.
package flow

import (
	"sort"

	"github.com/lumenworks/intake-api/internal/validate"
)

// Step is a 1-based position in the wizard.
type Step int

const (
	// StepProjectType selects what kind of work is being applied for.
	// It has no required fields.
	StepProjectType Step = iota + 1
	// StepProject collects the project title and introduction; the resume
	// file slot belongs to this step but uploads only at submission.
	StepProject
	// StepContact collects company, name, position, phone, and email.
	StepContact
	// StepConfirm is the review step; submission happens here and the
	// wizard becomes terminal on success.
	StepConfirm
)

const (
	firstStep = StepProjectType
	lastStep  = StepConfirm
)

var stepNames = map[Step]string{
	StepProjectType: "project-type",
	StepProject:     "project",
	StepContact:     "contact",
	StepConfirm:     "confirm",
}

func (s Step) String() string { return stepNames[s] }

// stepFields maps each step to the fields it may bind.
var stepFields = map[Step][]string{
	StepProjectType: {"projectTypes"},
	StepProject:     {"title", "introduction"},
	StepContact:     {"company", "name", "position", "phone", "email"},
	StepConfirm:     {},
}

// Wizard holds one application's collected state. Not safe for concurrent
// use; the session manager serializes access.
type Wizard struct {
	step     Step
	fields   map[string]string
	terminal bool
}

func NewWizard() *Wizard {
	return &Wizard{step: firstStep, fields: make(map[string]string)}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Terminal() bool { return w.terminal }

// Next advances one step, stopping at the confirm step. A terminal wizard
// no longer navigates.
func (w *Wizard) Next() Step {
	if !w.terminal && w.step < lastStep {
		w.step++
	}
	return w.step
}

// Previous goes back one step, stopping at the first.
func (w *Wizard) Previous() Step {
	if !w.terminal && w.step > firstStep {
		w.step--
	}
	return w.step
}

// SetField binds a value to a field of the current step. Unknown fields are
// ignored and reported false so callers can surface a hint.
func (w *Wizard) SetField(name, value string) bool {
	for _, f := range stepFields[w.step] {
		if f == name {
			w.fields[name] = value
			return true
		}
	}
	return false
}

// Fields returns a copy of everything collected so far.
func (w *Wizard) Fields() map[string]string {
	out := make(map[string]string, len(w.fields))
	for k, v := range w.fields {
		out[k] = v
	}
	return out
}

// Complete latches the terminal state after a successful submission.
func (w *Wizard) Complete() { w.terminal = true }

// Reopen clears the terminal latch, returning the wizard to its current
// step after a failed submission attempt.
func (w *Wizard) Reopen() { w.terminal = false }

// Validate reports advisory issues for the current step, sorted for stable
// display. It never prevents navigation or submission.
func (w *Wizard) Validate() []string {
	var issues []string
	if w.step != StepContact {
		return issues
	}
	if e := w.fields["email"]; e != "" && !validate.Email(e) {
		issues = append(issues, "email looks invalid")
	}
	if p := w.fields["phone"]; p != "" && !validate.Phone(p) {
		issues = append(issues, "phone looks invalid")
	}
	sort.Strings(issues)
	return issues
}
