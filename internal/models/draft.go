package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Draft is one strategy-builder editing session: a strategy plus the
// wizard step it is on. The State field is canonical and is what
// persists; Machine is runtime-only and gets rebuilt from State after a
// JSON round-trip. Each draft is owned by the single session editing it,
// so none of these methods lock.
type Draft struct {
	// Machine is excluded from serialization and lazily rebuilt.
	Machine *WizardMachine `json:"-"`

	ID          string      `json:"id"`
	Strategy    Strategy    `json:"strategy"`
	State       WizardState `json:"state"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`
}

// NewDraft opens a fresh editing session at the basic step.
func NewDraft(name string, index IndexSymbol, expiry ExpiryType) *Draft {
	now := time.Now()
	return &Draft{
		Machine:   NewWizardMachine(),
		ID:        uuid.NewString(),
		Strategy:  NewStrategy(name, index, expiry),
		State:     WizardStateBasic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ensureMachine rebuilds the wizard machine from the persisted State
// after deserialization.
func (d *Draft) ensureMachine() *WizardMachine {
	if d.Machine == nil {
		state := d.State
		if state == "" {
			state = WizardStateBasic
		}
		d.Machine = NewWizardMachineFromState(state)
	}
	return d.Machine
}

// CurrentState returns the wizard step the draft is on.
func (d *Draft) CurrentState() WizardState {
	return d.ensureMachine().GetCurrentState()
}

// StateDescription returns display text for the draft's wizard step.
func (d *Draft) StateDescription() string {
	return d.ensureMachine().GetStateDescription()
}

// Terminal reports whether the draft accepts no further user edits.
func (d *Draft) Terminal() bool {
	return d.CurrentState().Terminal()
}

func (d *Draft) transitionState(to WizardState, condition string) error {
	machine := d.ensureMachine()
	if err := machine.Transition(to, condition); err != nil {
		return err
	}
	d.State = machine.GetCurrentState()
	d.UpdatedAt = time.Now()
	return nil
}

// Advance moves the wizard one step forward if the current step's guard
// passes: basic needs a name, legs needs at least one complete leg. A
// failed guard returns *PreconditionFailedError with the reason and
// leaves the draft unchanged. Preview advances only through Submit.
func (d *Draft) Advance() error {
	switch d.CurrentState() {
	case WizardStateBasic:
		if strings.TrimSpace(d.Strategy.Name) == "" {
			return &PreconditionFailedError{Op: "advance", Message: "Strategy name is required"}
		}
		return d.transitionState(WizardStateLegs, ConditionBasicComplete)
	case WizardStateLegs:
		if len(d.Strategy.Legs) == 0 {
			return &PreconditionFailedError{Op: "advance", Message: "At least one leg is required"}
		}
		for i, leg := range d.Strategy.Legs {
			if issues := leg.CompletionIssues(); len(issues) > 0 {
				return &PreconditionFailedError{
					Op:      "advance",
					Message: fmt.Sprintf("Leg %d: %s", i+1, issues[0]),
				}
			}
		}
		return d.transitionState(WizardStatePreview, ConditionLegsComplete)
	case WizardStatePreview:
		return &PreconditionFailedError{Op: "advance", Message: "Preview advances only through submission"}
	default:
		return ErrDraftTerminal
	}
}

// Back moves the wizard one step backward, preserving all entered data.
func (d *Draft) Back() error {
	switch d.CurrentState() {
	case WizardStateBasic:
		return &PreconditionFailedError{Op: "back", Message: "Already at the first step"}
	case WizardStateLegs:
		return d.transitionState(WizardStateBasic, ConditionPrevious)
	case WizardStatePreview:
		return d.transitionState(WizardStateLegs, ConditionPrevious)
	default:
		return ErrDraftTerminal
	}
}

// Submit runs the full submission gate from preview, and on success
// moves the draft to submitted, stamps SubmittedAt and returns the
// payload for the order service. A gated draft is returned unchanged
// with *SubmissionBlockedError carrying every blocker.
func (d *Draft) Submit(specs IndexSpecs) (*StrategySnapshot, error) {
	state := d.CurrentState()
	if state.Terminal() {
		return nil, ErrDraftTerminal
	}
	if state != WizardStatePreview {
		return nil, &PreconditionFailedError{Op: "submit", Message: "Submission is only available from preview"}
	}
	if blockers := d.Strategy.SubmissionBlockers(); len(blockers) > 0 {
		return nil, &SubmissionBlockedError{Reasons: blockers}
	}
	snapshot := d.Strategy.Snapshot(specs)
	if err := d.transitionState(WizardStateSubmitted, ConditionSubmit); err != nil {
		return nil, err
	}
	now := time.Now()
	d.SubmittedAt = &now
	return snapshot, nil
}

// Cancel discards the draft from any non-terminal step.
func (d *Draft) Cancel() error {
	if d.Terminal() {
		return ErrDraftTerminal
	}
	return d.transitionState(WizardStateCancelled, ConditionCancel)
}

// Reopen returns a rejected submission to preview for amendment. This is
// the one backward move made by the service layer rather than the user,
// so it bypasses the terminal-state guard.
func (d *Draft) Reopen() error {
	if d.CurrentState() != WizardStateSubmitted {
		return &PreconditionFailedError{Op: "reopen", Message: "Only a submitted draft can be reopened"}
	}
	if err := d.transitionState(WizardStatePreview, ConditionPrevious); err != nil {
		return err
	}
	d.SubmittedAt = nil
	return nil
}

// UpdateStrategy applies a strategy patch.
func (d *Draft) UpdateStrategy(p StrategyPatch) error {
	if d.Terminal() {
		return ErrDraftTerminal
	}
	next, err := d.Strategy.ApplyPatch(p)
	if err != nil {
		return err
	}
	d.Strategy = next
	d.UpdatedAt = time.Now()
	return nil
}

// AddLeg appends a default leg and returns it.
func (d *Draft) AddLeg() (Leg, error) {
	if d.Terminal() {
		return Leg{}, ErrDraftTerminal
	}
	next, leg := d.Strategy.AddLeg()
	d.Strategy = next
	d.UpdatedAt = time.Now()
	return leg, nil
}

// RemoveLeg drops a leg by id.
func (d *Draft) RemoveLeg(id string) error {
	if d.Terminal() {
		return ErrDraftTerminal
	}
	next, ok := d.Strategy.RemoveLeg(id)
	if !ok {
		return ErrLegNotFound
	}
	d.Strategy = next
	d.UpdatedAt = time.Now()
	return nil
}

// CopyLeg duplicates a leg by id and returns the clone.
func (d *Draft) CopyLeg(id string) (Leg, error) {
	if d.Terminal() {
		return Leg{}, ErrDraftTerminal
	}
	next, clone, ok := d.Strategy.CopyLeg(id)
	if !ok {
		return Leg{}, ErrLegNotFound
	}
	d.Strategy = next
	d.UpdatedAt = time.Now()
	return clone, nil
}

// UpdateLeg applies a leg patch to a leg by id.
func (d *Draft) UpdateLeg(id string, p LegPatch) error {
	if d.Terminal() {
		return ErrDraftTerminal
	}
	next, err := d.Strategy.UpdateLeg(id, p)
	if err != nil {
		return err
	}
	d.Strategy = next
	d.UpdatedAt = time.Now()
	return nil
}

// ApplyLegRisk applies a risk patch to a leg by id.
func (d *Draft) ApplyLegRisk(id string, p LegRiskPatch) error {
	if d.Terminal() {
		return ErrDraftTerminal
	}
	next, err := d.Strategy.ApplyLegRisk(id, p)
	if err != nil {
		return err
	}
	d.Strategy = next
	d.UpdatedAt = time.Now()
	return nil
}

// IsSubmittable reports whether the draft would pass submission right
// now, regardless of the wizard step.
func (d *Draft) IsSubmittable() bool {
	return d.Strategy.IsSubmittable()
}

// SubmissionBlockers returns every submission blocker as UI-ready text.
func (d *Draft) SubmissionBlockers() []string {
	return d.Strategy.SubmissionBlockers()
}

// ReExecuteAllowed reports, per leg id, whether the leg's target profit
// currently permits enabling re-execute.
func (d *Draft) ReExecuteAllowed() map[string]bool {
	out := make(map[string]bool, len(d.Strategy.Legs))
	for _, leg := range d.Strategy.Legs {
		out[leg.ID] = IsValidTargetProfitForReExecute(leg.Risk.TargetProfit)
	}
	return out
}

// ValidateStateConsistency cross-checks the draft's state against its
// data. Drafts on disk may predate a rule change, so the startup
// sanitizer runs this on every load instead of trusting the file.
func (d *Draft) ValidateStateConsistency() error {
	if d.ID == "" {
		return fmt.Errorf("draft has no id")
	}
	if !d.State.Valid() {
		return fmt.Errorf("unknown draft state: %s", d.State)
	}
	machine := d.ensureMachine()
	if machine.GetCurrentState() != d.State {
		return fmt.Errorf("machine state %s does not match draft state %s",
			machine.GetCurrentState(), d.State)
	}
	if err := machine.ValidateStateConsistency(); err != nil {
		return fmt.Errorf("wizard machine inconsistent: %w", err)
	}
	if d.State == WizardStateSubmitted && d.SubmittedAt == nil {
		return fmt.Errorf("submitted draft has no submission time")
	}
	if d.State != WizardStateSubmitted && d.SubmittedAt != nil {
		return fmt.Errorf("draft in state %s carries a submission time", d.State)
	}
	seen := make(map[string]bool, len(d.Strategy.Legs))
	for i, leg := range d.Strategy.Legs {
		if leg.ID == "" {
			return fmt.Errorf("leg %d has no id", i+1)
		}
		if seen[leg.ID] {
			return fmt.Errorf("duplicate leg id %s", leg.ID)
		}
		seen[leg.ID] = true
	}
	return nil
}

// Copy returns a deep copy sharing no memory with the original.
func (d *Draft) Copy() Draft {
	out := *d
	out.Strategy = d.Strategy.Copy()
	if d.Machine != nil {
		out.Machine = d.Machine.Copy()
	}
	if d.SubmittedAt != nil {
		t := *d.SubmittedAt
		out.SubmittedAt = &t
	}
	return out
}
