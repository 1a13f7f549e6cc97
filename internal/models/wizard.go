package models

import (
	"fmt"
	"time"
)

// WizardState is a step of the strategy-builder wizard.
type WizardState string

const (
	// WizardStateBasic collects the strategy name and global settings.
	WizardStateBasic WizardState = "basic"
	// WizardStateLegs is the leg configuration step.
	WizardStateLegs WizardState = "legs"
	// WizardStatePreview shows the assembled draft before submission.
	WizardStatePreview WizardState = "preview"
	// WizardStateSubmitted means the draft was handed to the order service.
	WizardStateSubmitted WizardState = "submitted"
	// WizardStateCancelled means the draft was discarded.
	WizardStateCancelled WizardState = "cancelled"
)

// Valid reports whether s is a defined wizard state.
func (s WizardState) Valid() bool {
	switch s {
	case WizardStateBasic, WizardStateLegs, WizardStatePreview,
		WizardStateSubmitted, WizardStateCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether s accepts no further user edits.
func (s WizardState) Terminal() bool {
	return s == WizardStateSubmitted || s == WizardStateCancelled
}

// Transition conditions. Forward moves carry the guard that admitted
// them; backward moves and cancellation are unguarded.
const (
	ConditionBasicComplete = "basic_complete"
	ConditionLegsComplete  = "legs_complete"
	ConditionSubmit        = "submit"
	ConditionPrevious      = "previous"
	ConditionCancel        = "cancel"
)

// WizardTransition is one edge of the wizard graph.
type WizardTransition struct {
	From        WizardState
	To          WizardState
	Condition   string
	Description string
}

// ValidWizardTransitions is the complete wizard graph. The
// submitted→preview edge is reserved for the service layer: it returns a
// rejected submission for amendment and is never reachable from a user
// operation.
var ValidWizardTransitions = []WizardTransition{
	{
		From:        WizardStateBasic,
		To:          WizardStateLegs,
		Condition:   ConditionBasicComplete,
		Description: "Basic details complete, configure legs",
	},
	{
		From:        WizardStateLegs,
		To:          WizardStatePreview,
		Condition:   ConditionLegsComplete,
		Description: "Every leg complete, review the draft",
	},
	{
		From:        WizardStatePreview,
		To:          WizardStateSubmitted,
		Condition:   ConditionSubmit,
		Description: "Draft handed to the order service",
	},
	{
		From:        WizardStateLegs,
		To:          WizardStateBasic,
		Condition:   ConditionPrevious,
		Description: "Back to basic details",
	},
	{
		From:        WizardStatePreview,
		To:          WizardStateLegs,
		Condition:   ConditionPrevious,
		Description: "Back to leg configuration",
	},
	{
		From:        WizardStateSubmitted,
		To:          WizardStatePreview,
		Condition:   ConditionPrevious,
		Description: "Submission rejected, returned for amendment",
	},
	{
		From:        WizardStateBasic,
		To:          WizardStateCancelled,
		Condition:   ConditionCancel,
		Description: "Draft discarded",
	},
	{
		From:        WizardStateLegs,
		To:          WizardStateCancelled,
		Condition:   ConditionCancel,
		Description: "Draft discarded",
	},
	{
		From:        WizardStatePreview,
		To:          WizardStateCancelled,
		Condition:   ConditionCancel,
		Description: "Draft discarded",
	},
}

// WizardMachine walks a draft through the wizard graph. It tracks the
// current and previous step plus per-state entry counts; the guards that
// decide whether a forward move is allowed live on Draft, which owns the
// data the guards inspect.
type WizardMachine struct {
	currentState    WizardState
	previousState   WizardState
	transitionTime  time.Time
	transitionCount map[WizardState]int
}

// NewWizardMachine returns a machine at the basic step.
func NewWizardMachine() *WizardMachine {
	return &WizardMachine{
		currentState:    WizardStateBasic,
		transitionCount: make(map[WizardState]int),
	}
}

// NewWizardMachineFromState returns a machine rehydrated at the given
// step, with no transition history. Used when a draft is loaded from
// storage and only its persisted state survives.
func NewWizardMachineFromState(state WizardState) *WizardMachine {
	return &WizardMachine{
		currentState:    state,
		transitionCount: make(map[WizardState]int),
	}
}

// GetCurrentState returns the step the machine is on.
func (m *WizardMachine) GetCurrentState() WizardState {
	return m.currentState
}

// GetPreviousState returns the step before the last transition.
func (m *WizardMachine) GetPreviousState() WizardState {
	return m.previousState
}

// IsValidTransition checks whether moving to the given state under the
// given condition is defined from the current state.
func (m *WizardMachine) IsValidTransition(to WizardState, condition string) error {
	if m.isTransitionDefined(to, condition) {
		return nil
	}
	return fmt.Errorf("invalid transition from %s to %s under %q",
		m.currentState, to, condition)
}

func (m *WizardMachine) isTransitionDefined(to WizardState, condition string) bool {
	for _, t := range ValidWizardTransitions {
		if t.From == m.currentState && t.To == to && t.Condition == condition {
			return true
		}
	}
	return false
}

// Transition moves the machine to the given state if the wizard graph
// defines that edge.
func (m *WizardMachine) Transition(to WizardState, condition string) error {
	if err := m.IsValidTransition(to, condition); err != nil {
		return err
	}
	m.previousState = m.currentState
	m.currentState = to
	m.transitionTime = time.Now()
	if m.transitionCount == nil {
		m.transitionCount = make(map[WizardState]int)
	}
	m.transitionCount[to]++
	return nil
}

// GetTransitionCount returns how many times the machine entered a state.
func (m *WizardMachine) GetTransitionCount(state WizardState) int {
	return m.transitionCount[state]
}

// SetState forces the machine onto a step, clearing history. Reserved
// for rehydration and the startup sanitizer; normal flow goes through
// Transition.
func (m *WizardMachine) SetState(state WizardState) {
	m.currentState = state
	m.previousState = ""
	m.transitionTime = time.Now()
}

// GetStateDescription returns display text for the current step.
func (m *WizardMachine) GetStateDescription() string {
	switch m.currentState {
	case WizardStateBasic:
		return "Collecting strategy name and basic settings"
	case WizardStateLegs:
		return "Configuring strategy legs"
	case WizardStatePreview:
		return "Reviewing the draft before submission"
	case WizardStateSubmitted:
		return "Handed to the order service"
	case WizardStateCancelled:
		return "Discarded without submission"
	default:
		return fmt.Sprintf("Unknown state: %s", m.currentState)
	}
}

// ValidateStateConsistency checks the machine's bookkeeping: the current
// state must be defined, counts must be sane, and a recorded previous
// state must connect to the current one through some edge of the graph.
func (m *WizardMachine) ValidateStateConsistency() error {
	if !m.currentState.Valid() {
		return fmt.Errorf("unknown current state: %s", m.currentState)
	}
	for state, count := range m.transitionCount {
		if !state.Valid() {
			return fmt.Errorf("transition count for unknown state: %s", state)
		}
		if count < 0 {
			return fmt.Errorf("negative transition count for state %s", state)
		}
	}
	if m.previousState == "" {
		return nil
	}
	if !m.previousState.Valid() {
		return fmt.Errorf("unknown previous state: %s", m.previousState)
	}
	for _, t := range ValidWizardTransitions {
		if t.From == m.previousState && t.To == m.currentState {
			return nil
		}
	}
	return fmt.Errorf("no transition connects %s to %s", m.previousState, m.currentState)
}

// Copy returns an independent copy of the machine.
func (m *WizardMachine) Copy() *WizardMachine {
	out := &WizardMachine{
		currentState:    m.currentState,
		previousState:   m.previousState,
		transitionTime:  m.transitionTime,
		transitionCount: make(map[WizardState]int, len(m.transitionCount)),
	}
	for state, count := range m.transitionCount {
		out.transitionCount[state] = count
	}
	return out
}
