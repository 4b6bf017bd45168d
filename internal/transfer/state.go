package transfer

// State is a step of the sale finalization run.
type State string

const (
	StateValidating          State = "validating"
	StateUploading           State = "uploading"
	StateMutatingUnit        State = "mutating_unit"
	StateRecordingSale       State = "recording_sale"
	StateSettlingReservation State = "settling_reservation"
	StateLoggingActivity     State = "logging_activity"
	StateSucceeded           State = "succeeded"

	StateRejectedAtValidation    State = "rejected_at_validation"
	StateFailedBeforeMutation    State = "failed_before_mutation"
	StateFailedAtUnitMutation    State = "failed_at_unit_mutation"
	StateFailedAfterUnitMutation State = "failed_after_unit_mutation"
	StateFailedAfterSale         State = "failed_after_sale"
)

var transitions = map[State][]State{
	StateValidating:          {StateUploading, StateRejectedAtValidation, StateFailedBeforeMutation},
	StateUploading:           {StateMutatingUnit, StateFailedBeforeMutation},
	StateMutatingUnit:        {StateRecordingSale, StateFailedAtUnitMutation},
	StateRecordingSale:       {StateSettlingReservation, StateLoggingActivity, StateFailedAfterUnitMutation},
	StateSettlingReservation: {StateLoggingActivity, StateFailedAfterSale},
	StateLoggingActivity:     {StateSucceeded},

	StateSucceeded:               {},
	StateRejectedAtValidation:    {},
	StateFailedBeforeMutation:    {},
	StateFailedAtUnitMutation:    {},
	StateFailedAfterUnitMutation: {},
	StateFailedAfterSale:         {},
}

func (s State) String() string {
	return string(s)
}

// CanTransitionTo reports whether target directly follows s.
func (s State) CanTransitionTo(target State) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the run has stopped at s.
func (s State) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsFailure reports whether s is a terminal failure.
func (s State) IsFailure() bool {
	return s.IsTerminal() && s != StateSucceeded
}

// NeedsCompensation reports whether s left a partially applied sale behind.
func (s State) NeedsCompensation() bool {
	return s == StateFailedAfterUnitMutation || s == StateFailedAfterSale
}

// Mutated lists the collections already written when a run stops at s.
func (s State) Mutated() []string {
	switch s {
	case StateFailedAfterUnitMutation:
		return []string{"units"}
	case StateFailedAfterSale:
		return []string{"units", "sales"}
	}
	return []string{}
}
