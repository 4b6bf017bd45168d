package transfer

import "testing"

func TestForwardPath(t *testing.T) {
	path := []State{
		StateValidating,
		StateUploading,
		StateMutatingUnit,
		StateRecordingSale,
		StateSettlingReservation,
		StateLoggingActivity,
		StateSucceeded,
	}
	for i := 0; i < len(path)-1; i++ {
		if !path[i].CanTransitionTo(path[i+1]) {
			t.Fatalf("expected %s -> %s", path[i], path[i+1])
		}
	}
	if !StateRecordingSale.CanTransitionTo(StateLoggingActivity) {
		t.Fatal("settling is skipped when no reservation is pending")
	}
}

func TestNoBackwardOrSkippedTransitions(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{StateUploading, StateValidating},
		{StateValidating, StateMutatingUnit},
		{StateMutatingUnit, StateFailedBeforeMutation},
		{StateRecordingSale, StateFailedAtUnitMutation},
		{StateSettlingReservation, StateFailedAfterUnitMutation},
		{StateLoggingActivity, StateFailedAfterSale},
		{StateSucceeded, StateValidating},
		{State("unknown"), StateSucceeded},
	}
	for _, tc := range cases {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("did not expect %s -> %s", tc.from, tc.to)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := []State{
		StateSucceeded,
		StateRejectedAtValidation,
		StateFailedBeforeMutation,
		StateFailedAtUnitMutation,
		StateFailedAfterUnitMutation,
		StateFailedAfterSale,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if StateLoggingActivity.IsTerminal() || State("unknown").IsTerminal() {
		t.Fatal("non-terminal state reported terminal")
	}
	if StateSucceeded.IsFailure() || !StateFailedAfterSale.IsFailure() {
		t.Fatal("unexpected failure classification")
	}
}

func TestMutatedAndCompensation(t *testing.T) {
	if got := StateFailedAtUnitMutation.Mutated(); len(got) != 0 {
		t.Fatalf("unit mutation failure writes nothing, got %v", got)
	}
	if got := StateFailedAfterUnitMutation.Mutated(); len(got) != 1 || got[0] != "units" {
		t.Fatalf("unexpected mutated set %v", got)
	}
	if got := StateFailedAfterSale.Mutated(); len(got) != 2 || got[1] != "sales" {
		t.Fatalf("unexpected mutated set %v", got)
	}
	for _, s := range []State{StateFailedAfterUnitMutation, StateFailedAfterSale} {
		if !s.NeedsCompensation() {
			t.Fatalf("%s needs compensation", s)
		}
	}
	if StateFailedAtUnitMutation.NeedsCompensation() || StateSucceeded.NeedsCompensation() {
		t.Fatal("only partial commits need compensation")
	}
}
