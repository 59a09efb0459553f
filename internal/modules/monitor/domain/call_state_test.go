package domain

import (
	"math/rand"
	"testing"
)

func TestParseRawState(t *testing.T) {
	t.Parallel()
	cases := map[string]CallState{"IDLE": StateIdle, "ringing": StateRinging, " OFFHOOK ": StateOffHook}
	for raw, want := range cases {
		got, ok := ParseRawState(raw)
		if !ok || got != want {
			t.Fatalf("parse %q: got %q ok=%v", raw, got, ok)
		}
	}
	for _, raw := range []string{"", "BUSY", "OFF_HOOK"} {
		if _, ok := ParseRawState(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestIncomingCallLifecycle(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	steps := []struct {
		state  CallState
		number string
		want   Action
	}{
		{StateIdle, "", ActionNone},
		{StateRinging, "+15551234567", ActionNone},
		{StateOffHook, "", ActionStart},
		{StateIdle, "", ActionStop},
	}
	var start Transition
	for i, step := range steps {
		got := tr.Observe(step.state, step.number)
		if got.Action != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, got.Action)
		}
		if got.Action == ActionStart {
			start = got
		}
	}
	if start.Call.Direction != DirectionIncoming || start.Call.PhoneNumber != "+15551234567" {
		t.Fatalf("unexpected call context: %+v", start.Call)
	}
	if _, ok := tr.Context(); ok {
		t.Fatalf("context must be cleared after idle")
	}
}

func TestDirectOffHookIsOutgoing(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	got := tr.Observe(StateOffHook, "+442071234567")
	if got.Action != ActionStart || got.Call.Direction != DirectionOutgoing || got.Call.PhoneNumber != "+442071234567" {
		t.Fatalf("unexpected transition: %+v", got)
	}
}

func TestMissedCallNeverStarts(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.Observe(StateRinging, "+1")
	got := tr.Observe(StateIdle, "")
	if got.Action != ActionMissed {
		t.Fatalf("expected missed, got %s", got.Action)
	}
	if got.Call.PhoneNumber != "+1" {
		t.Fatalf("missed transition should report the caller, got %+v", got.Call)
	}
}

func TestRepeatedStatesAreNoOps(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.Observe(StateOffHook, "+1")
	for i := 0; i < 3; i++ {
		if got := tr.Observe(StateOffHook, "+1"); got.Action != ActionNone {
			t.Fatalf("repeat %d fired %s", i, got.Action)
		}
	}
	if got := tr.Observe(StateIdle, ""); got.Action != ActionStop {
		t.Fatalf("expected stop, got %s", got.Action)
	}
	if got := tr.Observe(StateIdle, ""); got.Action != ActionNone {
		t.Fatalf("repeated idle fired %s", got.Action)
	}
}

func TestOffHookToRingingOnlyUpdatesState(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.Observe(StateOffHook, "+1")
	if got := tr.Observe(StateRinging, "+2"); got.Action != ActionNone {
		t.Fatalf("call waiting must not fire, got %s", got.Action)
	}
	if tr.Last() != StateRinging {
		t.Fatalf("expected last state ringing, got %s", tr.Last())
	}
	if got := tr.Observe(StateOffHook, ""); got.Action != ActionNone {
		t.Fatalf("returning to the held call must not restart, got %s", got.Action)
	}
	if got := tr.Observe(StateRinging, "+3"); got.Action != ActionNone {
		t.Fatalf("second waiting call fired %s", got.Action)
	}
	got := tr.Observe(StateIdle, "")
	if got.Action != ActionStop || got.Call.PhoneNumber != "+1" {
		t.Fatalf("idle must stop the open recording, got %+v", got)
	}
}

func TestNeverTwoStartsWithoutStop(t *testing.T) {
	t.Parallel()
	states := []CallState{StateIdle, StateRinging, StateOffHook}
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		tr := NewTracker()
		open := false
		for i := 0; i < 50; i++ {
			got := tr.Observe(states[rng.Intn(len(states))], "+1")
			switch got.Action {
			case ActionStart:
				if open {
					t.Fatalf("run %d step %d: second start before stop", run, i)
				}
				open = true
			case ActionStop:
				if !open {
					t.Fatalf("run %d step %d: stop without start", run, i)
				}
				open = false
			}
		}
	}
}

func TestZeroTrackerStartsIdle(t *testing.T) {
	t.Parallel()
	var tr Tracker
	if tr.Last() != StateIdle {
		t.Fatalf("zero tracker should be idle")
	}
	if got := tr.Observe(StateIdle, ""); got.Action != ActionNone {
		t.Fatalf("idle on zero tracker fired %s", got.Action)
	}
}
