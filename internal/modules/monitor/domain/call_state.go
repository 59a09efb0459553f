package domain

import "strings"

type CallState string

const (
	StateIdle    CallState = "IDLE"
	StateRinging CallState = "RINGING"
	StateOffHook CallState = "OFFHOOK"
)

// ParseRawState maps a raw telephony state string. Unknown values report
// ok=false and must be ignored by callers.
func ParseRawState(raw string) (CallState, bool) {
	switch CallState(strings.ToUpper(strings.TrimSpace(raw))) {
	case StateIdle:
		return StateIdle, true
	case StateRinging:
		return StateRinging, true
	case StateOffHook:
		return StateOffHook, true
	default:
		return "", false
	}
}

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

type CallContext struct {
	PhoneNumber string
	Direction   Direction
}

type Action string

const (
	ActionNone   Action = "none"
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
	ActionMissed Action = "missed"
)

// Transition is the outcome of one observed state. Call holds the context
// of the call the transition belongs to, when there is one.
type Transition struct {
	From   CallState
	To     CallState
	Action Action
	Call   CallContext
}

// Tracker is the call state machine. The zero value starts in Idle.
// It remembers whether a recording is open so a call-waiting detour
// (OffHook, Ringing, OffHook) neither restarts nor leaks the recording.
type Tracker struct {
	last      CallState
	call      *CallContext
	recording bool
}

func NewTracker() *Tracker {
	return &Tracker{last: StateIdle}
}

func (t *Tracker) Last() CallState {
	if t.last == "" {
		return StateIdle
	}
	return t.last
}

// Context returns the call in progress, if any.
func (t *Tracker) Context() (CallContext, bool) {
	if t.call == nil {
		return CallContext{}, false
	}
	return *t.call, true
}

func (t *Tracker) Recording() bool {
	return t.recording
}

// Observe advances the machine. A state equal to the last one is a no-op.
func (t *Tracker) Observe(state CallState, number string) Transition {
	from := t.Last()
	tr := Transition{From: from, To: state, Action: ActionNone}
	if state == from {
		return tr
	}
	defer func() { t.last = state }()

	switch {
	case from == StateIdle && state == StateRinging:
		t.call = &CallContext{PhoneNumber: number, Direction: DirectionIncoming}
		tr.Call = *t.call
	case from == StateRinging && state == StateOffHook:
		if t.recording {
			return tr
		}
		if t.call == nil {
			t.call = &CallContext{PhoneNumber: number, Direction: DirectionIncoming}
		}
		t.recording = true
		tr.Action = ActionStart
		tr.Call = *t.call
	case from == StateIdle && state == StateOffHook:
		t.call = &CallContext{PhoneNumber: number, Direction: DirectionOutgoing}
		t.recording = true
		tr.Action = ActionStart
		tr.Call = *t.call
	case state == StateIdle:
		tr.Action = ActionMissed
		if t.recording {
			tr.Action = ActionStop
		}
		if t.call != nil {
			tr.Call = *t.call
		}
		t.call = nil
		t.recording = false
	}
	return tr
}
