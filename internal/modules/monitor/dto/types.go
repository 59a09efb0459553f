package dto

type SignalInput struct {
	State  string `json:"state"`
	Number string `json:"number,omitempty"`
}

// SignalOutput describes what a signal did. Ignored is set when the state
// was unrecognized or auto-record is off.
type SignalOutput struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Action    string `json:"action"`
	Ignored   bool   `json:"ignored,omitempty"`
	Direction string `json:"direction,omitempty"`
	Number    string `json:"number,omitempty"`
}

// Raw state names accepted by OnStateChange.
const (
	StateIdle    = "IDLE"
	StateRinging = "RINGING"
	StateOffHook = "OFFHOOK"
)
