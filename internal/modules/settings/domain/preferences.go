package domain

const (
	Namespace     = "call_recorder_prefs"
	KeyAutoRecord = "auto_record"
)

// Preference names one namespaced boolean flag and the value used when it
// has never been written.
type Preference struct {
	Namespace string
	Key       string
	Default   bool
}

var AutoRecord = Preference{Namespace: Namespace, Key: KeyAutoRecord, Default: true}

// Resolve applies the toggle convention: an absent value means enabled.
func Resolve(enabled *bool) bool {
	if enabled == nil {
		return true
	}
	return *enabled
}
