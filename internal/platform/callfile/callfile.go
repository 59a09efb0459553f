// Package callfile names recording files call_<number>_<yyyyMMdd_HHmmss><ext>
// and parses those names back.
package callfile

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	Prefix     = "call_"
	Extension  = ".m4a"
	TimeLayout = "20060102_150405"
)

// Sanitize keeps digits and '+' only. A '+' survives in any position.
func Sanitize(number string) string {
	var b strings.Builder
	for _, r := range number {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func Name(number string, at time.Time, ext string) string {
	if ext == "" {
		ext = Extension
	}
	return Prefix + Sanitize(number) + "_" + at.Format(TimeLayout) + ext
}

// Parse extracts the sanitized number and local start time from a file name
// produced by Name. The number may be empty.
func Parse(name string) (string, time.Time, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	rest, ok := strings.CutPrefix(base, Prefix)
	if !ok || len(rest) < len(TimeLayout)+1 {
		return "", time.Time{}, false
	}
	stamp := rest[len(rest)-len(TimeLayout):]
	number, ok := strings.CutSuffix(rest[:len(rest)-len(TimeLayout)], "_")
	if !ok || Sanitize(number) != number {
		return "", time.Time{}, false
	}
	at, err := time.ParseInLocation(TimeLayout, stamp, time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	return number, at, true
}
