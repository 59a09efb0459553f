package in_test

import (
	"testing"

	"github.com/emiago/sipgo/sip"

	monitorin "callrec/internal/modules/monitor/adapter/in"
)

func TestCallerNumberFromHeader(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"From", "<sip:+15551234567@pbx.local>;tag=abc", "+15551234567"},
		{"From", `"Alice" <sip:1001@10.0.0.2:5060>;tag=1`, "1001"},
		{"From", "<sips:+442071234567@secure.example>", "+442071234567"},
		{"f", "<tel:+3312345678>", "+3312345678"},
		{"From", "anonymous", ""},
	}
	for _, tc := range cases {
		got := monitorin.CallerNumber([]sip.Header{sip.NewHeader("To", "<sip:me@host>"), sip.NewHeader(tc.name, tc.value)})
		if got != tc.want {
			t.Fatalf("%s: %q: expected %q, got %q", tc.name, tc.value, tc.want, got)
		}
	}
}

func TestCallerNumberWithoutFromHeader(t *testing.T) {
	t.Parallel()
	if got := monitorin.CallerNumber([]sip.Header{sip.NewHeader("Via", "SIP/2.0/UDP host")}); got != "" {
		t.Fatalf("expected empty number, got %q", got)
	}
}
