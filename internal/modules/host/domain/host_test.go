package domain

import (
	"strings"
	"testing"
)

func TestTailKeepsLastLines(t *testing.T) {
	t.Parallel()
	got, err := Tail(strings.NewReader("a\nb\nc\nd\n"), 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if got != "c\nd" {
		t.Fatalf("unexpected tail %q", got)
	}
}

func TestTailShortInputAndDefault(t *testing.T) {
	t.Parallel()
	got, err := Tail(strings.NewReader("only\n"), 0)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if got != "only" {
		t.Fatalf("unexpected tail %q", got)
	}
}
