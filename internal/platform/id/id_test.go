package id

import (
	"strings"
	"testing"
)

func TestNewLengthAndAlphabet(t *testing.T) {
	got := New()
	if len(got) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(got), got)
	}
	if got != strings.ToLower(got) {
		t.Fatalf("expected lowercase identifier, got %q", got)
	}
	for _, r := range got {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyz234567", r) {
			t.Fatalf("unexpected character %q in %q", r, got)
		}
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		got := New()
		if seen[got] {
			t.Fatalf("duplicate identifier %q", got)
		}
		seen[got] = true
	}
}
