package domain

import (
	"strings"
	"testing"
)

func TestNormalizeUsername(t *testing.T) {
	cases := map[string]string{
		"alice":       "alice",
		" Alice ":     "alice",
		"\tBOB\n":     "bob",
		"":            "",
		"   ":         "",
		"Carol Smith": "carol smith",
	}
	for in, want := range cases {
		if got := NormalizeUsername(in); got != want {
			t.Fatalf("NormalizeUsername(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestNewConnIDUnique(t *testing.T) {
	seen := make(map[ConnID]struct{})
	for i := 0; i < 100; i++ {
		id := NewConnID()
		if id == "" {
			t.Fatalf("empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTruncateText(t *testing.T) {
	long := strings.Repeat("a", 1000)
	if got := TruncateText(long, MaxChatTextLen); len(got) != 800 {
		t.Fatalf("len=%d, want 800", len(got))
	}
	if got := TruncateText("short", MaxChatTextLen); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateText("", 3); got != "" {
		t.Fatalf("got %q", got)
	}

	// Multi-byte characters count once each.
	runes := strings.Repeat("é", 900)
	got := TruncateText(runes, MaxChatTextLen)
	if n := len([]rune(got)); n != 800 {
		t.Fatalf("rune count=%d, want 800", n)
	}
	if got := TruncateText("héllo", 2); got != "hé" {
		t.Fatalf("got %q", got)
	}
}
