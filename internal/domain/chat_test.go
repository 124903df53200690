package domain

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name string
		seed string
		want string
	}{
		{"empty", "", "New Chat"},
		{"whitespace only", "   ", "New Chat"},
		{"short verbatim", "Hello", "Hello"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"truncated with ellipsis", strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
		{"long message", strings.Repeat("palabra ", 20), strings.Repeat("palabra ", 6) + "pa" + "..."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveTitle(c.seed); got != c.want {
				t.Fatalf("DeriveTitle(%q) = %q, want %q", c.seed, got, c.want)
			}
		})
	}
}

func TestDeriveTitleCountsRunes(t *testing.T) {
	seed := strings.Repeat("ñ", 60)
	got := DeriveTitle(seed)
	want := strings.Repeat("ñ", 50) + "..."
	if got != want {
		t.Fatalf("expected rune-based truncation, got %q", got)
	}
}
