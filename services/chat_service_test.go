package services

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"plan my week", "plan my week"},
		{"  collapse   whitespace\nplease  ", "collapse whitespace please"},
	}
	for _, tc := range cases {
		if got := deriveTitle(tc.input); got != tc.want {
			t.Errorf("deriveTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDeriveTitleTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := deriveTitle(long)
	if len([]rune(got)) > 60 {
		t.Errorf("title length = %d, want at most 60", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated title %q should end with ellipsis", got)
	}
}
