package utils

import (
	"errors"
	"testing"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"a": 1, "b": "two"}`)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if got != `{"a": 1, "b": "two"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	input := "```json\n{\"mood\": \"calm\"}\n```"
	got, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if got != `{"mood": "calm"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONSurroundedByProse(t *testing.T) {
	input := `Sure! Here is the analysis you asked for: {"intent": "question"} Hope that helps.`
	got, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if got != `{"intent": "question"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	input := `{"note": "use {braces} and \"quotes\" freely", "n": 2}`
	got, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if got != input {
		t.Errorf("got %q, want the full object", got)
	}
}

func TestExtractJSONArray(t *testing.T) {
	input := `The items are: [{"id": 1}, {"id": 2}]`
	got, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if got != `[{"id": 1}, {"id": 2}]` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	for _, input := range []string{"", "   ", "no json here", "{broken"} {
		if _, err := ExtractJSON(input); !errors.Is(err, ErrNoJSONFound) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrNoJSONFound", input, err)
		}
	}
}

func TestExtractJSONTo(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	err := ExtractJSONTo("```json\n{\"intent\": \"planning\"}\n```", &out)
	if err != nil {
		t.Fatalf("ExtractJSONTo failed: %v", err)
	}
	if out.Intent != "planning" {
		t.Errorf("intent = %q, want planning", out.Intent)
	}
}
