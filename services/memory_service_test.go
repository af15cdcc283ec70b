package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quirra-app/quirra-api/services/llm"
)

func TestSummarizeEmptyMessagesShortCircuits(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"choices":[{"message":{"content":"summary"}}]}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: srv.URL})
	svc := NewMemoryService(nil, client, nil)

	_, err := svc.Summarize(context.Background(), 1, nil, nil)
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("err = %v, want ErrNoMessages", err)
	}
	if atomic.LoadInt64(&calls) != 0 {
		t.Errorf("provider was called %d times, want 0", calls)
	}
}

func TestSummarizeTimeoutMentionsTimedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	svc := NewMemoryService(nil, client, nil)

	_, err := svc.Summarize(context.Background(), 1, nil, []SummarizeInput{
		{Role: "user", Content: "hello"},
	})
	if !errors.Is(err, llm.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error %q should mention the timeout", err.Error())
	}
}

func TestSummarizeEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: srv.URL})
	svc := NewMemoryService(nil, client, nil)

	_, err := svc.Summarize(context.Background(), 1, nil, []SummarizeInput{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi!"},
	})
	if !errors.Is(err, ErrEmptySummary) {
		t.Fatalf("err = %v, want ErrEmptySummary", err)
	}
}

func TestSummarizeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: srv.URL})
	svc := NewMemoryService(nil, client, nil)

	_, err := svc.Summarize(context.Background(), 1, nil, []SummarizeInput{
		{Role: "user", Content: "hello"},
	})
	var provErr *llm.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
}

func TestBuildTranscript(t *testing.T) {
	got := buildTranscript([]SummarizeInput{
		{Role: "user", Content: "plan my week"},
		{Role: "assistant", Content: "sure, let's start with Monday"},
	})
	want := "user: plan my week\nassistant: sure, let's start with Monday\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}
