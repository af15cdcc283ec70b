package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/services/llm"
)

const summarizeTimeout = 30 * time.Second

var (
	// ErrNoMessages means the caller asked to summarize nothing. This is
	// caught before any provider traffic.
	ErrNoMessages = errors.New("no messages provided for summarization")
	// ErrEmptySummary means the provider answered but produced no content
	ErrEmptySummary = errors.New("no summary generated")
	// ErrSnapshotPersist wraps storage failures that happen after a summary
	// was already produced
	ErrSnapshotPersist = errors.New("failed to store memory snapshot")
)

// SummarizeInput is one conversation turn handed in for summarization
type SummarizeInput struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// MemoryService condenses conversation history into MemorySnapshot rows
// so long-running chats can be re-primed without replaying every turn.
type MemoryService struct {
	db     *gorm.DB
	client *llm.Client
	keys   *ProviderKeyResolver
}

// NewMemoryService creates the memory service. keys may be nil, in which
// case every summary runs on the server key.
func NewMemoryService(db *gorm.DB, client *llm.Client, keys *ProviderKeyResolver) *MemoryService {
	return &MemoryService{db: db, client: client, keys: keys}
}

// clientFor swaps in the user's own provider key when one is stored.
// Resolution failures fall back to the server key rather than blocking
// the request.
func (s *MemoryService) clientFor(ctx context.Context, userID uint) *llm.Client {
	if s.keys == nil {
		return s.client
	}
	key, err := s.keys.APIKeyFor(ctx, userID)
	if err != nil || key == "" {
		return s.client
	}
	return s.client.WithAPIKey(key)
}

// Summarize produces a summary of the given turns and persists it as a
// MemorySnapshot for the user. chatSessionID may be nil for ad-hoc
// summaries that are not tied to a stored session.
func (s *MemoryService) Summarize(ctx context.Context, userID uint, chatSessionID *uint, messages []SummarizeInput) (*model.MemorySnapshot, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	summary, err := s.clientFor(ctx, userID).SimpleCompletion(ctx, summarySystemPrompt, buildTranscript(messages),
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(512),
	)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyCompletion) {
			return nil, ErrEmptySummary
		}
		return nil, fmt.Errorf("summarization request failed: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, ErrEmptySummary
	}

	snapshot := &model.MemorySnapshot{
		UserID:        userID,
		ChatSessionID: chatSessionID,
		Role:          "summary",
		Content:       summary,
	}
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotPersist, err)
	}

	return snapshot, nil
}

// ListSnapshots returns the user's stored memories, newest first, optionally
// scoped to one chat session.
func (s *MemoryService) ListSnapshots(ctx context.Context, userID uint, chatSessionID *uint, limit int) ([]model.MemorySnapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if chatSessionID != nil {
		query = query.Where("chat_session_id = ?", *chatSessionID)
	}

	var snapshots []model.MemorySnapshot
	if err := query.Order("created_at DESC").Limit(limit).Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to load memory snapshots: %w", err)
	}
	return snapshots, nil
}

// DeleteSnapshot removes one of the user's memories
func (s *MemoryService) DeleteSnapshot(ctx context.Context, userID, snapshotID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", snapshotID, userID).
		Delete(&model.MemorySnapshot{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete memory snapshot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func buildTranscript(messages []SummarizeInput) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

const summarySystemPrompt = `You summarize conversations between a user and an AI assistant. Produce a concise summary that captures:
- the user's goals, questions and decisions
- important facts, preferences and constraints the user revealed
- commitments or follow-ups the assistant made

Write in third person, at most 200 words. Output only the summary text.`
