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

// historyWindow caps how many prior turns are replayed to the provider
const historyWindow = 20

var (
	// ErrSessionNotFound means the session does not exist or is not owned
	// by the requesting user
	ErrSessionNotFound = errors.New("chat session not found")
	// ErrMessageNotFound mirrors ErrSessionNotFound for individual messages
	ErrMessageNotFound = errors.New("chat message not found")
	// ErrSessionArchived blocks new messages into archived sessions
	ErrSessionArchived = errors.New("chat session is archived")
	// ErrEmptyContent rejects blank message bodies
	ErrEmptyContent = errors.New("message content cannot be empty")
)

// ChatService owns chat sessions, their messages and the assistant turn
// generation. All lookups are scoped by user ID so a session is only ever
// visible to its owner.
type ChatService struct {
	db       *gorm.DB
	client   *llm.Client
	analysis *AnalysisService
	memory   *MemoryService
	keys     *ProviderKeyResolver
}

// NewChatService creates the chat service. keys may be nil, in which case
// assistant replies run on the server key.
func NewChatService(db *gorm.DB, client *llm.Client, analysis *AnalysisService, memory *MemoryService, keys *ProviderKeyResolver) *ChatService {
	return &ChatService{db: db, client: client, analysis: analysis, memory: memory, keys: keys}
}

// clientFor swaps in the user's own provider key when one is stored.
// Resolution failures fall back to the server key rather than blocking
// the request.
func (s *ChatService) clientFor(ctx context.Context, userID uint) *llm.Client {
	if s.keys == nil {
		return s.client
	}
	key, err := s.keys.APIKeyFor(ctx, userID)
	if err != nil || key == "" {
		return s.client
	}
	return s.client.WithAPIKey(key)
}

// CreateSession starts a new conversation for the user
func (s *ChatService) CreateSession(ctx context.Context, userID uint, title string) (*model.ChatSession, error) {
	session := &model.ChatSession{
		UserID: userID,
		Title:  strings.TrimSpace(title),
		Status: "active",
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return session, nil
}

// GetSession loads one session owned by the user
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return &session, nil
}

// ListSessions returns the user's sessions ordered by recent activity
func (s *ChatService) ListSessions(ctx context.Context, userID uint, status string, limit, offset int) ([]model.ChatSession, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.ChatSession{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count chat sessions: %w", err)
	}

	var sessions []model.ChatSession
	err := query.
		Order("COALESCE(last_message_at, created_at) DESC").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, total, nil
}

// UpdateSession renames or archives a session
func (s *ChatService) UpdateSession(ctx context.Context, userID, sessionID uint, title, status *string) (*model.ChatSession, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if title != nil {
		updates["title"] = strings.TrimSpace(*title)
	}
	if status != nil {
		if *status != "active" && *status != "archived" {
			return nil, fmt.Errorf("invalid session status %q", *status)
		}
		updates["status"] = *status
	}
	if len(updates) == 0 {
		return session, nil
	}

	if err := s.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update chat session: %w", err)
	}
	return session, nil
}

// DeleteSession soft-deletes a session and its messages
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&model.ChatSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete chat session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete session messages: %w", err)
		}
		return nil
	})
}

// ListMessages returns a session's turns in chronological order
func (s *ChatService) ListMessages(ctx context.Context, userID, sessionID uint, limit, offset int) ([]model.ChatMessage, int64, error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&model.ChatMessage{}).Where("session_id = ?", sessionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []model.ChatMessage
	err := query.Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

// SendMessageResult carries everything one user turn produced
type SendMessageResult struct {
	UserMessage      *model.ChatMessage     `json:"user_message"`
	AssistantMessage *model.ChatMessage     `json:"assistant_message"`
	Analysis         *model.MessageAnalysis `json:"analysis"`
}

// SendMessage stores the user's turn, generates the assistant reply with the
// session history as context, and decorates the result with a best-effort
// message analysis. The user turn is persisted even when reply generation
// fails, so nothing the user wrote is lost.
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID uint, content string) (*SendMessageResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == "archived" {
		return nil, ErrSessionArchived
	}

	history, err := s.recentHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := &model.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Role:      model.MessageRoleUser,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(userMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	analysis := s.analysis.AnalyzeOrDefault(ctx, content)

	turns := append(history, llm.Message{Role: "user", Content: content})
	resp, err := s.clientFor(ctx, userID).ChatCompletion(ctx, s.withSystemPrompt(ctx, userID, session, turns))
	if err != nil {
		return nil, fmt.Errorf("failed to generate assistant reply: %w", err)
	}

	reply := strings.TrimSpace(resp.ExtractContent())
	if reply == "" {
		return nil, llm.ErrEmptyCompletion
	}

	assistantMsg := &model.ChatMessage{
		SessionID:  sessionID,
		UserID:     userID,
		Role:       model.MessageRoleAssistant,
		Content:    reply,
		ModelUsed:  resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assistantMsg).Error; err != nil {
			return fmt.Errorf("failed to store assistant message: %w", err)
		}
		now := time.Now()
		updates := map[string]interface{}{
			"message_count":   gorm.Expr("message_count + 2"),
			"total_tokens":    gorm.Expr("total_tokens + ?", resp.Usage.TotalTokens),
			"last_message_at": &now,
		}
		if session.Title == "" {
			updates["title"] = deriveTitle(content)
		}
		return tx.Model(&model.ChatSession{}).Where("id = ?", sessionID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return &SendMessageResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Analysis:         analysis,
	}, nil
}

// EditMessage updates a user message's content. The previous content is
// written to the message_edits table before the message row changes, so the
// edit history is never lost.
func (s *ChatService) EditMessage(ctx context.Context, userID, messageID uint, newContent string) (*model.ChatMessage, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, ErrEmptyContent
	}

	var msg model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND role = ?", messageID, userID, model.MessageRoleUser).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	if msg.Content == newContent {
		return &msg, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edit := &model.MessageEdit{
			MessageID:       msg.ID,
			PreviousContent: msg.Content,
		}
		if err := tx.Create(edit).Error; err != nil {
			return fmt.Errorf("failed to record message edit: %w", err)
		}
		return tx.Model(&msg).Update("content", newContent).Error
	})
	if err != nil {
		return nil, err
	}

	msg.Content = newContent
	return &msg, nil
}

// ListEdits returns the edit history of one of the user's messages,
// newest first
func (s *ChatService) ListEdits(ctx context.Context, userID, messageID uint) ([]model.MessageEdit, error) {
	var msg model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	var edits []model.MessageEdit
	err = s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("edited_at DESC, id DESC").
		Find(&edits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list message edits: %w", err)
	}
	return edits, nil
}

// recentHistory loads the tail of the conversation as provider messages
func (s *ChatService) recentHistory(ctx context.Context, sessionID uint) ([]llm.Message, error) {
	var rows []model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(historyWindow).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	// Rows arrive newest-first; replay oldest-first
	history := make([]llm.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		history = append(history, llm.Message{
			Role:    string(rows[i].Role),
			Content: rows[i].Content,
		})
	}
	return history, nil
}

// withSystemPrompt prepends the assistant persona and any stored memories
// for the session so the model keeps long-range context.
func (s *ChatService) withSystemPrompt(ctx context.Context, userID uint, session *model.ChatSession, turns []llm.Message) []llm.Message {
	prompt := chatSystemPrompt

	snapshots, err := s.memory.ListSnapshots(ctx, userID, &session.ID, 3)
	if err == nil && len(snapshots) > 0 {
		var b strings.Builder
		b.WriteString(prompt)
		b.WriteString("\n\nWhat you remember from earlier in this conversation:\n")
		for _, snap := range snapshots {
			b.WriteString("- ")
			b.WriteString(snap.Content)
			b.WriteString("\n")
		}
		prompt = b.String()
	}

	return append([]llm.Message{{Role: "system", Content: prompt}}, turns...)
}

// deriveTitle turns the first user message into a session title
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) > 60 {
		title = string(runes[:57]) + "..."
	}
	return title
}

const chatSystemPrompt = `You are Quirra, a warm and capable personal assistant. Be concise, honest and practical. Match the user's language and tone. When you do not know something, say so.`
