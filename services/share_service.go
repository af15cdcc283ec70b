package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/cache"
)

var (
	// ErrShareNotFound means no share exists for the slug or ID
	ErrShareNotFound = errors.New("share not found")
	// ErrShareGone means the share existed but is revoked, expired or has
	// exhausted its view allowance. Maps to 410 at the HTTP edge.
	ErrShareGone = errors.New("share is no longer available")
	// ErrEmptyConversation blocks sharing sessions that have no messages
	ErrEmptyConversation = errors.New("conversation has no messages to share")
)

// CreateShareInput configures a new public share
type CreateShareInput struct {
	SessionID uint       `json:"conversation_id" validate:"required"`
	MaxViews  *int64     `json:"max_views,omitempty" validate:"omitempty,min=1"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ShareService creates and resolves public conversation shares. Creation
// snapshots the conversation into shared_messages; resolution is public and
// counts views.
type ShareService struct {
	db      *gorm.DB
	cache   *cache.RedisCache
	baseURL string
}

// NewShareService creates the share service. baseURL is the public origin
// used to build share links, e.g. https://quirra.app.
func NewShareService(db *gorm.DB, redisCache *cache.RedisCache, baseURL string) *ShareService {
	return &ShareService{
		db:      db,
		cache:   redisCache,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PublicURL builds the shareable link for a slug
func (s *ShareService) PublicURL(slug string) string {
	return s.baseURL + "/share/" + slug
}

// CreateShare snapshots one of the user's sessions into a public share.
// Ownership is enforced; sharing someone else's session answers not-found
// rather than forbidden so session IDs are not enumerable.
func (s *ShareService) CreateShare(ctx context.Context, userID uint, input CreateShareInput) (*model.ConversationShare, error) {
	var session model.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", input.SessionID, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}

	var messages []model.ChatMessage
	err = s.db.WithContext(ctx).
		Where("session_id = ?", session.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	share := &model.ConversationShare{
		UserID:    userID,
		SessionID: session.ID,
		Slug:      uuid.NewString(),
		Title:     session.Title,
		MaxViews:  input.MaxViews,
		ExpiresAt: input.ExpiresAt,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(share).Error; err != nil {
			return fmt.Errorf("failed to create share: %w", err)
		}
		snapshot := make([]model.SharedMessage, 0, len(messages))
		for i, m := range messages {
			snapshot = append(snapshot, model.SharedMessage{
				ShareID:  share.ID,
				Role:     m.Role,
				Content:  m.Content,
				Position: i,
			})
		}
		if err := tx.CreateInBatches(snapshot, 100).Error; err != nil {
			return fmt.Errorf("failed to snapshot messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return share, nil
}

// ResolveShare looks a share up by slug for public viewing. Each successful
// resolution counts one view. Dead shares return ErrShareGone so the caller
// can answer 410 instead of 404.
func (s *ShareService) ResolveShare(ctx context.Context, slug string) (*model.ConversationShare, error) {
	var share model.ConversationShare
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("slug = ?", slug).
		First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load share: %w", err)
	}

	if share.IsGone(time.Now()) {
		return nil, ErrShareGone
	}

	if err := s.db.WithContext(ctx).
		Model(&model.ConversationShare{}).
		Where("id = ?", share.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	share.ViewCount++

	// Best effort hot counter for dashboards; the DB column is the truth
	if s.cache != nil {
		_, _ = s.cache.Increment(ctx, "share:views:"+slug)
	}

	return &share, nil
}

// ListShares returns the user's shares, newest first
func (s *ShareService) ListShares(ctx context.Context, userID uint) ([]model.ConversationShare, error) {
	var shares []model.ConversationShare
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

// RevokeShare marks a share dead. Revocation is permanent; public reads
// answer 410 from that point on.
func (s *ShareService) RevokeShare(ctx context.Context, userID uint, slug string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&model.ConversationShare{}).
		Where("slug = ? AND user_id = ? AND revoked_at IS NULL", slug, userID).
		Update("revoked_at", &now)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke share: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrShareNotFound
	}
	return nil
}

// SweepExpired hard-revokes shares whose expiry has passed so public reads
// stop hitting the IsGone check for them. Returns affected rows for the
// cron job log.
func (s *ShareService) SweepExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&model.ConversationShare{}).
		Where("revoked_at IS NULL AND expires_at IS NOT NULL AND expires_at < ?", now).
		Update("revoked_at", &now)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired shares: %w", result.Error)
	}
	return result.RowsAffected, nil
}
