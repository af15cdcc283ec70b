package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/crypto"
)

// providerPreference orders stored keys when a user has several. OpenRouter
// fronts many models behind one key, so it wins over single-vendor keys.
var providerPreference = []string{"openrouter", "openai", "huggingface"}

// ProviderKeyResolver decrypts a user's stored provider key so completions
// run against their own account instead of the server key.
type ProviderKeyResolver struct {
	db        *gorm.DB
	kdfSecret string
}

// NewProviderKeyResolver creates the resolver. kdfSecret must match the one
// the keys were encrypted under.
func NewProviderKeyResolver(db *gorm.DB, kdfSecret string) *ProviderKeyResolver {
	return &ProviderKeyResolver{db: db, kdfSecret: kdfSecret}
}

// APIKeyFor returns the user's preferred provider key in plaintext, or ""
// when the user has stored none.
func (r *ProviderKeyResolver) APIKeyFor(ctx context.Context, userID uint) (string, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("id", "password_salt").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user for key resolution: %w", err)
	}

	var keys []model.UserProviderKey
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&keys).Error; err != nil {
		return "", fmt.Errorf("failed to load provider keys: %w", err)
	}

	chosen := preferredProviderKey(keys)
	if chosen == nil {
		return "", nil
	}

	encKey := crypto.DeriveKey(r.kdfSecret, user.PasswordSalt)
	apiKey, err := crypto.DecryptProviderKey(chosen.EncryptedKey, chosen.Nonce, encKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s key: %w", chosen.Provider, err)
	}
	return apiKey, nil
}

// preferredProviderKey picks the stored key with the highest preference.
// Keys for providers outside the known list fall back to first-stored.
func preferredProviderKey(keys []model.UserProviderKey) *model.UserProviderKey {
	for _, provider := range providerPreference {
		for i := range keys {
			if keys[i].Provider == provider {
				return &keys[i]
			}
		}
	}
	if len(keys) > 0 {
		return &keys[0]
	}
	return nil
}
