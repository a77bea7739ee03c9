package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// RefreshTokenRepository defines the interface for refresh token operations
type RefreshTokenRepository interface {
	Create(token *models.RefreshToken) error
	FindUsable(tokenHash string, now time.Time) (*models.RefreshToken, error)
	Revoke(tokenHash string) error
	RevokeAllForUser(userID uint) error
	DeleteExpired(now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository instance
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

// FindUsable loads a token with its user. A revoked token is returned
// alongside ErrTokenRevoked so callers can tell whose token was replayed;
// expired tokens yield ErrTokenExpired.
func (r *refreshTokenRepository) FindUsable(tokenHash string, now time.Time) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.Where("token_hash = ?", tokenHash).
		Preload("User").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if token.Revoked {
		return &token, ErrTokenRevoked
	}
	if !token.IsUsable(now) {
		return nil, ErrTokenExpired
	}
	return &token, nil
}

func (r *refreshTokenRepository) Revoke(tokenHash string) error {
	result := r.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Update("revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// RevokeAllForUser revokes every live token the user holds
func (r *refreshTokenRepository) RevokeAllForUser(userID uint) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

// DeleteExpired hard-deletes tokens past their expiry and returns how many were removed
func (r *refreshTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
)
