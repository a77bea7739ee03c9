package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(user *models.User) error
	UpdateSubscription(id uint, planID config.PlanID, status config.SubscriptionStatus, cycleEnd *time.Time) error
	ExpireLapsed(now time.Time) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) UpdateSubscription(id uint, planID config.PlanID, status config.SubscriptionStatus, cycleEnd *time.Time) error {
	if !config.IsValidSubscriptionStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidSubscriptionStatus, status)
	}
	result := r.db.Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"plan_id":             planID,
			"subscription_status": status,
			"cycle_end":           cycleEnd,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// lapsedScope restricts a query to paid subscriptions whose period has ended
func lapsedScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("plan_id <> ? AND subscription_status <> ?", config.PlanFree, config.SubscriptionExpired).
			Where(
				db.Session(&gorm.Session{NewDB: true}).
					Where("cycle_end IS NOT NULL AND cycle_end <= ?", now).
					Or("cycle_end IS NULL AND subscription_status = ?", config.SubscriptionCancelled),
			)
	}
}

// ExpireLapsed marks every paid subscription whose period has ended as EXPIRED
// and returns the users it changed as they were before the update. A user
// renewed between the read and the write is left alone.
func (r *userRepository) ExpireLapsed(now time.Time) ([]models.User, error) {
	var expired []models.User

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var lapsed []models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(lapsedScope(now)).
			Find(&lapsed).Error
		if err != nil || len(lapsed) == 0 {
			return err
		}

		for _, u := range lapsed {
			result := tx.Model(&models.User{}).
				Where("id = ?", u.ID).
				Scopes(lapsedScope(now)).
				Update("subscription_status", config.SubscriptionExpired)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				expired = append(expired, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// Repository errors
var (
	ErrUserNotFound              = errors.New("user not found")
	ErrInvalidSubscriptionStatus = errors.New("invalid subscription status")
)
