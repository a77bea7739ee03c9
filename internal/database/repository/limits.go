package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// ErrLimitReached is matched by *LimitReachedError
var ErrLimitReached = errors.New("plan limit reached")

// LimitReachedError reports the count a guarded insert found when it refused to insert
type LimitReachedError struct {
	Limit   config.Limit
	Current int64
}

func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("plan limit reached: %d of %d", e.Current, e.Limit)
}

func (e *LimitReachedError) Is(target error) bool {
	return target == ErrLimitReached
}

// createWithinLimit performs the final quota check and the insert atomically.
// The owner's user row is locked so concurrent creations for the same owner
// serialize; the count is taken again inside the lock.
func createWithinLimit(
	db *gorm.DB,
	ownerID uint,
	limit config.Limit,
	count func(tx *gorm.DB) (int64, error),
	create func(tx *gorm.DB) error,
) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&owner, ownerID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if !limit.IsUnlimited() {
			current, err := count(tx)
			if err != nil {
				return err
			}
			if !limit.Allows(current) {
				return &LimitReachedError{Limit: limit, Current: current}
			}
		}

		return create(tx)
	})
}
