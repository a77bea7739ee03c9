package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
)

// MinPasswordLength is the shortest admin password accepted
const MinPasswordLength = 12

// AdminInput holds the credentials of the platform administrator
type AdminInput struct {
	Email    string
	FullName string
	Password string
	Phone    string // Optional, any format NormalizePhone accepts
	Region   string // Default region for Phone
}

// Admin creates or updates administrator accounts
type Admin struct {
	userRepo   repository.UserRepository
	bcryptCost int
	logger     *slog.Logger
}

// NewAdmin creates a new admin bootstrapper
func NewAdmin(userRepo repository.UserRepository, logger *slog.Logger) *Admin {
	return &Admin{
		userRepo:   userRepo,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
}

// EnsureAdmin makes sure an administrator with input.Email exists. Running it
// again updates the name, phone and password of the existing account and
// reports created=false.
func (a *Admin) EnsureAdmin(input AdminInput) (user *models.User, created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, fmt.Errorf("%w: email", ErrInvalidAdminInput)
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, false, fmt.Errorf("%w: full name", ErrInvalidAdminInput)
	}
	if len(input.Password) < MinPasswordLength {
		return nil, false, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidAdminInput, MinPasswordLength)
	}

	var phone *string
	if input.Phone != "" {
		normalized, err := NormalizePhone(input.Phone, input.Region)
		if err != nil {
			return nil, false, err
		}
		phone = &normalized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), a.bcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := a.userRepo.FindByEmail(email)
	switch {
	case err == nil:
		existing.FullName = input.FullName
		existing.Password = string(hash)
		existing.IsAdmin = true
		if phone != nil {
			existing.Phone = phone
		}
		if err := a.userRepo.Update(existing); err != nil {
			return nil, false, fmt.Errorf("failed to update admin: %w", err)
		}
		a.logger.Info("🔄 [Bootstrap] Admin updated", "user_id", existing.ID, "email", email)
		return existing, false, nil

	case errors.Is(err, repository.ErrUserNotFound):
		user := &models.User{
			Email:              email,
			FullName:           input.FullName,
			Phone:              phone,
			Password:           string(hash),
			IsAdmin:            true,
			Category:           config.CategoryBuyer,
			PlanID:             config.PlanFree,
			SubscriptionStatus: config.SubscriptionActive,
		}
		if err := a.userRepo.Create(user); err != nil {
			return nil, false, fmt.Errorf("failed to create admin: %w", err)
		}
		a.logger.Info("✅ [Bootstrap] Admin created", "user_id", user.ID, "email", email)
		return user, true, nil

	default:
		return nil, false, err
	}
}

var ErrInvalidAdminInput = errors.New("invalid admin input")
