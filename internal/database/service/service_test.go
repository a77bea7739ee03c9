package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/testdb"
	"github.com/plotline-gh/marketplace/backend-go/internal/events"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires every repository to one in-memory database
type fixture struct {
	db           *gorm.DB
	users        repository.UserRepository
	listings     repository.ListingRepository
	transactions repository.TransactionRepository
	crm          repository.CRMRepository
	messages     repository.MessageRepository
	tokens       repository.RefreshTokenRepository
	publisher    *events.MemoryPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	return &fixture{
		db:           db,
		users:        repository.NewUserRepository(db),
		listings:     repository.NewListingRepository(db),
		transactions: repository.NewTransactionRepository(db),
		crm:          repository.NewCRMRepository(db),
		messages:     repository.NewMessageRepository(db),
		tokens:       repository.NewRefreshTokenRepository(db),
		publisher:    events.NewMemoryPublisher(),
	}
}

func (f *fixture) user(t *testing.T, email string, category config.Category, plan config.PlanID) *models.User {
	t.Helper()
	user := &models.User{
		Email:              email,
		FullName:           "Test User",
		Password:           "hashed",
		Category:           category,
		PlanID:             plan,
		SubscriptionStatus: config.SubscriptionActive,
	}
	if plan != config.PlanFree {
		end := fixedNow.Add(15 * 24 * time.Hour)
		user.CycleEnd = &end
	}
	require.NoError(t, f.users.Create(user))
	return user
}

func (f *fixture) userWithPassword(t *testing.T, email, password string, isAdmin bool) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:    email,
		FullName: "Login User",
		Password: string(hashed),
		Category: config.CategorySeller,
		IsAdmin:  isAdmin,
	}
	require.NoError(t, f.users.Create(user))
	return user
}

// fakeQuota is an in-process DailyQuota
type fakeQuota struct {
	mu       sync.Mutex
	counts     map[uint]int64
	err        error
	releaseErr error
	released   int
}

func newFakeQuota() *fakeQuota {
	return &fakeQuota{counts: map[uint]int64{}}
}

func (q *fakeQuota) Consume(_ context.Context, userID uint, limit config.Limit, _ time.Time) (bool, int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return false, 0, q.err
	}
	if limit.IsUnlimited() {
		return true, 0, nil
	}
	if q.counts[userID] >= int64(limit) {
		return false, q.counts[userID], nil
	}
	q.counts[userID]++
	return true, q.counts[userID], nil
}

func (q *fakeQuota) Release(_ context.Context, userID uint, _ time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.releaseErr != nil {
		return q.releaseErr
	}
	if q.counts[userID] > 0 {
		q.counts[userID]--
	}
	q.released++
	return nil
}

func (q *fakeQuota) Remaining(_ context.Context, userID uint, limit config.Limit, _ time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return 0, q.err
	}
	if limit.IsUnlimited() {
		return -1, nil
	}
	return max(int64(limit)-q.counts[userID], 0), nil
}
