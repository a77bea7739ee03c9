package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/testdb"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		region  string
		want    string
		wantErr bool
	}{
		{"local ghana mobile", "024 412 3456", "GH", "+233244123456", false},
		{"international format", "+233 24 412 3456", "US", "+233244123456", false},
		{"lowercase region", "0244123456", "gh", "+233244123456", false},
		{"empty", "  ", "GH", "", true},
		{"letters", "not-a-number", "GH", "", true},
		{"too short", "024", "GH", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, tt.region)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newAdmin(t *testing.T) (*Admin, repository.UserRepository) {
	userRepo := repository.NewUserRepository(testdb.New(t))
	admin := NewAdmin(userRepo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	admin.bcryptCost = bcrypt.MinCost
	return admin, userRepo
}

func TestEnsureAdmin_CreatesThenUpdates(t *testing.T) {
	admin, userRepo := newAdmin(t)

	user, created, err := admin.EnsureAdmin(AdminInput{
		Email:    "Ops@Plotline.GH",
		FullName: "Platform Ops",
		Password: "first-password-1",
		Phone:    "0244123456",
		Region:   "GH",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "ops@plotline.gh", user.Email)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "+233244123456", *user.Phone)

	again, created, err := admin.EnsureAdmin(AdminInput{
		Email:    "ops@plotline.gh",
		FullName: "Platform Operations",
		Password: "second-password-2",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	stored, err := userRepo.FindByEmail("ops@plotline.gh")
	require.NoError(t, err)
	assert.Equal(t, "Platform Operations", stored.FullName)
	assert.True(t, stored.IsAdmin)
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "+233244123456", *stored.Phone)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("second-password-2")))
}

func TestEnsureAdmin_RejectsBadInput(t *testing.T) {
	admin, _ := newAdmin(t)

	tests := []struct {
		name  string
		input AdminInput
		want  error
	}{
		{"missing email", AdminInput{FullName: "Ops", Password: "long-enough-pass"}, ErrInvalidAdminInput},
		{"missing name", AdminInput{Email: "ops@plotline.gh", Password: "long-enough-pass"}, ErrInvalidAdminInput},
		{"short password", AdminInput{Email: "ops@plotline.gh", FullName: "Ops", Password: "short"}, ErrInvalidAdminInput},
		{"bad phone", AdminInput{Email: "ops@plotline.gh", FullName: "Ops", Password: "long-enough-pass", Phone: "12", Region: "GH"}, ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := admin.EnsureAdmin(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
