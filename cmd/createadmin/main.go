// Command createadmin creates or updates the platform administrator.
//
// Credentials come from flags, falling back to ADMIN_EMAIL, ADMIN_NAME,
// ADMIN_PASSWORD and ADMIN_PHONE. Running it twice is safe.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plotline-gh/marketplace/backend-go/internal/bootstrap"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/logger"
)

func main() {
	cfg := config.LoadConfig()

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email address")
	name := flag.String("name", envOr("ADMIN_NAME", "Platform Admin"), "admin full name")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	phone := flag.String("phone", os.Getenv("ADMIN_PHONE"), "admin phone number (optional)")
	region := flag.String("region", cfg.DefaultPhoneRegion, "default region for the phone number")
	flag.Parse()

	appLogger := logger.New(cfg)

	if err := database.ConnectDatabase(cfg, appLogger); err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	admin := bootstrap.NewAdmin(repository.NewUserRepository(database.GetDatabase()), appLogger)
	user, created, err := admin.EnsureAdmin(bootstrap.AdminInput{
		Email:    *email,
		FullName: *name,
		Password: *password,
		Phone:    *phone,
		Region:   *region,
	})
	if err != nil {
		appLogger.Error("❌ Failed to bootstrap admin", "error", err)
		os.Exit(1)
	}

	action := "updated"
	if created {
		action = "created"
	}
	fmt.Printf("Admin %s: id=%d email=%s\n", action, user.ID, user.Email)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
