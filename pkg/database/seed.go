package database

import (
	"errors"
	"log"
	"time"

	"livedesk/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureReservedActors creates the fixed system and responder users. Their
// IDs are constants so every environment agrees on who wrote a notice.
func EnsureReservedActors(db *gorm.DB) error {
	reserved := []domain.User{
		{
			ID:          domain.SystemUserID,
			DisplayName: "System",
			Role:        domain.UserRoleSystem,
			IsActive:    true,
		},
		{
			ID:          domain.ResponderUserID,
			DisplayName: "Support Assistant",
			Role:        domain.UserRoleSystem,
			IsActive:    true,
		},
	}

	for _, u := range reserved {
		var existing domain.User
		err := db.Where("id = ?", u.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		u.CreatedAt = time.Now()
		u.UpdatedAt = time.Now()
		if err := db.Create(&u).Error; err != nil {
			return err
		}
		log.Printf("Seeded reserved actor %s (%s)", u.DisplayName, u.ID)
	}
	return nil
}

// SeedConfig describes the optional bootstrap accounts for local setups.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AgentEmail    string
	AgentPassword string
}

func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminEmail:    "admin@livedesk.local",
		AdminPassword: "Admin@123!",
		AgentEmail:    "agent@livedesk.local",
		AgentPassword: "Agent@123!",
	}
}

// Seed provisions the reserved actors plus a default admin and agent.
// Existing accounts are left untouched.
func Seed(db *gorm.DB, cfg *SeedConfig) error {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	if err := EnsureReservedActors(db); err != nil {
		return err
	}

	accounts := []struct {
		email    string
		password string
		name     string
		role     domain.UserRole
	}{
		{cfg.AdminEmail, cfg.AdminPassword, "Desk Admin", domain.UserRoleAdmin},
		{cfg.AgentEmail, cfg.AgentPassword, "First Agent", domain.UserRoleAgent},
	}

	for _, acct := range accounts {
		var existing domain.User
		err := db.Where("email = ?", acct.email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(acct.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		email := acct.email
		u := domain.User{
			ID:           uuid.New(),
			Email:        &email,
			DisplayName:  acct.name,
			PasswordHash: string(hash),
			Role:         acct.role,
			IsActive:     true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := db.Create(&u).Error; err != nil {
			return err
		}
		log.Printf("Seeded %s account %s", acct.role, acct.email)
	}
	return nil
}
