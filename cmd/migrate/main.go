package main

import (
	"flag"
	"log"

	"livedesk/internal/config"
	"livedesk/internal/domain"
	"livedesk/pkg/database"
)

// Standalone migration and seeding runner for deployments that do not let
// the API migrate on boot.
func main() {
	seed := flag.Bool("seed", false, "also create the default admin and agent accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database.Connect(cfg.Database)

	if err := database.ApplyRawMigrations("migrations/pre"); err != nil {
		log.Fatalf("Failed to apply raw migrations: %v", err)
	}

	if err := database.DB.AutoMigrate(
		&domain.User{},
		&domain.Conversation{},
		&domain.Message{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	if err := database.ApplyRawMigrations("migrations/post"); err != nil {
		log.Fatalf("Failed to apply index migrations: %v", err)
	}

	if *seed {
		if err := database.Seed(database.DB, nil); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
	} else if err := database.EnsureReservedActors(database.DB); err != nil {
		log.Fatalf("Failed to seed reserved actors: %v", err)
	}

	log.Println("Migrations applied")
}
