package main

import (
	"log"

	"astraldraft-backend/shared/config"
	"astraldraft-backend/shared/database"
)

func main() {
	log.Println("🌱 Starting database seeding...")

	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Create the bootstrap admin account
	if err := database.CreateAdminUser(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}
