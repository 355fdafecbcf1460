package database

import (
	"log"
	"time"

	"astraldraft-backend/shared/database/models"
	utils "astraldraft-backend/shared/utils/auth"
)

// CreateAdminUser seeds the bootstrap admin account if it does not exist.
func CreateAdminUser(email, password string) error {
	var existing models.User
	if err := DB.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("✅ Admin user already exists: %s", email)
		return nil
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:         "admin",
		Email:            email,
		Password:         hashedPassword,
		DisplayName:      "Administrator",
		IsAdmin:          true,
		SubscriptionTier: models.TierOracle,
		IsActive:         true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", email)
	return nil
}
