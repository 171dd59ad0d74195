package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/models"
)

func main() {
	// Connect to database
	db, err := gorm.Open(sqlite.Open("./data/safewaters.db"), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.ManagedProfile{},
		&models.BlockingRule{},
		&models.NavigationRecord{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	// Seed a demo manager
	manager := models.User{Email: "demo@safewaters.dev", Name: "Demo Manager", Enabled: true}
	if err := manager.SetPassword("demo-password-123"); err != nil {
		log.Fatal("Failed to hash demo password:", err)
	}
	if err := db.Where("email = ?", manager.Email).FirstOrCreate(&manager).Error; err != nil {
		log.Fatal("Failed to seed manager:", err)
	}

	// Seed a managed profile with a few rules
	profile := models.ManagedProfile{
		ManagerUserID:      manager.ID,
		ProfileName:        "Kid's Laptop",
		Token:              uuid.NewString(),
		URLCheckingEnabled: true,
	}
	if err := db.Where("manager_user_id = ? AND profile_name = ?", manager.ID, profile.ProfileName).
		FirstOrCreate(&profile).Error; err != nil {
		log.Fatal("Failed to seed profile:", err)
	}

	rules := []models.BlockingRule{
		{ManagedProfileID: profile.ID, RuleType: models.RuleTypeExactDomain, RuleValue: "bad.example", Description: "Known bad host", IsActive: true},
		{ManagedProfileID: profile.ID, RuleType: models.RuleTypeKeyword, RuleValue: "gambling", Description: "Keyword filter", IsActive: true},
		{ManagedProfileID: profile.ID, RuleType: models.RuleTypeExactURL, RuleValue: "https://chat.example/room/18plus", Description: "Single page", IsActive: false},
	}
	for _, rule := range rules {
		if err := db.Where("managed_profile_id = ? AND rule_value = ?", profile.ID, rule.RuleValue).
			FirstOrCreate(&rule).Error; err != nil {
			log.Fatal("Failed to seed rule:", err)
		}
	}

	fmt.Println("✓ Seed data created")
	fmt.Printf("  manager: %s (password: demo-password-123)\n", manager.Email)
	fmt.Printf("  profile token: %s\n", profile.Token)
}
