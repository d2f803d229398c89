package config

import (
	"log"
	"time"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/core/domain"
	"award-portal/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if err := s.seedSampleCategories(); err != nil {
		log.Printf("⚠️ Category seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		FirstName: "Portal",
		LastName:  "Admin",
		Email:     "admin@awards.campusportal.ng",
		Password:  hashedPassword,
		Role:      domain.RoleAdmin,
		IsActive:  true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}

// seedSampleCategories seeds a couple of award categories for development
func (s *Seeder) seedSampleCategories() error {
	var count int64
	s.db.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return nil // Categories already exist
	}

	start := time.Now()
	end := start.AddDate(0, 1, 0)

	categories := []models.Category{
		{
			Name:            "Best Graduating Student",
			Description:     "Recognizes the most outstanding graduating student of the year",
			VotingActive:    true,
			VotingStartDate: &start,
			VotingEndDate:   &end,
			VotePrice:       100,
			MaxNominees:     20,
			IsActive:        true,
		},
		{
			Name:            "Most Innovative Student",
			Description:     "Recognizes exceptional creativity and innovation",
			VotingActive:    false,
			VotePrice:       100,
			MaxNominees:     15,
			IsActive:        true,
		},
	}

	for i := range categories {
		if err := s.db.Create(&categories[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d award categories", len(categories))
	return nil
}
