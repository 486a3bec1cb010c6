package models

import "gorm.io/gorm"

// Migrate creates or updates the schema for every entity the engine
// owns. Called once at startup and by the test harness.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Organization{},
		&User{},
		&Department{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&Comment{},
		&ActivityLog{},
		&Notification{},
	)
}
