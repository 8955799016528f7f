package models

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectDatabase opens the MySQL connection from DATABASE_URL and
// prepares the schema. The .env file only exists in local development, so
// its load error is ignored; in deployment the variable comes from the
// environment directly. The returned handle is passed into the
// repositories explicitly -- nothing in the engine reaches for a global.
func ConnectDatabase() (*gorm.DB, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("models: DATABASE_URL is not set")
	}

	db, err := gorm.Open(mysql.Open(dbURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("models: connecting to database: %w", err)
	}

	if err := db.AutoMigrate(&Student{}, &ClassSchedule{}, &AttendanceRecord{}); err != nil {
		return nil, fmt.Errorf("models: migrating schema: %w", err)
	}
	return db, nil
}
