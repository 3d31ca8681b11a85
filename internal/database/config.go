package database

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// URL, when set, overrides the individual fields entirely.
	URL string
}

// NewConfig reads connection settings from the environment, with a .env file
// as an optional source. DATABASE_URL wins over the per-field variables.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Running without a .env file is normal in deployed environments.
		fmt.Println("Warning: .env file not found")
	}

	return &Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "capital_galaxy"),
		Password: getEnv("DB_PASSWORD", "capital_galaxy"),
		DBName:   getEnv("DB_NAME", "capital_galaxy"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		URL:      os.Getenv("DATABASE_URL"),
	}, nil
}

// DSN returns the keyword/value connection string for the gorm driver.
func (c *Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the postgres:// URL form golang-migrate expects.
func (c *Config) MigrateURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
