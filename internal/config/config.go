package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	SessionDuration time.Duration
	WizardTTL       time.Duration
	CSRFSecret      string
	RedisAddr       string
	LogMode         string

	AppBaseURL           string
	OAuthRedirectBaseURL string
	GoogleClientID       string
	GoogleClientSecret   string
	AppleClientID        string
	AppleClientSecret    string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	EmailDebug   bool
}

// Load reads configuration from the environment (and .env when present) with sensible defaults
func Load() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("config: failed to load .env: %v", err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./vocabpractice.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "")
	v.SetDefault("SESSION_DURATION", 24*time.Hour)
	v.SetDefault("WIZARD_TTL", 2*time.Hour)
	v.SetDefault("CSRF_SECRET", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("OAUTH_REDIRECT_BASE_URL", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("APPLE_CLIENT_ID", "")
	v.SetDefault("APPLE_CLIENT_SECRET", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SES_FROM_EMAIL", "")
	v.SetDefault("SES_FROM_NAME", "VocabPractice")
	v.SetDefault("EMAIL_DEBUG", false)

	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) *Config {
	return &Config{
		ServerPort:           v.GetString("PORT"),
		DatabaseType:         v.GetString("DATABASE_TYPE"),
		DatabasePath:         v.GetString("DB_PATH"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		MigrationsPath:       v.GetString("MIGRATIONS_PATH"),
		SessionDuration:      v.GetDuration("SESSION_DURATION"),
		WizardTTL:            v.GetDuration("WIZARD_TTL"),
		CSRFSecret:           v.GetString("CSRF_SECRET"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		LogMode:              v.GetString("LOG_MODE"),
		AppBaseURL:           v.GetString("APP_BASE_URL"),
		OAuthRedirectBaseURL: v.GetString("OAUTH_REDIRECT_BASE_URL"),
		GoogleClientID:       v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
		AppleClientID:        v.GetString("APPLE_CLIENT_ID"),
		AppleClientSecret:    v.GetString("APPLE_CLIENT_SECRET"),
		AWSRegion:            v.GetString("AWS_REGION"),
		SESFromEmail:         v.GetString("SES_FROM_EMAIL"),
		SESFromName:          v.GetString("SES_FROM_NAME"),
		EmailDebug:           v.GetBool("EMAIL_DEBUG"),
	}
}
