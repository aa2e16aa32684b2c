package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	ServerPort string

	GoogleCloudProject       string
	FirestoreCredentialsFile string

	SessionDuration time.Duration
	JWTSecret       string
	TokenLifetime   time.Duration

	// Preserves the legacy client's fail-open duplicate guard when set.
	GuardFailOpen bool

	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	TutorBaseURL string
	TutorAPIKey  string
	TutorModel   string

	BackupDriver string
	BackupDSN    string
}

// Load reads configuration from the environment, with a .env file as
// fallback and sensible defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:               getEnv("PORT", "8080"),
		GoogleCloudProject:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
		FirestoreCredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
		SessionDuration:          getDuration("SESSION_DURATION", 24*time.Hour),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		TokenLifetime:            getDuration("TOKEN_LIFETIME", 72*time.Hour),
		GuardFailOpen:            getBool("ASSIGNMENT_GUARD_FAIL_OPEN", false),
		AWSRegion:                getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:             getEnv("SES_FROM_EMAIL", ""),
		SESFromName:              getEnv("SES_FROM_NAME", "Palabritas"),
		GoogleClientID:           getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:       getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:         getEnv("OAUTH_REDIRECT_URL", ""),
		TutorBaseURL:             getEnv("TUTOR_BASE_URL", ""),
		TutorAPIKey:              getEnv("TUTOR_API_KEY", ""),
		TutorModel:               getEnv("TUTOR_MODEL", ""),
		BackupDriver:             getEnv("BACKUP_DRIVER", "sqlite3"),
		BackupDSN:                getEnv("BACKUP_DSN", "./palabritas_backup.db"),
	}
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
