package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	StaffJWTSecret string

	// Clinic identity stamped on prescriptions and notifications.
	ClinicName    string
	ClinicAddress string
	DoctorName    string

	// WhatsApp gateway
	WhatsAppBaseURL    string
	WhatsAppAPIKey     string
	WhatsAppTimeout    time.Duration
	WhatsAppMaxRetries int

	// Redis (prescription save guard)
	RedisAddr     string
	RedisPassword string
	SaveGuardTTL  time.Duration

	// SendGrid follow-up notifications
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	NotifyRecipients   []string
	NotifyOnCompletion bool

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		StaffJWTSecret: getEnv("STAFF_JWT_SECRET", ""),

		ClinicName:    getEnv("CLINIC_NAME", "ClinicDesk"),
		ClinicAddress: getEnv("CLINIC_ADDRESS", ""),
		DoctorName:    getEnv("DOCTOR_NAME", ""),

		WhatsAppBaseURL:    getEnv("WHATSAPP_BASE_URL", ""),
		WhatsAppAPIKey:     getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppTimeout:    getEnvAsDuration("WHATSAPP_TIMEOUT", 10*time.Second),
		WhatsAppMaxRetries: getEnvAsInt("WHATSAPP_MAX_RETRIES", 2),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SaveGuardTTL:  getEnvAsDuration("SAVE_GUARD_TTL", 30*time.Second),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "ClinicDesk"),
		NotifyRecipients:   getEnvAsList("NOTIFY_RECIPIENTS", nil),
		NotifyOnCompletion: getEnvAsBool("NOTIFY_ON_COMPLETION", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
