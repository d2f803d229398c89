package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Paystack PaystackConfig
	Voting   VotingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// PaystackConfig holds payment gateway configuration
type PaystackConfig struct {
	SecretKey string
	PublicKey string
	BaseURL   string
	Mock      bool
}

// VotingConfig holds voting transaction configuration
type VotingConfig struct {
	Currency            string
	PaymentExpiryMins   int
	VerifyMaxAttempts   int
	VerifyBackoffMillis int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Paystack: loadPaystackConfig(appMode),
		Voting:   loadVotingConfig(),
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "award_portal"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadPaystackConfig loads payment gateway config based on mode.
// Dev defaults to mock mode so the flow works without credentials.
func loadPaystackConfig(mode string) PaystackConfig {
	prefix := "DEV_"
	mockDefault := "true"
	if mode == "prod" {
		prefix = "PROD_"
		mockDefault = "false"
	}

	mock, _ := strconv.ParseBool(getEnv("PAYSTACK_MOCK", mockDefault))

	return PaystackConfig{
		SecretKey: getEnv(prefix+"PAYSTACK_SECRET_KEY", ""),
		PublicKey: getEnv(prefix+"PAYSTACK_PUBLIC_KEY", ""),
		BaseURL:   getEnv("PAYSTACK_BASE_URL", ""),
		Mock:      mock,
	}
}

// loadVotingConfig loads voting transaction config
func loadVotingConfig() VotingConfig {
	expiryMins, _ := strconv.Atoi(getEnv("PAYMENT_EXPIRY_MINUTES", "30"))
	maxAttempts, _ := strconv.Atoi(getEnv("VERIFY_MAX_ATTEMPTS", "4"))
	backoffMillis, _ := strconv.Atoi(getEnv("VERIFY_BACKOFF_MILLIS", "500"))

	return VotingConfig{
		Currency:            getEnv("VOTE_CURRENCY", "NGN"),
		PaymentExpiryMins:   expiryMins,
		VerifyMaxAttempts:   maxAttempts,
		VerifyBackoffMillis: backoffMillis,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://awards.campusportal.ng"
	}
	return origins
}
