package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	OTP       OTPConfig
	Captcha   CaptchaConfig
	Upload    UploadConfig
	SMTP      SMTPConfig
	Complaint ComplaintConfig
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

// OTPConfig holds guest OTP session configuration
type OTPConfig struct {
	TTL            time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	MaxResends     int
}

// CaptchaConfig holds captcha challenge configuration
type CaptchaConfig struct {
	TTL    time.Duration
	Length int
}

// UploadConfig holds attachment staging/storage configuration.
// The caps intentionally differ per submission mode.
type UploadConfig struct {
	StagingDir         string
	StorageDir         string
	GuestMaxFiles      int
	GuestMaxFileMB     int
	CitizenMaxFiles    int
	CitizenMaxFileMB   int
	MaintMaxFiles      int
	MaintMaxFileMB     int
}

// SMTPConfig holds OTP mail delivery configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool
}

// ComplaintConfig holds complaint validation configuration
type ComplaintConfig struct {
	MinDescriptionLen int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		Database:  loadDatabaseConfig(appMode),
		JWT:       loadJWTConfig(appMode),
		Cookie:    loadCookieConfig(appMode),
		OTP:       loadOTPConfig(),
		Captcha:   loadCaptchaConfig(),
		Upload:    loadUploadConfig(),
		SMTP:      loadSMTPConfig(),
		Complaint: ComplaintConfig{MinDescriptionLen: getEnvInt("COMPLAINT_MIN_DESCRIPTION", 10)},
	}

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
		DBName:   getEnv(prefix+"DB_NAME", "nagarseva"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
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

// loadOTPConfig loads guest OTP session config
func loadOTPConfig() OTPConfig {
	return OTPConfig{
		TTL:            time.Duration(getEnvInt("OTP_TTL_MINUTES", 10)) * time.Minute,
		ResendCooldown: time.Duration(getEnvInt("OTP_RESEND_COOLDOWN_SECONDS", 60)) * time.Second,
		MaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),
		MaxResends:     getEnvInt("OTP_MAX_RESENDS", 3),
	}
}

// loadCaptchaConfig loads captcha config
func loadCaptchaConfig() CaptchaConfig {
	return CaptchaConfig{
		TTL:    time.Duration(getEnvInt("CAPTCHA_TTL_MINUTES", 10)) * time.Minute,
		Length: getEnvInt("CAPTCHA_LENGTH", 5),
	}
}

// loadUploadConfig loads attachment config with the per-mode defaults
func loadUploadConfig() UploadConfig {
	return UploadConfig{
		StagingDir:       getEnv("UPLOAD_STAGING_DIR", "./uploads/staging"),
		StorageDir:       getEnv("UPLOAD_STORAGE_DIR", "./uploads/complaints"),
		GuestMaxFiles:    getEnvInt("UPLOAD_GUEST_MAX_FILES", 5),
		GuestMaxFileMB:   getEnvInt("UPLOAD_GUEST_MAX_FILE_MB", 10),
		CitizenMaxFiles:  getEnvInt("UPLOAD_CITIZEN_MAX_FILES", 10),
		CitizenMaxFileMB: getEnvInt("UPLOAD_CITIZEN_MAX_FILE_MB", 10),
		MaintMaxFiles:    getEnvInt("UPLOAD_MAINT_MAX_FILES", 5),
		MaintMaxFileMB:   getEnvInt("UPLOAD_MAINT_MAX_FILE_MB", 5),
	}
}

// loadSMTPConfig loads OTP mail delivery config
func loadSMTPConfig() SMTPConfig {
	host := getEnv("SMTP_HOST", "")
	return SMTPConfig{
		Host:     host,
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     getEnv("SMTP_FROM", "no-reply@nagarseva.gov.in"),
		Enabled:  host != "",
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an int environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
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
		return "https://portal.nagarseva.gov.in"
	}
	return origins
}
