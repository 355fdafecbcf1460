package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	AppEnv string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Secrets. The default is insecure and exists only so a local
	// checkout boots without a .env file.
	JWTSecret string

	// Token lifetimes
	JWTAccessExpireMinutes int
	JWTRefreshExpireDays   int

	// Cookie policy
	CookieDomain        string
	AccessCookieMaxAge  int
	RefreshCookieMaxAge int
	CSRFCookieMaxAge    int

	// Fingerprinting
	FingerprintIncludeIP bool

	// Account lockout
	LockoutMaxFailures   int
	LockoutWindowMinutes int
	LockoutBaseMinutes   int
	LockoutBackoffCap    int

	// Rate Limiting
	RateLimitMaxRequests          int
	RateLimitTimeWindowSeconds    int
	RateLimitBlockDurationMinutes int

	// Login Rate Limiting
	LoginRateLimitMaxAttempts   int
	LoginRateLimitWindowSeconds int
	LoginRateLimitBlockMinutes  int

	// Register Rate Limiting
	RegisterRateLimitMaxAttempts int
	RegisterRateLimitWindowHours int
	RegisterRateLimitBlockHours  int

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Admin seeding
	AdminEmail    string
	AdminPassword string

	// Frontend URL (CORS + WebSocket origin checks)
	FrontendURL string

	// Service URL
	AuthServiceURL string

	// MinIO (avatar storage)
	MinIOServerURL    string
	MinIORootUser     string
	MinIORootPassword string
	MinIOUseSSL       bool
	MinIOBucketName   string
	AvatarMaxFileSize int64
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		AppEnv: getEnv("APP_ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "astraldraft"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Secrets
		JWTSecret: getEnv("JWT_SECRET", "insecure-dev-jwt-secret-change-this"),

		// Token lifetimes
		JWTAccessExpireMinutes: getEnvAsInt("JWT_ACCESS_EXPIRE_MINUTES", 15),
		JWTRefreshExpireDays:   getEnvAsInt("JWT_REFRESH_EXPIRE_DAYS", 30),

		// Cookie policy
		CookieDomain:        getEnv("COOKIE_DOMAIN", ""),
		AccessCookieMaxAge:  getEnvAsInt("ACCESS_COOKIE_MAX_AGE_SECONDS", 7*24*3600),
		RefreshCookieMaxAge: getEnvAsInt("REFRESH_COOKIE_MAX_AGE_SECONDS", 30*24*3600),
		CSRFCookieMaxAge:    getEnvAsInt("CSRF_COOKIE_MAX_AGE_SECONDS", 24*3600),

		// Fingerprinting. Raw client IPs churn behind carrier NAT, so IP
		// binding is opt-in.
		FingerprintIncludeIP: getEnvAsBool("FINGERPRINT_INCLUDE_IP", false),

		// Account lockout
		LockoutMaxFailures:   getEnvAsInt("LOCKOUT_MAX_FAILURES", 5),
		LockoutWindowMinutes: getEnvAsInt("LOCKOUT_WINDOW_MINUTES", 15),
		LockoutBaseMinutes:   getEnvAsInt("LOCKOUT_BASE_MINUTES", 15),
		LockoutBackoffCap:    getEnvAsInt("LOCKOUT_BACKOFF_CAP", 4),

		// Rate Limiting
		RateLimitMaxRequests:          getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitTimeWindowSeconds:    getEnvAsInt("RATE_LIMIT_TIME_WINDOW_SECONDS", 60),
		RateLimitBlockDurationMinutes: getEnvAsInt("RATE_LIMIT_BLOCK_DURATION_MINUTES", 15),

		// Login Rate Limiting
		LoginRateLimitMaxAttempts:   getEnvAsInt("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", 5),
		LoginRateLimitWindowSeconds: getEnvAsInt("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 300),
		LoginRateLimitBlockMinutes:  getEnvAsInt("LOGIN_RATE_LIMIT_BLOCK_MINUTES", 30),

		// Register Rate Limiting
		RegisterRateLimitMaxAttempts: getEnvAsInt("REGISTER_RATE_LIMIT_MAX_ATTEMPTS", 3),
		RegisterRateLimitWindowHours: getEnvAsInt("REGISTER_RATE_LIMIT_WINDOW_HOURS", 24),
		RegisterRateLimitBlockHours:  getEnvAsInt("REGISTER_RATE_LIMIT_BLOCK_HOURS", 48),

		// Redis
		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// Admin seeding
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@astraldraft.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		// Frontend URL
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Service URL
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", "http://localhost:8001"),

		// MinIO Configuration
		MinIOServerURL:    getEnv("MINIO_SERVER_URL", "http://localhost:9000"),
		MinIORootUser:     getEnv("MINIO_ROOT_USER", "minioadmin"),
		MinIORootPassword: getEnv("MINIO_ROOT_PASSWORD", "minioadmin"),
		MinIOUseSSL:       getEnvAsBool("MINIO_USE_SSL", false),
		MinIOBucketName:   getEnv("MINIO_BUCKET_NAME", "astraldraft-avatars"),
		AvatarMaxFileSize: int64(getEnvAsInt("AVATAR_MAX_FILE_SIZE_BYTES", 2*1024*1024)),
	}

	log.Println("✅ Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// IsProduction reports whether the service runs with production hardening
// (secure cookies, quieter DB logging).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AccessTokenDuration returns the access token lifetime
func (c *Config) AccessTokenDuration() time.Duration {
	return time.Duration(c.JWTAccessExpireMinutes) * time.Minute
}

// RefreshTokenDuration returns the refresh token lifetime
func (c *Config) RefreshTokenDuration() time.Duration {
	return time.Duration(c.JWTRefreshExpireDays) * 24 * time.Hour
}

// LockoutWindow returns the failure tracking window
func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.LockoutWindowMinutes) * time.Minute
}

// LockoutBaseDuration returns the base lock duration before backoff scaling
func (c *Config) LockoutBaseDuration() time.Duration {
	return time.Duration(c.LockoutBaseMinutes) * time.Minute
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
