package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	PublicURL      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	AllowedOrigins []string

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string

	// Slot occupancy engine
	Placement PlacementConfig

	// Payment facilitator
	Facilitator FacilitatorConfig

	// Ad content storage
	Content ContentConfig

	// Kafka placement events
	Kafka KafkaConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for different operations
	CacheTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	JWTExpiresIn time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled"`
	WindowDuration    time.Duration `json:"window_duration"`
	DefaultRequests   int           `json:"default_requests"`
	PublicRequests    int           `json:"public_requests"`
	ClaimRequests     int           `json:"claim_requests"`
	UploadRequests    int           `json:"upload_requests"`
	PublisherRequests int           `json:"publisher_requests"`
	AnalyticsRequests int           `json:"analytics_requests"`
	HealthRequests    int           `json:"health_requests"`
	WhitelistedIPs    []string      `json:"whitelisted_ips"`
}

// PlacementConfig holds slot store and allocator configuration
type PlacementConfig struct {
	// StoreBackend is one of memory, snapshot, redis, postgres
	StoreBackend string
	// SnapshotHead is where the snapshot store keeps its head: memory or redis
	SnapshotHead       string
	SnapshotStaleness  time.Duration
	StoreTimeout       time.Duration
	SlowStoreThreshold time.Duration
	// Locker is memory or redis
	Locker        string
	LockTTL       time.Duration
	LockWait      time.Duration
	SweepEnabled  bool
	SweepInterval time.Duration
	Currency      string
}

// FacilitatorConfig holds x402 payment facilitator configuration
type FacilitatorConfig struct {
	URL               string
	Network           string
	Asset             string
	Timeout           time.Duration
	MaxTimeoutSeconds int
}

// ContentConfig holds content store configuration
type ContentConfig struct {
	// Backend is memory or lighthouse
	Backend          string
	LighthouseAPIKey string
	UploadURL        string
	GatewayURL       string
	Timeout          time.Duration
	MaxUploadSize    int64
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		PublicURL:      getEnv("PUBLIC_URL", "http://localhost:8080"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB
		AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "adslot_db"),
			User:     getEnv("DB_USER", "adslot_user"),
			Password: getEnv("DB_PASSWORD", "adslot_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 1*time.Hour),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			JWTExpiresIn: getDurationEnvSeconds("JWT_EXPIRES_IN", 24*time.Hour),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:    getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:   getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:    getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 300),
			ClaimRequests:     getIntEnv("RATE_LIMIT_CLAIM_REQUESTS", 20),
			UploadRequests:    getIntEnv("RATE_LIMIT_UPLOAD_REQUESTS", 10),
			PublisherRequests: getIntEnv("RATE_LIMIT_PUBLISHER_REQUESTS", 60),
			AnalyticsRequests: getIntEnv("RATE_LIMIT_ANALYTICS_REQUESTS", 600),
			HealthRequests:    getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 120),
			WhitelistedIPs:    getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Slot occupancy engine
		Placement: PlacementConfig{
			StoreBackend:       getEnv("PLACEMENT_STORE", "postgres"),
			SnapshotHead:       getEnv("PLACEMENT_SNAPSHOT_HEAD", "redis"),
			SnapshotStaleness:  getDurationEnv("PLACEMENT_SNAPSHOT_STALENESS", 30*time.Second),
			StoreTimeout:       getDurationEnv("PLACEMENT_STORE_TIMEOUT", 5*time.Second),
			SlowStoreThreshold: getDurationEnv("PLACEMENT_SLOW_STORE_THRESHOLD", 1*time.Second),
			Locker:             getEnv("PLACEMENT_LOCKER", "redis"),
			LockTTL:            getDurationEnv("PLACEMENT_LOCK_TTL", 10*time.Second),
			LockWait:           getDurationEnv("PLACEMENT_LOCK_WAIT", 3*time.Second),
			SweepEnabled:       getBoolEnv("PLACEMENT_SWEEP_ENABLED", true),
			SweepInterval:      getDurationEnv("PLACEMENT_SWEEP_INTERVAL", 1*time.Minute),
			Currency:           getEnv("PLACEMENT_CURRENCY", "USDC"),
		},

		// Payment facilitator
		Facilitator: FacilitatorConfig{
			URL:               getEnv("FACILITATOR_URL", "https://x402.org/facilitator"),
			Network:           getEnv("FACILITATOR_NETWORK", "base-sepolia"),
			Asset:             getEnv("FACILITATOR_ASSET", ""),
			Timeout:           getDurationEnv("FACILITATOR_TIMEOUT", 30*time.Second),
			MaxTimeoutSeconds: getIntEnv("FACILITATOR_MAX_TIMEOUT_SECONDS", 300),
		},

		// Ad content storage
		Content: ContentConfig{
			Backend:          getEnv("CONTENT_STORE", "lighthouse"),
			LighthouseAPIKey: getEnv("LIGHTHOUSE_API_KEY", ""),
			UploadURL:        getEnv("LIGHTHOUSE_UPLOAD_URL", "https://upload.lighthouse.storage/api/v0/add"),
			GatewayURL:       getEnv("LIGHTHOUSE_GATEWAY_URL", "https://gateway.lighthouse.storage/ipfs"),
			Timeout:          getDurationEnv("CONTENT_TIMEOUT", 60*time.Second),
			MaxUploadSize:    getInt64Env("MAX_UPLOAD_SIZE", 100*1024*1024), // 100 MB
		},

		// Kafka placement events
		Kafka: KafkaConfig{
			Enabled:  getBoolEnv("KAFKA_ENABLED", false),
			Brokers:  getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:    getEnv("KAFKA_PLACEMENT_TOPIC", "placement-events"),
			ClientID: getEnv("KAFKA_CLIENT_ID", "adslot-api"),
		},
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getInt64Env gets an int64 environment variable with a fallback value
func getInt64Env(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
