package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string
	// NodeID seeds the snowflake generator and must differ per replica.
	NodeID int64

	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	// CollaboratorTimeout bounds every call to the store, object storage
	// and auth backends.
	CollaboratorTimeout time.Duration

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Storage StorageConfig

	RateLimit RateLimitConfig

	// DocumentConfigDir overrides where document.yml is looked up.
	DocumentConfigDir string

	Bootstrap BootstrapConfig
}

// RateLimitConfig throttles sign-in. Zero values disable the limiter.
type RateLimitConfig struct {
	SignInPerMinute float64
	SignInBurst     int
}

// BootstrapConfig seeds a local account on startup when Email is set.
type BootstrapConfig struct {
	Email       string
	Password    string
	DisplayName string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL download links are built from. Empty means
	// the endpoint itself.
	PublicURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:             getenv("APP_SERVICE", "bytebills"),
		AppVersion:          getenv("APP_VERSION", "0.1.0"),
		Environment:         getenv("ENVIRONMENT", "development"),
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		LogLevel:            strings.ToLower(getenv("LOG_LEVEL", "info")),
		NodeID:              int64(getenvInt("NODE_ID", 1)),
		AuthJWTSecret:       strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:        getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		CollaboratorTimeout: getenvDuration("COLLABORATOR_TIMEOUT", 10*time.Second),
		DBType:              getenv("DATABASE_TYPE", "postgres"),
		DBHost:              getenv("DATABASE_HOST", "localhost"),
		DBPort:              getenv("DATABASE_PORT", "5432"),
		DBName:              getenv("DATABASE_NAME", "bytebills"),
		DBUser:              getenv("DATABASE_USER", "postgres"),
		DBPassword:          getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:           getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:       getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:       getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime:   getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:   getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		RedisAddr:           getenv("REDIS_ADDR", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		Storage: StorageConfig{
			Endpoint:  getenv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey: strings.TrimSpace(getenv("STORAGE_ACCESS_KEY", "")),
			SecretKey: strings.TrimSpace(getenv("STORAGE_SECRET_KEY", "")),
			Bucket:    getenv("STORAGE_BUCKET", "bytebills"),
			UseSSL:    getenvBool("STORAGE_USE_SSL", false),
			PublicURL: strings.TrimRight(strings.TrimSpace(getenv("STORAGE_PUBLIC_URL", "")), "/"),
		},
		DocumentConfigDir: strings.TrimSpace(getenv("DOCUMENT_CONFIG_DIR", "")),
		RateLimit: RateLimitConfig{
			SignInPerMinute: getenvFloat("RATE_LIMIT_SIGNIN_PER_MINUTE", 5),
			SignInBurst:     getenvInt("RATE_LIMIT_SIGNIN_BURST", 10),
		},
		Bootstrap: BootstrapConfig{
			Email:       strings.TrimSpace(getenv("BOOTSTRAP_USER_EMAIL", "")),
			Password:    getenv("BOOTSTRAP_USER_PASSWORD", ""),
			DisplayName: strings.TrimSpace(getenv("BOOTSTRAP_USER_NAME", "")),
		},
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
