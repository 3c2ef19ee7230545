package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-order/utils"
)

const (
	defaultPort       = "8080"
	defaultDBDriver   = "sqlite"
	defaultSQLiteDSN  = "table_order.db"
	defaultMySQLDSN   = "root:root@tcp(127.0.0.1:3306)/table_order?charset=utf8mb4&parseTime=True&loc=Local"
	defaultJWTSecret  = "change-me-in-production"
	defaultMaxTables  = 20
	defaultTokenTTL   = 12 * time.Hour
	defaultCartTTL    = 6 * time.Hour
	defaultPaymentURL = "https://api.mercadopago.com"
)

type Config struct {
	Port       string
	GinMode    string
	LogLevel   string
	CORSOrigin string
	// RateLimit is requests per second per client IP; 0 disables it.
	RateLimit int

	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	MaxTables int

	RedisAddr     string
	RedisPassword string
	CartTTL       time.Duration

	AMQP          AMQPConfig
	RelayInterval time.Duration

	Payment PaymentConfig

	SeedPasswords map[string]string
}

type AMQPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

// Enabled reports whether a broker was configured at all.
func (a AMQPConfig) Enabled() bool {
	return a.Host != ""
}

type PaymentConfig struct {
	AccessToken     string
	BaseURL         string
	NotificationURL string
	Currency        string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("no .env file loaded: %v", err)
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", defaultDBDriver))
	if driver != "mysql" && driver != "sqlite" {
		utils.ErrorLogger.Printf("unsupported DB_DRIVER %q, falling back to %s", driver, defaultDBDriver)
		driver = defaultDBDriver
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		if driver == "mysql" {
			dsn = defaultMySQLDSN
		} else {
			dsn = defaultSQLiteDSN
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		utils.ErrorLogger.Printf("JWT_SECRET not set, using development default")
		secret = defaultJWTSecret
	}

	return &Config{
		Port:       getEnv("PORT", defaultPort),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		RateLimit:  getInt("RATE_LIMIT", 50),

		DBDriver: driver,
		DBDSN:    dsn,

		JWTSecret: secret,
		TokenTTL:  getDuration("TOKEN_TTL", defaultTokenTTL),

		MaxTables: getInt("MAX_TABLES", defaultMaxTables),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CartTTL:       getDuration("CART_TTL", defaultCartTTL),

		AMQP: AMQPConfig{
			Host:     os.Getenv("AMQP_HOST"),
			Port:     getInt("AMQP_PORT", 5672),
			User:     getEnv("AMQP_USER", "guest"),
			Password: getEnv("AMQP_PASSWORD", "guest"),
			VHost:    getEnv("AMQP_VHOST", "/"),
		},
		RelayInterval: getDuration("RELAY_INTERVAL", time.Second),

		Payment: PaymentConfig{
			AccessToken:     os.Getenv("PAYMENT_ACCESS_TOKEN"),
			BaseURL:         getEnv("PAYMENT_BASE_URL", defaultPaymentURL),
			NotificationURL: os.Getenv("PAYMENT_NOTIFICATION_URL"),
			Currency:        getEnv("PAYMENT_CURRENCY", "ARS"),
		},

		SeedPasswords: map[string]string{
			"kitchen": os.Getenv("SEED_KITCHEN_PASSWORD"),
			"waiter":  os.Getenv("SEED_WAITER_PASSWORD"),
			"admin":   os.Getenv("SEED_ADMIN_PASSWORD"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
