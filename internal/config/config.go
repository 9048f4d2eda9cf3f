package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string

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

	Card     CardGatewayConfig
	PayPal   PayPalConfig
	Exchange ExchangeConfig
	SMTP     SMTPConfig
	AMQP     AMQPConfig
	Sweeper  SweeperConfig
}

// CardGatewayConfig configures the card payment gateway.
type CardGatewayConfig struct {
	BaseURL   string
	SecretKey string
}

// PayPalConfig configures the PayPal gateway.
type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// ExchangeConfig configures the exchange-rate provider.
type ExchangeConfig struct {
	ProviderURL string
	TTL         time.Duration
}

// SMTPConfig configures outbound mail delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AMQPConfig configures the mail job queue.
type AMQPConfig struct {
	URL   string
	Queue string
}

// SweeperConfig configures the retention sweeper.
type SweeperConfig struct {
	RunInterval time.Duration
	BatchSize   int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:       getenv("APP_SERVICE", "modoocon"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "modoocon"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		Card: CardGatewayConfig{
			BaseURL:   getenv("CARD_GATEWAY_URL", "https://api.tosspayments.com"),
			SecretKey: strings.TrimSpace(getenv("CARD_GATEWAY_SECRET_KEY", "")),
		},
		PayPal: PayPalConfig{
			BaseURL:      getenv("PAYPAL_BASE_URL", "https://api-m.paypal.com"),
			ClientID:     strings.TrimSpace(getenv("PAYPAL_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("PAYPAL_CLIENT_SECRET", "")),
		},
		Exchange: ExchangeConfig{
			ProviderURL: getenv("EXCHANGE_PROVIDER_URL", "https://open.er-api.com/v6/latest/USD"),
			TTL:         getenvDuration("EXCHANGE_RATE_TTL", 24*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", "localhost"),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@modoocon.org"),
		},
		AMQP: AMQPConfig{
			URL:   getenv("AMQP_URL", ""),
			Queue: getenv("AMQP_MAILER_QUEUE", "mailer.jobs"),
		},
		Sweeper: SweeperConfig{
			RunInterval: getenvDuration("SWEEPER_RUN_INTERVAL", time.Hour),
			BatchSize:   getenvInt("SWEEPER_BATCH_SIZE", 100),
		},
	}
}

var Module = fx.Module("config", fx.Provide(Load))

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
