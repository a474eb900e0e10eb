package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ApiEnv          string `envconfig:"API_ENV" default:"local"`
	Port            string `envconfig:"PORT" default:"9090"`
	MaintenanceMode bool   `envconfig:"MAINTENANCE_MODE" default:"false"`
	AppHost         string `envconfig:"APP_HOST"`
	AppURL          string `envconfig:"APP_URL" default:"http://localhost:3000"`

	RedisURL string `envconfig:"REDIS_URL"`

	JWTSecret          string `envconfig:"JWT_SECRET"`
	ClerkJWKSURL       string `envconfig:"CLERK_JWKS_URL"`
	ClerkSecretKey     string `envconfig:"CLERK_SECRET_KEY"`
	ClerkWebhookSecret string `envconfig:"CLERK_WEBHOOK_SECRET"`

	// Nested keys are prefixed with the field name: DUITKU_API_KEY, SMTP_HOST.
	Duitku Duitku

	SMTP SMTP
	// MailTransport selects how SMTP.From mail leaves: smtp or ses.
	MailTransport string `envconfig:"MAIL_TRANSPORT" default:"smtp"`

	DocumentsBucket      string        `envconfig:"S3_DOCUMENTS_BUCKET"`
	PaymentSweepInterval time.Duration `envconfig:"PAYMENT_SWEEP_INTERVAL" default:"5m"`
}

type Duitku struct {
	MerchantCode  string `envconfig:"MERCHANT_CODE"`
	ApiKey        string `envconfig:"API_KEY"`
	Sandbox       bool   `envconfig:"SANDBOX" default:"true"`
	CallbackURL   string `envconfig:"CALLBACK_URL"`
	ReturnURL     string `envconfig:"RETURN_URL"`
	ExpiryMinutes int    `envconfig:"EXPIRY_MINUTES" default:"60"`
}

type SMTP struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM"`
	FromName string `envconfig:"FROM_NAME" default:"Oknum"`
}

// Configured reports whether outbound mail can be sent at all.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.From != ""
}

func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

func (c Config) IsProd() bool {
	return c.ApiEnv == "production"
}

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

const DEFAULT_CURRENCY = "IDR"
