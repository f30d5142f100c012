package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// BaseURL is the public storefront root; payment callbacks redirect here
	// with a ?purchase=success|failure|pending marker.
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AuthConfig struct {
	// JWTSecret verifies bearer session tokens minted by the identity provider.
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Checkout int           `yaml:"checkout"` // requests per window per user
	Download int           `yaml:"download"`
	Window   time.Duration `yaml:"window"`
}

type MercadoPagoConfig struct {
	AccessToken string `yaml:"access_token"`
	// WebhookSecret enables HMAC verification of callback notifications.
	// Leaving it empty skips verification; a deployment-time decision, not a
	// coding default.
	WebhookSecret string `yaml:"webhook_secret"`
	// Charges settle in Currency at ConversionRate units per 1 unit of the
	// product's native currency.
	Currency       string  `yaml:"currency"`
	ConversionRate float64 `yaml:"conversion_rate"`
}

type PayPalConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sandbox      bool   `yaml:"sandbox"`
}

type PaymentConfig struct {
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
	PayPal      PayPalConfig      `yaml:"paypal"`
}

type DriveConfig struct {
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKeyPEM       string `yaml:"private_key_pem"`
	TokenURL            string `yaml:"token_url"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Payment   PaymentConfig   `yaml:"payment"`
	Drive     DriveConfig     `yaml:"drive"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.RateLimit.Checkout <= 0 {
		cfg.RateLimit.Checkout = 10
	}
	if cfg.RateLimit.Download <= 0 {
		cfg.RateLimit.Download = 30
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.Payment.MercadoPago.Currency == "" {
		cfg.Payment.MercadoPago.Currency = "ARS"
	}
	if cfg.Payment.MercadoPago.ConversionRate <= 0 {
		cfg.Payment.MercadoPago.ConversionRate = 1
	}
	if cfg.Drive.TokenURL == "" {
		cfg.Drive.TokenURL = "https://oauth2.googleapis.com/token"
	}

	// Minimal validation
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
