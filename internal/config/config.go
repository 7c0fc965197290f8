package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevin07696/nuvei-gateway/internal/adapters/nuvei"
	"github.com/kevin07696/nuvei-gateway/internal/adapters/secrets"
)

// Config holds all application configuration
type Config struct {
	Nuvei  NuveiConfig
	Secret SecretConfig
	Logger LoggerConfig
}

// NuveiConfig holds the terminal and endpoint settings
type NuveiConfig struct {
	TerminalID         string
	Currency           string
	Processor          string // nuvei, worldnet, anywherecommerce
	TestMode           bool
	MultiCurrency      bool
	BaseURL            string // overrides the processor host
	Timeout            int    // request timeout in seconds (default: 30)
	RateLimitRPS       float64
	RateLimitBurst     int
	VerifyResponseHash bool
}

// SecretConfig says where the terminal shared secret lives
type SecretConfig struct {
	Source       string // env, file, aws, vault
	SharedSecret string // only read for the env source
	Path         string
	AWSRegion    string
	AWSEndpoint  string
	VaultAddress string
	VaultToken   string
	VaultMount   string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// Load reads an optional .env file, then the environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Nuvei: NuveiConfig{
			TerminalID:         getEnv("NUVEI_TERMINAL_ID", ""),
			Currency:           getEnv("NUVEI_CURRENCY", "USD"),
			Processor:          strings.ToLower(getEnv("NUVEI_PROCESSOR", string(nuvei.ProcessorNuvei))),
			TestMode:           getEnvAsBool("NUVEI_TEST_MODE", true),
			MultiCurrency:      getEnvAsBool("NUVEI_MULTICURRENCY", false),
			BaseURL:            getEnv("NUVEI_BASE_URL", ""),
			Timeout:            getEnvAsInt("NUVEI_TIMEOUT", 30),
			RateLimitRPS:       getEnvAsFloat("NUVEI_RATE_LIMIT_RPS", 0),
			RateLimitBurst:     getEnvAsInt("NUVEI_RATE_LIMIT_BURST", 1),
			VerifyResponseHash: getEnvAsBool("NUVEI_VERIFY_RESPONSE_HASH", false),
		},
		Secret: SecretConfig{
			Source:       strings.ToLower(getEnv("NUVEI_SECRET_SOURCE", string(secrets.SourceEnv))),
			SharedSecret: getEnv("NUVEI_SHARED_SECRET", ""),
			Path:         getEnv("NUVEI_SECRET_PATH", ""),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:  getEnv("AWS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", "http://127.0.0.1:8200"),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			VaultMount:   getEnv("VAULT_MOUNT", "secret"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.Nuvei.TerminalID == "" {
		return fmt.Errorf("NUVEI_TERMINAL_ID is required")
	}
	if c.Nuvei.BaseURL == "" {
		if _, err := nuvei.Endpoint(nuvei.Processor(c.Nuvei.Processor), c.Nuvei.TestMode); err != nil {
			return fmt.Errorf("NUVEI_PROCESSOR: %w", err)
		}
	}

	switch secrets.Source(c.Secret.Source) {
	case secrets.SourceEnv:
		if c.Secret.SharedSecret == "" {
			return fmt.Errorf("NUVEI_SHARED_SECRET is required when NUVEI_SECRET_SOURCE=env")
		}
	case secrets.SourceFile, secrets.SourceAWS, secrets.SourceVault:
		if c.Secret.Path == "" {
			return fmt.Errorf("NUVEI_SECRET_PATH is required when NUVEI_SECRET_SOURCE=%s", c.Secret.Source)
		}
	default:
		return fmt.Errorf("NUVEI_SECRET_SOURCE must be one of env, file, aws, vault (got %q)", c.Secret.Source)
	}
	return nil
}

// RequestTimeout returns the HTTP timeout
func (c *NuveiConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SecretsConfig converts to the secrets factory configuration
func (c *SecretConfig) SecretsConfig() secrets.Config {
	return secrets.Config{
		Source:       secrets.Source(c.Source),
		Value:        c.SharedSecret,
		Path:         c.Path,
		AWSRegion:    c.AWSRegion,
		AWSEndpoint:  c.AWSEndpoint,
		VaultAddress: c.VaultAddress,
		VaultToken:   c.VaultToken,
		VaultMount:   c.VaultMount,
	}
}

// GatewayConfig builds the gateway configuration around a resolved shared secret
func (c *NuveiConfig) GatewayConfig(sharedSecret string) nuvei.Config {
	return nuvei.Config{
		TerminalID:         c.TerminalID,
		SharedSecret:       sharedSecret,
		Currency:           c.Currency,
		MultiCurrency:      c.MultiCurrency,
		VerifyResponseHash: c.VerifyResponseHash,
		Transport: nuvei.TransportConfig{
			Processor: nuvei.Processor(c.Processor),
			TestMode:  c.TestMode,
			BaseURL:   c.BaseURL,
			RateLimit: c.RateLimitRPS,
			RateBurst: c.RateLimitBurst,
		},
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
