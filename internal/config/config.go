package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppURL   string
	LogLevel string
	Shopify  ShopifyConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig

	EncryptionKey string
}

type ShopifyConfig struct {
	APIKey         string
	APISecret      string
	Scopes         []string
	APIVersion     string
	Retries        int
	RequestTimeout time.Duration
	ValidateTokens bool

	// Metafield holding the "delete after purchase" flag on variants
	MetafieldNamespace string
	MetafieldKey       string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	URL      string // empty disables webhook delivery dedup
	DedupTTL time.Duration
}

type RabbitMQConfig struct {
	URL        string // empty disables outcome publishing
	Exchange   string
	RoutingKey string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	retries, err := strconv.Atoi(getEnv("SHOPIFY_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHOPIFY_RETRIES: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("SHOPIFY_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHOPIFY_REQUEST_TIMEOUT: %w", err)
	}
	dedupTTL, err := time.ParseDuration(getEnv("WEBHOOK_DEDUP_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_DEDUP_TTL: %w", err)
	}
	validateTokens, err := strconv.ParseBool(getEnv("VALIDATE_TOKENS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid VALIDATE_TOKENS: %w", err)
	}

	return &Config{
		Port:     getEnv("PORT", "8081"),
		AppURL:   strings.TrimRight(getEnv("APP_URL", "http://localhost:8081"), "/"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Shopify: ShopifyConfig{
			APIKey:             os.Getenv("SHOPIFY_API_KEY"),
			APISecret:          os.Getenv("SHOPIFY_API_SECRET"),
			Scopes:             splitList(getEnv("SCOPES", "read_products,write_products,read_orders")),
			APIVersion:         getEnv("SHOPIFY_API_VERSION", "2024-01"),
			Retries:            retries,
			RequestTimeout:     timeout,
			ValidateTokens:     validateTokens,
			MetafieldNamespace: getEnv("VARIANT_METAFIELD_NAMESPACE", "variants"),
			MetafieldKey:       getEnv("VARIANT_METAFIELD_KEY", "delete_after_purchase"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "shopify_app"),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			DedupTTL: dedupTTL,
		},
		RabbitMQ: RabbitMQConfig{
			URL:        os.Getenv("RABBITMQ_URL"),
			Exchange:   getEnv("RABBITMQ_EXCHANGE", "shopify.variants"),
			RoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "variant.deleted"),
		},
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var missing []string
	if c.Shopify.APIKey == "" {
		missing = append(missing, "SHOPIFY_API_KEY")
	}
	if c.Shopify.APISecret == "" {
		missing = append(missing, "SHOPIFY_API_SECRET")
	}
	if c.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	if c.Mongo.Database == "" {
		missing = append(missing, "MONGODB_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Shopify.MetafieldNamespace == "" || c.Shopify.MetafieldKey == "" {
		return fmt.Errorf("variant metafield namespace and key must not be empty")
	}
	return nil
}
