package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/quickcart/backend/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Cache     CacheConfig
	AI        AIConfig
	RateLimit RateLimitConfig
	Optimizer OptimizerConfig
	Selection SelectionConfig
	Platforms []PlatformConfig `validate:"required,min=1,unique=ID,dive"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type" validate:"oneof=memory redis"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Type redis"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	CartTTL  time.Duration `mapstructure:"cart_ttl" validate:"gte=0"`
}

// AIConfig holds the text-generation service configuration.
// An empty APIKey disables the AI tie-breaker.
type AIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Model   string        `mapstructure:"model" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip" validate:"gte=0"`
	Scraper int `mapstructure:"scraper" validate:"gte=0"`
}

// OptimizerConfig holds cart optimizer configuration
type OptimizerConfig struct {
	ExhaustiveLimit int `mapstructure:"exhaustive_limit" validate:"gte=1,lte=12"`
}

// SelectionConfig holds product selection configuration
type SelectionConfig struct {
	ProduceMinGrams float64 `mapstructure:"produce_min_grams" validate:"gt=0"`
	ProduceMaxGrams float64 `mapstructure:"produce_max_grams" validate:"gtefield=ProduceMinGrams"`
}

// PlatformConfig describes one retail platform
type PlatformConfig struct {
	ID        string                   `mapstructure:"id" validate:"required"`
	SearchURL string                   `mapstructure:"search_url" validate:"omitempty,url,contains={query}"`
	Fees      domain.PlatformFeeConfig `mapstructure:"fees"`
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// PlatformIDs returns the configured platforms in display order
func (c *Config) PlatformIDs() []domain.PlatformID {
	ids := make([]domain.PlatformID, len(c.Platforms))
	for i, p := range c.Platforms {
		ids[i] = domain.PlatformID(p.ID)
	}
	return ids
}

// FeeTable returns the fee structure of every configured platform
func (c *Config) FeeTable() map[domain.PlatformID]domain.PlatformFeeConfig {
	table := make(map[domain.PlatformID]domain.PlatformFeeConfig, len(c.Platforms))
	for _, p := range c.Platforms {
		table[domain.PlatformID(p.ID)] = p.Fees
	}
	return table
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/quickcart/")

	// QUICKCART_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("QUICKCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cart_ttl", "720h") // 30 days

	// AI defaults
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout", "10s")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.scraper", 60)

	v.SetDefault("optimizer.exhaustive_limit", 12)

	v.SetDefault("selection.produce_min_grams", 200)
	v.SetDefault("selection.produce_max_grams", 500)

	v.SetDefault("platforms", defaultPlatforms())
}

// defaultPlatforms lists the supported platforms. Blinkit and Zepto charge no fees.
func defaultPlatforms() []map[string]interface{} {
	fees := func(threshold, delivery, handling float64) map[string]interface{} {
		return map[string]interface{}{
			"free_delivery_threshold": threshold,
			"delivery_fee":            delivery,
			"handling_fee":            handling,
		}
	}
	return []map[string]interface{}{
		{"id": "Blinkit", "search_url": "", "fees": fees(0, 0, 0)},
		{"id": "Zepto", "search_url": "", "fees": fees(0, 0, 0)},
		{"id": "BigBasket", "search_url": "", "fees": fees(600, 30, 6)},
		{"id": "Amazon Fresh", "search_url": "", "fees": fees(600, 29, 0)},
		{"id": "KPN Fresh", "search_url": "", "fees": fees(299, 30, 7)},
	}
}

var configValidator = validator.New()

// validate validates the configuration
func validate(config *Config) error {
	err := configValidator.Struct(config)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, validationMessage(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func validationMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got: %v", field, fe.Param(), fe.Value())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicate %s values", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "contains":
		return fmt.Sprintf("%s must contain %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
}
