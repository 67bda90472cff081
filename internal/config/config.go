// Package config defines service configuration and its layered loading.
package config

// Store backends accepted by the "store" key.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// RequestTimeoutMS bounds each request, collaborator calls included.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Store selects the player and prompt store backend.
	Store         string `koanf:"store"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Translator service. An empty endpoint selects the passthrough translator.
	TranslatorEndpoint string `koanf:"translator_endpoint"`
	TranslatorKey      string `koanf:"translator_key"`
	TranslatorRegion   string `koanf:"translator_region"`

	// Suggestion service. An empty endpoint selects the template suggester.
	SuggestEndpoint string `koanf:"suggest_endpoint"`
	SuggestKey      string `koanf:"suggest_key"`
	SuggestModel    string `koanf:"suggest_model"`

	// BcryptCost is the password hashing cost.
	BcryptCost int `koanf:"bcrypt_cost"`

	// Per-client throttle on routes that call the translator or suggester.
	// Zero disables it.
	RateLimitPerSec float64 `koanf:"rate_limit_per_sec"`
	RateLimitBurst  int     `koanf:"rate_limit_burst"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":7071",
		RequestTimeoutMS: 10_000,
		Store:            StoreMemory,
		RedisAddr:        "localhost:6379",
		SuggestModel:     "gpt-4o-mini",
		BcryptCost:       10,
		RateLimitPerSec:  5,
		RateLimitBurst:   10,
	}
}
