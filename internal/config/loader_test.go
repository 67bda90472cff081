package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/quipodium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":7071")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.BcryptCost, convey.ShouldEqual, 10)
			convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 10_000)
			convey.So(cfg.RateLimitPerSec, convey.ShouldEqual, 5.0)
			convey.So(cfg.RateLimitBurst, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7071")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.TranslatorEndpoint, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("QUIP_ADDR", ":8080")
			_ = os.Setenv("QUIP_STORE", "redis")
			_ = os.Setenv("QUIP_REDIS_ADDR", "redis:6379")
			_ = os.Setenv("QUIP_REDIS_DB", "2")
			_ = os.Setenv("QUIP_TRANSLATOR_REGION", "uksouth")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
				convey.So(cfg.TranslatorRegion, convey.ShouldEqual, "uksouth")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_format: json
suggest_endpoint: "https://llm.example/v1"
suggest_model: "small"
bcrypt_cost: 4
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUIP_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep defaults elsewhere", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.SuggestEndpoint, convey.ShouldEqual, "https://llm.example/v1")
				convey.So(cfg.SuggestModel, convey.ShouldEqual, "small")
				convey.So(cfg.BcryptCost, convey.ShouldEqual, 4)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_level: debug
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUIP_CONFIG", tmpFile)
			_ = os.Setenv("QUIP_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUIP_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("QUIP_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("QUIP_REDIS_DB", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		cases := []struct {
			name  string
			key   string
			value string
			msg   string
		}{
			{"empty addr", "QUIP_ADDR", "", "addr must not be empty"},
			{"unknown store", "QUIP_STORE", "cosmos", "unknown store"},
			{"bcrypt cost too low", "QUIP_BCRYPT_COST", "2", "bcrypt_cost"},
			{"zero request timeout", "QUIP_REQUEST_TIMEOUT_MS", "0", "request_timeout_ms"},
			{"negative rate limit", "QUIP_RATE_LIMIT_PER_SEC", "-1", "rate_limit_per_sec"},
		}

		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				_ = os.Setenv(tc.key, tc.value)

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
				})
			})
		}

		convey.Convey("When the redis store has no address", func() {
			cfg := config.New()
			cfg.Store = config.StoreRedis
			cfg.RedisAddr = ""

			convey.Convey("Then Validate rejects it", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"QUIP_CONFIG",
		"QUIP_ADDR",
		"QUIP_LOG_LEVEL",
		"QUIP_STORE",
		"QUIP_REDIS_ADDR",
		"QUIP_REDIS_DB",
		"QUIP_TRANSLATOR_REGION",
		"QUIP_BCRYPT_COST",
		"QUIP_REQUEST_TIMEOUT_MS",
		"QUIP_RATE_LIMIT_PER_SEC",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "quipodium-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
