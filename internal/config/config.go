package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ClientConfig captures everything the CLI client needs. Values are loaded
// from environment variables with sane defaults so the binary can run
// locally without excessive setup; only the base URL is mandatory.
type ClientConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
	LogLevel    string

	// RemoveOnFailure replicates the legacy client's behavior of clearing
	// a booking from the local list even when the server reports failure.
	// Off by default.
	RemoveOnFailure bool
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		HTTPTimeout: 15 * time.Second,
		LogLevel:    "info",
	}
}

func LoadClientConfig() (ClientConfig, error) {
	cfg := defaultClientConfig()
	var errs []error

	setStringFromEnv(&cfg.BaseURL, "DRIVERSYNC_BASE_URL")
	setDurationFromEnv(&cfg.HTTPTimeout, "DRIVERSYNC_HTTP_TIMEOUT", &errs)
	setStringFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	cfg.RemoveOnFailure = strings.EqualFold(os.Getenv("DRIVERSYNC_REMOVE_ON_FAILURE"), "true")

	if cfg.BaseURL == "" {
		errs = append(errs, fmt.Errorf("DRIVERSYNC_BASE_URL is required"))
	}
	return cfg, errors.Join(errs...)
}

// StubConfig holds the tunables of the dev stub server. The storage and
// messaging backends are all optional; with nothing set the stub runs
// purely in memory.
type StubConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	PGDSN         string
	RedisAddr     string
	RedisPassword string

	EventBrokers []string
	EventTopic   string

	StripeAPIKey string
	LogLevel     string
}

func defaultStubConfig() StubConfig {
	return StubConfig{
		HTTPAddr:        ":8080",
		ShutdownTimeout: 15 * time.Second,
		EventTopic:      "booking-events",
		LogLevel:        "info",
	}
}

func LoadStubConfig() (StubConfig, error) {
	cfg := defaultStubConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if brokers := os.Getenv("BOOKING_EVENTS_BROKERS"); brokers != "" {
		cfg.EventBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.EventTopic, "BOOKING_EVENTS_TOPIC")

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
	setStringFromEnv(&cfg.LogLevel, "LOG_LEVEL")

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
