// Package config loads application configuration from environment
// variables.  A .env file in the working directory is read first when
// present; variables already set in the environment win.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	APIURL     string        // marketplace REST backend base URL
	APITimeout time.Duration // backend request timeout, 0 means none

	AuthURL    string // identity provider base URL
	AuthAPIKey string // identity provider web API key

	PaymentURL string // card tokenizer base URL
	PaymentKey string // card tokenizer publishable key

	SessionTTL   time.Duration // upper bound on a stored session
	CookieSecure bool          // mark the session cookie Secure

	RabbitURL       string // broker for booking.paid events; empty disables publishing
	PaymentConsumer bool   // run the booking.paid consumer in-process
	PaymentLogDir   string // directory the consumer appends payment.log to
}

// Load reads configuration values from the environment and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("config: reading .env: %v", err)
	}
	return Config{
		Env:             getenv("APP_ENV", "dev"),
		Port:            getenv("APP_PORT", "8080"),
		APIURL:          must("API_URL"),
		APITimeout:      envDur("API_TIMEOUT", 0),
		AuthURL:         os.Getenv("AUTH_URL"),
		AuthAPIKey:      must("AUTH_API_KEY"),
		PaymentURL:      os.Getenv("PAYMENT_URL"),
		PaymentKey:      must("PAYMENT_KEY"),
		SessionTTL:      envDur("SESSION_TTL", 24*time.Hour),
		CookieSecure:    envBool("COOKIE_SECURE", false),
		RabbitURL:       os.Getenv("RABBITMQ_URL"),
		PaymentConsumer: envBool("PAYMENT_CONSUMER", false),
		PaymentLogDir:   getenv("PAYMENT_LOG_DIR", "logs"),
	}
}

// Production reports whether the app runs with APP_ENV=prod.
func (c Config) Production() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
