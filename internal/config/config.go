package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The JWT secret is deliberately required: the service
// refuses to start with a missing signing key rather than falling back to a
// guessable default.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	MongoURI       string // MongoDB connection string; empty runs without a store
	MongoDBName    string // database name inside MongoDB
	JWTSecret      string // secret used to sign access tokens
	AccessTTLHours int    // access token time-to-live in hours
	BcryptCost     int    // bcrypt cost for password hashing
	AdminUser      string // optional bootstrap admin username
	AdminPass      string // optional bootstrap admin password
	AMQPURL        string // optional RabbitMQ URL for domain events
	WorkflowStrict bool   // enforce the status transition graph when true
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. MONGODB_URI is intentionally
// optional: without it the service still serves the intake form and
// acknowledges submissions without persistence.
func Load() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		MongoDBName:    envStr("MONGO_DB", "allelectronic"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLHours: envInt("ACCESS_TOKEN_TTL_HOURS", 8),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		AdminUser:      os.Getenv("ADMIN_USER"),
		AdminPass:      os.Getenv("ADMIN_PASS"),
		AMQPURL:        firstEnv("RABBITMQ_URL", "AMQP_URL"),
		WorkflowStrict: envBool("WORKFLOW_STRICT", false),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// firstEnv returns the first non-empty value among the given variables.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
