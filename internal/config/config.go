package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the sweep interval
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env                 string        // application environment (e.g. "dev", "prod")
	Port                string        // HTTP port to listen on
	DBUser              string        // database username
	DBPass              string        // database password (optional)
	DBHost              string        // database host address
	DBPort              string        // database port number
	DBName              string        // database name
	JWTSecret           string        // secret used to sign context tokens
	AccessTTLMin        int           // access token time-to-live in minutes
	RefreshTTLDays      int           // refresh token time-to-live in days
	BcryptCost          int           // bcrypt cost for password hashing
	RoomConfirmTTLHours int           // vendor confirmation window for room reservations
	TicketConfirmTTLHrs int           // vendor confirmation window for ticket reservations
	SweepInterval       time.Duration // how often the expiry sweeper runs
	SweepBatch          int           // max reservations expired per sweep pass
	WebhookSecret       string        // shared secret for the payment webhook
	AdminToken          string        // shared secret for platform-operator endpoints
	RabbitURL           string        // AMQP broker URL (empty disables notifications)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The confirmation
// windows and sweeper settings have defaults so a minimal .env still works.
func Load() Config {
	return Config{
		Env:                 must("APP_ENV"),  // environment (dev/test/prod)
		Port:                must("APP_PORT"), // port to bind the HTTP server
		DBUser:              must("DB_USER"),  // database user
		DBPass:              os.Getenv("DB_PASS"),
		DBHost:              must("DB_HOST"),
		DBPort:              must("DB_PORT"),
		DBName:              must("DB_NAME"),
		JWTSecret:           must("JWT_SECRET"),
		AccessTTLMin:        mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:      mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:          mustInt("BCRYPT_COST"),
		RoomConfirmTTLHours: intDefault("ROOM_CONFIRM_TTL_HOURS", 48),
		TicketConfirmTTLHrs: intDefault("TICKET_CONFIRM_TTL_HOURS", 48),
		SweepInterval:       durDefault("SWEEP_INTERVAL", time.Minute),
		SweepBatch:          intDefault("SWEEP_BATCH", 100),
		WebhookSecret:       os.Getenv("WEBHOOK_SECRET"), // empty disables the payment webhook
		AdminToken:          os.Getenv("ADMIN_TOKEN"),    // empty disables vendor moderation endpoints
		RabbitURL:           os.Getenv("RABBITMQ_URL"),   // empty disables broker notifications
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intDefault reads an optional integer variable, falling back to def
// when unset and exiting on malformed values.
func intDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// durDefault reads an optional duration variable (e.g. "30s", "5m").
func durDefault(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
