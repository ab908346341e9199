package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets for collaborators that are only needed on
// first use (SFTP, ShipStation, BackMarket) live in their own structs and are
// validated lazily by the component that consumes them.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	LogLevel   string // DEBUG, INFO, WARN or ERROR
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	JWTSecret  string // secret used to sign JWTs
	TokenTTL   time.Duration
	BcryptCost int // bcrypt cost for password hashing

	// CredentialsPassphrase seeds the key that seals third-party API secrets.
	CredentialsPassphrase string

	UploadMaxBytes int64 // per-file ceiling for attachment uploads

	Storage     StorageConfig
	ShipStation ShipStationConfig
	BackMarket  BackMarketConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The credentials
// passphrase is checked first so a misconfigured deployment never gets as
// far as opening the database.
func Load() Config {
	passphrase := must("CREDENTIALS_PASSPHRASE")
	return Config{
		Env:                   must("APP_ENV"),
		Port:                  must("APP_PORT"),
		LogLevel:              envStr("LOG_LEVEL", "INFO"),
		DBUser:                must("DB_USER"),
		DBPass:                os.Getenv("DB_PASS"), // empty allowed
		DBHost:                must("DB_HOST"),
		DBPort:                must("DB_PORT"),
		DBName:                must("DB_NAME"),
		JWTSecret:             must("JWT_SECRET"),
		TokenTTL:              envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:            mustInt("BCRYPT_COST"),
		CredentialsPassphrase: passphrase,
		UploadMaxBytes:        int64(envInt("UPLOAD_MAX_BYTES", 10<<20)),
		Storage:               LoadStorageConfig(),
		ShipStation:           LoadShipStationConfig(),
		BackMarket:            LoadBackMarketConfig(),
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
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
