// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        // e.g. "8080"
	Env          string        // "development" | "production"
	ReadTimeout  time.Duration // default 10s
	WriteTimeout time.Duration // default 10s
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// AdminConfig holds settings for the single administrative capability.
type AdminConfig struct {
	Secret     string        // HMAC signing secret for admin capability tokens
	TokenTTL   time.Duration // default 1h
	PasswdHash string        // bcrypt hash of the admin passphrase used to mint tokens
}

// BeaconConfig holds the drand-style randomness beacon's verification key.
type BeaconConfig struct {
	PublicKey []byte // 48-byte compressed BLS12-381 G1 public key
}

// RoundConfig holds the default parameters for newly created rounds.
type RoundConfig struct {
	DefaultWheelSize       uint8 // default 38
	DefaultPayoutNumerator uint64
	DefaultPeriodMs        int64 // default round duration, betting window
	DefaultMinValue        uint64
	DefaultMaxValue        uint64
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Admin  AdminConfig
	Beacon BeaconConfig
	Round  RoundConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns every validation error found, combined with errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if c.Admin.Secret == "" {
		errs = append(errs, errors.New("ADMIN_SECRET must be set"))
	}
	if c.Admin.PasswdHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH must be set"))
	}
	if len(c.Beacon.PublicKey) != 48 {
		errs = append(errs, fmt.Errorf(
			"BEACON_PUBLIC_KEY must decode to 48 bytes (min-pk G1 point), got %d", len(c.Beacon.PublicKey),
		))
	}
	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}
	if c.Round.DefaultWheelSize < 3 {
		errs = append(errs, fmt.Errorf(
			"ROUND_DEFAULT_WHEEL_SIZE must be at least 3, got %d", c.Round.DefaultWheelSize,
		))
	}
	if c.Round.DefaultPayoutNumerator == 0 {
		errs = append(errs, errors.New("ROUND_DEFAULT_PAYOUT_NUMERATOR must be nonzero"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		Env:          getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "evetabi_roulette"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Admin capability ──────────────────────────────────────────────────────
	cfg.Admin = AdminConfig{
		Secret:     getEnv("ADMIN_SECRET", ""),
		TokenTTL:   getDuration("ADMIN_TOKEN_TTL", time.Hour),
		PasswdHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	// ── Randomness beacon ─────────────────────────────────────────────────────
	pubHex := getEnv("BEACON_PUBLIC_KEY", "")
	pubKey, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, fmt.Errorf("BEACON_PUBLIC_KEY: invalid hex: %w", err)
	}
	cfg.Beacon = BeaconConfig{PublicKey: pubKey}

	// ── Round defaults ────────────────────────────────────────────────────────
	wheelSize, err := getInt("ROUND_DEFAULT_WHEEL_SIZE", 38)
	if err != nil {
		return nil, fmt.Errorf("ROUND_DEFAULT_WHEEL_SIZE: %w", err)
	}
	payoutNum, err := getInt("ROUND_DEFAULT_PAYOUT_NUMERATOR", 36)
	if err != nil {
		return nil, fmt.Errorf("ROUND_DEFAULT_PAYOUT_NUMERATOR: %w", err)
	}
	periodMs, err := getInt("ROUND_DEFAULT_PERIOD_MS", 30_000)
	if err != nil {
		return nil, fmt.Errorf("ROUND_DEFAULT_PERIOD_MS: %w", err)
	}
	minValue, err := getInt("ROUND_DEFAULT_MIN_VALUE", 1)
	if err != nil {
		return nil, fmt.Errorf("ROUND_DEFAULT_MIN_VALUE: %w", err)
	}
	maxValue, err := getInt("ROUND_DEFAULT_MAX_VALUE", 1_000_000_000)
	if err != nil {
		return nil, fmt.Errorf("ROUND_DEFAULT_MAX_VALUE: %w", err)
	}

	cfg.Round = RoundConfig{
		DefaultWheelSize:       uint8(wheelSize),
		DefaultPayoutNumerator: uint64(payoutNum),
		DefaultPeriodMs:        int64(periodMs),
		DefaultMinValue:        uint64(minValue),
		DefaultMaxValue:        uint64(maxValue),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Fall back to default silently; do not crash on parse error
		return defaultVal
	}
	return d
}
