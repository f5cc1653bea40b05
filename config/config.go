// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// Path to the embedded SQLite database file; ":memory:" is accepted.
	DBPath string

	// JWT signing secret (required).
	JWTSecret string

	// Facility context; CSV imports are rejected when the file's
	// season/racetrack do not match these.
	Season    string
	Racetrack string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// MySQL – used only by cmd/migrate.
	MySQLDSN string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("DB_PATH", "dmequine.db")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("SEASON", "2024")
	v.SetDefault("RACETRACK", "Del Mar")
	v.SetDefault("TLS_DOMAINS", "dmequine.app,www.dmequine.app")
	v.SetDefault("DEBUG", false)

	cfg := &Config{
		DBPath:     v.GetString("DB_PATH"),
		JWTSecret:  v.GetString("JWT_SECRET"),
		Season:     v.GetString("SEASON"),
		Racetrack:  v.GetString("RACETRACK"),
		Debug:      v.GetBool("DEBUG"),
		Port:       v.GetString("PORT"),
		TLSDomains: splitTrimmed(v.GetString("TLS_DOMAINS")),
		MySQLDSN:   v.GetString("MYSQL_DSN"),
	}

	cfg.validate()
	return cfg
}

// SQLiteDSN returns the connection string for the embedded database.
func (c *Config) SQLiteDSN() string {
	if c.DBPath == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return "file:" + c.DBPath + "?_pragma=foreign_keys(1)"
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() {
	if c.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
	if c.DBPath == "" {
		log.Fatal("config: DB_PATH must be set")
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
