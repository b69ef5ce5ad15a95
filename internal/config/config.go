package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DatabasePath is the SQLite file backing the account store.
	DatabasePath string
	// MasterSecret signs account session tokens.
	MasterSecret string
	// ChecksumSecret salts the Pokemon checksum so clients can't forge one
	// from the visible data alone.
	ChecksumSecret string
	// WonderTradeWebhook is the Discord webhook URL for Wonder Trade
	// notifications. Empty disables the side channel entirely.
	WonderTradeWebhook string
	// EnforceUsernames requires a username (and sync key check) on every
	// trade request. Off for anonymous/self-hosted deployments.
	EnforceUsernames bool
	Debug            bool
	AllowedOrigins   []string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr           *string
	DatabasePath   *string
	MasterSecret   *string
	ChecksumSecret *string
	Debug          *bool
}

// Load loads server configuration from the environment (and a .env file if
// present) and applies any explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	// Missing .env is fine; env vars may be set by the host instead.
	_ = godotenv.Load()

	port := 3001
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./accounts.db"
	}
	if overrides.DatabasePath != nil {
		dbPath = *overrides.DatabasePath
	}

	masterSecret := os.Getenv("MASTER_SECRET")
	if overrides.MasterSecret != nil {
		masterSecret = *overrides.MasterSecret
	}
	if masterSecret == "" {
		return nil, fmt.Errorf("MASTER_SECRET environment variable is required")
	}

	checksumSecret := os.Getenv("TRADE_CHECKSUM_SECRET")
	if overrides.ChecksumSecret != nil {
		checksumSecret = *overrides.ChecksumSecret
	}
	if checksumSecret == "" {
		return nil, fmt.Errorf("TRADE_CHECKSUM_SECRET environment variable is required")
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	return &Config{
		Addr:               addr,
		DatabasePath:       dbPath,
		MasterSecret:       masterSecret,
		ChecksumSecret:     checksumSecret,
		WonderTradeWebhook: os.Getenv("WONDER_TRADE_WEBHOOK"),
		EnforceUsernames:   os.Getenv("ACCOUNT_SYSTEM") == "true",
		Debug:              debug,
		AllowedOrigins:     []string{"*"},
	}, nil
}
