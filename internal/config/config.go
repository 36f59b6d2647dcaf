package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DatabaseURL    string // empty runs the in-memory store
	AllowedOrigins []string

	// Clock defaults applied to drafts created without explicit rules.
	// Zero means the engine defaults.
	ReserveMs int64
	GraceMs   int64
}

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:           getenv("ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: strings.Split(getenv("ALLOWED_ORIGINS", "*"), ","),
		ReserveMs:      getint64("RESERVE_MS"),
		GraceMs:        getint64("GRACE_MS"),
	}
}

func getint64(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
