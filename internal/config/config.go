package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel         string
	MinMessages      int
	MinChunkMessages int
	Workers          int
	Encodings        []string
	RulesFile        string
	StateFile        string
	Sink             string
	DatabaseURL      string
	SQLitePath       string
	NatsURL          string
	NatsToken        string
	BatchSize        int
	StatusPort       int
}

// Load reads configuration from the environment. Variables in a .env file in
// the working directory are applied first without overriding the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		LogLevel:         envStr("IRCARCHIVE_LOG_LEVEL", "info"),
		MinMessages:      envInt("IRCARCHIVE_MIN_MESSAGES", 2),
		MinChunkMessages: envInt("IRCARCHIVE_MIN_CHUNK_MESSAGES", 3),
		Workers:          envInt("IRCARCHIVE_WORKERS", 4),
		Encodings:        envList("IRCARCHIVE_ENCODINGS", []string{"utf-8", "windows-1252", "iso-8859-1"}),
		RulesFile:        envStr("IRCARCHIVE_RULES_FILE", ""),
		StateFile:        envStr("IRCARCHIVE_STATE_FILE", ""),
		Sink:             envStr("IRCARCHIVE_SINK", "none"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		SQLitePath:       envStr("IRCARCHIVE_SQLITE_PATH", "ircarchive.db"),
		NatsURL:          envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:        envStr("NATS_TOKEN", ""),
		BatchSize:        envInt("IRCARCHIVE_BATCH_SIZE", 100),
		StatusPort:       envInt("IRCARCHIVE_STATUS_PORT", 0),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
