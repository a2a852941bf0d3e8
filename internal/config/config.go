// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment. Mains import
// github.com/joho/godotenv/autoload so a local .env file is picked up first.
type Config struct {
	Port     string
	LogLevel logrus.Level

	RedisAddr      string
	RedisDB        int
	QueueName      string
	SnapshotPrefix string

	// Postgres
	PGUser     string
	PGPassword string
	PGHost     string
	PGPort     string
	PGDatabase string

	Pacing room.Pacing

	// TokenExpire is the session token lifetime; zero means tokens never expire.
	TokenExpire time.Duration
	// Raw ed25519 key files. When either is empty a key pair is generated at startup.
	PrivateKeyPath string
	PublicKeyPath  string

	HistorianBatchSize int
	HistorianFlush     time.Duration
	RoomInactivity     time.Duration
}

// Load reads the configuration with defaults for everything but the database
// credentials.
func Load() Config {
	def := room.DefaultPacing()
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	return Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: level,

		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		QueueName:      getEnv("HISTORIAN_QUEUE_NAME", "trickhouse_actions"),
		SnapshotPrefix: getEnv("SNAPSHOT_KEY_PREFIX", "trickhouse:snapshot:"),

		PGUser:     os.Getenv("POSTGRES_USER"),
		PGPassword: os.Getenv("POSTGRES_PASSWORD"),
		PGHost:     getEnv("PG_HOST", "localhost"),
		PGPort:     getEnv("PG_PORT", "5432"),
		PGDatabase: os.Getenv("PG_DATABASE"),

		Pacing: room.Pacing{
			BotDelay:   getEnvDuration("BOT_DELAY", def.BotDelay),
			TrickDelay: getEnvDuration("TRICK_DELAY", def.TrickDelay),
			HandDelay:  getEnvDuration("HAND_DELAY", def.HandDelay),
		},

		TokenExpire: getEnvDuration("TOKEN_EXPIRE_TIME", 0),
		PrivateKeyPath: os.Getenv("ED25519_PRIVATE_KEY_PATH"),
		PublicKeyPath:  os.Getenv("ED25519_PUBLIC_KEY_PATH"),

		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		RoomInactivity:     time.Duration(getEnvInt("ROOM_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration parses values like "800ms" or "2s". "never" and "0" mean zero.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	switch s {
	case "":
		return def
	case "never", "0":
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
