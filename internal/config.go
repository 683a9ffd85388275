package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config carries every runtime knob, loaded from the environment with an
// optional .env overlay for local development.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`

	JWTSecret     string        `env:"JWT_SECRET,required=true"`
	TokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	// RequireHandshakeAuth rejects websocket upgrades without a credential
	// instead of admitting them for in-band verification.
	RequireHandshakeAuth bool `env:"REQUIRE_HANDSHAKE_AUTH,default=false"`

	GameQueueSize   int           `env:"GAME_QUEUE_SIZE,default=256"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=3s"`

	CharReplacement string `env:"CHAR_REPLACEMENT,default=*"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func LoadConfig() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// Replacement returns the censor replacement rune, defaulting to '*' when the
// configured value is empty or multi-rune garbage.
func (c Config) Replacement() rune {
	runes := []rune(c.CharReplacement)
	if len(runes) != 1 {
		return '*'
	}
	return runes[0]
}

// NewLogger builds the process-wide structured logger at the configured level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
