// Package keepalive pings the database with a trivial query so idle hosted
// databases are not suspended. It backs the ping-database command and binary.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const (
	// Query is the statement used to ping the database.
	Query = "SELECT NOW() AS current_time, 1 AS status"

	redactAfter = 20
)

// ErrNoDatabaseURL is returned when DATABASE_URL is not set.
var ErrNoDatabaseURL = errors.New("DATABASE_URL environment variable is not set")

// Config is read from the environment.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	ConnectTimeout time.Duration `env:"PING_CONNECT_TIMEOUT" envDefault:"10s"`
	IdleTimeout    time.Duration `env:"PING_IDLE_TIMEOUT"    envDefault:"20s"`
}

// Conn is an open database connection.
type Conn interface {
	// ServerTime runs Query and returns the server clock.
	ServerTime(ctx context.Context) (time.Time, error)
	Close() error
}

// Dialer opens a connection with a single pooled connection.
type Dialer func(ctx context.Context, cfg Config) (Conn, error)

// LoadConfig parses the environment. A nil environ reads the process environment.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, ErrNoDatabaseURL
	}

	return cfg, nil
}

// Redact keeps the first characters of a connection string, enough to recognise the host.
func Redact(url string) string {
	if len(url) <= redactAfter {
		return url + "..."
	}

	return url[:redactAfter] + "..."
}

// Console is the human readable logger the ping writes to.
func Console(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Run pings the database and returns the process exit code. Progress goes to
// out, failures and warnings to errOut.
// The connection is closed on every path, a failing close is only reported.
func Run(ctx context.Context, cfg Config, dial Dialer, out, errOut io.Writer) int {
	logger := Console(out)
	failure := Console(errOut)

	if cfg.DatabaseURL == "" {
		failure.Error().Msg(ErrNoDatabaseURL.Error())
		failure.Error().Msg("Please make sure DATABASE_URL is set in the CI secrets")

		return 1
	}

	logger.Info().Msg("connecting to database ...")
	logger.Info().Str("target", Redact(cfg.DatabaseURL)).Msg("connection string")

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, err := dial(dialCtx, cfg)
	if err != nil {
		failure.Error().Err(err).Msg("database ping failed")

		return 1
	}

	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			failure.Warn().Err(closeErr).Msg("error closing connection")

			return
		}

		logger.Info().Msg("database connection closed")
	}()

	serverTime, err := conn.ServerTime(dialCtx)
	if err != nil {
		failure.Error().Err(err).Msg("database ping failed")

		return 1
	}

	logger.Info().Msg("database ping successful")
	logger.Info().Str("timestamp", time.Now().UTC().Format(time.RFC3339Nano)).Msg("timestamp")
	logger.Info().Time("server_time", serverTime).Msg("server time")
	logger.Info().Msg("database ping completed successfully, database kept alive")

	return 0
}

// Main loads the configuration from the environment and runs the ping.
func Main(ctx context.Context, dial Dialer, out, errOut io.Writer) int {
	cfg, err := LoadConfig(nil)
	if err != nil && !errors.Is(err, ErrNoDatabaseURL) {
		failure := Console(errOut)
		failure.Error().Err(err).Msg("invalid environment")

		return 1
	}

	return Run(ctx, cfg, dial, out, errOut)
}
