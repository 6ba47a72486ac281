// Package cli provides common CLI initialization utilities shared by
// cmd/tenderledger and cmd/adduser.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"tenderledger/internal/amqp"
	"tenderledger/internal/config"
	applog "tenderledger/internal/log"
	"tenderledger/internal/services"
	"tenderledger/internal/storage"
)

// SetupLogger builds the process logger at the given level, writing to w,
// and installs it as the slog default.
func SetupLogger(level string, w io.Writer) (*applog.Logger, error) {
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: applog.ComponentCLI,
		Output:    w,
	})
	applog.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it. A non-empty dbPath overrides TENDER_DB_PATH.
func LoadAndValidateConfig(dbPath string) (*config.Config, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitSQLite opens the ledger database at dbPath, applying pending
// migrations, and checks that it answers.
func InitSQLite(ctx context.Context, logger *applog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err,
			applog.FieldDatabase, dbPath)
		return nil, fmt.Errorf("open ledger %s: %w", dbPath, err)
	}
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("ping ledger %s: %w", dbPath, err)
	}
	version, dirty, err := storage.SchemaVersion(dbPath)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		logger.Warn("Schema is marked dirty", applog.FieldDatabase, dbPath, "schema_version", version)
	}
	logger.Debug("SQLite repository ready", applog.FieldDatabase, dbPath, "schema_version", version)
	return repo, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// OpenEventPublisher returns the ledger event publisher configured by cfg
// and a function releasing it. Publishing is optional: when it is disabled
// or the broker cannot be reached the publisher is nil and the ledger works
// without events.
func OpenEventPublisher(ctx context.Context, cfg *config.Config, logger *applog.Logger) (services.EventPublisher, func() error) {
	noop := func() error { return nil }
	if !cfg.EventsEnabled() {
		return nil, noop
	}
	client := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Warn("Ledger events disabled, broker unreachable", applog.FieldError, err)
		_ = client.Close()
		return nil, noop
	}
	return client, client.Close
}

var ErrEmptyPassword = errors.New("empty password")

// ReadPassword prompts on out and reads a password from in. Terminal input
// is not echoed; anything else is read up to the first newline.
func ReadPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	var (
		raw string
		err error
	)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var b []byte
		b, err = term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		raw = string(b)
	} else {
		raw, err = readLine(in)
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if raw == "" {
		return "", ErrEmptyPassword
	}
	return raw, nil
}

// readLine reads one byte at a time so that nothing past the newline is
// consumed from in.
func readLine(in io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}
