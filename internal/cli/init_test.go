package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"tenderledger/internal/config"
	applog "tenderledger/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger("debug", &buf)
	if err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}
	logger.Debug("hello")
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "component=cli") {
		t.Errorf("unexpected log output %q", buf.String())
	}

	if _, err := SetupLogger("chatty", &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInitSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := InitSQLite(context.Background(), applog.Discard(), path)
	if err != nil {
		t.Fatalf("InitSQLite() error = %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := InitSQLite(ctx, applog.Discard(), filepath.Join(t.TempDir(), "other.db")); err == nil {
		t.Error("expected error with a cancelled context")
	}
}

func TestOpenEventPublisherDisabled(t *testing.T) {
	cfg := &config.Config{}
	publisher, closeFn := OpenEventPublisher(context.Background(), cfg, applog.Discard())
	if publisher != nil {
		t.Errorf("publisher = %v, want nil", publisher)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close error = %v", err)
	}
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "newline terminated", input: "s3cret\nrest", want: "s3cret"},
		{name: "crlf", input: "s3cret\r\n", want: "s3cret"},
		{name: "no newline", input: "s3cret", want: "s3cret"},
		{name: "empty", input: "\n", wantErr: ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := ReadPassword(strings.NewReader(tt.input), &out, "Password: ")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadPassword() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadPassword() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadPassword() = %q, want %q", got, tt.want)
			}
			if out.String() != "Password: " {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}

func TestReadPasswordLeavesRemainingInput(t *testing.T) {
	in := strings.NewReader("first\nsecond\n")
	var out bytes.Buffer

	first, err := ReadPassword(in, &out, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ReadPassword(in, &out, "")
	if err != nil {
		t.Fatal(err)
	}
	if first != "first" || second != "second" {
		t.Errorf("got %q then %q", first, second)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("AMQP_URL", "")

	path := filepath.Join(t.TempDir(), "override.db")
	cfg, err := LoadAndValidateConfig(path)
	if err != nil {
		t.Fatalf("LoadAndValidateConfig() error = %v", err)
	}
	if cfg.DBPath != path {
		t.Errorf("DBPath = %s, want %s", cfg.DBPath, path)
	}

	t.Setenv("PAGE_SIZE", "0")
	if _, err := LoadAndValidateConfig(path); err == nil {
		t.Error("expected validation error for page size 0")
	}
}
