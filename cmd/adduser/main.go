package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tenderledger/internal/cli"
	"tenderledger/internal/services"
	"tenderledger/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "Path to database file (default $TENDER_DB_PATH)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		var err error
		password, err = cli.ReadPassword(stdin, stdout, "Password: ")
		if errors.Is(err, cli.ErrEmptyPassword) {
			return fmt.Errorf("password cannot be empty")
		}
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := cli.LoadAndValidateConfig(*dbPath)
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}

	repo, err := cli.InitSQLite(ctx, logger, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	publisher, closePublisher := cli.OpenEventPublisher(ctx, cfg, logger)
	defer closePublisher()

	users := services.NewUserService(repo, publisher, logger, cfg.BcryptCost)
	user, err := users.Register(ctx, *username, password)
	if errors.Is(err, storage.ErrDuplicateUser) {
		return fmt.Errorf("user %s already exists", strings.TrimSpace(*username))
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}
