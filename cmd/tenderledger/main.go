package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"tenderledger/internal/cli"
	"tenderledger/internal/config"
	"tenderledger/internal/core"
	"tenderledger/internal/dashboard"
	applog "tenderledger/internal/log"
	"tenderledger/internal/services"
)

const usage = `Usage: tenderledger [-db path] -user NAME [-password P] <command> [flags]

Commands:
  add         record an expense
  list        list expenses, newest first
  edit ID     change fields of an expense
  delete ID   remove an expense
  categories  list|add NAME|exists NAME|rename ID NAME|delete ID
  methods     list|add NAME|exists NAME|rename ID NAME|delete ID
  report      totals, breakdowns and daily series
  export      write expenses as CSV
  import      read expenses from CSV
  passwd      change the password
`

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext(context.Background())
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the services of one authenticated invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *applog.Logger
	user   core.User

	publisher services.EventPublisher
	users     *services.UserService
	expenses  *services.ExpenseService
	labels    *services.LabelService
	dashboard *dashboard.Service
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tenderledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	dbPath := fs.String("db", "", "Path to database file (default $TENDER_DB_PATH)")
	username := fs.String("user", os.Getenv("TENDER_USER"), "Username")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	if strings.TrimSpace(*username) == "" {
		fs.Usage()
		return errors.New("missing required flags: user")
	}

	cfg, err := cli.LoadAndValidateConfig(*dbPath)
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	// every record of one invocation shares a run ID
	logger = logger.With(applog.FieldRunID, uuid.NewString())
	ctx = applog.NewContext(ctx, logger)

	repo, err := cli.InitSQLite(ctx, logger, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	publisher, closePublisher := cli.OpenEventPublisher(ctx, cfg, logger)
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Warn("Failed to close event publisher", applog.FieldError, err)
		}
	}()

	expenses := services.NewExpenseService(repo, publisher, logger)
	a := &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		cfg:       cfg,
		logger:    logger,
		publisher: publisher,
		users:     services.NewUserService(repo, publisher, logger, cfg.BcryptCost),
		expenses:  expenses,
		labels:    services.NewLabelService(repo, publisher, logger),
		dashboard: dashboard.NewService(expenses, logger),
	}

	pw := *password
	if pw == "" {
		if pw, err = cli.ReadPassword(stdin, stderr, "Password: "); err != nil {
			return err
		}
	}
	a.user, err = a.users.Authenticate(ctx, *username, pw)
	if err != nil {
		return err
	}

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:], pw)
}

func (a *app) dispatch(ctx context.Context, command string, args []string, password string) error {
	switch command {
	case "add":
		return a.add(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "delete":
		return a.remove(ctx, args)
	case "categories":
		return a.manageLabels(ctx, core.KindCategory, args)
	case "methods":
		return a.manageLabels(ctx, core.KindPaymentMethod, args)
	case "report":
		return a.report(ctx, args)
	case "export":
		return a.export(ctx, args)
	case "import":
		return a.importCSV(ctx, args)
	case "passwd":
		return a.passwd(ctx, args, password)
	default:
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) passwd(ctx context.Context, args []string, current string) error {
	fs := a.flagSet("passwd")
	next := fs.String("new", "", "New password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *next
	if pw == "" {
		var err error
		if pw, err = cli.ReadPassword(a.stdin, a.stderr, "New password: "); err != nil {
			return err
		}
	}
	if err := a.users.ChangePassword(ctx, a.user.Username, current, pw); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Password changed")
	return nil
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}
