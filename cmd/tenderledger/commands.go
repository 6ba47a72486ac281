package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tenderledger/internal/core"
	"tenderledger/internal/csvio"
	"tenderledger/internal/pagination"
	"tenderledger/internal/storage"
)

// filterFlags are the query flags shared by list, report and export.
type filterFlags struct {
	from     *string
	to       *string
	category *string
	method   *string
	search   *string
}

func addFilterFlags(fs *flag.FlagSet, withLabels bool) *filterFlags {
	f := &filterFlags{
		from: fs.String("from", "", "First date, YYYY-MM-DD"),
		to:   fs.String("to", "", "Last date, YYYY-MM-DD"),
	}
	if withLabels {
		f.category = fs.String("category", "", "Category name or ID")
		f.method = fs.String("method", "", "Payment method name or ID")
		f.search = fs.String("search", "", "Match location or amount")
	}
	return f
}

func (f *filterFlags) dateRange() (core.DateRange, error) {
	var (
		r   core.DateRange
		err error
	)
	if *f.from != "" {
		if r.Start, err = core.ParseDate(*f.from); err != nil {
			return r, fmt.Errorf("-from: %w", err)
		}
	}
	if *f.to != "" {
		if r.End, err = core.ParseDate(*f.to); err != nil {
			return r, fmt.Errorf("-to: %w", err)
		}
	}
	return r, nil
}

func (a *app) buildFilter(ctx context.Context, f *filterFlags) (core.Filter, error) {
	r, err := f.dateRange()
	if err != nil {
		return core.Filter{}, err
	}
	filter := core.DateFilter(r)
	if f.category == nil {
		return filter, filter.Validate()
	}

	if filter.CategoryID, err = a.resolveLabel(ctx, core.KindCategory, *f.category); err != nil {
		return core.Filter{}, err
	}
	if filter.PaymentMethodID, err = a.resolveLabel(ctx, core.KindPaymentMethod, *f.method); err != nil {
		return core.Filter{}, err
	}
	filter.Search = *f.search
	return filter, filter.Validate()
}

// resolveLabel turns a label name, or failing that a numeric ID, into a
// reference. An empty value means no reference.
func (a *app) resolveLabel(ctx context.Context, kind core.LabelKind, value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	label, err := a.labels.Lookup(ctx, a.user.ID, kind, value)
	if err == nil {
		return &label.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if id, convErr := strconv.ParseInt(value, 10, 64); convErr == nil {
		return &id, nil
	}
	return nil, fmt.Errorf("unknown %s %q", kindName(kind), value)
}

func parseID(args []string, what string) (int64, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return 0, args, fmt.Errorf("missing %s ID", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, args, fmt.Errorf("invalid %s ID %q", what, args[0])
	}
	return id, args[1:], nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	amount := fs.String("amount", "", "Amount, e.g. 12.50 (required)")
	date := fs.String("date", "", "Date, YYYY-MM-DD (default today)")
	category := fs.String("category", "", "Category name or ID")
	method := fs.String("method", "", "Payment method name or ID")
	location := fs.String("location", "", "Where the money was spent")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amount == "" {
		return errors.New("missing required flags: amount")
	}

	var (
		in  core.ExpenseInput
		err error
	)
	if in.Amount, err = core.ParseAmount(*amount); err != nil {
		return err
	}
	in.Date = core.DateOf(time.Now())
	if *date != "" {
		if in.Date, err = core.ParseDate(*date); err != nil {
			return err
		}
	}
	if in.CategoryID, err = a.resolveLabel(ctx, core.KindCategory, *category); err != nil {
		return err
	}
	if in.PaymentMethodID, err = a.resolveLabel(ctx, core.KindPaymentMethod, *method); err != nil {
		return err
	}
	in.Location = strings.TrimSpace(*location)

	expense, err := a.expenses.Create(ctx, a.user.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Added expense #%d: %s on %s\n", expense.ID, core.FormatCurrency(expense.Amount), expense.Date)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	filters := addFilterFlags(fs, true)
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", a.cfg.PageSize, "Expenses per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := a.buildFilter(ctx, filters)
	if err != nil {
		return err
	}
	p, err := pagination.New[core.ExpenseView](*pageSize)
	if err != nil {
		return err
	}

	views, err := a.expenses.Find(ctx, a.user.ID, filter)
	if err != nil {
		return err
	}
	p.SetItems(views)
	if total := p.TotalPages(); total > 0 && (*page < 1 || *page > total) {
		return fmt.Errorf("page %d out of range (1-%d)", *page, total)
	}
	p.GoTo(*page)

	return printExpensePage(a.stdout, p)
}

func (a *app) edit(ctx context.Context, args []string) error {
	id, args, err := parseID(args, "expense")
	if err != nil {
		return err
	}

	fs := a.flagSet("edit")
	amount := fs.String("amount", "", "New amount")
	date := fs.String("date", "", "New date, YYYY-MM-DD")
	category := fs.String("category", "", "New category name or ID")
	method := fs.String("method", "", "New payment method name or ID")
	location := fs.String("location", "", "New location")
	clearCategory := fs.Bool("clear-category", false, "Remove the category")
	clearMethod := fs.Bool("clear-method", false, "Remove the payment method")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	patch := core.ExpensePatch{
		ClearCategory:      *clearCategory,
		ClearPaymentMethod: *clearMethod,
	}
	if set["amount"] {
		d, err := core.ParseAmount(*amount)
		if err != nil {
			return err
		}
		patch.Amount = &d
	}
	if set["date"] {
		d, err := core.ParseDate(*date)
		if err != nil {
			return err
		}
		patch.Date = &d
	}
	if set["category"] {
		if patch.CategoryID, err = a.resolveLabel(ctx, core.KindCategory, *category); err != nil {
			return err
		}
	}
	if set["method"] {
		if patch.PaymentMethodID, err = a.resolveLabel(ctx, core.KindPaymentMethod, *method); err != nil {
			return err
		}
	}
	if set["location"] {
		loc := strings.TrimSpace(*location)
		patch.Location = &loc
	}

	expense, err := a.expenses.Update(ctx, a.user.ID, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated expense #%d: %s on %s\n", expense.ID, core.FormatCurrency(expense.Amount), expense.Date)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, _, err := parseID(args, "expense")
	if err != nil {
		return err
	}
	if err := a.expenses.Delete(ctx, a.user.ID, id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleted expense #%d\n", id)
	return nil
}

func (a *app) manageLabels(ctx context.Context, kind core.LabelKind, args []string) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}
	name := kindName(kind)

	switch action {
	case "list":
		labels, err := a.labels.List(ctx, a.user.ID, kind)
		if err != nil {
			return err
		}
		return printLabels(a.stdout, labels)

	case "add":
		if len(args) != 1 {
			return fmt.Errorf("usage: add NAME")
		}
		label, err := a.labels.Add(ctx, a.user.ID, kind, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Added %s #%d %q\n", name, label.ID, label.Name)

	case "rename":
		id, rest, err := parseID(args, name)
		if err != nil {
			return err
		}
		if len(rest) != 1 {
			return fmt.Errorf("usage: rename ID NAME")
		}
		label, err := a.labels.Rename(ctx, a.user.ID, kind, id, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Renamed %s #%d to %q\n", name, label.ID, label.Name)

	case "exists":
		if len(args) != 1 {
			return fmt.Errorf("usage: exists NAME")
		}
		ok, err := a.labels.Exists(ctx, a.user.ID, kind, args[0])
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(a.stdout, "%s %q exists\n", name, strings.TrimSpace(args[0]))
		} else {
			fmt.Fprintf(a.stdout, "%s %q not found\n", name, strings.TrimSpace(args[0]))
		}

	case "delete":
		id, _, err := parseID(args, name)
		if err != nil {
			return err
		}
		if err := a.labels.Delete(ctx, a.user.ID, kind, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Deleted %s #%d\n", name, id)

	default:
		return fmt.Errorf("unknown %s action %q", name, action)
	}
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := a.flagSet("report")
	filters := addFilterFlags(fs, false)
	daily := fs.Bool("daily", false, "Include the day by day series")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := filters.dateRange()
	if err != nil {
		return err
	}
	if err := core.DateFilter(r).Validate(); err != nil {
		return err
	}

	report := a.dashboard.Build(ctx, a.user.ID, r)
	if report.Err != nil {
		return report.Err
	}
	return printReport(a.stdout, report, *daily)
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.flagSet("export")
	filters := addFilterFlags(fs, true)
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := a.buildFilter(ctx, filters)
	if err != nil {
		return err
	}
	views, err := a.expenses.Find(ctx, a.user.ID, filter)
	if err != nil {
		return err
	}

	if *output == "" {
		return csvio.Export(a.stdout, views)
	}
	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *output, err)
	}
	if err := csvio.Export(f, views); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Exported %d expenses to %s\n", len(views), *output)
	return nil
}

func (a *app) importCSV(ctx context.Context, args []string) error {
	fs := a.flagSet("import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: import FILE")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fs.Arg(0), err)
	}
	defer f.Close()

	importer := csvio.NewImporter(a.labels, a.expenses, a.publisher, a.logger)
	result, err := importer.Import(ctx, a.user.ID, f)
	if err != nil {
		return err
	}
	printImportResult(a.stdout, result)
	return nil
}

func kindName(kind core.LabelKind) string {
	if kind == core.KindPaymentMethod {
		return "payment method"
	}
	return "category"
}
