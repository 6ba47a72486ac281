package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"tenderledger/internal/aggregate"
	"tenderledger/internal/core"
	"tenderledger/internal/csvio"
	"tenderledger/internal/dashboard"
	"tenderledger/internal/pagination"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printExpensePage(w io.Writer, p *pagination.Paginator[core.ExpenseView]) error {
	items := p.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "No expenses found")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tPAYMENT METHOD\tLOCATION")
	for _, v := range p.Page() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Date, core.FormatCurrency(v.Amount), v.CategoryLabel(), v.PaymentMethodLabel(), v.Location)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPage %d of %d (%d expenses, total %s)\n",
		p.Current(), p.TotalPages(), len(items), core.FormatCurrency(aggregate.Total(items)))
	return nil
}

func printLabels(w io.Writer, labels []core.Label) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSCOPE")
	for _, l := range labels {
		scope := "own"
		if l.IsDefault() {
			scope = "default"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", l.ID, l.Name, scope)
	}
	return tw.Flush()
}

func printReport(w io.Writer, r dashboard.Report, daily bool) error {
	fmt.Fprintf(w, "Period:  %s\n", r.SpanLabel())
	fmt.Fprintf(w, "Total:   %s (%d expenses)\n", core.FormatCurrency(r.Total), len(r.Expenses))
	if !r.HasData() {
		return nil
	}

	sections := []struct {
		title   string
		ranking []core.LabelAmount
	}{
		{"By category", r.CategoryRanking},
		{"By payment method", r.PaymentMethodRanking},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s\n", s.title)
		tw := newTable(w)
		// rankings ascend; the largest spend is printed first
		for i := len(s.ranking) - 1; i >= 0; i-- {
			la := s.ranking[i]
			fmt.Fprintf(tw, "  %s\t%s\t%d\n", la.Label, core.FormatCurrency(la.Amount), la.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if daily {
		fmt.Fprintln(w, "\nDaily")
		tw := newTable(w)
		for _, d := range r.Daily {
			fmt.Fprintf(tw, "  %s\t%s\n", d.Date, core.FormatCurrency(d.Amount))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func printImportResult(w io.Writer, res csvio.ImportResult) {
	fmt.Fprintf(w, "Imported %d expenses, skipped %d duplicates\n", res.Imported, res.Duplicates)
	for _, name := range res.CreatedLabels {
		fmt.Fprintf(w, "Created %s\n", name)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "Skipped %v\n", e)
	}
}
