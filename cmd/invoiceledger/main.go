// Command invoiceledger ingests AI-service extraction replies into a
// dataset-scoped invoice ledger and renders report artifacts from it.
//
// Usage:
//
//	invoiceledger ingest -dataset <name> [-in response.json]
//	invoiceledger report -dataset <name> [-format csv|json|pdf] [-out file]
//	invoiceledger datasets
//	invoiceledger invoices -dataset <name> [-sort column] [-desc]
//
// Storage backend selection is environment driven, see
// internal/infra/persistence.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"invoiceledger/internal/core"
	"invoiceledger/internal/extract"
	"invoiceledger/internal/infra/persistence"
	"invoiceledger/internal/reports"
	"invoiceledger/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	logger := core.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, nil)))

	store, err := persistence.Open()
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer closeStore(store)

	service := core.NewService(store, core.WithLogger(logger))
	ctx := context.Background()

	switch args[0] {
	case "ingest":
		return runIngest(ctx, args[1:], service, logger, stdin, stdout, stderr)
	case "report":
		return runReport(args[1:], service, stdout, stderr)
	case "datasets":
		for _, name := range service.ListDatasets() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	case "invoices":
		return runInvoices(args[1:], service, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
}

func runIngest(ctx context.Context, args []string, service *core.Service, logger core.Logger, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataset := fs.String("dataset", "", "target dataset name (required)")
	in := fs.String("in", "-", "path to the raw service reply, - for stdin")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dataset == "" {
		fmt.Fprintln(stderr, "ingest: -dataset is required")
		return 2
	}

	raw, err := readInput(*in, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read reply: %v\n", err)
		return 1
	}

	ingestor := extract.NewIngestor(nil, service, extract.WithLogger(logger))
	outcome, err := ingestor.IngestResponse(ctx, *dataset, string(raw))
	if err != nil {
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "dataset %s: %d invoices, %d products, %d customers (decoded via %s)\n",
		outcome.Dataset, outcome.Applied.Invoices, outcome.Applied.Products, outcome.Applied.Customers, outcome.Tier)
	printWarnings(stdout, outcome.Result)
	return 0
}

func runReport(args []string, service *core.Service, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataset := fs.String("dataset", "", "dataset to render (required)")
	format := fs.String("format", "csv", "report format: csv, json or pdf")
	out := fs.String("out", "-", "output path, - for stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dataset == "" {
		fmt.Fprintln(stderr, "report: -dataset is required")
		return 2
	}

	payload, err := reports.Render(reports.Format(*format), *dataset, service.ListInvoices(*dataset), time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "render: %v\n", err)
		return 1
	}
	if *out == "-" {
		if _, err := stdout.Write(payload); err != nil {
			fmt.Fprintf(stderr, "write report: %v\n", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		fmt.Fprintf(stderr, "write report: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", *out, len(payload))
	return 0
}

func runInvoices(args []string, service *core.Service, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("invoices", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataset := fs.String("dataset", "", "dataset to list (required)")
	sortBy := fs.String("sort", "", "sort column (serialNumber, customerName, productName, quantity, tax, totalAmount, date, status)")
	desc := fs.Bool("desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dataset == "" {
		fmt.Fprintln(stderr, "invoices: -dataset is required")
		return 2
	}

	invoices := service.InvoicesSorted(*dataset, core.SortColumn(*sortBy), *desc)
	payload, err := reports.RenderCSV(invoices)
	if err != nil {
		fmt.Fprintf(stderr, "render: %v\n", err)
		return 1
	}
	_, err = stdout.Write(payload)
	if err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printWarnings(w io.Writer, result domain.Result) {
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning [%s]: %s\n", warning.Code, warning.Message)
	}
}

func closeStore(store domain.PersistentStore) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: invoiceledger <ingest|report|datasets|invoices> [flags]")
}
