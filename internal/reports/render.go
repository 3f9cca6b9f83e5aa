// Package reports renders dataset invoice tables into downloadable report
// artifacts (CSV, JSON, PDF) and runs exports asynchronously.
package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"invoiceledger/pkg/domain"
)

// Format identifies a report output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string { return string(f) }

// csvColumns is the column contract consumed by downstream spreadsheet
// tooling. Order and spelling are load-bearing.
var csvColumns = []string{
	"ID",
	"Serial Number",
	"Customer Name",
	"Product Name",
	"Quantity",
	"Tax (%)",
	"Total Amount",
	"Date",
	"Status",
}

// RenderCSV writes the invoice table as CRLF-terminated CSV with a fixed
// header row. Amounts render with two decimals.
func RenderCSV(invoices []domain.Invoice) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	if err := writer.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		record := []string{
			inv.ID,
			inv.SerialNumber,
			inv.CustomerName,
			inv.ProductName,
			strconv.Itoa(inv.Quantity),
			formatAmount(inv.Tax),
			formatAmount(inv.TotalAmount),
			inv.Date,
			string(inv.Status),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsonReport is the JSON artifact envelope.
type jsonReport struct {
	Dataset     string           `json:"dataset"`
	GeneratedAt time.Time        `json:"generated_at"`
	Count       int              `json:"count"`
	TotalAmount float64          `json:"total_amount"`
	Invoices    []domain.Invoice `json:"invoices"`
}

// RenderJSON writes the invoice table as an indented JSON document.
func RenderJSON(dataset string, invoices []domain.Invoice, generatedAt time.Time) ([]byte, error) {
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	report := jsonReport{
		Dataset:     dataset,
		GeneratedAt: generatedAt.UTC(),
		Count:       len(invoices),
		TotalAmount: sumAmounts(invoices),
		Invoices:    invoices,
	}
	return json.MarshalIndent(report, "", "  ")
}

// RenderPDF writes the invoice table as a landscape A4 PDF with a summary
// line and a bordered table.
func RenderPDF(dataset string, invoices []domain.Invoice, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Invoice Report: "+dataset)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	summary := fmt.Sprintf("Generated %s | %d invoices | total %s",
		generatedAt.UTC().Format("2006-01-02 15:04 MST"), len(invoices), formatAmount(sumAmounts(invoices)))
	pdf.Cell(0, 8, summary)
	pdf.Ln(12)

	widths := []float64{40, 30, 45, 45, 20, 20, 30, 25, 30}
	pdf.SetFont("Arial", "B", 9)
	for i, col := range csvColumns {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, inv := range invoices {
		cells := []string{
			inv.ID,
			inv.SerialNumber,
			inv.CustomerName,
			inv.ProductName,
			strconv.Itoa(inv.Quantity),
			formatAmount(inv.Tax),
			formatAmount(inv.TotalAmount),
			inv.Date,
			string(inv.Status),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render dispatches to the format-specific renderer.
func Render(format Format, dataset string, invoices []domain.Invoice, generatedAt time.Time) ([]byte, error) {
	switch format {
	case FormatCSV:
		return RenderCSV(invoices)
	case FormatJSON:
		return RenderJSON(dataset, invoices, generatedAt)
	case FormatPDF:
		return RenderPDF(dataset, invoices, generatedAt)
	default:
		return nil, fmt.Errorf("unsupported report format %s", format)
	}
}

func formatAmount(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func sumAmounts(invoices []domain.Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		total += inv.TotalAmount
	}
	return total
}
