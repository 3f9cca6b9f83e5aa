package reports

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"invoiceledger/pkg/domain"
)

func renderFixture() []domain.Invoice {
	return []domain.Invoice{
		{ID: "inv-1", SerialNumber: "INV-001", CustomerName: "Acme", ProductName: "Widget", Quantity: 2, Tax: 18, TotalAmount: 236, Date: "2024-11-12", Status: domain.StatusComplete},
		{ID: "inv-2", SerialNumber: "INV-002", CustomerName: `Binford "Tools"`, ProductName: "Gadget, Large", Quantity: 1, Tax: 5.5, TotalAmount: 105.5, Date: "2024-11-13", Status: domain.StatusMissingFields},
	}
}

func TestRenderCSVContract(t *testing.T) {
	payload, err := RenderCSV(renderFixture())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := string(payload)

	if !strings.HasPrefix(text, "ID,Serial Number,Customer Name,Product Name,Quantity,Tax (%),Total Amount,Date,Status\r\n") {
		t.Fatalf("header contract broken:\n%s", text)
	}
	if !strings.HasSuffix(text, "\r\n") {
		t.Fatalf("rows must be CRLF terminated")
	}
	lines := strings.Split(strings.TrimSuffix(text, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[1] != "inv-1,INV-001,Acme,Widget,2,18.00,236.00,2024-11-12,complete" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	// Embedded quotes and commas must survive csv quoting.
	if !strings.Contains(lines[2], `"Binford ""Tools"""`) || !strings.Contains(lines[2], `"Gadget, Large"`) {
		t.Fatalf("quoting broken: %q", lines[2])
	}
	if !strings.Contains(lines[2], "5.50,105.50") {
		t.Fatalf("amounts must render with two decimals: %q", lines[2])
	}
}

func TestRenderCSVEmpty(t *testing.T) {
	payload, err := RenderCSV(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(payload) != "ID,Serial Number,Customer Name,Product Name,Quantity,Tax (%),Total Amount,Date,Status\r\n" {
		t.Fatalf("empty table must still carry the header: %q", payload)
	}
}

func TestRenderJSON(t *testing.T) {
	generatedAt := time.Date(2024, 11, 14, 10, 0, 0, 0, time.UTC)
	payload, err := RenderJSON("march", renderFixture(), generatedAt)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var report struct {
		Dataset     string           `json:"dataset"`
		Count       int              `json:"count"`
		TotalAmount float64          `json:"total_amount"`
		Invoices    []domain.Invoice `json:"invoices"`
	}
	if err := json.Unmarshal(payload, &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Dataset != "march" || report.Count != 2 || len(report.Invoices) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.TotalAmount != 341.5 {
		t.Fatalf("unexpected total: %v", report.TotalAmount)
	}
}

func TestRenderJSONNilInvoices(t *testing.T) {
	payload, err := RenderJSON("march", nil, time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if bytes.Contains(payload, []byte(`"invoices": null`)) {
		t.Fatalf("nil invoices must encode as empty array: %s", payload)
	}
}

func TestRenderPDF(t *testing.T) {
	payload, err := RenderPDF("march", renderFixture(), time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", payload[:16])
	}
	if len(payload) < 500 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(payload))
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(Format("xml"), "march", nil, time.Now()); err == nil {
		t.Fatalf("unknown format must error")
	}
}

func TestFormatContentTypes(t *testing.T) {
	if FormatCSV.ContentType() != "text/csv" || FormatJSON.ContentType() != "application/json" || FormatPDF.ContentType() != "application/pdf" {
		t.Fatalf("unexpected content types")
	}
	if Format("bin").ContentType() != "application/octet-stream" {
		t.Fatalf("fallback content type wrong")
	}
}
