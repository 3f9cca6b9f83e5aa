// Package extract wires a document text source to the response decoder and
// the ledger service, turning raw AI-service replies into committed dataset
// rows.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoiceledger/internal/core"
	"invoiceledger/internal/decode"
	"invoiceledger/pkg/domain"
)

// Prompt is the canonical extraction instruction sent alongside a document.
// The decoder tolerates replies that wrap or decorate the requested JSON.
const Prompt = `Analyze this document and extract all information, organizing it into three distinct sections: Invoices, Products, and Customers. Parse all entries and maintain relationships between them. Provide the data in the following structured JSON format:

{
  "invoices": [
    {
      "id": "",
      "serialNumber": "",
      "customerName": "",
      "productName": "",
      "quantity": 0,
      "tax": 0,
      "totalAmount": 0,
      "date": "",
      "status": "complete"
    }
  ],
  "products": [
    {
      "id": "",
      "name": "",
      "totalQuantity": 0,
      "unitPrice": 0,
      "tax": 0,
      "priceWithTax": 0,
      "discount": "0",
      "status": "complete"
    }
  ],
  "customers": [
    {
      "id": "",
      "name": "",
      "phoneNumber": "",
      "companyName": "",
      "totalPurchaseAmount": 0,
      "status": "complete"
    }
  ],
  "metadata": {
    "totalInvoices": 0,
    "totalProducts": 0,
    "totalCustomers": 0
  }
}

Important instructions:
1. Group entries by product and customer to avoid duplicates.
2. Calculate aggregated values like totalQuantity and totalPurchaseAmount.
3. Ensure all amounts are in numerical format.
4. Mark status as "missing_fields" if any required field is empty or cannot be extracted.

Required fields:
- Invoices: serialNumber, customerName, productName, quantity, tax, totalAmount, date
- Products: name, totalQuantity, unitPrice, tax, priceWithTax
- Customers: name, phoneNumber, totalPurchaseAmount`

// TextSource produces the raw text reply for a document. Implementations
// typically call a generative AI service with Prompt and the document
// contents attached.
type TextSource interface {
	GenerateText(ctx context.Context, prompt string, document []byte, mimeType string) (string, error)
}

// TextSourceFunc adapts a function to TextSource.
type TextSourceFunc func(ctx context.Context, prompt string, document []byte, mimeType string) (string, error)

func (f TextSourceFunc) GenerateText(ctx context.Context, prompt string, document []byte, mimeType string) (string, error) {
	return f(ctx, prompt, document, mimeType)
}

// Ingestor runs document extraction end to end: source, decode, commit.
type Ingestor struct {
	source  TextSource
	service *core.Service
	logger  core.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the ingest logger.
func WithLogger(l core.Logger) Option {
	return func(i *Ingestor) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewIngestor returns an Ingestor committing into service.
func NewIngestor(source TextSource, service *core.Service, opts ...Option) *Ingestor {
	ing := &Ingestor{source: source, service: service, logger: core.NopLogger()}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Outcome summarizes a single document ingestion.
type Outcome struct {
	Dataset  string
	Tier     decode.Tier
	Applied  core.ApplySummary
	Result   domain.Result
	Duration time.Duration
}

// IngestDocument sends the document to the text source, decodes the reply
// and commits every extracted record into the named dataset in one
// transaction. Decode warnings and commit warnings are merged into the
// returned result.
func (i *Ingestor) IngestDocument(ctx context.Context, dataset string, document []byte, mimeType string) (Outcome, error) {
	if strings.TrimSpace(dataset) == "" {
		return Outcome{}, fmt.Errorf("dataset name required")
	}
	start := time.Now()

	raw, err := i.source.GenerateText(ctx, Prompt, document, mimeType)
	if err != nil {
		return Outcome{}, fmt.Errorf("text source: %w", err)
	}
	return i.ingestRaw(ctx, dataset, raw, start)
}

// IngestResponse decodes an already obtained service reply and commits it.
// Useful when responses arrive through another channel (files, queues).
func (i *Ingestor) IngestResponse(ctx context.Context, dataset, raw string) (Outcome, error) {
	if strings.TrimSpace(dataset) == "" {
		return Outcome{}, fmt.Errorf("dataset name required")
	}
	return i.ingestRaw(ctx, dataset, raw, time.Now())
}

func (i *Ingestor) ingestRaw(ctx context.Context, dataset, raw string, start time.Time) (Outcome, error) {
	extracted, tier, decodeResult, err := decode.DecodeTiered(raw)
	if err != nil {
		i.logger.Warn("extraction decode failed", "dataset", dataset, "error", err)
		return Outcome{}, err
	}
	i.logger.Debug("extraction decoded", "dataset", dataset, "tier", tier.String(),
		"invoices", len(extracted.Invoices), "products", len(extracted.Products), "customers", len(extracted.Customers))

	summary, applyResult, err := i.service.ApplyExtractionResult(ctx, dataset, extracted)
	if err != nil {
		return Outcome{}, err
	}
	merged := decodeResult
	merged.Merge(applyResult)

	outcome := Outcome{
		Dataset:  dataset,
		Tier:     tier,
		Applied:  summary,
		Result:   merged,
		Duration: time.Since(start),
	}
	i.logger.Info("document ingested", "dataset", dataset,
		"invoices", summary.Invoices, "products", summary.Products, "customers", summary.Customers,
		"warnings", len(merged.Warnings), "elapsed", outcome.Duration)
	return outcome, nil
}
