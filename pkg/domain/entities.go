// Package domain defines the core persistent entities, warning primitives,
// and persistence contracts used by invoiceledger.
package domain

// EntityType identifies the type of record stored in the ledger or catalog.
type EntityType string

// Supported entity type identifiers used in Change records and warnings.
const (
	// EntityInvoice identifies an invoice record scoped to a dataset.
	EntityInvoice EntityType = "invoice"
	// EntityProduct identifies a global catalog product record.
	EntityProduct EntityType = "product"
	// EntityCustomer identifies a global catalog customer record.
	EntityCustomer EntityType = "customer"
	// EntityDataset identifies a named dataset partition of the ledger.
	EntityDataset EntityType = "dataset"
)

// Status marks whether a record carried every required field when it was
// extracted or last validated.
type Status string

// Record completeness states produced by extraction and draft validation.
const (
	StatusComplete      Status = "complete"
	StatusMissingFields Status = "missing_fields"
)

// Invoice is a single ledger row. CustomerName and ProductName reference
// catalog entities by exact string match, not by foreign key; the consistency
// layer owns keeping those references aligned after catalog renames.
type Invoice struct {
	ID           string  `json:"id"`
	SerialNumber string  `json:"serialNumber"`
	CustomerName string  `json:"customerName"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	Tax          float64 `json:"tax"`
	TotalAmount  float64 `json:"totalAmount"`
	Date         string  `json:"date"`
	Status       Status  `json:"status"`
}

// Validate recomputes the completeness status from the required invoice
// fields: serial number, customer, product, quantity, total and date. Tax is
// not required; a zero rate is a valid tax-free sale.
func (i Invoice) Validate() Status {
	if i.SerialNumber == "" || i.CustomerName == "" || i.ProductName == "" ||
		i.Quantity <= 0 || i.TotalAmount == 0 || i.Date == "" {
		return StatusMissingFields
	}
	return StatusComplete
}

// Product is a global catalog record. Discount keeps the free-form token the
// extraction service returns ("0(0%)", "$5"), so it stays a string.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TotalQuantity int     `json:"totalQuantity"`
	UnitPrice     float64 `json:"unitPrice"`
	Discount      string  `json:"discount"`
	Tax           float64 `json:"tax"`
	PriceWithTax  float64 `json:"priceWithTax"`
	Status        Status  `json:"status"`
}

// Validate recomputes the completeness status from the required product
// fields: name, total quantity, unit price and price with tax.
func (p Product) Validate() Status {
	if p.Name == "" || p.TotalQuantity <= 0 || p.UnitPrice == 0 || p.PriceWithTax == 0 {
		return StatusMissingFields
	}
	return StatusComplete
}

// Customer is a global catalog record. TotalPurchaseAmount is an externally
// maintained aggregate; the core stores it verbatim and never recomputes it.
// CompanyName is optional.
type Customer struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	PhoneNumber         string  `json:"phoneNumber"`
	CompanyName         string  `json:"companyName"`
	TotalPurchaseAmount float64 `json:"totalPurchaseAmount"`
	Status              Status  `json:"status"`
}

// Validate recomputes the completeness status from the required customer
// fields: name, phone number and total purchase amount.
func (c Customer) Validate() Status {
	if c.Name == "" || c.PhoneNumber == "" || c.TotalPurchaseAmount == 0 {
		return StatusMissingFields
	}
	return StatusComplete
}

// ExtractionResult is the transient value object produced by the decoder. It
// is never persisted directly; the consistency layer merges it into the
// catalog and the named dataset.
type ExtractionResult struct {
	Invoices  []Invoice      `json:"invoices"`
	Products  []Product      `json:"products"`
	Customers []Customer     `json:"customers"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Empty reports whether the result carries no records in any category.
func (r ExtractionResult) Empty() bool {
	return len(r.Invoices) == 0 && len(r.Products) == 0 && len(r.Customers) == 0
}

// Change describes a mutation applied to an entity during a transaction.
// Dataset is set for invoice and dataset changes and empty for catalog ones.
type Change struct {
	Entity  EntityType
	Action  Action
	Dataset string
	Before  any
	After   any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured per transaction.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionDelete indicates an entity was deleted.
	ActionDelete Action = "delete"
	ActionRename Action = "rename"
)

// Severity captures how a warning affects the operation that raised it.
type Severity string

// Warning severities: none block a commit, but warn-level entries indicate a
// consistency or quality risk the caller must surface.
const (
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// WarningCode identifies a recognized warning condition.
type WarningCode string

// Warning codes raised by the decoder and the consistency layer.
const (
	// WarnPartialExtraction marks a decoded payload that was missing one or
	// more of the invoices/products/customers categories.
	WarnPartialExtraction WarningCode = "partial_extraction"
	// WarnNoActiveDataset marks a catalog rename whose invoice cascade was
	// skipped because no dataset context was active.
	WarnNoActiveDataset WarningCode = "no_active_dataset"
	// WarnDatasetNameConflict marks a dataset rename rejected because the
	// target name already exists.
	WarnDatasetNameConflict WarningCode = "dataset_name_conflict"
	// WarnDatasetMissing marks an operation that no-opped because the named
	// dataset does not exist.
	WarnDatasetMissing WarningCode = "dataset_missing"
)

// Warning reports a non-fatal condition observed during an operation.
type Warning struct {
	Code     WarningCode
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates warnings from a decode or store operation.
type Result struct {
	Warnings []Warning
}

// Merge appends warnings from another result.
func (r *Result) Merge(other Result) {
	if len(other.Warnings) == 0 {
		return
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Has reports whether the result contains a warning with the given code.
func (r Result) Has(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
