package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invoiceledger/pkg/domain"
)

// Service is the consistency layer over the session store: the only component
// that performs cross-entity writes. It owns the active-dataset context that
// scopes catalog rename cascades, and it is the seam where warnings about
// partial or skipped effects are generated.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	metrics MetricsRecorder
	nowFn   func() time.Time

	mu        sync.Mutex
	active    string
	hasActive bool
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger overrides the default no-op logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder. Without one, observations are
// dropped.
func WithMetrics(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = recorder
	}
}

// WithClock overrides the time source used for metric durations.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: noopLogger{},
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store. This is
// the session-start entry point for embedding callers; discarding the service
// discards the session.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(ctx, operation, err == nil, s.nowFn().Sub(start))
}

// Active dataset context ------------------------------------------------------

// SetActiveDataset selects the dataset that catalog rename cascades apply to.
func (s *Service) SetActiveDataset(name string) {
	s.mu.Lock()
	s.active = name
	s.hasActive = true
	s.mu.Unlock()
}

// ClearActiveDataset drops the dataset context; subsequent catalog renames
// skip their invoice cascade and warn.
func (s *Service) ClearActiveDataset() {
	s.mu.Lock()
	s.active = ""
	s.hasActive = false
	s.mu.Unlock()
}

// ActiveDataset reports the currently selected dataset, if any.
func (s *Service) ActiveDataset() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.hasActive
}

// Dataset operations ----------------------------------------------------------

// CreateDataset registers a dataset name; idempotent.
func (s *Service) CreateDataset(ctx context.Context, name string) (domain.Result, error) {
	start := s.nowFn()
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.CreateDataset(name)
		return nil
	})
	s.observe(ctx, "create_dataset", start, err)
	return res, err
}

// DeleteDataset destroys the dataset and its invoices. Deleting the active
// dataset clears the active context.
func (s *Service) DeleteDataset(ctx context.Context, name string) (domain.Result, error) {
	start := s.nowFn()
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.DeleteDataset(name)
		return nil
	})
	if err == nil {
		s.mu.Lock()
		if s.hasActive && s.active == name {
			s.active = ""
			s.hasActive = false
		}
		s.mu.Unlock()
	}
	s.observe(ctx, "delete_dataset", start, err)
	return res, err
}

// RenameDataset moves a dataset to a new name. Conflicting or missing names
// reject the rename with a warning in the result instead of failing. When the
// active dataset is renamed, the active context follows it.
func (s *Service) RenameDataset(ctx context.Context, oldName, newName string) (domain.RenameOutcome, domain.Result, error) {
	start := s.nowFn()
	outcome := domain.RenameUnchanged
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		outcome = tx.RenameDataset(oldName, newName)
		return nil
	})
	if err == nil && outcome == domain.RenameApplied {
		s.mu.Lock()
		if s.hasActive && s.active == oldName {
			s.active = newName
		}
		s.mu.Unlock()
		s.logger.Info("dataset renamed", "from", oldName, "to", newName)
	}
	s.observe(ctx, "rename_dataset", start, err)
	return outcome, res, err
}

// ListDatasets returns live dataset names in creation order.
func (s *Service) ListDatasets() []string {
	return s.store.ListDatasets()
}

// Invoice operations ----------------------------------------------------------

// AddInvoice appends a single invoice, auto-creating the dataset.
func (s *Service) AddInvoice(ctx context.Context, dataset string, inv domain.Invoice) (domain.Invoice, domain.Result, error) {
	start := s.nowFn()
	var added domain.Invoice
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		added = tx.AddInvoice(dataset, inv)
		return nil
	})
	s.observe(ctx, "add_invoice", start, err)
	return added, res, err
}

// AddInvoices appends a batch preserving order, auto-creating the dataset.
func (s *Service) AddInvoices(ctx context.Context, dataset string, invs []domain.Invoice) ([]domain.Invoice, domain.Result, error) {
	start := s.nowFn()
	var added []domain.Invoice
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		added = tx.AddInvoices(dataset, invs)
		return nil
	})
	s.observe(ctx, "add_invoices", start, err)
	return added, res, err
}

// UpdateInvoice applies a draft to an invoice. A missing dataset or id is a
// no-op reported through the boolean.
func (s *Service) UpdateInvoice(ctx context.Context, dataset, id string, draft domain.InvoiceDraft) (domain.Invoice, bool, error) {
	start := s.nowFn()
	var (
		updated domain.Invoice
		found   bool
	)
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, found = tx.UpdateInvoice(dataset, id, draft)
		return nil
	})
	s.observe(ctx, "update_invoice", start, err)
	return updated, found, err
}

// DeleteInvoice removes an invoice by id; unknown ids are tolerated.
func (s *Service) DeleteInvoice(ctx context.Context, dataset, id string) (bool, error) {
	start := s.nowFn()
	var deleted bool
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		deleted = tx.DeleteInvoice(dataset, id)
		return nil
	})
	s.observe(ctx, "delete_invoice", start, err)
	return deleted, err
}

// ListInvoices returns the dataset's invoices in insertion order; an unknown
// dataset yields an empty slice.
func (s *Service) ListInvoices(dataset string) []domain.Invoice {
	return s.store.ListInvoices(dataset)
}

// InvoicesSorted returns a sorted read view over the dataset's invoices.
func (s *Service) InvoicesSorted(dataset string, column SortColumn, descending bool) []domain.Invoice {
	return SortInvoices(s.store.ListInvoices(dataset), column, descending)
}

// InvoicesWhere returns the dataset's invoices matching the predicate.
func (s *Service) InvoicesWhere(dataset string, keep func(domain.Invoice) bool) []domain.Invoice {
	return FilterInvoices(s.store.ListInvoices(dataset), keep)
}

// Catalog operations ----------------------------------------------------------

// AddCustomers bulk-appends catalog customers.
func (s *Service) AddCustomers(ctx context.Context, customers []domain.Customer) ([]domain.Customer, error) {
	start := s.nowFn()
	var added []domain.Customer
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		added = tx.AddCustomers(customers)
		return nil
	})
	s.observe(ctx, "add_customers", start, err)
	return added, err
}

// AddProducts bulk-appends catalog products.
func (s *Service) AddProducts(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	start := s.nowFn()
	var added []domain.Product
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		added = tx.AddProducts(products)
		return nil
	})
	s.observe(ctx, "add_products", start, err)
	return added, err
}

// UpdateCustomer applies a draft by id without touching invoice references.
// Use RenameCustomer when the name changes and references must follow.
func (s *Service) UpdateCustomer(ctx context.Context, id string, draft domain.CustomerDraft) (domain.Customer, bool, error) {
	start := s.nowFn()
	var (
		updated domain.Customer
		found   bool
	)
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, found = tx.UpdateCustomer(id, draft)
		return nil
	})
	s.observe(ctx, "update_customer", start, err)
	return updated, found, err
}

// UpdateProduct applies a draft by id without touching invoice references.
func (s *Service) UpdateProduct(ctx context.Context, id string, draft domain.ProductDraft) (domain.Product, bool, error) {
	start := s.nowFn()
	var (
		updated domain.Product
		found   bool
	)
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, found = tx.UpdateProduct(id, draft)
		return nil
	})
	s.observe(ctx, "update_product", start, err)
	return updated, found, err
}

// ListCustomers returns all catalog customers.
func (s *Service) ListCustomers() []domain.Customer {
	return s.store.ListCustomers()
}

// ListProducts returns all catalog products.
func (s *Service) ListProducts() []domain.Product {
	return s.store.ListProducts()
}

// Cross-entity operations ------------------------------------------------------

// ApplySummary reports what an extraction merge added.
type ApplySummary struct {
	Dataset   string
	Invoices  int
	Products  int
	Customers int
}

// ApplyExtractionResult merges a decoded extraction result: invoices into the
// named dataset (auto-created) and products/customers into the global
// catalog. The merge is a batch append, not a merge-by-identity; re-ingesting
// the same document duplicates records. The whole result is staged in one
// transaction, so a failure leaves no partial merge behind.
func (s *Service) ApplyExtractionResult(ctx context.Context, dataset string, result domain.ExtractionResult) (ApplySummary, domain.Result, error) {
	start := s.nowFn()
	summary := ApplySummary{Dataset: dataset}
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.CreateDataset(dataset)
		summary.Invoices = len(tx.AddInvoices(dataset, result.Invoices))
		summary.Products = len(tx.AddProducts(result.Products))
		summary.Customers = len(tx.AddCustomers(result.Customers))
		return nil
	})
	if err == nil {
		s.logger.Info("extraction result applied",
			"dataset", dataset,
			"invoices", summary.Invoices,
			"products", summary.Products,
			"customers", summary.Customers)
	}
	s.observe(ctx, "apply_extraction_result", start, err)
	return summary, res, err
}

// CascadeReport describes the effect of a catalog rename on the ledger.
type CascadeReport struct {
	Entity   domain.EntityType
	EntityID string
	OldName  string
	NewName  string
	// Dataset is the active dataset that was scanned; empty when the cascade
	// was skipped.
	Dataset string
	// Updated counts the invoices whose reference field was rewritten.
	Updated int
	// Found is false when no catalog record had the id; nothing happened.
	Found bool
	// Skipped is true when no dataset context was active, so invoice
	// references to the old name were left behind.
	Skipped bool
}

// RenameCustomer renames a catalog customer and rewrites the customerName of
// every matching invoice in the active dataset. Invoices in inactive datasets
// keep the old name; that scope limit is deliberate and reported through the
// no_active_dataset warning when the cascade is skipped entirely.
func (s *Service) RenameCustomer(ctx context.Context, id, newName string) (CascadeReport, domain.Result, error) {
	return s.renameCatalogEntity(ctx, "rename_customer", domain.EntityCustomer, id, newName)
}

// RenameProduct renames a catalog product and rewrites the productName of
// every matching invoice in the active dataset.
func (s *Service) RenameProduct(ctx context.Context, id, newName string) (CascadeReport, domain.Result, error) {
	return s.renameCatalogEntity(ctx, "rename_product", domain.EntityProduct, id, newName)
}

func (s *Service) renameCatalogEntity(ctx context.Context, operation string, entity domain.EntityType, id, newName string) (CascadeReport, domain.Result, error) {
	start := s.nowFn()
	active, hasActive := s.ActiveDataset()
	report := CascadeReport{Entity: entity, EntityID: id, NewName: newName}

	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		// Phase one: resolve the current name before mutating anything.
		oldName, ok := findCatalogName(tx.Snapshot(), entity, id)
		if !ok {
			return nil
		}
		report.Found = true
		report.OldName = oldName

		// Phase two: apply the catalog update.
		if entity == domain.EntityCustomer {
			if _, ok := tx.UpdateCustomer(id, domain.CustomerDraft{Name: &newName}); !ok {
				return fmt.Errorf("customer %s vanished mid-transaction", id)
			}
		} else {
			if _, ok := tx.UpdateProduct(id, domain.ProductDraft{Name: &newName}); !ok {
				return fmt.Errorf("product %s vanished mid-transaction", id)
			}
		}
		if oldName == newName {
			return nil
		}

		// Phase three: cascade through the active dataset only.
		if !hasActive {
			report.Skipped = true
			return nil
		}
		report.Dataset = active
		for _, inv := range tx.Snapshot().ListInvoices(active) {
			if !matchesReference(inv, entity, oldName) {
				continue
			}
			draft := domain.InvoiceDraft{}
			if entity == domain.EntityCustomer {
				draft.CustomerName = &newName
			} else {
				draft.ProductName = &newName
			}
			if _, ok := tx.UpdateInvoice(active, inv.ID, draft); ok {
				report.Updated++
			}
		}
		return nil
	})

	if err == nil && report.Found && report.Skipped {
		res.Merge(domain.Result{Warnings: []domain.Warning{{
			Code:     domain.WarnNoActiveDataset,
			Severity: domain.SeverityWarn,
			Message:  "catalog rename applied but no dataset is active; invoice references were not updated",
			Entity:   entity,
			EntityID: id,
		}}})
		s.logger.Warn("rename cascade skipped", "entity", string(entity), "id", id, "new_name", newName)
	}
	if err == nil && report.Found && !report.Skipped {
		s.logger.Info("catalog rename cascaded",
			"entity", string(entity),
			"id", id,
			"old_name", report.OldName,
			"new_name", newName,
			"dataset", report.Dataset,
			"invoices_updated", report.Updated)
	}
	s.observe(ctx, operation, start, err)
	return report, res, err
}

func findCatalogName(view domain.TransactionView, entity domain.EntityType, id string) (string, bool) {
	if entity == domain.EntityCustomer {
		if c, ok := view.FindCustomer(id); ok {
			return c.Name, true
		}
		return "", false
	}
	if p, ok := view.FindProduct(id); ok {
		return p.Name, true
	}
	return "", false
}

func matchesReference(inv domain.Invoice, entity domain.EntityType, name string) bool {
	if entity == domain.EntityCustomer {
		return inv.CustomerName == name
	}
	return inv.ProductName == name
}
