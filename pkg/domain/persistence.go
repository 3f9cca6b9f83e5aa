package domain

import "context"

// RenameOutcome reports what a dataset rename did. All outcomes commit; none
// of them abort the surrounding transaction.
type RenameOutcome string

// Dataset rename outcomes.
const (
	// RenameApplied means the dataset was moved to the new name.
	RenameApplied RenameOutcome = "applied"
	// RenameUnchanged means old and new names were identical.
	RenameUnchanged RenameOutcome = "unchanged"
	// RenameSourceMissing means no dataset had the old name.
	RenameSourceMissing RenameOutcome = "source_missing"
	// RenameTargetExists means the target name is taken; the rename must
	// never overwrite another dataset's invoices.
	RenameTargetExists RenameOutcome = "target_exists"
)

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope. Ledger operations are deliberately forgiving: the
// store mirrors an interactive session where a concurrent delete is tolerated
// as a no-op rather than an error.
type Transaction interface {
	// CreateDataset is idempotent; creating an existing name is a no-op.
	CreateDataset(name string)
	// DeleteDataset removes the dataset and all its invoices; no-op if absent.
	DeleteDataset(name string)
	// RenameDataset moves the dataset key atomically. It refuses to overwrite
	// an existing target and reports what happened.
	RenameDataset(oldName, newName string) RenameOutcome
	// AddInvoice appends to the named dataset, creating it if absent. A blank
	// invoice ID is replaced with a generated one.
	AddInvoice(dataset string, inv Invoice) Invoice
	// AddInvoices appends a batch in order, creating the dataset if absent.
	AddInvoices(dataset string, invs []Invoice) []Invoice
	// UpdateInvoice applies a draft to the identified invoice. The boolean is
	// false when the dataset or invoice does not exist.
	UpdateInvoice(dataset, id string, draft InvoiceDraft) (Invoice, bool)
	// DeleteInvoice removes by id; false when nothing was removed.
	DeleteInvoice(dataset, id string) bool

	// AddCustomers bulk-appends catalog customers. No name deduplication.
	AddCustomers(customers []Customer) []Customer
	// AddProducts bulk-appends catalog products. No name deduplication.
	AddProducts(products []Product) []Product
	// UpdateCustomer applies a draft by id; false when the id is absent.
	UpdateCustomer(id string, draft CustomerDraft) (Customer, bool)
	// UpdateProduct applies a draft by id; false when the id is absent.
	UpdateProduct(id string, draft ProductDraft) (Product, bool)

	// Snapshot exposes the staged transactional state read-only.
	Snapshot() TransactionView
}

// TransactionView provides read-only access to ledger and catalog state.
type TransactionView interface {
	// ListDatasets returns live dataset names in creation order.
	ListDatasets() []string
	// HasDataset reports whether the named dataset exists.
	HasDataset(name string) bool
	// ListInvoices returns the dataset's invoices in insertion order, or an
	// empty slice when the dataset does not exist. It never fails.
	ListInvoices(dataset string) []Invoice
	// FindInvoice retrieves an invoice by dataset and id.
	FindInvoice(dataset, id string) (Invoice, bool)
	// ListCustomers returns all catalog customers in insertion order.
	ListCustomers() []Customer
	// ListProducts returns all catalog products in insertion order.
	ListProducts() []Product
	// FindCustomer retrieves a catalog customer by id.
	FindCustomer(id string) (Customer, bool)
	// FindProduct retrieves a catalog product by id.
	FindProduct(id string) (Product, bool)
}

// PersistentStore is a minimal abstraction over the session store. Mutations
// run through RunInTransaction; partial writes are never observable because
// implementations stage a full copy of the state and swap it in on success.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ListDatasets() []string
	HasDataset(name string) bool
	ListInvoices(dataset string) []Invoice
	GetInvoice(dataset, id string) (Invoice, bool)
	ListCustomers() []Customer
	ListProducts() []Product
	GetCustomer(id string) (Customer, bool)
	GetProduct(id string) (Product, bool)
}
