package core

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"invoiceledger/pkg/domain"
)

type memoryState struct {
	// datasets maps a dataset name to its invoices in insertion order.
	datasets map[string][]domain.Invoice
	// order tracks dataset creation order for stable listings. A rename keeps
	// the dataset's position.
	order     []string
	customers []domain.Customer
	products  []domain.Product
}

func newMemoryState() memoryState {
	return memoryState{
		datasets: make(map[string][]domain.Invoice),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for name, invoices := range s.datasets {
		cloned.datasets[name] = append([]domain.Invoice(nil), invoices...)
	}
	cloned.order = append([]string(nil), s.order...)
	cloned.customers = append([]domain.Customer(nil), s.customers...)
	cloned.products = append([]domain.Product(nil), s.products...)
	return cloned
}

// MemoryStore provides the in-memory transactional session store for the
// ledger and catalog. All state is resident for the session; snapshot drivers
// layer durability on top of the same semantics.
type MemoryStore struct {
	mu    sync.RWMutex
	state memoryState
	idFn  func() string
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: newMemoryState(),
		idFn:  uuid.NewString,
	}
}

func (s *MemoryStore) newID() string {
	return s.idFn()
}

// Transaction represents a mutation set staged against a copy of the store
// state. Nothing is visible to readers until the whole set commits.
type Transaction struct {
	store   *MemoryStore
	state   memoryState
	changes []domain.Change
	result  domain.Result
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy is swapped in only when fn returns nil, so a failed apply
// never leaves partial writes behind. The returned Result aggregates warnings
// recorded by the staged operations.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		store: s,
		state: s.state.clone(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	s.state = tx.state
	return tx.result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

// Changes returns the change records staged so far.
func (tx *Transaction) Changes() []domain.Change {
	return append([]domain.Change(nil), tx.changes...)
}

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *Transaction) warn(w domain.Warning) {
	tx.result.Warnings = append(tx.result.Warnings, w)
}

// Snapshot exposes the staged transactional state read-only.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return newTransactionView(&tx.state)
}

// CreateDataset registers a dataset name. Creating an existing name is a
// no-op, never an error.
func (tx *Transaction) CreateDataset(name string) {
	if _, ok := tx.state.datasets[name]; ok {
		return
	}
	tx.state.datasets[name] = nil
	tx.state.order = append(tx.state.order, name)
	tx.recordChange(domain.Change{Entity: domain.EntityDataset, Action: domain.ActionCreate, Dataset: name})
}

// DeleteDataset removes the dataset and every invoice it owns. Deleting an
// unknown name is a no-op.
func (tx *Transaction) DeleteDataset(name string) {
	invoices, ok := tx.state.datasets[name]
	if !ok {
		return
	}
	delete(tx.state.datasets, name)
	for i, existing := range tx.state.order {
		if existing == name {
			tx.state.order = append(tx.state.order[:i], tx.state.order[i+1:]...)
			break
		}
	}
	tx.recordChange(domain.Change{Entity: domain.EntityDataset, Action: domain.ActionDelete, Dataset: name, Before: invoices})
}

// RenameDataset moves the dataset key in a single step: the invoices slice is
// re-bound under the new name and the old key removed within the same staged
// state, so no intermediate state is ever observable. A taken target name
// rejects the rename.
func (tx *Transaction) RenameDataset(oldName, newName string) domain.RenameOutcome {
	if oldName == newName {
		return domain.RenameUnchanged
	}
	invoices, ok := tx.state.datasets[oldName]
	if !ok {
		tx.warn(domain.Warning{
			Code:     domain.WarnDatasetMissing,
			Severity: domain.SeverityLog,
			Message:  "rename skipped: dataset " + oldName + " does not exist",
			Entity:   domain.EntityDataset,
			EntityID: oldName,
		})
		return domain.RenameSourceMissing
	}
	if _, taken := tx.state.datasets[newName]; taken {
		tx.warn(domain.Warning{
			Code:     domain.WarnDatasetNameConflict,
			Severity: domain.SeverityWarn,
			Message:  "rename rejected: dataset " + newName + " already exists",
			Entity:   domain.EntityDataset,
			EntityID: oldName,
		})
		return domain.RenameTargetExists
	}
	tx.state.datasets[newName] = invoices
	delete(tx.state.datasets, oldName)
	for i, existing := range tx.state.order {
		if existing == oldName {
			tx.state.order[i] = newName
			break
		}
	}
	tx.recordChange(domain.Change{Entity: domain.EntityDataset, Action: domain.ActionRename, Dataset: newName, Before: oldName, After: newName})
	return domain.RenameApplied
}

// AddInvoice appends an invoice to the named dataset, creating the dataset if
// it does not exist yet. A blank ID is replaced with a generated one.
func (tx *Transaction) AddInvoice(dataset string, inv domain.Invoice) domain.Invoice {
	tx.CreateDataset(dataset)
	if inv.ID == "" {
		inv.ID = tx.store.newID()
	}
	tx.state.datasets[dataset] = append(tx.state.datasets[dataset], inv)
	tx.recordChange(domain.Change{Entity: domain.EntityInvoice, Action: domain.ActionCreate, Dataset: dataset, After: inv})
	return inv
}

// AddInvoices appends a batch preserving order, creating the dataset if
// absent.
func (tx *Transaction) AddInvoices(dataset string, invs []domain.Invoice) []domain.Invoice {
	tx.CreateDataset(dataset)
	added := make([]domain.Invoice, 0, len(invs))
	for _, inv := range invs {
		added = append(added, tx.AddInvoice(dataset, inv))
	}
	return added
}

// UpdateInvoice applies a draft to the identified invoice. Missing dataset or
// id is tolerated as a no-op.
func (tx *Transaction) UpdateInvoice(dataset, id string, draft domain.InvoiceDraft) (domain.Invoice, bool) {
	invoices, ok := tx.state.datasets[dataset]
	if !ok {
		return domain.Invoice{}, false
	}
	for i, inv := range invoices {
		if inv.ID != id {
			continue
		}
		updated := draft.Apply(inv)
		updated.ID = id
		invoices[i] = updated
		tx.recordChange(domain.Change{Entity: domain.EntityInvoice, Action: domain.ActionUpdate, Dataset: dataset, Before: inv, After: updated})
		return updated, true
	}
	return domain.Invoice{}, false
}

// DeleteInvoice removes an invoice by id; unknown ids are tolerated.
func (tx *Transaction) DeleteInvoice(dataset, id string) bool {
	invoices, ok := tx.state.datasets[dataset]
	if !ok {
		return false
	}
	for i, inv := range invoices {
		if inv.ID != id {
			continue
		}
		tx.state.datasets[dataset] = append(invoices[:i:i], invoices[i+1:]...)
		tx.recordChange(domain.Change{Entity: domain.EntityInvoice, Action: domain.ActionDelete, Dataset: dataset, Before: inv})
		return true
	}
	return false
}

// AddCustomers bulk-appends catalog customers. Duplicate names across records
// are allowed; reconciling them is the consistency layer's concern.
func (tx *Transaction) AddCustomers(customers []domain.Customer) []domain.Customer {
	added := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if c.ID == "" {
			c.ID = tx.store.newID()
		}
		tx.state.customers = append(tx.state.customers, c)
		tx.recordChange(domain.Change{Entity: domain.EntityCustomer, Action: domain.ActionCreate, After: c})
		added = append(added, c)
	}
	return added
}

// AddProducts bulk-appends catalog products.
func (tx *Transaction) AddProducts(products []domain.Product) []domain.Product {
	added := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = tx.store.newID()
		}
		tx.state.products = append(tx.state.products, p)
		tx.recordChange(domain.Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: p})
		added = append(added, p)
	}
	return added
}

// UpdateCustomer applies a draft by id. An absent id is a no-op, mirroring a
// session where the record was deleted concurrently.
func (tx *Transaction) UpdateCustomer(id string, draft domain.CustomerDraft) (domain.Customer, bool) {
	for i, c := range tx.state.customers {
		if c.ID != id {
			continue
		}
		updated := draft.Apply(c)
		updated.ID = id
		tx.state.customers[i] = updated
		tx.recordChange(domain.Change{Entity: domain.EntityCustomer, Action: domain.ActionUpdate, Before: c, After: updated})
		return updated, true
	}
	return domain.Customer{}, false
}

// UpdateProduct applies a draft by id; absent ids are tolerated.
func (tx *Transaction) UpdateProduct(id string, draft domain.ProductDraft) (domain.Product, bool) {
	for i, p := range tx.state.products {
		if p.ID != id {
			continue
		}
		updated := draft.Apply(p)
		updated.ID = id
		tx.state.products[i] = updated
		tx.recordChange(domain.Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: p, After: updated})
		return updated, true
	}
	return domain.Product{}, false
}

// transactionView adapts a memoryState to the read-only view contract.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) domain.TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListDatasets() []string {
	return append([]string(nil), v.state.order...)
}

func (v transactionView) HasDataset(name string) bool {
	_, ok := v.state.datasets[name]
	return ok
}

func (v transactionView) ListInvoices(dataset string) []domain.Invoice {
	invoices, ok := v.state.datasets[dataset]
	if !ok {
		return []domain.Invoice{}
	}
	return append([]domain.Invoice(nil), invoices...)
}

func (v transactionView) FindInvoice(dataset, id string) (domain.Invoice, bool) {
	for _, inv := range v.state.datasets[dataset] {
		if inv.ID == id {
			return inv, true
		}
	}
	return domain.Invoice{}, false
}

func (v transactionView) ListCustomers() []domain.Customer {
	return append([]domain.Customer(nil), v.state.customers...)
}

func (v transactionView) ListProducts() []domain.Product {
	return append([]domain.Product(nil), v.state.products...)
}

func (v transactionView) FindCustomer(id string) (domain.Customer, bool) {
	for _, c := range v.state.customers {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Customer{}, false
}

func (v transactionView) FindProduct(id string) (domain.Product, bool) {
	for _, p := range v.state.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Read helpers ---------------------------------------------------------------

// ListDatasets returns live dataset names in creation order.
func (s *MemoryStore) ListDatasets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.order...)
}

// HasDataset reports whether the named dataset exists.
func (s *MemoryStore) HasDataset(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state.datasets[name]
	return ok
}

// ListInvoices returns the dataset's invoices in insertion order, or an empty
// slice when the dataset does not exist.
func (s *MemoryStore) ListInvoices(dataset string) []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoices, ok := s.state.datasets[dataset]
	if !ok {
		return []domain.Invoice{}
	}
	return append([]domain.Invoice(nil), invoices...)
}

// GetInvoice retrieves an invoice by dataset and id from committed state.
func (s *MemoryStore) GetInvoice(dataset, id string) (domain.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.state.datasets[dataset] {
		if inv.ID == id {
			return inv, true
		}
	}
	return domain.Invoice{}, false
}

// ListCustomers returns all catalog customers in insertion order.
func (s *MemoryStore) ListCustomers() []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Customer(nil), s.state.customers...)
}

// ListProducts returns all catalog products in insertion order.
func (s *MemoryStore) ListProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.state.products...)
}

// GetCustomer retrieves a catalog customer by id from committed state.
func (s *MemoryStore) GetCustomer(id string) (domain.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.customers {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Customer{}, false
}

// GetProduct retrieves a catalog product by id from committed state.
func (s *MemoryStore) GetProduct(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.state.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
