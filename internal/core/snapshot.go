package core

import (
	"sort"

	"invoiceledger/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.PersistentStore = (*MemoryStore)(nil)
	_ domain.Transaction     = (*Transaction)(nil)
)

// Snapshot is the serializable form of the full session state. Snapshot
// drivers persist it as JSON blobs after every successful transaction and
// hydrate a fresh store from it on startup.
type Snapshot struct {
	Datasets     map[string][]domain.Invoice `json:"datasets"`
	DatasetOrder []string                    `json:"dataset_order"`
	Customers    []domain.Customer           `json:"customers"`
	Products     []domain.Product            `json:"products"`
}

// ExportState copies the committed state into a snapshot.
func (s *MemoryStore) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return Snapshot{
		Datasets:     cloned.datasets,
		DatasetOrder: cloned.order,
		Customers:    cloned.customers,
		Products:     cloned.products,
	}
}

// ImportState replaces the committed state with the snapshot contents.
// Datasets present in the map but missing from the order list are appended at
// the end so older snapshots stay loadable.
func (s *MemoryStore) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newMemoryState()
	for name, invoices := range snapshot.Datasets {
		state.datasets[name] = append([]domain.Invoice(nil), invoices...)
	}
	for _, name := range snapshot.DatasetOrder {
		if _, ok := state.datasets[name]; ok {
			state.order = append(state.order, name)
		}
	}
	var leftovers []string
	for name := range state.datasets {
		if !containsString(state.order, name) {
			leftovers = append(leftovers, name)
		}
	}
	sort.Strings(leftovers)
	state.order = append(state.order, leftovers...)
	state.customers = append([]domain.Customer(nil), snapshot.Customers...)
	state.products = append([]domain.Product(nil), snapshot.Products...)
	s.state = state
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
