package core

import (
	"sort"
	"strings"

	"invoiceledger/pkg/domain"
)

// SortColumn names an invoice column usable as a sort key. The set matches
// the columns of the exported report table.
type SortColumn string

// Sortable invoice columns.
const (
	SortByID           SortColumn = "id"
	SortBySerialNumber SortColumn = "serialNumber"
	SortByCustomerName SortColumn = "customerName"
	SortByProductName  SortColumn = "productName"
	SortByQuantity     SortColumn = "quantity"
	SortByTax          SortColumn = "tax"
	SortByTotalAmount  SortColumn = "totalAmount"
	SortByDate         SortColumn = "date"
	SortByStatus       SortColumn = "status"
)

// SortInvoices returns a sorted copy of invoices. The sort is stable so the
// dataset's insertion order is preserved among equal keys, and an unknown
// column leaves the insertion order untouched. String columns compare
// case-insensitively, matching how the catalog is browsed interactively.
func SortInvoices(invoices []domain.Invoice, column SortColumn, descending bool) []domain.Invoice {
	out := append([]domain.Invoice(nil), invoices...)
	less := lessFunc(column)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(column SortColumn) func(a, b domain.Invoice) bool {
	switch column {
	case SortByID:
		return func(a, b domain.Invoice) bool { return lessString(a.ID, b.ID) }
	case SortBySerialNumber:
		return func(a, b domain.Invoice) bool { return lessString(a.SerialNumber, b.SerialNumber) }
	case SortByCustomerName:
		return func(a, b domain.Invoice) bool { return lessString(a.CustomerName, b.CustomerName) }
	case SortByProductName:
		return func(a, b domain.Invoice) bool { return lessString(a.ProductName, b.ProductName) }
	case SortByQuantity:
		return func(a, b domain.Invoice) bool { return a.Quantity < b.Quantity }
	case SortByTax:
		return func(a, b domain.Invoice) bool { return a.Tax < b.Tax }
	case SortByTotalAmount:
		return func(a, b domain.Invoice) bool { return a.TotalAmount < b.TotalAmount }
	case SortByDate:
		return func(a, b domain.Invoice) bool { return lessString(a.Date, b.Date) }
	case SortByStatus:
		return func(a, b domain.Invoice) bool { return lessString(string(a.Status), string(b.Status)) }
	default:
		return nil
	}
}

func lessString(a, b string) bool {
	fa, fb := strings.ToLower(a), strings.ToLower(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}

// FilterInvoices returns the invoices matching keep, preserving order.
func FilterInvoices(invoices []domain.Invoice, keep func(domain.Invoice) bool) []domain.Invoice {
	out := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}

// ByCustomer matches invoices referencing the customer name exactly.
func ByCustomer(name string) func(domain.Invoice) bool {
	return func(inv domain.Invoice) bool { return inv.CustomerName == name }
}

// ByProduct matches invoices referencing the product name exactly.
func ByProduct(name string) func(domain.Invoice) bool {
	return func(inv domain.Invoice) bool { return inv.ProductName == name }
}

// ByStatus matches invoices with the given completeness status.
func ByStatus(status domain.Status) func(domain.Invoice) bool {
	return func(inv domain.Invoice) bool { return inv.Status == status }
}
