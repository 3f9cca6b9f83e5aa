package domain

import "testing"

func TestInvoiceValidate(t *testing.T) {
	complete := Invoice{
		SerialNumber: "INV-001",
		CustomerName: "Acme",
		ProductName:  "Widget",
		Quantity:     2,
		Tax:          18,
		TotalAmount:  236,
		Date:         "2024-11-12",
	}
	if got := complete.Validate(); got != StatusComplete {
		t.Fatalf("expected complete, got %s", got)
	}

	cases := map[string]func(Invoice) Invoice{
		"no serial":   func(i Invoice) Invoice { i.SerialNumber = ""; return i },
		"no customer": func(i Invoice) Invoice { i.CustomerName = ""; return i },
		"no product":  func(i Invoice) Invoice { i.ProductName = ""; return i },
		"no quantity": func(i Invoice) Invoice { i.Quantity = 0; return i },
		"no amount":   func(i Invoice) Invoice { i.TotalAmount = 0; return i },
		"no date":     func(i Invoice) Invoice { i.Date = ""; return i },
	}
	for name, mutate := range cases {
		if got := mutate(complete).Validate(); got != StatusMissingFields {
			t.Fatalf("%s: expected missing_fields, got %s", name, got)
		}
	}

	taxFree := complete
	taxFree.Tax = 0
	if got := taxFree.Validate(); got != StatusComplete {
		t.Fatalf("zero tax should stay complete, got %s", got)
	}
}

func TestProductValidate(t *testing.T) {
	complete := Product{Name: "Widget", TotalQuantity: 5, UnitPrice: 100, PriceWithTax: 118}
	if got := complete.Validate(); got != StatusComplete {
		t.Fatalf("expected complete, got %s", got)
	}
	missing := complete
	missing.PriceWithTax = 0
	if got := missing.Validate(); got != StatusMissingFields {
		t.Fatalf("expected missing_fields, got %s", got)
	}
	// Discount and tax are not required fields.
	noExtras := complete
	noExtras.Discount = ""
	noExtras.Tax = 0
	if got := noExtras.Validate(); got != StatusComplete {
		t.Fatalf("discount/tax should not affect validation, got %s", got)
	}
}

func TestCustomerValidate(t *testing.T) {
	complete := Customer{Name: "Acme", PhoneNumber: "555-0101", TotalPurchaseAmount: 420}
	if got := complete.Validate(); got != StatusComplete {
		t.Fatalf("expected complete, got %s", got)
	}
	// CompanyName is optional.
	complete.CompanyName = ""
	if got := complete.Validate(); got != StatusComplete {
		t.Fatalf("company name should be optional, got %s", got)
	}
	missing := complete
	missing.PhoneNumber = ""
	if got := missing.Validate(); got != StatusMissingFields {
		t.Fatalf("expected missing_fields, got %s", got)
	}
}

func TestInvoiceDraftApply(t *testing.T) {
	inv := Invoice{
		ID:           "inv-1",
		SerialNumber: "INV-001",
		CustomerName: "Acme",
		ProductName:  "Widget",
		Quantity:     2,
		TotalAmount:  200,
		Date:         "2024-11-12",
		Status:       StatusComplete,
	}

	updated := InvoiceDraft{CustomerName: String("Globex")}.Apply(inv)
	if updated.CustomerName != "Globex" {
		t.Fatalf("customer name not patched: %+v", updated)
	}
	if updated.SerialNumber != "INV-001" || updated.Quantity != 2 {
		t.Fatalf("unset fields must not change: %+v", updated)
	}
	if updated.Status != StatusComplete {
		t.Fatalf("still complete after patch, got %s", updated.Status)
	}

	// Clearing a required field recomputes status.
	cleared := InvoiceDraft{Date: String("")}.Apply(inv)
	if cleared.Status != StatusMissingFields {
		t.Fatalf("expected recomputed missing_fields, got %s", cleared.Status)
	}

	// An explicit status pin wins over recomputation.
	pinned := InvoiceDraft{Date: String(""), Status: statusPtr(StatusComplete)}.Apply(inv)
	if pinned.Status != StatusComplete {
		t.Fatalf("pinned status overridden: %s", pinned.Status)
	}

	// An empty draft changes nothing, including status.
	stale := inv
	stale.Status = StatusMissingFields
	untouched := InvoiceDraft{}.Apply(stale)
	if untouched != stale {
		t.Fatalf("empty draft mutated the invoice: %+v", untouched)
	}
}

func TestCustomerAndProductDraftApply(t *testing.T) {
	c := Customer{ID: "c-1", Name: "Acme", PhoneNumber: "555-0101", TotalPurchaseAmount: 10}
	renamed := CustomerDraft{Name: String("Acme Corp")}.Apply(c)
	if renamed.Name != "Acme Corp" || renamed.PhoneNumber != "555-0101" {
		t.Fatalf("unexpected customer after draft: %+v", renamed)
	}

	p := Product{ID: "p-1", Name: "Widget", TotalQuantity: 3, UnitPrice: 10, PriceWithTax: 11.8}
	cheaper := ProductDraft{UnitPrice: Float(8)}.Apply(p)
	if cheaper.UnitPrice != 8 || cheaper.Name != "Widget" {
		t.Fatalf("unexpected product after draft: %+v", cheaper)
	}
}

func TestResultMergeAndHas(t *testing.T) {
	var r Result
	r.Merge(Result{})
	if len(r.Warnings) != 0 {
		t.Fatalf("merge of empty result added warnings")
	}
	r.Merge(Result{Warnings: []Warning{{Code: WarnPartialExtraction, Severity: SeverityWarn}}})
	if !r.Has(WarnPartialExtraction) {
		t.Fatalf("expected partial_extraction warning")
	}
	if r.Has(WarnNoActiveDataset) {
		t.Fatalf("unexpected no_active_dataset warning")
	}
}

func statusPtr(s Status) *Status { return &s }
