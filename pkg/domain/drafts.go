package domain

// Drafts model in-progress edits: every field is optional and nothing is
// validated until the draft is applied inside a transaction. Apply patches
// only the fields that were set and returns the revalidated record.

// InvoiceDraft is a partial invoice edit.
type InvoiceDraft struct {
	SerialNumber *string
	CustomerName *string
	ProductName  *string
	Quantity     *int
	Tax          *float64
	TotalAmount  *float64
	Date         *string
	Status       *Status
}

// Apply patches the set fields onto inv. The status is only recomputed when
// the draft does not set it explicitly and at least one field changed.
func (d InvoiceDraft) Apply(inv Invoice) Invoice {
	if d.SerialNumber != nil {
		inv.SerialNumber = *d.SerialNumber
	}
	if d.CustomerName != nil {
		inv.CustomerName = *d.CustomerName
	}
	if d.ProductName != nil {
		inv.ProductName = *d.ProductName
	}
	if d.Quantity != nil {
		inv.Quantity = *d.Quantity
	}
	if d.Tax != nil {
		inv.Tax = *d.Tax
	}
	if d.TotalAmount != nil {
		inv.TotalAmount = *d.TotalAmount
	}
	if d.Date != nil {
		inv.Date = *d.Date
	}
	if d.Status != nil {
		inv.Status = *d.Status
	} else if !d.empty() {
		inv.Status = inv.Validate()
	}
	return inv
}

func (d InvoiceDraft) empty() bool {
	return d.SerialNumber == nil && d.CustomerName == nil && d.ProductName == nil &&
		d.Quantity == nil && d.Tax == nil && d.TotalAmount == nil && d.Date == nil
}

// CustomerDraft is a partial customer edit.
type CustomerDraft struct {
	Name                *string
	PhoneNumber         *string
	CompanyName         *string
	TotalPurchaseAmount *float64
	Status              *Status
}

// Apply patches the set fields onto c and revalidates unless the draft pins
// the status itself.
func (d CustomerDraft) Apply(c Customer) Customer {
	if d.Name != nil {
		c.Name = *d.Name
	}
	if d.PhoneNumber != nil {
		c.PhoneNumber = *d.PhoneNumber
	}
	if d.CompanyName != nil {
		c.CompanyName = *d.CompanyName
	}
	if d.TotalPurchaseAmount != nil {
		c.TotalPurchaseAmount = *d.TotalPurchaseAmount
	}
	if d.Status != nil {
		c.Status = *d.Status
	} else if d.Name != nil || d.PhoneNumber != nil || d.CompanyName != nil || d.TotalPurchaseAmount != nil {
		c.Status = c.Validate()
	}
	return c
}

// ProductDraft is a partial product edit.
type ProductDraft struct {
	Name          *string
	TotalQuantity *int
	UnitPrice     *float64
	Discount      *string
	Tax           *float64
	PriceWithTax  *float64
	Status        *Status
}

// Apply patches the set fields onto p and revalidates unless the draft pins
// the status itself.
func (d ProductDraft) Apply(p Product) Product {
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.TotalQuantity != nil {
		p.TotalQuantity = *d.TotalQuantity
	}
	if d.UnitPrice != nil {
		p.UnitPrice = *d.UnitPrice
	}
	if d.Discount != nil {
		p.Discount = *d.Discount
	}
	if d.Tax != nil {
		p.Tax = *d.Tax
	}
	if d.PriceWithTax != nil {
		p.PriceWithTax = *d.PriceWithTax
	}
	if d.Status != nil {
		p.Status = *d.Status
	} else if d.Name != nil || d.TotalQuantity != nil || d.UnitPrice != nil ||
		d.Discount != nil || d.Tax != nil || d.PriceWithTax != nil {
		p.Status = p.Validate()
	}
	return p
}

// String returns a pointer to s, a convenience for building drafts.
func String(s string) *string { return &s }

// Int returns a pointer to n, a convenience for building drafts.
func Int(n int) *int { return &n }

// Float returns a pointer to f, a convenience for building drafts.
func Float(f float64) *float64 { return &f }
