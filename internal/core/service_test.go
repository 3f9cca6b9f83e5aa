package core

import (
	"context"
	"testing"
	"time"

	"invoiceledger/pkg/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestStore())
}

func seedCascadeFixture(t *testing.T, svc *Service) (customerID, productID string) {
	t.Helper()
	ctx := context.Background()

	customers, err := svc.AddCustomers(ctx, []domain.Customer{
		{Name: "Acme", PhoneNumber: "555-0101", TotalPurchaseAmount: 300},
	})
	if err != nil {
		t.Fatalf("add customers: %v", err)
	}
	products, err := svc.AddProducts(ctx, []domain.Product{
		{Name: "Widget", TotalQuantity: 4, UnitPrice: 50, PriceWithTax: 59},
	})
	if err != nil {
		t.Fatalf("add products: %v", err)
	}

	active := []domain.Invoice{
		invoice("a1", "INV-001", "Acme", "Widget"),
		invoice("a2", "INV-002", "Acme", "Gadget"),
		invoice("a3", "INV-003", "Other", "Widget"),
		invoice("a4", "INV-004", "Acme", "Widget"),
	}
	if _, _, err := svc.AddInvoices(ctx, "march", active); err != nil {
		t.Fatalf("seed march: %v", err)
	}
	inactive := []domain.Invoice{
		invoice("b1", "INV-005", "Acme", "Widget"),
	}
	if _, _, err := svc.AddInvoices(ctx, "april", inactive); err != nil {
		t.Fatalf("seed april: %v", err)
	}
	return customers[0].ID, products[0].ID
}

func TestRenameCustomerCascadesActiveDatasetOnly(t *testing.T) {
	svc := newTestService(t)
	customerID, _ := seedCascadeFixture(t, svc)
	svc.SetActiveDataset("march")

	report, res, err := svc.RenameCustomer(context.Background(), customerID, "Acme Corp")
	if err != nil {
		t.Fatalf("rename customer: %v", err)
	}
	if !report.Found || report.Skipped {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.OldName != "Acme" || report.Dataset != "march" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Updated != 3 {
		t.Fatalf("expected 3 invoices updated, got %d", report.Updated)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("cascade with active dataset should not warn: %v", res.Warnings)
	}

	customers := svc.ListCustomers()
	if customers[0].Name != "Acme Corp" {
		t.Fatalf("catalog not renamed: %v", customers)
	}
	for _, inv := range svc.ListInvoices("march") {
		if inv.CustomerName == "Acme" {
			t.Fatalf("active dataset invoice kept old name: %+v", inv)
		}
	}
	// The inactive dataset keeps the stale reference.
	april := svc.ListInvoices("april")
	if april[0].CustomerName != "Acme" {
		t.Fatalf("inactive dataset must keep old name: %+v", april[0])
	}
	// Non-matching invoices are untouched.
	if got, _ := svc.Store().GetInvoice("march", "a3"); got.CustomerName != "Other" {
		t.Fatalf("non-matching invoice rewritten: %+v", got)
	}
}

func TestRenameProductCascade(t *testing.T) {
	svc := newTestService(t)
	_, productID := seedCascadeFixture(t, svc)
	svc.SetActiveDataset("march")

	report, _, err := svc.RenameProduct(context.Background(), productID, "Widget Pro")
	if err != nil {
		t.Fatalf("rename product: %v", err)
	}
	if report.Updated != 3 {
		t.Fatalf("expected 3 invoices updated, got %d", report.Updated)
	}
	if got, _ := svc.Store().GetInvoice("march", "a2"); got.ProductName != "Gadget" {
		t.Fatalf("unrelated product reference rewritten: %+v", got)
	}
}

func TestRenameCustomerWithoutActiveDatasetWarns(t *testing.T) {
	svc := newTestService(t)
	customerID, _ := seedCascadeFixture(t, svc)

	report, res, err := svc.RenameCustomer(context.Background(), customerID, "Acme Corp")
	if err != nil {
		t.Fatalf("rename customer: %v", err)
	}
	if !report.Found || !report.Skipped || report.Updated != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !res.Has(domain.WarnNoActiveDataset) {
		t.Fatalf("expected no_active_dataset warning: %v", res.Warnings)
	}
	// Catalog rename still applies.
	if svc.ListCustomers()[0].Name != "Acme Corp" {
		t.Fatalf("catalog rename skipped")
	}
	// Ledger references are left behind everywhere.
	if got, _ := svc.Store().GetInvoice("march", "a1"); got.CustomerName != "Acme" {
		t.Fatalf("skipped cascade rewrote invoice: %+v", got)
	}
}

func TestRenameCustomerUnknownID(t *testing.T) {
	svc := newTestService(t)
	seedCascadeFixture(t, svc)
	svc.SetActiveDataset("march")

	report, res, err := svc.RenameCustomer(context.Background(), "ghost", "Nobody")
	if err != nil {
		t.Fatalf("rename customer: %v", err)
	}
	if report.Found {
		t.Fatalf("unknown id must report not found: %+v", report)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unknown id should not warn: %v", res.Warnings)
	}
	if got, _ := svc.Store().GetInvoice("march", "a1"); got.CustomerName != "Acme" {
		t.Fatalf("unknown id rename touched invoices: %+v", got)
	}
}

func TestRenameToSameNameSkipsCascade(t *testing.T) {
	svc := newTestService(t)
	customerID, _ := seedCascadeFixture(t, svc)
	svc.SetActiveDataset("march")

	report, res, err := svc.RenameCustomer(context.Background(), customerID, "Acme")
	if err != nil {
		t.Fatalf("rename customer: %v", err)
	}
	if report.Updated != 0 {
		t.Fatalf("same-name rename must not rewrite invoices: %+v", report)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("same-name rename should not warn: %v", res.Warnings)
	}
}

func TestActiveDatasetFollowsRenameAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateDataset(ctx, "march"); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.SetActiveDataset("march")

	outcome, _, err := svc.RenameDataset(ctx, "march", "q1")
	if err != nil || outcome != domain.RenameApplied {
		t.Fatalf("rename: outcome=%v err=%v", outcome, err)
	}
	if active, ok := svc.ActiveDataset(); !ok || active != "q1" {
		t.Fatalf("active context did not follow rename: %q %v", active, ok)
	}

	if _, err := svc.DeleteDataset(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := svc.ActiveDataset(); ok {
		t.Fatalf("deleting the active dataset must clear the context")
	}
}

func TestActiveDatasetUnaffectedByOtherRenames(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateDataset(ctx, "march"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateDataset(ctx, "april"); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.SetActiveDataset("march")
	if _, _, err := svc.RenameDataset(ctx, "april", "q2"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if active, _ := svc.ActiveDataset(); active != "march" {
		t.Fatalf("unrelated rename moved active context: %q", active)
	}
}

func TestApplyExtractionResult(t *testing.T) {
	svc := newTestService(t)
	result := domain.ExtractionResult{
		Invoices: []domain.Invoice{
			invoice("", "INV-001", "Acme", "Widget"),
			invoice("", "INV-002", "Acme", "Widget"),
		},
		Products:  []domain.Product{{Name: "Widget", TotalQuantity: 2, UnitPrice: 100, PriceWithTax: 118}},
		Customers: []domain.Customer{{Name: "Acme", PhoneNumber: "555", TotalPurchaseAmount: 200}},
	}

	summary, _, err := svc.ApplyExtractionResult(context.Background(), "imported", result)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if summary.Dataset != "imported" || summary.Invoices != 2 || summary.Products != 1 || summary.Customers != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := svc.ListInvoices("imported"); len(got) != 2 || got[0].ID == "" {
		t.Fatalf("unexpected invoices: %v", got)
	}
	if len(svc.ListProducts()) != 1 || len(svc.ListCustomers()) != 1 {
		t.Fatalf("catalog not populated")
	}
}

func TestApplyExtractionResultEmptyDatasetStillCreated(t *testing.T) {
	svc := newTestService(t)
	summary, _, err := svc.ApplyExtractionResult(context.Background(), "empty", domain.ExtractionResult{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if summary.Invoices != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := svc.ListDatasets(); len(got) != 1 || got[0] != "empty" {
		t.Fatalf("dataset not created for empty result: %v", got)
	}
}

func TestServiceMetricsObserved(t *testing.T) {
	recorder := &captureRecorder{}
	svc := NewService(newTestStore(), WithMetrics(recorder))
	if _, err := svc.CreateDataset(context.Background(), "march"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(recorder.operations) != 1 || recorder.operations[0] != "create_dataset" {
		t.Fatalf("unexpected observations: %v", recorder.operations)
	}
	if !recorder.successes[0] {
		t.Fatalf("expected success observation")
	}
}

type captureRecorder struct {
	operations []string
	successes  []bool
}

func (c *captureRecorder) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	c.operations = append(c.operations, operation)
	c.successes = append(c.successes, success)
}
