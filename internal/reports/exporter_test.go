package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"invoiceledger/internal/blob"
	"invoiceledger/pkg/domain"
)

type stubSource struct {
	datasets map[string][]domain.Invoice
	order    []string
}

func newStubSource() *stubSource {
	return &stubSource{
		datasets: map[string][]domain.Invoice{
			"march": {
				{ID: "inv-1", SerialNumber: "INV-001", CustomerName: "Acme", ProductName: "Widget", Quantity: 2, Tax: 18, TotalAmount: 236, Date: "2024-11-12", Status: domain.StatusComplete},
			},
		},
		order: []string{"march"},
	}
}

func (s *stubSource) ListDatasets() []string { return s.order }

func (s *stubSource) ListInvoices(dataset string) []domain.Invoice {
	return s.datasets[dataset]
}

func waitForExport(t *testing.T, w *Worker, id string) ExportRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := w.GetExport(id)
		if !ok {
			t.Fatalf("export %s vanished", id)
		}
		if record.Status == ExportStatusSucceeded || record.Status == ExportStatusFailed {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("export %s did not finish", id)
	return ExportRecord{}
}

func TestWorkerExportLifecycle(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	audit := &MemoryAuditLog{}
	worker := NewWorker(newStubSource(), store, audit)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.EnqueueExport(ctx, ExportInput{
		Dataset:     "march",
		Formats:     []Format{FormatCSV, FormatJSON, FormatPDF},
		RequestedBy: "reporting",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued.Status != ExportStatusQueued || len(queued.Formats) != 3 {
		t.Fatalf("unexpected queued record: %+v", queued)
	}

	record := waitForExport(t, worker, queued.ID)
	if record.Status != ExportStatusSucceeded {
		t.Fatalf("export failed: %+v", record)
	}
	if len(record.Artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %+v", record.Artifacts)
	}
	if record.CompletedAt == nil {
		t.Fatalf("completed export must carry a completion time")
	}
	for _, artifact := range record.Artifacts {
		if artifact.Rows != 1 || artifact.SizeBytes == 0 {
			t.Fatalf("unexpected artifact: %+v", artifact)
		}
		if _, err := store.Head(ctx, artifact.Key); err != nil {
			t.Fatalf("artifact %s not stored: %v", artifact.Key, err)
		}
	}

	stored, err := store.List(ctx, "exports/"+queued.ID+"/")
	if err != nil || len(stored) != 3 {
		t.Fatalf("blob listing: %v err=%v", stored, err)
	}

	entries := audit.Entries()
	if len(entries) < 3 {
		t.Fatalf("expected queued/running/succeeded audit entries, got %v", entries)
	}
	last := entries[len(entries)-1]
	if last.Status != ExportStatusSucceeded || last.Dataset != "march" || last.Actor != "reporting" {
		t.Fatalf("unexpected final audit entry: %+v", last)
	}
}

func TestWorkerDefaultsFormats(t *testing.T) {
	worker := NewWorker(newStubSource(), blob.NewMemory(), nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.EnqueueExport(context.Background(), ExportInput{Dataset: "march"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(queued.Formats) != 2 || queued.Formats[0] != FormatJSON || queued.Formats[1] != FormatCSV {
		t.Fatalf("unexpected default formats: %v", queued.Formats)
	}
	record := waitForExport(t, worker, queued.ID)
	if record.Status != ExportStatusSucceeded {
		t.Fatalf("export failed: %+v", record)
	}
}

func TestWorkerRejectsBadInput(t *testing.T) {
	worker := NewWorker(newStubSource(), nil, nil)

	if _, err := worker.EnqueueExport(context.Background(), ExportInput{Dataset: ""}); err == nil {
		t.Fatalf("empty dataset must be rejected")
	}
	if _, err := worker.EnqueueExport(context.Background(), ExportInput{Dataset: "nope"}); err == nil {
		t.Fatalf("unknown dataset must be rejected")
	}
	if _, err := worker.EnqueueExport(context.Background(), ExportInput{Dataset: "march", Formats: []Format{"xml"}}); err == nil {
		t.Fatalf("unknown format must be rejected")
	}
}

func TestWorkerDeduplicatesFormats(t *testing.T) {
	worker := NewWorker(newStubSource(), blob.NewMemory(), nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.EnqueueExport(context.Background(), ExportInput{
		Dataset: "march",
		Formats: []Format{FormatCSV, FormatCSV, FormatJSON},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(queued.Formats) != 2 {
		t.Fatalf("formats not deduplicated: %v", queued.Formats)
	}
	record := waitForExport(t, worker, queued.ID)
	if len(record.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts: %+v", record.Artifacts)
	}
}

func TestWorkerGetExportUnknown(t *testing.T) {
	worker := NewWorker(newStubSource(), nil, nil)
	if _, ok := worker.GetExport("ghost"); ok {
		t.Fatalf("unknown export id must not resolve")
	}
}

func TestEnqueueExportQueueFullLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	// The worker is never started, so the queue fills up and the overflow
	// request is rejected. Rejected requests must not linger as queued jobs.
	worker := NewWorker(newStubSource(), blob.NewMemory(), nil)

	accepted := 0
	for {
		_, err := worker.EnqueueExport(ctx, ExportInput{Dataset: "march"})
		if err != nil {
			if !strings.Contains(err.Error(), "queue full") {
				t.Fatalf("unexpected enqueue error: %v", err)
			}
			break
		}
		accepted++
		if accepted > 1000 {
			t.Fatalf("queue never filled")
		}
	}

	records := worker.ListExports()
	if len(records) != accepted {
		t.Fatalf("expected %d records after rejection, got %d", accepted, len(records))
	}
	for _, record := range records {
		if record.Status != ExportStatusQueued {
			t.Fatalf("unexpected status %s for record %s", record.Status, record.ID)
		}
	}
}
