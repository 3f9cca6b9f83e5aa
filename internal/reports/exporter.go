package reports

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoiceledger/internal/blob"
	"invoiceledger/pkg/domain"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact captures a stored report artifact.
type ExportArtifact struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	Rows        int       `json:"rows"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportRecord tracks an export request and resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Dataset     string           `json:"dataset"`
	Formats     []Format         `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

func (r ExportRecord) copy() ExportRecord {
	out := r
	out.Formats = append([]Format(nil), r.Formats...)
	out.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Dataset     string
	Formats     []Format
	RequestedBy string
	Reason      string
}

// InvoiceSource supplies the invoice rows to render. Satisfied by
// core.Service.
type InvoiceSource interface {
	ListDatasets() []string
	ListInvoices(dataset string) []domain.Invoice
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor,omitempty"`
	Dataset    string         `json:"dataset"`
	Status     ExportStatus   `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Worker executes report exports asynchronously. Artifacts land in the blob
// store under exports/<record-id>/.
type Worker struct {
	source InvoiceSource
	store  blob.Store
	audit  AuditLogger

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	nowFn  func() time.Time
}

type exportTask struct {
	id    string
	input ExportInput
}

// NewWorker constructs an export worker. The blob store and audit logger are
// optional; without a store rendered artifacts are kept only as metadata.
func NewWorker(source InvoiceSource, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan exportTask, 32),
		jobs:   make(map[string]*ExportRecord),
		ctx:    ctx,
		cancel: cancel,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.source == nil {
		return ExportRecord{}, fmt.Errorf("export source not configured")
	}
	dataset := strings.TrimSpace(input.Dataset)
	if dataset == "" {
		return ExportRecord{}, fmt.Errorf("dataset name required")
	}
	if !w.hasDataset(dataset) {
		return ExportRecord{}, fmt.Errorf("dataset %s not found", dataset)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		switch format {
		case FormatCSV, FormatJSON, FormatPDF:
		default:
			return ExportRecord{}, fmt.Errorf("unsupported report format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := uuid.NewString()
	now := w.nowFn()
	record := ExportRecord{
		ID:          id,
		Dataset:     dataset,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- exportTask{id: id, input: input}:
	default:
		w.mu.Lock()
		delete(w.jobs, id)
		w.mu.Unlock()
		return ExportRecord{}, fmt.Errorf("export queue full")
	}

	w.recordAudit(ctx, id, ExportStatusQueued, nil)
	return queued, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

// ListExports returns snapshots of all known export records.
func (w *Worker) ListExports() []ExportRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]ExportRecord, 0, len(w.jobs))
	for _, record := range w.jobs {
		out = append(out, record.copy())
	}
	return out
}

func (w *Worker) process(task exportTask) {
	w.mu.RLock()
	record, ok := w.jobs[task.id]
	var formats []Format
	var dataset string
	if ok {
		formats = append([]Format(nil), record.Formats...)
		dataset = record.Dataset
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(task.id, ExportStatusRunning, "")

	invoices := w.source.ListInvoices(dataset)
	generatedAt := w.nowFn()

	artifacts := make([]ExportArtifact, 0, len(formats))
	for _, format := range formats {
		payload, err := Render(format, dataset, invoices, generatedAt)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		artifact := ExportArtifact{
			ID:          uuid.NewString(),
			Format:      format,
			ContentType: format.ContentType(),
			SizeBytes:   int64(len(payload)),
			Rows:        len(invoices),
			CreatedAt:   generatedAt,
		}
		artifact.Key = fmt.Sprintf("exports/%s/%s.%s", task.id, artifact.ID, format.Extension())
		if w.store != nil {
			info, err := w.store.Put(w.ctx, artifact.Key, bytes.NewReader(payload), blob.PutOptions{
				ContentType: artifact.ContentType,
				Metadata:    map[string]string{"dataset": dataset, "export": task.id},
			})
			if err != nil {
				w.fail(task.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			artifact.SizeBytes = info.Size
			artifact.URL = info.URL
			if url, err := w.store.PresignURL(w.ctx, artifact.Key, blob.SignedURLOptions{}); err == nil {
				artifact.URL = url
			}
		}
		artifacts = append(artifacts, artifact)
	}

	w.complete(task.id, artifacts)
}

func (w *Worker) hasDataset(name string) bool {
	for _, dataset := range w.source.ListDatasets() {
		if dataset == name {
			return true
		}
	}
	return false
}

func (w *Worker) updateStatus(id string, status ExportStatus, message string) {
	now := w.nowFn()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, status, nil)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := w.nowFn()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ExportStatusSucceeded, map[string]any{"artifacts": len(artifacts)})
}

func (w *Worker) fail(id, reason string) {
	now := w.nowFn()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ExportStatusFailed, map[string]any{"error": reason})
}

func (w *Worker) recordAudit(ctx context.Context, id string, status ExportStatus, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	var actor, dataset, reason string
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		dataset = record.Dataset
		reason = record.Reason
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     "report_export",
		Actor:      actor,
		Dataset:    dataset,
		Status:     status,
		Reason:     reason,
		Metadata:   metadata,
		OccurredAt: w.nowFn(),
	})
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
