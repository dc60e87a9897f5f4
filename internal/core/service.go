package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/protesto/internal/logging"
)

// DefaultImportTimeout bounds one import when ServiceConfig.Timeout is zero.
var DefaultImportTimeout = 10 * time.Minute

// Record outcomes reported to Metrics.
const (
	OutcomeProcessed       = "processed"
	OutcomeValidationError = "validation_error"
	OutcomeProcessingError = "processing_error"
)

// Metrics receives import counters. internal/metrics provides the
// Prometheus implementation.
type Metrics interface {
	ImportFinished(status ImportStatus, elapsed time.Duration)
	ImportRejected(reason string)
	RecordsCounted(outcome string, n int)
}

type noopMetrics struct{}

func (noopMetrics) ImportFinished(ImportStatus, time.Duration) {}
func (noopMetrics) ImportRejected(string)                      {}
func (noopMetrics) RecordsCounted(string, int)                 {}

// ServiceConfig tunes the import service.
type ServiceConfig struct {
	StopOnProcessingError bool
	MaxConcurrent         int
	MaxWaitTime           time.Duration
	Timeout               time.Duration
}

// Service runs imports end to end and exposes the audit trail.
type Service struct {
	selector *Selector
	audit    *AuditRecorder
	store    AuditStore
	limiter  *ImportLimiter
	metrics  Metrics
	timeout  time.Duration
}

// NewService wires the default CSV and XML pipelines to uow and store.
// metrics may be nil.
func NewService(uow UnitOfWork, store AuditStore, cfg ServiceConfig, metrics Metrics) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}

	persister := NewOrchestrator(uow, cfg.StopOnProcessingError)
	return &Service{
		selector: NewSelector(DefaultPipelines(persister)...),
		audit:    NewAuditRecorder(store),
		store:    store,
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		metrics:  metrics,
		timeout:  timeout,
	}
}

// ImportRequest is one uploaded file.
type ImportRequest struct {
	FileName  string
	MediaType string
	Data      []byte
	UserID    string
}

// ImportResult is the outcome of a completed import. Log is authoritative
// about what was persisted.
type ImportResult struct {
	Log              *ImportAuditLog    `json:"log"`
	Report           ValidationReport   `json:"report"`
	ProcessingErrors []*ProcessingError `json:"-"`
}

// Import decodes, validates, transforms and persists one file.
//
// UnsupportedFormatError and DecodeError are returned before any audit row
// exists. Validation problems never produce an error; they are in the
// result and the audit log. When persistence stops early (cancellation or
// StopOnProcessingError) the finalized result is returned together with
// the cause.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		s.metrics.ImportRejected("busy")
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	logger := logging.WithFields(ctx,
		"file", req.FileName,
		"mime_type", req.MediaType,
		"size_bytes", len(req.Data),
	)

	pipeline, err := s.selector.Select(req.MediaType)
	if err != nil {
		s.metrics.ImportRejected("unsupported_format")
		logger.Warn("import rejected", "error", err)
		return nil, err
	}

	records, err := pipeline.Decoder.Decode(req.Data)
	if err != nil {
		s.metrics.ImportRejected("decode_error")
		logger.Warn("import rejected", "error", err)
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = GetUserIDFromContext(ctx)
	}
	log, err := s.audit.Start(ctx, ImportMeta{
		FileName:  req.FileName,
		MimeType:  req.MediaType,
		SizeBytes: int64(len(req.Data)),
		Checksum:  FileChecksum(req.Data),
		UserID:    userID,
	}, len(records))
	if err != nil {
		return nil, err
	}
	logger = logger.With("import_id", log.ID, "pipeline", pipeline.Name)
	logger.Info("import started", "records", len(records))

	report := pipeline.Validator.Validate(records)
	if err := s.audit.RecordValidation(ctx, log, report); err != nil {
		logger.Error("record validation", "error", err)
		if aerr := s.audit.Abort(context.WithoutCancel(ctx), log, err); aerr != nil {
			logger.Error("abort import log", "error", aerr)
		} else {
			s.metrics.ImportFinished(log.Status, time.Since(start))
		}
		return nil, err
	}
	logger.Info("validation finished",
		"valid", report.IsValid,
		"errors", len(report.Errors),
		"rows_with_errors", report.RowsWithErrors,
	)

	badRows := report.errorRows()
	canonical := make([]CanonicalFilingRecord, 0, len(records)-len(badRows))
	for i, rec := range records {
		if badRows[i+1] {
			continue
		}
		canonical = append(canonical, pipeline.Transformer.Transform(i+1, rec))
	}

	res := pipeline.Persister.Persist(ctx, canonical)
	for _, perr := range res.Errors {
		logger.Warn("record not persisted", "row", perr.Row, "error", perr.Err)
	}

	// The audit row is finalized even when ctx has expired.
	if err := s.audit.Finish(context.WithoutCancel(ctx), log, report, res); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.ImportFinished(log.Status, elapsed)
	s.metrics.RecordsCounted(OutcomeProcessed, res.Processed)
	s.metrics.RecordsCounted(OutcomeValidationError, len(badRows))
	s.metrics.RecordsCounted(OutcomeProcessingError, len(res.Errors)+len(res.Skipped))

	logger.Info("import completed",
		"status", log.Status,
		"total", log.TotalRecords,
		"processed", log.ProcessedRecords,
		"error_records", log.ErrorRecords,
		"duration", log.Duration,
	)

	result := &ImportResult{Log: log, Report: report, ProcessingErrors: res.Errors}
	if res.Err != nil {
		logger.Error("import stopped early", "error", res.Err)
		return result, res.Err
	}
	return result, nil
}

// Validate decodes and validates a file without persisting or auditing it.
func (s *Service) Validate(mediaType string, data []byte) (ValidationReport, []LogicalRecord, error) {
	pipeline, err := s.selector.Select(mediaType)
	if err != nil {
		return ValidationReport{}, nil, err
	}
	records, err := pipeline.Decoder.Decode(data)
	if err != nil {
		return ValidationReport{}, nil, err
	}
	return pipeline.Validator.Validate(records), records, nil
}

// GetImport returns one audit log. Unknown ids yield ErrNotFound.
func (s *Service) GetImport(ctx context.Context, id uuid.UUID) (*ImportAuditLog, error) {
	log, err := s.store.GetImportLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get import %s: %w", id, err)
	}
	return log, nil
}

// ListImports returns audit logs newest first.
func (s *Service) ListImports(ctx context.Context, limit, offset int) ([]ImportAuditLog, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 500:
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := s.store.ListImportLogs(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return logs, nil
}

// Formats returns the supported pipeline names.
func (s *Service) Formats() []string {
	return s.selector.Formats()
}

// LimiterStatus reports import concurrency.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for running imports to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
