package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the outcome of an import.
type ImportStatus string

const (
	StatusSuccess ImportStatus = "SUCCESS"
	StatusPartial ImportStatus = "PARTIAL"
	StatusFailure ImportStatus = "FAILURE"
)

// ComputeStatus derives the status from record counts: FAILURE when every
// record failed, PARTIAL when some did, SUCCESS otherwise (including empty
// files).
func ComputeStatus(total, errorRecords int) ImportStatus {
	switch {
	case total > 0 && errorRecords >= total:
		return StatusFailure
	case errorRecords > 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}

// Error detail kinds.
const (
	DetailValidation = "validation"
	DetailProcessing = "processing"
)

// ImportErrorDetail is one entry of the serialized error list.
type ImportErrorDetail struct {
	Kind    string `json:"kind"`
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ImportAuditLog describes one import. It is created once, updated until
// the import finishes, and never deleted.
type ImportAuditLog struct {
	ID               uuid.UUID           `json:"id"`
	FileName         string              `json:"fileName"`
	MimeType         string              `json:"mimeType"`
	SizeBytes        int64               `json:"sizeBytes"`
	Checksum         string              `json:"checksum"`
	Status           ImportStatus        `json:"status"`
	TotalRecords     int                 `json:"totalRecords"`
	ProcessedRecords int                 `json:"processedRecords"`
	ErrorRecords     int                 `json:"errorRecords"`
	ErrorDetail      []ImportErrorDetail `json:"errorDetail"`
	Duration         string              `json:"duration"`
	OwnerUserID      string              `json:"ownerUserId,omitempty"`
	IPAddress        string              `json:"ipAddress,omitempty"`
	UserAgent        string              `json:"userAgent,omitempty"`
	Finalized        bool                `json:"finalized"`
	CreatedAt        time.Time           `json:"timestamp"`
}

// AuditStore persists import audit logs. UpdateImportLog returns
// ErrAuditFinalized when the stored row is already finalized;
// GetImportLog returns ErrNotFound for unknown ids.
type AuditStore interface {
	CreateImportLog(ctx context.Context, log *ImportAuditLog) error
	UpdateImportLog(ctx context.Context, log *ImportAuditLog) error
	GetImportLog(ctx context.Context, id uuid.UUID) (*ImportAuditLog, error)
	ListImportLogs(ctx context.Context, limit, offset int) ([]ImportAuditLog, error)
}

// ImportMeta identifies the file and caller of an import.
type ImportMeta struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Checksum  string
	UserID    string
}

// AuditRecorder drives the lifecycle of one ImportAuditLog row.
type AuditRecorder struct {
	store AuditStore
	now   func() time.Time
}

// NewAuditRecorder creates a recorder writing to store.
func NewAuditRecorder(store AuditStore) *AuditRecorder {
	return &AuditRecorder{store: store, now: time.Now}
}

// Start creates the audit row with a provisional SUCCESS status. The
// caller IP and user agent are taken from ctx when present.
func (r *AuditRecorder) Start(ctx context.Context, meta ImportMeta, total int) (*ImportAuditLog, error) {
	log := &ImportAuditLog{
		ID:           uuid.New(),
		FileName:     meta.FileName,
		MimeType:     meta.MimeType,
		SizeBytes:    meta.SizeBytes,
		Checksum:     meta.Checksum,
		Status:       StatusSuccess,
		TotalRecords: total,
		ErrorDetail:  []ImportErrorDetail{},
		Duration:     FormatDuration(0),
		OwnerUserID:  meta.UserID,
		IPAddress:    GetIPAddressFromContext(ctx),
		UserAgent:    GetUserAgentFromContext(ctx),
		CreatedAt:    r.now().UTC(),
	}
	if err := r.store.CreateImportLog(ctx, log); err != nil {
		return nil, fmt.Errorf("create import log: %w", err)
	}
	return log, nil
}

// RecordValidation stores the validation outcome.
func (r *AuditRecorder) RecordValidation(ctx context.Context, log *ImportAuditLog, report ValidationReport) error {
	if log.Finalized {
		return ErrAuditFinalized
	}

	log.ErrorRecords = report.RowsWithErrors
	log.Status = ComputeStatus(log.TotalRecords, log.ErrorRecords)
	log.ErrorDetail = validationDetail(report)
	log.Duration = FormatDuration(r.now().Sub(log.CreatedAt))

	if err := r.store.UpdateImportLog(ctx, log); err != nil {
		return fmt.Errorf("update import log: %w", err)
	}
	return nil
}

// Finish merges the persistence outcome, sets the final status and
// duration, and finalizes the row. Rows skipped by an early stop count as
// error records, and the stop cause is recorded against the first of them.
func (r *AuditRecorder) Finish(ctx context.Context, log *ImportAuditLog, report ValidationReport, res PersistResult) error {
	if log.Finalized {
		return ErrAuditFinalized
	}

	failed := report.errorRows()
	detail := validationDetail(report)
	for _, perr := range res.Errors {
		failed[perr.Row] = true
		detail = append(detail, ImportErrorDetail{
			Kind:    DetailProcessing,
			Row:     perr.Row,
			Message: perr.Err.Error(),
		})
	}
	if len(res.Skipped) > 0 {
		for _, row := range res.Skipped {
			failed[row] = true
		}
		detail = append(detail, ImportErrorDetail{
			Kind:    DetailProcessing,
			Row:     res.Skipped[0],
			Message: stopMessage(res.Err, len(res.Skipped)),
		})
	}
	sort.SliceStable(detail, func(i, j int) bool { return detail[i].Row < detail[j].Row })

	log.ProcessedRecords = res.Processed
	log.ErrorRecords = len(failed)
	log.ErrorDetail = detail
	log.Status = ComputeStatus(log.TotalRecords, log.ErrorRecords)
	log.Duration = FormatDuration(r.now().Sub(log.CreatedAt))
	log.Finalized = true

	if err := r.store.UpdateImportLog(ctx, log); err != nil {
		return fmt.Errorf("finalize import log: %w", err)
	}
	return nil
}

func stopMessage(cause error, skipped int) string {
	reason := "import stopped"
	if cause != nil {
		reason = "import stopped: " + cause.Error()
	}
	return fmt.Sprintf("%s (%d records not attempted)", reason, skipped)
}

// Abort finalizes a log whose import failed before persistence ran. Every
// record counts as an error and cause is recorded as a processing detail.
func (r *AuditRecorder) Abort(ctx context.Context, log *ImportAuditLog, cause error) error {
	if log.Finalized {
		return ErrAuditFinalized
	}

	log.ProcessedRecords = 0
	log.ErrorRecords = log.TotalRecords
	log.ErrorDetail = append(log.ErrorDetail, ImportErrorDetail{
		Kind:    DetailProcessing,
		Message: "import aborted: " + cause.Error(),
	})
	log.Status = StatusFailure
	log.Duration = FormatDuration(r.now().Sub(log.CreatedAt))
	log.Finalized = true

	if err := r.store.UpdateImportLog(ctx, log); err != nil {
		return fmt.Errorf("finalize import log: %w", err)
	}
	return nil
}

func validationDetail(report ValidationReport) []ImportErrorDetail {
	detail := make([]ImportErrorDetail, 0, len(report.Errors))
	for _, e := range report.Errors {
		detail = append(detail, ImportErrorDetail{
			Kind:    DetailValidation,
			Row:     e.Row,
			Field:   e.Field,
			Value:   e.Value,
			Message: e.Message,
		})
	}
	return detail
}

// FormatDuration renders d as HH:MM:SS. Hours are not capped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
