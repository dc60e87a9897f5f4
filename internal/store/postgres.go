// Package store implements the core persistence boundaries: the per-record
// Repository, the UnitOfWork that scopes it to a transaction, and the
// import AuditStore. Postgres backs production; Memory backs tests and CLI
// dry runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/protesto/internal/core"
	db "github.com/JonMunkholm/protesto/internal/database"
)

// PoolConfig configures the pgx connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// OpenPool connects and pings the database.
func OpenPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Postgres implements core.UnitOfWork and core.AuditStore on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies the embedded schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, p.pool)
}

// Ping checks connectivity. Used by the health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// RunInTx runs fn in one transaction; fn's error rolls it back.
func (p *Postgres) RunInTx(ctx context.Context, fn func(repo core.Repository) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&pgRepository{q: db.New(tx)})
	})
}

// pgRepository is core.Repository bound to one transaction.
type pgRepository struct {
	q *db.Queries
}

func (r *pgRepository) FindOrCreatePresenter(ctx context.Context, name, code string) (core.Presenter, error) {
	row, err := r.q.UpsertPresenter(ctx, db.UpsertPresenterParams{
		ID:        ToPgUUID(uuid.New()),
		LookupKey: core.PresenterKey(name, code),
		Name:      name,
		Code:      code,
	})
	if err != nil {
		return core.Presenter{}, fmt.Errorf("upsert presenter %q: %w", code, err)
	}
	return core.Presenter{ID: FromPgUUID(row.ID), Name: row.Name, Code: row.Code}, nil
}

func (r *pgRepository) FindOrCreateCreditor(ctx context.Context, data core.CreditorData) (core.Creditor, error) {
	row, err := r.q.UpsertCreditor(ctx, db.UpsertCreditorParams{
		ID:           ToPgUUID(uuid.New()),
		LookupKey:    core.CreditorKey(data),
		DrawerName:   data.DrawerName,
		AssigneeName: data.AssigneeName,
		Document:     data.Document,
	})
	if err != nil {
		return core.Creditor{}, fmt.Errorf("upsert creditor: %w", err)
	}
	return core.Creditor{
		ID:           FromPgUUID(row.ID),
		DrawerName:   row.DrawerName,
		AssigneeName: row.AssigneeName,
		Document:     row.Document,
	}, nil
}

func (r *pgRepository) CreateFiling(ctx context.Context, f core.FilingData, presenterID uuid.UUID) (core.Filing, error) {
	id := uuid.New()
	_, err := r.q.InsertFiling(ctx, db.InsertFilingParams{
		ID:                     ToPgUUID(id),
		PresenterID:            ToPgUUID(presenterID),
		Protocol:               f.Protocol,
		FilingDate:             ToPgDate(f.FilingDate),
		RemittanceDate:         ToPgDate(f.RemittanceDate),
		NotaryOffice:           f.NotaryOffice,
		TitleNumber:            f.TitleNumber,
		InternalReference:      f.InternalReference,
		AssigneeBranchCode:     f.AssigneeBranchCode,
		AmountCents:            f.AmountCents,
		BalanceCents:           f.BalanceCents,
		DueDateOrTerm:          f.DueDateOrTerm,
		InstrumentType:         f.InstrumentType,
		ProtestVenue:           f.ProtestVenue,
		AuthorizationType:      f.AuthorizationType,
		Status:                 f.Status,
		Printed:                f.Printed,
		EmissionDate:           ToPgDate(f.EmissionDate),
		Occurrence:             f.Occurrence,
		OccurrenceDate:         ToPgDate(f.OccurrenceDate),
		WithdrawalCostsCents:   f.WithdrawalCosts,
		CancellationCostsCents: f.CancellationCosts,
		Validity:               f.Validity,
		RegistrySubmission:     f.RegistrySubmission,
		Postponed:              f.Postponed,
		StatuteOfLimits:        f.StatuteOfLimits,
	})
	if err != nil {
		return core.Filing{}, fmt.Errorf("insert filing %q: %w", f.Protocol, err)
	}
	return core.Filing{ID: id, PresenterID: presenterID, FilingData: f}, nil
}

func (r *pgRepository) FindOrCreateDebtor(ctx context.Context, d core.DebtorData, filingID uuid.UUID) (core.Debtor, error) {
	row, err := r.q.UpsertDebtor(ctx, db.UpsertDebtorParams{
		ID:           ToPgUUID(uuid.New()),
		Document:     d.Document,
		Name:         d.Name,
		DebtorType:   string(d.Type),
		Address:      d.Address,
		PostalCode:   d.PostalCode,
		Neighborhood: d.Neighborhood,
		City:         d.City,
		State:        d.State,
		FilingID:     ToPgUUID(filingID),
	})
	if err != nil {
		return core.Debtor{}, fmt.Errorf("upsert debtor: %w", err)
	}
	return core.Debtor{
		ID:       FromPgUUID(row.ID),
		Name:     row.Name,
		Document: row.Document,
		Type:     core.DebtorType(row.DebtorType),
		FilingID: FromPgUUID(row.FilingID),
	}, nil
}

func (r *pgRepository) CreateNotificationLogStub(ctx context.Context, debtorID, filingID uuid.UUID) (core.NotificationLog, error) {
	row, err := r.q.InsertNotificationLog(ctx, db.InsertNotificationLogParams{
		ID:       ToPgUUID(uuid.New()),
		DebtorID: ToPgUUID(debtorID),
		FilingID: ToPgUUID(filingID),
	})
	if err != nil {
		return core.NotificationLog{}, fmt.Errorf("insert notification log: %w", err)
	}
	return core.NotificationLog{
		ID:        FromPgUUID(row.ID),
		DebtorID:  FromPgUUID(row.DebtorID),
		FilingID:  FromPgUUID(row.FilingID),
		EmailSent: row.EmailSent,
		SentAt:    FromPgTimestamptz(row.SentAt),
		ReadAt:    FromPgTimestamptz(row.ReadAt),
	}, nil
}

func (r *pgRepository) LinkFilingCreditor(ctx context.Context, filingID, creditorID uuid.UUID) error {
	err := r.q.LinkFilingCreditor(ctx, db.LinkFilingCreditorParams{
		FilingID:   ToPgUUID(filingID),
		CreditorID: ToPgUUID(creditorID),
	})
	if err != nil {
		return fmt.Errorf("link filing creditor: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Audit log
// ----------------------------------------------------------------------------

func (p *Postgres) CreateImportLog(ctx context.Context, log *core.ImportAuditLog) error {
	detail, err := marshalDetail(log.ErrorDetail)
	if err != nil {
		return err
	}
	return db.New(p.pool).InsertImportAuditLog(ctx, db.InsertImportAuditLogParams{
		ID:               ToPgUUID(log.ID),
		FileName:         log.FileName,
		MimeType:         log.MimeType,
		SizeBytes:        log.SizeBytes,
		Checksum:         log.Checksum,
		Status:           string(log.Status),
		TotalRecords:     int32(log.TotalRecords),
		ProcessedRecords: int32(log.ProcessedRecords),
		ErrorRecords:     int32(log.ErrorRecords),
		ErrorDetail:      detail,
		Duration:         log.Duration,
		OwnerUserID:      log.OwnerUserID,
		IpAddress:        log.IPAddress,
		UserAgent:        log.UserAgent,
		Finalized:        log.Finalized,
		CreatedAt:        ToPgTimestamptz(log.CreatedAt),
	})
}

func (p *Postgres) UpdateImportLog(ctx context.Context, log *core.ImportAuditLog) error {
	detail, err := marshalDetail(log.ErrorDetail)
	if err != nil {
		return err
	}

	q := db.New(p.pool)
	_, err = q.UpdateImportAuditLog(ctx, db.UpdateImportAuditLogParams{
		ID:               ToPgUUID(log.ID),
		Status:           string(log.Status),
		ProcessedRecords: int32(log.ProcessedRecords),
		ErrorRecords:     int32(log.ErrorRecords),
		ErrorDetail:      detail,
		Duration:         log.Duration,
		Finalized:        log.Finalized,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or it was already finalized.
		if _, getErr := q.GetImportAuditLog(ctx, ToPgUUID(log.ID)); getErr == nil {
			return core.ErrAuditFinalized
		}
		return core.ErrNotFound
	}
	return err
}

func (p *Postgres) GetImportLog(ctx context.Context, id uuid.UUID) (*core.ImportAuditLog, error) {
	row, err := db.New(p.pool).GetImportAuditLog(ctx, ToPgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return importLogFromRow(row)
}

func (p *Postgres) ListImportLogs(ctx context.Context, limit, offset int) ([]core.ImportAuditLog, error) {
	rows, err := db.New(p.pool).ListImportAuditLogs(ctx, db.ListImportAuditLogsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	logs := make([]core.ImportAuditLog, 0, len(rows))
	for _, row := range rows {
		log, err := importLogFromRow(row)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, nil
}

func marshalDetail(detail []core.ImportErrorDetail) ([]byte, error) {
	if detail == nil {
		detail = []core.ImportErrorDetail{}
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("marshal error detail: %w", err)
	}
	return b, nil
}

func importLogFromRow(row db.ImportAuditLog) (*core.ImportAuditLog, error) {
	log := &core.ImportAuditLog{
		ID:               FromPgUUID(row.ID),
		FileName:         row.FileName,
		MimeType:         row.MimeType,
		SizeBytes:        row.SizeBytes,
		Checksum:         row.Checksum,
		Status:           core.ImportStatus(row.Status),
		TotalRecords:     int(row.TotalRecords),
		ProcessedRecords: int(row.ProcessedRecords),
		ErrorRecords:     int(row.ErrorRecords),
		Duration:         row.Duration,
		OwnerUserID:      row.OwnerUserID,
		IPAddress:        row.IpAddress,
		UserAgent:        row.UserAgent,
		Finalized:        row.Finalized,
	}
	if row.CreatedAt.Valid {
		log.CreatedAt = row.CreatedAt.Time
	}
	if err := json.Unmarshal(row.ErrorDetail, &log.ErrorDetail); err != nil {
		return nil, fmt.Errorf("decode error detail of import %s: %w", log.ID, err)
	}
	return log, nil
}
