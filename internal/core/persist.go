package core

// persist.go writes canonical records into the domain graph.
//
// Each record is one unit of work in its own transaction: presenter,
// creditor, filing, debtor, notification stub and the filing-creditor link
// commit together or not at all. A failing record is rolled back and
// reported; the records after it still run unless StopOnError is set.

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for one unit of work.
//
// Find-or-create keys: Presenter.Code, Creditor.Document, Debtor.Document.
// Filings are never deduplicated.
type Repository interface {
	FindOrCreatePresenter(ctx context.Context, name, code string) (Presenter, error)
	FindOrCreateCreditor(ctx context.Context, data CreditorData) (Creditor, error)
	CreateFiling(ctx context.Context, data FilingData, presenterID uuid.UUID) (Filing, error)
	FindOrCreateDebtor(ctx context.Context, data DebtorData, filingID uuid.UUID) (Debtor, error)
	CreateNotificationLogStub(ctx context.Context, debtorID, filingID uuid.UUID) (NotificationLog, error)
	LinkFilingCreditor(ctx context.Context, filingID, creditorID uuid.UUID) error
}

// UnitOfWork runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(repo Repository) error) error
}

// Persister stores canonical records.
type Persister interface {
	Persist(ctx context.Context, records []CanonicalFilingRecord) PersistResult
}

// PersistResult summarizes a persistence pass.
type PersistResult struct {
	Processed int                // records committed
	Errors    []*ProcessingError // one per failed record, in file order
	Err       error              // set when the pass stopped early
	Skipped   []int              // rows never attempted after an early stop
}

// Orchestrator is the default Persister.
type Orchestrator struct {
	uow         UnitOfWork
	stopOnError bool
}

// NewOrchestrator creates an orchestrator over uow. With stopOnError the
// first failing record ends the pass.
func NewOrchestrator(uow UnitOfWork, stopOnError bool) *Orchestrator {
	return &Orchestrator{uow: uow, stopOnError: stopOnError}
}

// Persist stores records in order. Cancellation is checked between records;
// a record that has started always commits or rolls back.
func (o *Orchestrator) Persist(ctx context.Context, records []CanonicalFilingRecord) PersistResult {
	var res PersistResult

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			res.Err = err
			res.Skipped = skippedRows(records[i:])
			return res
		}

		err := o.uow.RunInTx(ctx, func(repo Repository) error {
			return persistRecord(ctx, repo, rec)
		})
		if err != nil {
			perr := &ProcessingError{Row: rec.Row, Err: err}
			res.Errors = append(res.Errors, perr)
			if o.stopOnError {
				res.Err = perr
				res.Skipped = skippedRows(records[i+1:])
				return res
			}
			continue
		}
		res.Processed++
	}

	return res
}

func skippedRows(records []CanonicalFilingRecord) []int {
	if len(records) == 0 {
		return nil
	}
	rows := make([]int, len(records))
	for i, rec := range records {
		rows[i] = rec.Row
	}
	return rows
}

func persistRecord(ctx context.Context, repo Repository, rec CanonicalFilingRecord) error {
	presenter, err := repo.FindOrCreatePresenter(ctx, rec.Presenter.Name, rec.Presenter.Code)
	if err != nil {
		return fmt.Errorf("presenter: %w", err)
	}

	creditor, err := repo.FindOrCreateCreditor(ctx, rec.Creditor)
	if err != nil {
		return fmt.Errorf("creditor: %w", err)
	}

	filing, err := repo.CreateFiling(ctx, rec.Filing, presenter.ID)
	if err != nil {
		return fmt.Errorf("filing: %w", err)
	}

	debtor, err := repo.FindOrCreateDebtor(ctx, rec.Debtor, filing.ID)
	if err != nil {
		return fmt.Errorf("debtor: %w", err)
	}

	if _, err := repo.CreateNotificationLogStub(ctx, debtor.ID, filing.ID); err != nil {
		return fmt.Errorf("notification log: %w", err)
	}

	if err := repo.LinkFilingCreditor(ctx, filing.ID, creditor.ID); err != nil {
		return fmt.Errorf("filing creditor link: %w", err)
	}

	return nil
}
