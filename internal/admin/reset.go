// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"time"

	db "github.com/JonMunkholm/protesto/internal/database"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Admin runs maintenance statements against the import database.
type Admin struct {
	DB *db.Queries
}

type resetFn func(ctx context.Context) error

// ResetAll truncates the filing graph and the import audit log.
// This is a destructive operation - use with caution.
func (a *Admin) ResetAll(ctx context.Context) error {
	return a.runResets(ctx, []resetFn{
		a.DB.ResetDomain,
		a.DB.ResetImportAuditLogs,
	})
}

// ResetFilings truncates the filing graph and keeps the import audit log.
func (a *Admin) ResetFilings(ctx context.Context) error {
	return a.runResets(ctx, []resetFn{a.DB.ResetDomain})
}

func (a *Admin) runResets(ctx context.Context, resets []resetFn) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Stats returns row counts for every table, in schema order.
func (a *Admin) Stats(ctx context.Context) ([]TableCount, error) {
	counters := []struct {
		table string
		count func(context.Context) (int64, error)
	}{
		{"presenters", a.DB.CountPresenters},
		{"creditors", a.DB.CountCreditors},
		{"filings", a.DB.CountFilings},
		{"debtors", a.DB.CountDebtors},
		{"notification_logs", a.DB.CountNotificationLogs},
		{"filing_creditors", a.DB.CountFilingCreditors},
		{"import_audit_logs", a.DB.CountImportAuditLogs},
	}

	counts := make([]TableCount, 0, len(counters))
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
		counts = append(counts, TableCount{Table: c.table, Rows: n})
	}
	return counts, nil
}
