package database

import (
	"context"
)

const resetDomain = `-- name: ResetDomain :exec
TRUNCATE notification_logs, filing_creditors, debtors, filings, creditors, presenters
`

// ResetDomain removes every presenter, creditor, filing and debtor row.
func (q *Queries) ResetDomain(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetDomain)
	return err
}

const resetImportAuditLogs = `-- name: ResetImportAuditLogs :exec
TRUNCATE import_audit_logs
`

func (q *Queries) ResetImportAuditLogs(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetImportAuditLogs)
	return err
}

const countCreditors = `-- name: CountCreditors :one
SELECT count(*) FROM creditors
`

func (q *Queries) CountCreditors(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countCreditors)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countImportAuditLogs = `-- name: CountImportAuditLogs :one
SELECT count(*) FROM import_audit_logs
`

func (q *Queries) CountImportAuditLogs(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countImportAuditLogs)
	var count int64
	err := row.Scan(&count)
	return count, err
}
