package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertDebtor = `-- name: UpsertDebtor :one
INSERT INTO debtors (
    id, document, name, debtor_type, address, postal_code,
    neighborhood, city, state, filing_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (document) DO UPDATE
    SET filing_id  = EXCLUDED.filing_id,
        updated_at = now()
RETURNING id, document, name, debtor_type, address, postal_code,
    neighborhood, city, state, filing_id, created_at, updated_at
`

type UpsertDebtorParams struct {
	ID           pgtype.UUID
	Document     string
	Name         string
	DebtorType   string
	Address      string
	PostalCode   string
	Neighborhood string
	City         string
	State        string
	FilingID     pgtype.UUID
}

func (q *Queries) UpsertDebtor(ctx context.Context, arg UpsertDebtorParams) (Debtor, error) {
	row := q.db.QueryRow(ctx, upsertDebtor,
		arg.ID,
		arg.Document,
		arg.Name,
		arg.DebtorType,
		arg.Address,
		arg.PostalCode,
		arg.Neighborhood,
		arg.City,
		arg.State,
		arg.FilingID,
	)
	var i Debtor
	err := row.Scan(
		&i.ID,
		&i.Document,
		&i.Name,
		&i.DebtorType,
		&i.Address,
		&i.PostalCode,
		&i.Neighborhood,
		&i.City,
		&i.State,
		&i.FilingID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertNotificationLog = `-- name: InsertNotificationLog :one
INSERT INTO notification_logs (id, debtor_id, filing_id, email_sent)
VALUES ($1, $2, $3, false)
RETURNING id, debtor_id, filing_id, email_sent, sent_at, read_at, created_at
`

type InsertNotificationLogParams struct {
	ID       pgtype.UUID
	DebtorID pgtype.UUID
	FilingID pgtype.UUID
}

func (q *Queries) InsertNotificationLog(ctx context.Context, arg InsertNotificationLogParams) (NotificationLog, error) {
	row := q.db.QueryRow(ctx, insertNotificationLog, arg.ID, arg.DebtorID, arg.FilingID)
	var i NotificationLog
	err := row.Scan(
		&i.ID,
		&i.DebtorID,
		&i.FilingID,
		&i.EmailSent,
		&i.SentAt,
		&i.ReadAt,
		&i.CreatedAt,
	)
	return i, err
}

const countDebtors = `-- name: CountDebtors :one
SELECT count(*) FROM debtors
`

func (q *Queries) CountDebtors(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countDebtors)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countNotificationLogs = `-- name: CountNotificationLogs :one
SELECT count(*) FROM notification_logs
`

func (q *Queries) CountNotificationLogs(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countNotificationLogs)
	var count int64
	err := row.Scan(&count)
	return count, err
}
