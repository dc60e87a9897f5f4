package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertCreditor = `-- name: UpsertCreditor :one
INSERT INTO creditors (id, lookup_key, drawer_name, assignee_name, document)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (lookup_key) DO UPDATE
    SET drawer_name   = COALESCE(NULLIF(creditors.drawer_name, ''), EXCLUDED.drawer_name),
        assignee_name = COALESCE(NULLIF(creditors.assignee_name, ''), EXCLUDED.assignee_name)
RETURNING id, lookup_key, drawer_name, assignee_name, document, created_at
`

type UpsertCreditorParams struct {
	ID           pgtype.UUID
	LookupKey    string
	DrawerName   string
	AssigneeName string
	Document     string
}

func (q *Queries) UpsertCreditor(ctx context.Context, arg UpsertCreditorParams) (Creditor, error) {
	row := q.db.QueryRow(ctx, upsertCreditor,
		arg.ID,
		arg.LookupKey,
		arg.DrawerName,
		arg.AssigneeName,
		arg.Document,
	)
	var i Creditor
	err := row.Scan(
		&i.ID,
		&i.LookupKey,
		&i.DrawerName,
		&i.AssigneeName,
		&i.Document,
		&i.CreatedAt,
	)
	return i, err
}

const linkFilingCreditor = `-- name: LinkFilingCreditor :exec
INSERT INTO filing_creditors (filing_id, creditor_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type LinkFilingCreditorParams struct {
	FilingID   pgtype.UUID
	CreditorID pgtype.UUID
}

func (q *Queries) LinkFilingCreditor(ctx context.Context, arg LinkFilingCreditorParams) error {
	_, err := q.db.Exec(ctx, linkFilingCreditor, arg.FilingID, arg.CreditorID)
	return err
}

const countFilingCreditors = `-- name: CountFilingCreditors :one
SELECT count(*) FROM filing_creditors
`

func (q *Queries) CountFilingCreditors(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countFilingCreditors)
	var count int64
	err := row.Scan(&count)
	return count, err
}
