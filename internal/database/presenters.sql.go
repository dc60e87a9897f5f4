package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertPresenter = `-- name: UpsertPresenter :one
INSERT INTO presenters (id, lookup_key, name, code)
VALUES ($1, $2, $3, $4)
ON CONFLICT (lookup_key) DO UPDATE
    SET name = COALESCE(NULLIF(presenters.name, ''), EXCLUDED.name)
RETURNING id, lookup_key, name, code, created_at
`

type UpsertPresenterParams struct {
	ID        pgtype.UUID
	LookupKey string
	Name      string
	Code      string
}

func (q *Queries) UpsertPresenter(ctx context.Context, arg UpsertPresenterParams) (Presenter, error) {
	row := q.db.QueryRow(ctx, upsertPresenter,
		arg.ID,
		arg.LookupKey,
		arg.Name,
		arg.Code,
	)
	var i Presenter
	err := row.Scan(
		&i.ID,
		&i.LookupKey,
		&i.Name,
		&i.Code,
		&i.CreatedAt,
	)
	return i, err
}

const countPresenters = `-- name: CountPresenters :one
SELECT count(*) FROM presenters
`

func (q *Queries) CountPresenters(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countPresenters)
	var count int64
	err := row.Scan(&count)
	return count, err
}
