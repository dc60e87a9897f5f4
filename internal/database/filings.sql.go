package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertFiling = `-- name: InsertFiling :one
INSERT INTO filings (
    id, presenter_id, protocol, filing_date, remittance_date, notary_office,
    title_number, internal_reference, assignee_branch_code, amount_cents,
    balance_cents, due_date_or_term, instrument_type, protest_venue,
    authorization_type, status, printed, emission_date, occurrence,
    occurrence_date, withdrawal_costs_cents, cancellation_costs_cents,
    validity, registry_submission, postponed, statute_of_limits
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
    $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
)
RETURNING id, created_at
`

type InsertFilingParams struct {
	ID                     pgtype.UUID
	PresenterID            pgtype.UUID
	Protocol               string
	FilingDate             pgtype.Date
	RemittanceDate         pgtype.Date
	NotaryOffice           string
	TitleNumber            string
	InternalReference      string
	AssigneeBranchCode     string
	AmountCents            int64
	BalanceCents           int64
	DueDateOrTerm          string
	InstrumentType         string
	ProtestVenue           string
	AuthorizationType      string
	Status                 string
	Printed                bool
	EmissionDate           pgtype.Date
	Occurrence             string
	OccurrenceDate         pgtype.Date
	WithdrawalCostsCents   int64
	CancellationCostsCents int64
	Validity               string
	RegistrySubmission     string
	Postponed              bool
	StatuteOfLimits        string
}

type InsertFilingRow struct {
	ID        pgtype.UUID
	CreatedAt pgtype.Timestamptz
}

func (q *Queries) InsertFiling(ctx context.Context, arg InsertFilingParams) (InsertFilingRow, error) {
	row := q.db.QueryRow(ctx, insertFiling,
		arg.ID,
		arg.PresenterID,
		arg.Protocol,
		arg.FilingDate,
		arg.RemittanceDate,
		arg.NotaryOffice,
		arg.TitleNumber,
		arg.InternalReference,
		arg.AssigneeBranchCode,
		arg.AmountCents,
		arg.BalanceCents,
		arg.DueDateOrTerm,
		arg.InstrumentType,
		arg.ProtestVenue,
		arg.AuthorizationType,
		arg.Status,
		arg.Printed,
		arg.EmissionDate,
		arg.Occurrence,
		arg.OccurrenceDate,
		arg.WithdrawalCostsCents,
		arg.CancellationCostsCents,
		arg.Validity,
		arg.RegistrySubmission,
		arg.Postponed,
		arg.StatuteOfLimits,
	)
	var i InsertFilingRow
	err := row.Scan(&i.ID, &i.CreatedAt)
	return i, err
}

const countFilings = `-- name: CountFilings :one
SELECT count(*) FROM filings
`

func (q *Queries) CountFilings(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countFilings)
	var count int64
	err := row.Scan(&count)
	return count, err
}
