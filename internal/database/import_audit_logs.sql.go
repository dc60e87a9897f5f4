package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertImportAuditLog = `-- name: InsertImportAuditLog :exec
INSERT INTO import_audit_logs (
    id, file_name, mime_type, size_bytes, checksum, status, total_records,
    processed_records, error_records, error_detail, duration,
    owner_user_id, ip_address, user_agent, finalized, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

type InsertImportAuditLogParams struct {
	ID               pgtype.UUID
	FileName         string
	MimeType         string
	SizeBytes        int64
	Checksum         string
	Status           string
	TotalRecords     int32
	ProcessedRecords int32
	ErrorRecords     int32
	ErrorDetail      []byte
	Duration         string
	OwnerUserID      string
	IpAddress        string
	UserAgent        string
	Finalized        bool
	CreatedAt        pgtype.Timestamptz
}

func (q *Queries) InsertImportAuditLog(ctx context.Context, arg InsertImportAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertImportAuditLog,
		arg.ID,
		arg.FileName,
		arg.MimeType,
		arg.SizeBytes,
		arg.Checksum,
		arg.Status,
		arg.TotalRecords,
		arg.ProcessedRecords,
		arg.ErrorRecords,
		arg.ErrorDetail,
		arg.Duration,
		arg.OwnerUserID,
		arg.IpAddress,
		arg.UserAgent,
		arg.Finalized,
		arg.CreatedAt,
	)
	return err
}

const updateImportAuditLog = `-- name: UpdateImportAuditLog :one
UPDATE import_audit_logs
SET status            = $2,
    processed_records = $3,
    error_records     = $4,
    error_detail      = $5,
    duration          = $6,
    finalized         = $7
WHERE id = $1 AND NOT finalized
RETURNING id
`

type UpdateImportAuditLogParams struct {
	ID               pgtype.UUID
	Status           string
	ProcessedRecords int32
	ErrorRecords     int32
	ErrorDetail      []byte
	Duration         string
	Finalized        bool
}

func (q *Queries) UpdateImportAuditLog(ctx context.Context, arg UpdateImportAuditLogParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, updateImportAuditLog,
		arg.ID,
		arg.Status,
		arg.ProcessedRecords,
		arg.ErrorRecords,
		arg.ErrorDetail,
		arg.Duration,
		arg.Finalized,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const getImportAuditLog = `-- name: GetImportAuditLog :one
SELECT id, file_name, mime_type, size_bytes, checksum, status, total_records,
    processed_records, error_records, error_detail, duration,
    owner_user_id, ip_address, user_agent, finalized, created_at
FROM import_audit_logs
WHERE id = $1
`

func (q *Queries) GetImportAuditLog(ctx context.Context, id pgtype.UUID) (ImportAuditLog, error) {
	row := q.db.QueryRow(ctx, getImportAuditLog, id)
	var i ImportAuditLog
	err := row.Scan(
		&i.ID,
		&i.FileName,
		&i.MimeType,
		&i.SizeBytes,
		&i.Checksum,
		&i.Status,
		&i.TotalRecords,
		&i.ProcessedRecords,
		&i.ErrorRecords,
		&i.ErrorDetail,
		&i.Duration,
		&i.OwnerUserID,
		&i.IpAddress,
		&i.UserAgent,
		&i.Finalized,
		&i.CreatedAt,
	)
	return i, err
}

const listImportAuditLogs = `-- name: ListImportAuditLogs :many
SELECT id, file_name, mime_type, size_bytes, checksum, status, total_records,
    processed_records, error_records, error_detail, duration,
    owner_user_id, ip_address, user_agent, finalized, created_at
FROM import_audit_logs
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2
`

type ListImportAuditLogsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListImportAuditLogs(ctx context.Context, arg ListImportAuditLogsParams) ([]ImportAuditLog, error) {
	rows, err := q.db.Query(ctx, listImportAuditLogs, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportAuditLog
	for rows.Next() {
		var i ImportAuditLog
		if err := rows.Scan(
			&i.ID,
			&i.FileName,
			&i.MimeType,
			&i.SizeBytes,
			&i.Checksum,
			&i.Status,
			&i.TotalRecords,
			&i.ProcessedRecords,
			&i.ErrorRecords,
			&i.ErrorDetail,
			&i.Duration,
			&i.OwnerUserID,
			&i.IpAddress,
			&i.UserAgent,
			&i.Finalized,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
