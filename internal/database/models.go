package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Presenter struct {
	ID        pgtype.UUID
	LookupKey string
	Name      string
	Code      string
	CreatedAt pgtype.Timestamptz
}

type Creditor struct {
	ID           pgtype.UUID
	LookupKey    string
	DrawerName   string
	AssigneeName string
	Document     string
	CreatedAt    pgtype.Timestamptz
}

type Filing struct {
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
	CreatedAt              pgtype.Timestamptz
}

type Debtor struct {
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
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type NotificationLog struct {
	ID        pgtype.UUID
	DebtorID  pgtype.UUID
	FilingID  pgtype.UUID
	EmailSent bool
	SentAt    pgtype.Timestamptz
	ReadAt    pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

type ImportAuditLog struct {
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
