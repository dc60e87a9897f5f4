// Package core provides the business logic for importing notary protest
// filings.
//
// This package holds the import pipeline independent of any transport or
// storage. It is used by the web handlers, the importer CLI and tests
// without modification.
//
// # Architecture
//
// An import runs through these stages:
//
//   - Decoding: a [Decoder] turns file bytes into [LogicalRecord] maps keyed
//     by canonical field names. [CSVDecoder] reads delimited text;
//     [XMLSpreadsheetDecoder] reads SpreadsheetML and merges continuation
//     rows into the preceding record.
//   - Validation: [RecordValidator] checks every record against
//     [FieldSpecs] and reports a [ValidationReport] with 1-based row numbers.
//   - Transformation: [RecordTransformer] maps a record to a
//     [CanonicalFilingRecord] with parsed dates, amounts and flags.
//   - Persistence: [Orchestrator] writes one record per transaction
//     through a [UnitOfWork], finding or creating presenters, creditors and
//     debtors.
//   - Audit: [AuditRecorder] writes an [ImportAuditLog] before persistence
//     and finalizes it once with the outcome.
//
// # Pipelines
//
// A [Selector] picks the [Pipeline] whose decoder handles the declared media
// type:
//
//	sel := core.NewSelector(core.DefaultPipelines(persister)...)
//	p, err := sel.Select("text/csv")
//
// [Service.Import] wires the stages together and enforces the concurrent
// import limit.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FMT001: unsupported media type
//   - FILE001-FILE006: file errors (size, structure, empty)
//   - PROC001: a record failed to persist
//   - IMP001-IMP002: import not found, too many imports
//   - DB001-DB007: database errors (duplicates, constraints, connections)
//   - REQ001-REQ003: request errors (cancelled, timeout, malformed)
package core
