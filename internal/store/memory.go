package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/protesto/internal/core"
)

// Memory is an in-process store with the same find-or-create semantics as
// Postgres. Transactions are serialized and roll back to a snapshot.
type Memory struct {
	mu   sync.Mutex
	data memData

	auditMu sync.RWMutex
	audits  map[uuid.UUID]core.ImportAuditLog
}

type memData struct {
	presenters    map[string]core.Presenter
	creditors     map[string]core.Creditor
	filings       map[uuid.UUID]core.Filing
	debtors       map[string]core.Debtor
	notifications []core.NotificationLog
	links         map[[2]uuid.UUID]struct{}
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		data: memData{
			presenters: make(map[string]core.Presenter),
			creditors:  make(map[string]core.Creditor),
			filings:    make(map[uuid.UUID]core.Filing),
			debtors:    make(map[string]core.Debtor),
			links:      make(map[[2]uuid.UUID]struct{}),
		},
		audits: make(map[uuid.UUID]core.ImportAuditLog),
	}
}

func (d memData) clone() memData {
	out := memData{
		presenters:    make(map[string]core.Presenter, len(d.presenters)),
		creditors:     make(map[string]core.Creditor, len(d.creditors)),
		filings:       make(map[uuid.UUID]core.Filing, len(d.filings)),
		debtors:       make(map[string]core.Debtor, len(d.debtors)),
		notifications: append([]core.NotificationLog(nil), d.notifications...),
		links:         make(map[[2]uuid.UUID]struct{}, len(d.links)),
	}
	for k, v := range d.presenters {
		out.presenters[k] = v
	}
	for k, v := range d.creditors {
		out.creditors[k] = v
	}
	for k, v := range d.filings {
		out.filings[k] = v
	}
	for k, v := range d.debtors {
		out.debtors[k] = v
	}
	for k := range d.links {
		out.links[k] = struct{}{}
	}
	return out
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// RunInTx runs fn with exclusive access; fn's error restores the snapshot
// taken before it ran.
func (m *Memory) RunInTx(ctx context.Context, fn func(repo core.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(&memRepository{data: &m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// MemoryCounts reports row counts per entity.
type MemoryCounts struct {
	Presenters    int
	Creditors     int
	Filings       int
	Debtors       int
	Notifications int
	Links         int
}

// Counts returns the current row counts.
func (m *Memory) Counts() MemoryCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MemoryCounts{
		Presenters:    len(m.data.presenters),
		Creditors:     len(m.data.creditors),
		Filings:       len(m.data.filings),
		Debtors:       len(m.data.debtors),
		Notifications: len(m.data.notifications),
		Links:         len(m.data.links),
	}
}

// DebtorByDocument looks up a debtor by its digits-only document.
func (m *Memory) DebtorByDocument(document string) (core.Debtor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data.debtors[document]
	return d, ok
}

// memRepository mutates memData directly; the caller holds Memory.mu.
type memRepository struct {
	data *memData
}

func (r *memRepository) FindOrCreatePresenter(ctx context.Context, name, code string) (core.Presenter, error) {
	key := core.PresenterKey(name, code)
	if p, ok := r.data.presenters[key]; ok {
		if p.Name == "" {
			p.Name = name
			r.data.presenters[key] = p
		}
		return p, nil
	}
	p := core.Presenter{ID: uuid.New(), Name: name, Code: code}
	r.data.presenters[key] = p
	return p, nil
}

func (r *memRepository) FindOrCreateCreditor(ctx context.Context, data core.CreditorData) (core.Creditor, error) {
	key := core.CreditorKey(data)
	if c, ok := r.data.creditors[key]; ok {
		return c, nil
	}
	c := core.Creditor{
		ID:           uuid.New(),
		DrawerName:   data.DrawerName,
		AssigneeName: data.AssigneeName,
		Document:     data.Document,
	}
	r.data.creditors[key] = c
	return c, nil
}

func (r *memRepository) CreateFiling(ctx context.Context, data core.FilingData, presenterID uuid.UUID) (core.Filing, error) {
	if data.AmountCents < 0 || data.BalanceCents < 0 {
		return core.Filing{}, fmt.Errorf("insert filing %q: violates check constraint", data.Protocol)
	}
	f := core.Filing{ID: uuid.New(), PresenterID: presenterID, FilingData: data}
	r.data.filings[f.ID] = f
	return f, nil
}

func (r *memRepository) FindOrCreateDebtor(ctx context.Context, data core.DebtorData, filingID uuid.UUID) (core.Debtor, error) {
	if _, ok := r.data.filings[filingID]; !ok {
		return core.Debtor{}, fmt.Errorf("upsert debtor: violates foreign key constraint on filing %s", filingID)
	}
	if d, ok := r.data.debtors[data.Document]; ok {
		d.FilingID = filingID
		r.data.debtors[data.Document] = d
		return d, nil
	}
	d := core.Debtor{
		ID:       uuid.New(),
		Name:     data.Name,
		Document: data.Document,
		Type:     data.Type,
		FilingID: filingID,
	}
	r.data.debtors[data.Document] = d
	return d, nil
}

func (r *memRepository) CreateNotificationLogStub(ctx context.Context, debtorID, filingID uuid.UUID) (core.NotificationLog, error) {
	n := core.NotificationLog{ID: uuid.New(), DebtorID: debtorID, FilingID: filingID}
	r.data.notifications = append(r.data.notifications, n)
	return n, nil
}

func (r *memRepository) LinkFilingCreditor(ctx context.Context, filingID, creditorID uuid.UUID) error {
	r.data.links[[2]uuid.UUID{filingID, creditorID}] = struct{}{}
	return nil
}

// ----------------------------------------------------------------------------
// Audit log
// ----------------------------------------------------------------------------

func copyAuditLog(log core.ImportAuditLog) core.ImportAuditLog {
	log.ErrorDetail = append([]core.ImportErrorDetail(nil), log.ErrorDetail...)
	return log
}

func (m *Memory) CreateImportLog(ctx context.Context, log *core.ImportAuditLog) error {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()
	if _, ok := m.audits[log.ID]; ok {
		return fmt.Errorf("import log %s: duplicate key value", log.ID)
	}
	m.audits[log.ID] = copyAuditLog(*log)
	return nil
}

func (m *Memory) UpdateImportLog(ctx context.Context, log *core.ImportAuditLog) error {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()
	stored, ok := m.audits[log.ID]
	if !ok {
		return core.ErrNotFound
	}
	if stored.Finalized {
		return core.ErrAuditFinalized
	}
	stored.Status = log.Status
	stored.ProcessedRecords = log.ProcessedRecords
	stored.ErrorRecords = log.ErrorRecords
	stored.ErrorDetail = log.ErrorDetail
	stored.Duration = log.Duration
	stored.Finalized = log.Finalized
	m.audits[log.ID] = copyAuditLog(stored)
	return nil
}

func (m *Memory) GetImportLog(ctx context.Context, id uuid.UUID) (*core.ImportAuditLog, error) {
	m.auditMu.RLock()
	defer m.auditMu.RUnlock()
	stored, ok := m.audits[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	log := copyAuditLog(stored)
	return &log, nil
}

func (m *Memory) ListImportLogs(ctx context.Context, limit, offset int) ([]core.ImportAuditLog, error) {
	m.auditMu.RLock()
	logs := make([]core.ImportAuditLog, 0, len(m.audits))
	for _, l := range m.audits {
		logs = append(logs, copyAuditLog(l))
	}
	m.auditMu.RUnlock()

	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].CreatedAt.After(logs[j].CreatedAt)
		}
		return logs[i].ID.String() < logs[j].ID.String()
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(logs) {
		return []core.ImportAuditLog{}, nil
	}
	logs = logs[offset:]
	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	return logs, nil
}
