package admin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	db "github.com/JonMunkholm/protesto/internal/database"
)

// fakeDB records statements and answers count queries with a fixed value.
type fakeDB struct {
	execs   []string
	count   int64
	failOn  string
	failErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, f.failErr
	}
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("TRUNCATE TABLE"), nil
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...interface{}) pgx.Row {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return fakeRow{err: f.failErr}
	}
	return fakeRow{n: f.count}
}

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.n
	return nil
}

func TestResetAll(t *testing.T) {
	fake := &fakeDB{}
	a := &Admin{DB: db.New(fake)}

	if err := a.ResetAll(context.Background()); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if len(fake.execs) != 2 {
		t.Fatalf("ResetAll() ran %d statements, want 2", len(fake.execs))
	}
	if !strings.Contains(fake.execs[0], "filings") || !strings.Contains(fake.execs[1], "import_audit_logs") {
		t.Errorf("ResetAll() statements = %q", fake.execs)
	}
}

func TestResetFilings_KeepsAuditLog(t *testing.T) {
	fake := &fakeDB{}
	a := &Admin{DB: db.New(fake)}

	if err := a.ResetFilings(context.Background()); err != nil {
		t.Fatalf("ResetFilings() error = %v", err)
	}
	for _, sql := range fake.execs {
		if strings.Contains(sql, "import_audit_logs") {
			t.Errorf("ResetFilings() truncated the audit log: %q", sql)
		}
	}
}

func TestResetAll_StopsOnError(t *testing.T) {
	boom := errors.New("permission denied")
	fake := &fakeDB{failOn: "TRUNCATE notification_logs", failErr: boom}
	a := &Admin{DB: db.New(fake)}

	err := a.ResetAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("ResetAll() error = %v, want %v", err, boom)
	}
	if len(fake.execs) != 0 {
		t.Errorf("ResetAll() kept going after a failure: %q", fake.execs)
	}
}

func TestStats(t *testing.T) {
	a := &Admin{DB: db.New(&fakeDB{count: 3})}

	counts, err := a.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(counts) != 7 {
		t.Fatalf("Stats() returned %d tables, want 7", len(counts))
	}
	if counts[0].Table != "presenters" || counts[6].Table != "import_audit_logs" {
		t.Errorf("Stats() order = %v", counts)
	}
	for _, c := range counts {
		if c.Rows != 3 {
			t.Errorf("Stats()[%s] = %d, want 3", c.Table, c.Rows)
		}
	}

	failing := &Admin{DB: db.New(&fakeDB{failOn: "FROM debtors", failErr: errors.New("gone")})}
	if _, err := failing.Stats(context.Background()); err == nil || !strings.Contains(err.Error(), "count debtors") {
		t.Errorf("Stats() error = %v, want count debtors failure", err)
	}
}
