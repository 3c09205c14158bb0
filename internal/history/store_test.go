package history

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// fakeDB records statements and serves canned rows.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execErr  error

	querySQL  string
	queryArgs []any
	rows      [][]any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.querySQL = sql
	f.queryArgs = args
	return &fakeRows{data: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.querySQL = sql
	f.queryArgs = args
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: f.rows[0]}
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos], nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.pos], dest)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func sampleRun() core.Run {
	return core.Run{
		ID:             uuid.MustParse("6f1c2a9e-5b43-4c1e-9d8a-0b6f3e2d1c40"),
		Format:         "SCB",
		Source:         "statement.pdf",
		ClientIP:       "10.0.0.7",
		RowsIn:         5,
		RowsOut:        4,
		HeadersRemoved: 1,
		Summary: core.Summary{
			Rows:      4,
			Outflow:   decimal.RequireFromString("1250.75"),
			Inflow:    decimal.RequireFromString("30000"),
			FirstDate: "01/03/2024",
			LastDate:  "28/03/2024",
		},
		Status:    core.RunSucceeded,
		Duration:  1500 * time.Millisecond,
		CreatedAt: time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC),
	}
}

func sampleRow(run core.Run) []any {
	return []any{
		pgtype.UUID{Bytes: run.ID, Valid: true},
		run.Format,
		run.Source,
		toPgText(run.ClientIP),
		toPgText(run.UserAgent),
		int32(run.RowsIn),
		int32(run.RowsOut),
		int32(run.HeadersRemoved),
		int32(run.UnmatchedDates),
		toPgNumeric(run.Summary.Outflow),
		toPgNumeric(run.Summary.Inflow),
		int32(run.Summary.Unparsable),
		toPgText(run.Summary.FirstDate),
		toPgText(run.Summary.LastDate),
		run.Status,
		toPgText(run.Error),
		run.Duration.Milliseconds(),
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: true},
	}
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := New(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS conversion_runs") {
		t.Errorf("unexpected schema statement: %v", db.execSQL)
	}
}

func TestRecord(t *testing.T) {
	db := &fakeDB{}
	run := sampleRun()

	if err := New(db).Record(context.Background(), run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(db.execArgs) != 1 {
		t.Fatalf("Exec called %d times, want 1", len(db.execArgs))
	}
	args := db.execArgs[0]
	if len(args) != 18 {
		t.Fatalf("got %d args, want 18", len(args))
	}
	if id := args[0].(pgtype.UUID); uuid.UUID(id.Bytes) != run.ID {
		t.Errorf("id arg = %v, want %v", id, run.ID)
	}
	if ua := args[4].(pgtype.Text); ua.Valid {
		t.Error("empty user agent should be stored as NULL")
	}
	outflow := fromPgNumeric(args[9].(pgtype.Numeric))
	if !outflow.Equal(run.Summary.Outflow) {
		t.Errorf("outflow arg = %s, want %s", outflow, run.Summary.Outflow)
	}
	if ms := args[16].(int64); ms != 1500 {
		t.Errorf("duration_ms = %d, want 1500", ms)
	}
}

func TestRecord_MissingID(t *testing.T) {
	run := sampleRun()
	run.ID = uuid.Nil

	if err := New(&fakeDB{}).Record(context.Background(), run); err == nil {
		t.Fatal("Record() expected error for nil id")
	}
}

func TestRecord_ExecError(t *testing.T) {
	db := &fakeDB{execErr: errors.New("connection refused")}

	err := New(db).Record(context.Background(), sampleRun())
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Record() error = %v, want wrapped exec error", err)
	}
}

func TestRecent(t *testing.T) {
	first := sampleRun()
	second := sampleRun()
	second.ID = uuid.MustParse("0b9e2f7c-1d3a-4e55-8c2b-7a4f6d9e3b21")
	second.Status = core.RunFailed
	second.Error = "schema mismatch"
	second.Summary = core.Summary{}

	db := &fakeDB{rows: [][]any{sampleRow(first), sampleRow(second)}}

	runs, err := New(db).Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if db.queryArgs[0] != 10 {
		t.Errorf("limit arg = %v, want 10", db.queryArgs[0])
	}

	got := runs[0]
	if got.ID != first.ID || got.Format != "SCB" || got.Source != "statement.pdf" {
		t.Errorf("run[0] = %+v", got)
	}
	if !got.Summary.Inflow.Equal(first.Summary.Inflow) {
		t.Errorf("Inflow = %s, want %s", got.Summary.Inflow, first.Summary.Inflow)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, first.CreatedAt)
	}

	if runs[1].Status != core.RunFailed || runs[1].Error != "schema mismatch" {
		t.Errorf("run[1] = %+v", runs[1])
	}
	if !runs[1].Summary.Outflow.IsZero() {
		t.Errorf("run[1] Outflow = %s, want 0", runs[1].Summary.Outflow)
	}
}

func TestRecent_DefaultLimit(t *testing.T) {
	db := &fakeDB{}
	runs, err := New(db).Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
	if db.queryArgs[0] != 50 {
		t.Errorf("limit arg = %v, want 50", db.queryArgs[0])
	}
}

func TestGet(t *testing.T) {
	run := sampleRun()
	db := &fakeDB{rows: [][]any{sampleRow(run)}}

	got, err := New(db).Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("ID = %v, want %v", got.ID, run.ID)
	}

	_, err = New(&fakeDB{}).Get(context.Background(), run.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}
}

func TestFromPgNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   pgtype.Numeric
		want string
	}{
		{"null", pgtype.Numeric{}, "0"},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}, "0"},
		{"infinity", pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, "0"},
		{"value", toPgNumeric(decimal.RequireFromString("-42.50")), "-42.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromPgNumeric(tt.in).String(); got != tt.want {
				t.Errorf("fromPgNumeric() = %s, want %s", got, tt.want)
			}
		})
	}
}
