// Package history persists conversion runs to PostgreSQL.
//
// History is optional. The CLI and server only open a pool when
// DATABASE_URL is set, and a failed insert never fails a conversion.
package history

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of pgxpool.Pool used by Store.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNotFound is returned by Get when no run has the given ID.
var ErrNotFound = errors.New("conversion run not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversion_runs (
	id              UUID PRIMARY KEY,
	format          TEXT NOT NULL,
	source          TEXT NOT NULL,
	client_ip       TEXT,
	user_agent      TEXT,
	rows_in         INTEGER NOT NULL,
	rows_out        INTEGER NOT NULL,
	headers_removed INTEGER NOT NULL,
	unmatched_dates INTEGER NOT NULL,
	outflow         NUMERIC NOT NULL,
	inflow          NUMERIC NOT NULL,
	unparsable      INTEGER NOT NULL,
	first_date      TEXT,
	last_date       TEXT,
	status          TEXT NOT NULL,
	error           TEXT,
	duration_ms     BIGINT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversion_runs_created_at_idx ON conversion_runs (created_at DESC);
`

const runColumns = `id, format, source, client_ip, user_agent, rows_in, rows_out,
	headers_removed, unmatched_dates, outflow, inflow, unparsable, first_date,
	last_date, status, error, duration_ms, created_at`

// Store records and lists conversion runs.
type Store struct {
	db DBTX
}

// New returns a Store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the conversion_runs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record inserts run. It implements core.RunRecorder.
func (s *Store) Record(ctx context.Context, run core.Run) error {
	if run.ID == uuid.Nil {
		return errors.New("record run: missing id")
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `INSERT INTO conversion_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		run.Format,
		run.Source,
		toPgText(run.ClientIP),
		toPgText(run.UserAgent),
		run.RowsIn,
		run.RowsOut,
		run.HeadersRemoved,
		run.UnmatchedDates,
		toPgNumeric(run.Summary.Outflow),
		toPgNumeric(run.Summary.Inflow),
		run.Summary.Unparsable,
		toPgText(run.Summary.FirstDate),
		toPgText(run.Summary.LastDate),
		run.Status,
		toPgText(run.Error),
		run.Duration.Milliseconds(),
		pgtype.Timestamptz{Time: createdAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]core.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `SELECT `+runColumns+`
		FROM conversion_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]core.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns a single run by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (core.Run, error) {
	row := s.db.QueryRow(ctx, `SELECT `+runColumns+` FROM conversion_runs WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Run{}, ErrNotFound
	}
	if err != nil {
		return core.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func scanRun(row pgx.Row) (core.Run, error) {
	var (
		id             pgtype.UUID
		format         string
		source         string
		clientIP       pgtype.Text
		userAgent      pgtype.Text
		rowsIn         int32
		rowsOut        int32
		headersRemoved int32
		unmatchedDates int32
		outflow        pgtype.Numeric
		inflow         pgtype.Numeric
		unparsable     int32
		firstDate      pgtype.Text
		lastDate       pgtype.Text
		status         string
		errText        pgtype.Text
		durationMS     int64
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &format, &source, &clientIP, &userAgent,
		&rowsIn, &rowsOut, &headersRemoved, &unmatchedDates,
		&outflow, &inflow, &unparsable, &firstDate, &lastDate,
		&status, &errText, &durationMS, &createdAt,
	)
	if err != nil {
		return core.Run{}, err
	}

	return core.Run{
		ID:             uuid.UUID(id.Bytes),
		Format:         format,
		Source:         source,
		ClientIP:       clientIP.String,
		UserAgent:      userAgent.String,
		RowsIn:         int(rowsIn),
		RowsOut:        int(rowsOut),
		HeadersRemoved: int(headersRemoved),
		UnmatchedDates: int(unmatchedDates),
		Summary: core.Summary{
			Rows:       int(rowsOut),
			Outflow:    fromPgNumeric(outflow),
			Inflow:     fromPgNumeric(inflow),
			Unparsable: int(unparsable),
			FirstDate:  firstDate.String,
			LastDate:   lastDate.String,
		},
		Status:    status,
		Error:     errText.String,
		Duration:  time.Duration(durationMS) * time.Millisecond,
		CreatedAt: createdAt.Time,
	}, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// fromPgNumeric maps NULL, NaN and infinities to zero.
func fromPgNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}
