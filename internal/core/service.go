package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/pdf2ynab/internal/logging"
	"github.com/google/uuid"
)

// DefaultConvertTimeout bounds a single file conversion.
var DefaultConvertTimeout = 2 * time.Minute

// TableReader turns an uploaded or local file into a raw table.
// The descriptor is passed so readers of unstructured sources (PDF) can
// locate the institution's header row.
type TableReader interface {
	ReadTable(ctx context.Context, name string, data []byte, d Descriptor) (*Table, error)
}

// RunRecorder persists the outcome of each conversion.
type RunRecorder interface {
	Record(ctx context.Context, run Run) error
}

// Run status values.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run describes one conversion, successful or not.
type Run struct {
	ID             uuid.UUID     `json:"id"`
	Format         string        `json:"format"`
	Source         string        `json:"source"`
	ClientIP       string        `json:"client_ip,omitempty"`
	UserAgent      string        `json:"user_agent,omitempty"`
	RowsIn         int           `json:"rows_in"`
	RowsOut        int           `json:"rows_out"`
	HeadersRemoved int           `json:"headers_removed"`
	UnmatchedDates int           `json:"unmatched_dates"`
	Summary        Summary       `json:"summary"`
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Conversion is a completed file conversion.
type Conversion struct {
	Run    Run
	Result *Result
}

// Table returns the canonical output table.
func (c *Conversion) Table() *Table {
	return c.Result.Table
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Options  Options
	Timeout  time.Duration // Per conversion; zero selects DefaultConvertTimeout
	Reader   TableReader   // Required
	Recorder RunRecorder   // Optional
}

// Service converts files end to end: registry lookup, ingestion, the
// normalization pipeline, summary, logging and optional run history.
type Service struct {
	opts     Options
	timeout  time.Duration
	reader   TableReader
	recorder RunRecorder
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Reader == nil {
		return nil, errors.New("service requires a table reader")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}
	return &Service{
		opts:     cfg.Options,
		timeout:  timeout,
		reader:   cfg.Reader,
		recorder: cfg.Recorder,
	}, nil
}

// Formats returns all registered descriptors sorted by code.
func (s *Service) Formats() []Descriptor {
	return All()
}

// ConvertFile converts the file contents data, named name, with the format
// registered under code. An unknown code fails before data is read.
func (s *Service) ConvertFile(ctx context.Context, code, name string, data []byte) (*Conversion, error) {
	d, err := Lookup(code)
	if err != nil {
		return nil, err
	}

	run := Run{
		ID:        uuid.New(),
		Format:    d.Code,
		Source:    name,
		ClientIP:  ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	logger := logging.WithFields(ctx,
		"conversion_id", run.ID.String(),
		"format", d.Code,
		"source", name,
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.convert(ctx, d, name, data)
	run.Duration = time.Since(start)

	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		logger.Warn("conversion failed", "error", err, "duration_ms", run.Duration.Milliseconds())
		s.record(ctx, logger, run)
		return nil, err
	}

	run.Status = RunSucceeded
	run.RowsIn = res.RowsIn
	run.RowsOut = res.Table.Len()
	run.HeadersRemoved = res.HeadersRemoved
	run.UnmatchedDates = len(res.UnmatchedDates)
	run.Summary = Summarize(res.Table, d.DecimalStyle)

	for canonical, aliases := range res.Ambiguous {
		logger.Warn("several source columns map to one column, last alias used",
			"column", canonical,
			"aliases", aliases,
		)
	}
	if n := len(res.UnmatchedDates); n > 0 {
		logger.Warn("dates did not match the format pattern and were left unchanged",
			"count", n,
			"first_row", res.UnmatchedDates[0],
		)
	}
	logger.Info("conversion completed",
		"rows_in", run.RowsIn,
		"rows_out", run.RowsOut,
		"headers_removed", run.HeadersRemoved,
		"outflow", run.Summary.Outflow.String(),
		"inflow", run.Summary.Inflow.String(),
		"duration_ms", run.Duration.Milliseconds(),
	)

	s.record(ctx, logger, run)
	return &Conversion{Run: run, Result: res}, nil
}

func (s *Service) convert(ctx context.Context, d Descriptor, name string, data []byte) (*Result, error) {
	raw, err := s.reader.ReadTable(ctx, name, data, d)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ConvertWith(raw, d, s.opts)
}

// record stores run in the history. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, logger *slog.Logger, run Run) {
	if s.recorder == nil {
		return
	}
	// ctx may already be past its deadline.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.recorder.Record(recCtx, run); err != nil {
		logger.Error("failed to record conversion", "error", err)
	}
}
