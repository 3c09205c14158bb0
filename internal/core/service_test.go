package core

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stubReader struct {
	table *Table
	err   error
	calls int
}

func (r *stubReader) ReadTable(ctx context.Context, name string, data []byte, d Descriptor) (*Table, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.table.Clone(), nil
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []Run
	err  error
}

func (m *memoryRecorder) Record(ctx context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func TestNewService_RequiresReader(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Error("expected error without reader")
	}
}

func TestService_ConvertFile(t *testing.T) {
	withTestRegistry(t, bankDescriptor())
	reader := &stubReader{table: statementTable()}
	rec := &memoryRecorder{}
	svc, err := NewService(ServiceConfig{Reader: reader, Recorder: rec})
	if err != nil {
		t.Fatal(err)
	}

	conv, err := svc.ConvertFile(context.Background(), "test", "statement.csv", []byte("ignored"))
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}

	if conv.Table().Len() != 3 {
		t.Errorf("rows = %d, want 3", conv.Table().Len())
	}
	run := conv.Run
	if run.Status != RunSucceeded || run.Format != "TEST" || run.Source != "statement.csv" {
		t.Errorf("run = %+v", run)
	}
	if run.RowsIn != 4 || run.RowsOut != 3 || run.HeadersRemoved != 1 {
		t.Errorf("RowsIn=%d RowsOut=%d HeadersRemoved=%d", run.RowsIn, run.RowsOut, run.HeadersRemoved)
	}
	if got := run.Summary.Outflow.String(); got != "35500" {
		t.Errorf("Outflow = %s, want 35500", got)
	}
	if len(rec.runs) != 1 || rec.runs[0].ID != run.ID {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestService_UnknownFormatReadsNothing(t *testing.T) {
	withTestRegistry(t, bankDescriptor())
	reader := &stubReader{table: statementTable()}
	rec := &memoryRecorder{}
	svc, _ := NewService(ServiceConfig{Reader: reader, Recorder: rec})

	_, err := svc.ConvertFile(context.Background(), "NOPE", "x.csv", nil)

	var ufe *UnknownFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("got %v, want UnknownFormatError", err)
	}
	if reader.calls != 0 {
		t.Errorf("reader called %d times, want 0", reader.calls)
	}
	if len(rec.runs) != 0 {
		t.Error("unknown format should not be recorded")
	}
}

func TestService_ReadErrorRecorded(t *testing.T) {
	withTestRegistry(t, bankDescriptor())
	reader := &stubReader{err: errors.New("empty file")}
	rec := &memoryRecorder{}
	svc, _ := NewService(ServiceConfig{Reader: reader, Recorder: rec})

	_, err := svc.ConvertFile(context.Background(), "TEST", "x.csv", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if MapError(err).Code != "FILE005" {
		t.Errorf("code = %s, want FILE005", MapError(err).Code)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != RunFailed {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestService_RecorderErrorIgnored(t *testing.T) {
	withTestRegistry(t, bankDescriptor())
	svc, _ := NewService(ServiceConfig{
		Reader:   &stubReader{table: statementTable()},
		Recorder: &memoryRecorder{err: errors.New("connection refused")},
	})

	if _, err := svc.ConvertFile(context.Background(), "TEST", "x.csv", nil); err != nil {
		t.Errorf("ConvertFile: %v", err)
	}
}

func TestService_StrictOptions(t *testing.T) {
	withTestRegistry(t, bankDescriptor())
	raw := NewTable([]string{"date", "description", "withdrawal", "deposit"}, [][]string{
		{"2017-02-01", "x", "1", ""},
	})
	svc, _ := NewService(ServiceConfig{
		Reader:  &stubReader{table: raw},
		Options: Options{StrictDates: true},
	})

	_, err := svc.ConvertFile(context.Background(), "TEST", "x.csv", nil)

	var dfe *DateFormatError
	if !errors.As(err, &dfe) {
		t.Errorf("got %v, want DateFormatError", err)
	}
}

func TestService_ClientFromContext(t *testing.T) {
	withTestRegistry(t, bankDescriptor())
	svc, _ := NewService(ServiceConfig{Reader: &stubReader{table: statementTable()}})

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	ctx = ContextWithUserAgent(ctx, "curl/8.0")

	conv, err := svc.ConvertFile(ctx, "TEST", "x.csv", nil)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Run.ClientIP != "10.0.0.7" || conv.Run.UserAgent != "curl/8.0" {
		t.Errorf("client = %q / %q", conv.Run.ClientIP, conv.Run.UserAgent)
	}
}
