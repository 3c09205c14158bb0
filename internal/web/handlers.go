package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/JonMunkholm/pdf2ynab/internal/export"
	"github.com/JonMunkholm/pdf2ynab/internal/logging"
	"github.com/go-chi/chi/v5"
)

// maxMemory is the multipart form size kept in memory before spilling to disk.
const maxMemory = 32 << 20

var errNoFile = core.NewCodedError("FILE004", "no file provided")

// FormatInfo is the JSON view of a registered format.
type FormatInfo struct {
	Code            string              `json:"code"`
	Description     string              `json:"description"`
	Columns         map[string][]string `json:"columns"`
	DatePattern     string              `json:"date_pattern"`
	DateReplacement string              `json:"date_replacement"`
	DecimalStyle    string              `json:"decimal_style"`
	DateSeparator   string              `json:"date_separator,omitempty"`
}

func newFormatInfo(d core.Descriptor) FormatInfo {
	cols := make(map[string][]string, len(d.Columns))
	for _, m := range d.Columns {
		cols[m.Canonical] = append([]string(nil), m.Aliases...)
	}
	return FormatInfo{
		Code:            d.Code,
		Description:     d.Description,
		Columns:         cols,
		DatePattern:     d.DatePattern,
		DateReplacement: d.DateReplacement,
		DecimalStyle:    string(d.DecimalStyle),
		DateSeparator:   string(d.DateSeparator),
	}
}

// PreviewResponse is returned by POST /api/preview/{code}.
type PreviewResponse struct {
	Run            core.Run            `json:"run"`
	Header         []string            `json:"header"`
	Rows           [][]string          `json:"rows"`
	Truncated      bool                `json:"truncated"`
	Ambiguous      map[string][]string `json:"ambiguous,omitempty"`
	UnmatchedDates []int               `json:"unmatched_dates,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":      "ok",
		"formats":     core.FormatCount(),
		"conversions": s.limiter.Status(),
		"history":     s.history != nil,
	})
}

func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	formats := s.service.Formats()
	out := make([]FormatInfo, 0, len(formats))
	for _, d := range formats {
		out = append(out, newFormatInfo(d))
	}
	writeJSON(w, out)
}

func (s *Server) handleGetFormat(w http.ResponseWriter, r *http.Request) {
	d, err := core.Lookup(chi.URLParam(r, "code"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newFormatInfo(d))
}

// handleConvert converts the multipart "file" field and streams the result.
// The output format is taken from ?format= (csv or xlsx, default csv).
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	s.convertUpload(w, r, chi.URLParam(r, "code"), r.URL.Query().Get("format"))
}

// handleConvertForm serves the upload form on the index page, where the
// format code and output format are form fields.
func (s *Server) handleConvertForm(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.convertUpload(w, r, r.FormValue("code"), r.FormValue("output"))
}

func (s *Server) convertUpload(w http.ResponseWriter, r *http.Request, code, output string) {
	out, err := export.ParseFormat(output)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	conv, err := s.runConversion(w, r, code)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, conv.Table(), out); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(conv.Run.Source, out)))
	w.Header().Set("X-Conversion-ID", conv.Run.ID.String())
	w.Header().Set("X-Rows", fmt.Sprint(conv.Run.RowsOut))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("failed to write conversion", "error", err)
	}
}

// handlePreview converts the upload and returns the first rows as JSON.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	conv, err := s.runConversion(w, r, chi.URLParam(r, "code"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	t := conv.Table()
	n := min(len(t.Rows), s.cfg.Convert.PreviewRows)
	writeJSON(w, PreviewResponse{
		Run:            conv.Run,
		Header:         t.Header,
		Rows:           t.Rows[:n],
		Truncated:      n < len(t.Rows),
		Ambiguous:      conv.Result.Ambiguous,
		UnmatchedDates: conv.Result.UnmatchedDates,
	})
}

// runConversion takes a limiter slot, reads the uploaded file and converts it.
func (s *Server) runConversion(w http.ResponseWriter, r *http.Request, code string) (*core.Conversion, error) {
	// Unknown codes fail before the upload is read.
	if _, err := core.Lookup(code); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	name, data, err := s.readUpload(w, r)
	if err != nil {
		return nil, err
	}

	ctx := WithRequestMetadata(r.Context(), r)
	return s.service.ConvertFile(ctx, code, name, data)
}

// parseUpload parses the multipart body once, bounded by the configured
// file size plus room for multipart framing.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxFileSize+1<<20)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.WithCode("FILE001", fmt.Errorf("file too large: request exceeds %d bytes", tooLarge.Limit))
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return errNoFile
		}
		return fmt.Errorf("read upload: %w", err)
	}
	return nil
}

// readUpload returns the name and contents of the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	if err := s.parseUpload(w, r); err != nil {
		return "", nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	limit := s.cfg.Convert.MaxFileSize
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", nil, core.WithCode("FILE001", fmt.Errorf("file too large: %s exceeds limit of %d bytes", header.Filename, limit))
	}
	return filepath.Base(header.Filename), data, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, map[string]any{"enabled": false, "runs": []core.Run{}})
		return
	}

	runs, err := s.history.Recent(r.Context(), s.cfg.Database.HistoryLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"enabled": true, "runs": runs})
}

// outputName derives the download name: statement.pdf -> statement-ynab.csv.
func outputName(source string, f export.Format) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "transactions"
	}
	return base + "-ynab" + f.Extension()
}
