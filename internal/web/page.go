package web

import (
	"net/http"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/JonMunkholm/pdf2ynab/internal/web/templates"
	"github.com/dustin/go-humanize"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Index(indexParams(s.service.Formats(), s.cfg.Convert.MaxFileSize))
	if err := page.Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// indexParams builds the upload page data: one picker entry per format and
// the upload limit.
func indexParams(formats []core.Descriptor, maxSize int64) templates.IndexParams {
	opts := make([]templates.FormatOption, len(formats))
	for i, d := range formats {
		label := d.Code
		if d.Description != "" {
			label += " - " + d.Description
		}
		opts[i] = templates.FormatOption{Code: d.Code, Label: label}
	}
	return templates.IndexParams{
		Formats: opts,
		MaxSize: humanize.Bytes(uint64(maxSize)),
	}
}
