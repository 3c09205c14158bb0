package ingest

// pdf.go extracts a transaction table from a text PDF statement.
//
// Text runs on each visual row are merged into cells wherever the horizontal
// gap between glyphs exceeds a column gap. The first row on a page that looks
// like the institution's header (see core.Descriptor.MatchesHeader) fixes the
// column layout for that page; rows above it are preamble and are skipped.
// A page with no header row continues the previous page's layout. Pages are
// concatenated and every page header after the first is kept as a copy of
// the first header so the pipeline's header deduplication removes it.

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/ledongthuc/pdf"
)

const (
	// A gap wider than this many font sizes starts a new cell.
	cellGapEm = 0.9
	// A gap wider than this many font sizes inserts a space inside a cell.
	wordGapEm = 0.15
	// Rows with fewer non-empty cells are page furniture (titles, footers).
	minCellsPerRow = 2
)

// chunk is a run of text occupying [x0, x1] on one row.
type chunk struct {
	x0, x1 float64
	text   string
}

func (c chunk) center() float64 { return (c.x0 + c.x1) / 2 }

// layout is the column geometry of a page header.
type layout struct {
	columns []chunk
	target  []int // Page column -> table column, or -1
}

// ReadPDF extracts the transaction table from every page of a PDF.
func ReadPDF(ctx context.Context, data []byte, d core.Descriptor) (table *core.Table, err error) {
	// The PDF parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, core.WithCode("FILE007", fmt.Errorf("invalid pdf: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, core.WithCode("FILE007", fmt.Errorf("invalid pdf: %w", err))
	}

	var pages [][][]chunk
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, core.WithCode("FILE007", fmt.Errorf("invalid pdf: page %d: %w", i, err))
		}
		page := make([][]chunk, 0, len(rows))
		for _, row := range rows {
			if cells := groupCells(row.Content); len(cells) > 0 {
				page = append(page, cells)
			}
		}
		pages = append(pages, page)
	}

	table = assemble(pages, d)
	if table == nil {
		return nil, core.WithCode("FILE007", fmt.Errorf("invalid pdf: no %s transaction header found", d.Code))
	}
	return table, nil
}

// groupCells merges the glyph runs of one visual row into cells, left to right.
func groupCells(texts []pdf.Text) []chunk {
	sorted := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []chunk
	var b strings.Builder
	var cur chunk
	open := false

	flush := func() {
		if !open {
			return
		}
		cur.text = strings.TrimSpace(b.String())
		if cur.text != "" {
			cells = append(cells, cur)
		}
		b.Reset()
		open = false
	}

	for _, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		end := t.X + glyphWidth(t, size)

		if open {
			gap := t.X - cur.x1
			switch {
			case gap > cellGapEm*size:
				flush()
			case gap > wordGapEm*size:
				b.WriteByte(' ')
			}
		}
		if !open {
			cur = chunk{x0: t.X, x1: end}
			open = true
		}
		b.WriteString(t.S)
		cur.x1 = math.Max(cur.x1, end)
	}
	flush()
	return cells
}

// glyphWidth returns the advance of t, estimating it when the font carries
// no width table.
func glyphWidth(t pdf.Text, size float64) float64 {
	if t.W > 0 {
		return t.W
	}
	return 0.5 * size * float64(len([]rune(t.S)))
}

// assemble builds the raw table from the cell rows of each page. Returns nil
// if no page has a header row.
func assemble(pages [][][]chunk, d core.Descriptor) *core.Table {
	var header []string
	var rows [][]string
	var cur *layout

	for _, page := range pages {
		// A page without its own header continues the previous page's table.
		if pageHasHeader(page, d) {
			cur = nil
		}
		for _, cells := range page {
			texts := chunkTexts(cells)

			if d.MatchesHeader(texts) {
				if header == nil {
					header = texts
					cur = newLayout(cells, header)
					continue
				}
				// Repeated headers are emitted as the first page's header
				// verbatim so the deduplicator matches them exactly.
				cur = newLayout(cells, header)
				rows = append(rows, append([]string(nil), header...))
				continue
			}
			if cur == nil || nonEmpty(texts) < minCellsPerRow {
				continue
			}
			rows = append(rows, cur.place(cells, len(header)))
		}
	}

	if header == nil {
		return nil
	}
	return core.NewTable(header, rows)
}

func pageHasHeader(page [][]chunk, d core.Descriptor) bool {
	for _, cells := range page {
		if d.MatchesHeader(chunkTexts(cells)) {
			return true
		}
	}
	return false
}

// newLayout maps the columns of a page header onto the table header by name.
func newLayout(cells []chunk, header []string) *layout {
	idx := core.MakeHeaderIndex(header)
	l := &layout{columns: cells, target: make([]int, len(cells))}
	for i, c := range cells {
		if pos, ok := idx[core.HeaderKey(c.text)]; ok {
			l.target[i] = pos
		} else {
			l.target[i] = -1
		}
	}
	return l
}

// place assigns each cell to the page column it overlaps most (or, with no
// overlap, the nearest one) and returns a row of width columns.
func (l *layout) place(cells []chunk, width int) []string {
	row := make([]string, width)
	for _, c := range cells {
		col := l.columnFor(c)
		if col < 0 {
			continue
		}
		pos := l.target[col]
		if pos < 0 || pos >= width {
			continue
		}
		if row[pos] == "" {
			row[pos] = c.text
		} else {
			row[pos] += " " + c.text
		}
	}
	return row
}

func (l *layout) columnFor(c chunk) int {
	best, bestOverlap := -1, 0.0
	for i, h := range l.columns {
		overlap := math.Min(c.x1, h.x1) - math.Max(c.x0, h.x0)
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	if best >= 0 {
		return best
	}

	bestDist := math.Inf(1)
	for i, h := range l.columns {
		if dist := math.Abs(c.center() - h.center()); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func chunkTexts(cells []chunk) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.text
	}
	return out
}

func nonEmpty(texts []string) int {
	n := 0
	for _, t := range texts {
		if t != "" {
			n++
		}
	}
	return n
}
