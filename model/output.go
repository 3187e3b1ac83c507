package model

import "strings"

// PageLine is an ordered sequence of spans grouped into one visual line
// within a column: merged bounding box, concatenated text, median font size.
// Built fresh per column per page.
type PageLine struct {
	Spans    []RawSpan
	Rect     Rect
	Text     string
	FontSize float64
}

// ProcessedBlock is one reading-order text block in the final output.
type ProcessedBlock struct {
	Role    Role
	Content string
	Rect    Rect

	// Lines holds the reconstructed lines when line-level extraction was
	// requested; nil for whole-block extraction.
	Lines []PageLine
}

// PageStats carries per-page diagnostic counts.
type PageStats struct {
	SpanCount   int
	BlockCount  int
	LineCount   int
	ColumnCount int

	// Removed is the number of spans excluded by margin removal.
	Removed int
}

// ProcessedPage is the final per-page output: reading-order blocks with
// classified roles, the resolved column rectangles, and diagnostics.
type ProcessedPage struct {
	Index  int
	Number int
	Blocks []ProcessedBlock

	// Columns are the reading-order column rectangles resolved for the page.
	Columns []Rect

	// Unassigned counts blocks dropped because no column covered them.
	Unassigned int

	// Broken indicates the page's text layer looks encoding-corrupted.
	// Advisory only; the page is still processed.
	Broken bool

	Stats PageStats
}

// Text returns the page's blocks joined by blank lines.
func (p *ProcessedPage) Text() string {
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		if b.Content != "" {
			parts = append(parts, b.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Document is the final whole-document output, pages in index order.
type Document struct {
	Pages []*ProcessedPage
}

// Text returns the document's page texts joined by blank lines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if t := p.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// PageCount returns the number of processed pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}
