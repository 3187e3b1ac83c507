package model

import (
	"fmt"
	"strings"
)

// WritingMode indicates the text flow direction of a span.
type WritingMode int

const (
	// Horizontal is the default left-to-right writing mode.
	Horizontal WritingMode = iota
	// Vertical is used for vertically-set text (e.g. CJK spine text).
	Vertical
)

// String returns a string representation of the writing mode.
func (m WritingMode) String() string {
	if m == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// FontDescriptor carries the font metadata the extractor reports for a span.
// All fields are optional; a missing descriptor means the font is unknown.
type FontDescriptor struct {
	Name   string  // PostScript name (e.g. "TimesNewRomanPS-BoldMT")
	Family string  // Family name (e.g. "Times New Roman")
	Weight int     // CSS-style weight (400 normal, 700 bold)
	Style  string  // "normal", "italic" or "oblique"
	Size   float64 // Size in points
}

// RawSpan is a contiguous run of text with uniform style, as produced by
// the external extractor. Spans are immutable; all derived structures are
// computed fresh and never modify them.
type RawSpan struct {
	Text string
	Rect Rect
	Mode WritingMode
	Font *FontDescriptor
}

// FontSize returns the span's font size in points, or 0 if unknown.
func (s RawSpan) FontSize() float64 {
	if s.Font == nil {
		return 0
	}
	return s.Font.Size
}

// FontName returns the span's font name, or "" if unknown.
func (s RawSpan) FontName() string {
	if s.Font == nil {
		return ""
	}
	return s.Font.Name
}

// BlockType distinguishes text blocks from image placeholders.
type BlockType int

const (
	// TextBlock is a group of raw text spans.
	TextBlock BlockType = iota
	// ImageBlock is an image placeholder with only a bounding box.
	ImageBlock
)

// String returns a string representation of the block type.
func (t BlockType) String() string {
	if t == ImageBlock {
		return "image"
	}
	return "text"
}

// RawBlock is a group of raw spans (text) or an image placeholder with its
// own bounding box. Block order is the order given by the extractor, which
// is not necessarily reading order.
type RawBlock struct {
	Type  BlockType
	Rect  Rect
	Spans []RawSpan
}

// Text returns the block's span texts joined by newlines.
func (b RawBlock) Text() string {
	if len(b.Spans) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.Spans))
	for _, s := range b.Spans {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n")
}

// RawPage is one page of extractor output: dimensions in points plus an
// ordered sequence of blocks. Immutable per extraction pass.
type RawPage struct {
	Index  int    // 0-based page index
	Number int    // 1-based page number
	Label  string // Optional page label (e.g. "iv", "A-3")
	Width  float64
	Height float64
	Blocks []RawBlock
}

// Bounds returns the page rectangle.
func (p *RawPage) Bounds() Rect {
	return Rect{X: 0, Y: 0, Width: p.Width, Height: p.Height}
}

// Text returns all block texts joined by blank lines, in extractor order.
func (p *RawPage) Text() string {
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		if b.Type != TextBlock {
			continue
		}
		if t := b.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SpanCount returns the number of text spans on the page.
func (p *RawPage) SpanCount() int {
	n := 0
	for _, b := range p.Blocks {
		n += len(b.Spans)
	}
	return n
}

// Validate checks the page against the extractor contract: non-negative
// page dimensions and non-negative geometry on every block and span.
// Violations fail fast with the offending page and field identified.
func (p *RawPage) Validate() error {
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("model: page %d has negative dimensions %gx%g", p.Index, p.Width, p.Height)
	}
	for bi, b := range p.Blocks {
		if b.Rect.Width < 0 || b.Rect.Height < 0 {
			return fmt.Errorf("model: page %d block %d has negative geometry %gx%g",
				p.Index, bi, b.Rect.Width, b.Rect.Height)
		}
		for si, s := range b.Spans {
			if s.Rect.Width < 0 || s.Rect.Height < 0 {
				return fmt.Errorf("model: page %d block %d span %d has negative geometry %gx%g",
					p.Index, bi, si, s.Rect.Width, s.Rect.Height)
			}
		}
	}
	return nil
}
