package layout

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tsawler/folio/model"
)

// ComposeConfig holds configuration for page composition.
type ComposeConfig struct {
	// LineLevel selects column+line extraction instead of whole-block
	// extraction.
	// Default: false
	LineLevel bool

	// UseSmartMargins selects the document-wide repeating-element removal
	// plan; false falls back to the strict per-page band filter.
	// Default: true
	UseSmartMargins bool

	// BlockAssignOverlap is the fraction of a block's area a column must
	// cover for the block to be assigned to it.
	// Default: 0.5
	BlockAssignOverlap float64

	// SpanMembership is the fraction of a span's area a column must cover
	// for the span to participate in that column's line building.
	// Default: 0.5
	SpanMembership float64

	// Workers is the number of pages processed concurrently by
	// ProcessDocument. 0 uses the machine's CPU count.
	// Default: 0
	Workers int

	// Columns, Lines, Styles and Margins configure the underlying
	// detectors.
	Columns ColumnConfig
	Lines   LineConfig
	Styles  StyleConfig
	Margins MarginConfig
}

// DefaultComposeConfig returns sensible default configuration.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		UseSmartMargins:    true,
		BlockAssignOverlap: 0.5,
		SpanMembership:     0.5,
		Columns:            DefaultColumnConfig(),
		Lines:              DefaultLineConfig(),
		Styles:             DefaultStyleConfig(),
		Margins:            DefaultMarginConfig(),
	}
}

// DocumentContext holds the whole-document state the per-page passes
// depend on: the style profile and the margin removal plan. Both passes
// must complete before any page is processed, since margin removal
// decisions depend on seeing all pages and role classification depends on
// the global profile. The two-stage split makes that ordering barrier
// visible in the API: build the context once, then call ProcessPage per
// page.
type DocumentContext struct {
	Profile *StyleProfile
	Margins *MarginPlan

	config ComposeConfig
	log    *zap.Logger
}

// NewDocumentContext runs the whole-document passes over the raw pages.
// Pages are validated against the extractor contract first; a violation
// fails fast with the offending page identified.
func NewDocumentContext(pages []*model.RawPage, config ComposeConfig, log *zap.Logger) (*DocumentContext, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, page := range pages {
		if page == nil {
			return nil, fmt.Errorf("layout: nil page in document")
		}
		if err := page.Validate(); err != nil {
			return nil, err
		}
	}

	profiler := NewStyleProfilerWithConfig(config.Styles)
	profile := profiler.Profile(pages)

	var plan *MarginPlan
	if config.UseSmartMargins {
		plan = NewMarginAnalyzerWithConfig(config.Margins).Collect(pages)
		log.Debug("margin plan built",
			zap.Int("elements", len(plan.Elements)),
			zap.Int("candidates", plan.CandidateCount()))
	}

	return &DocumentContext{
		Profile: profile,
		Margins: plan,
		config:  config,
		log:     log,
	}, nil
}

// ProcessPage turns one raw page into structured output: margin removal,
// column detection, then block or line extraction in reading order. A page
// with no content yields an empty ProcessedPage, never an error.
func (c *DocumentContext) ProcessPage(page *model.RawPage) *model.ProcessedPage {
	out := &model.ProcessedPage{Index: page.Index, Number: page.Number}

	blocks, removed := c.filterMargins(page)
	out.Stats.Removed = removed

	filtered := &model.RawPage{
		Index:  page.Index,
		Number: page.Number,
		Label:  page.Label,
		Width:  page.Width,
		Height: page.Height,
		Blocks: blocks,
	}
	for _, b := range blocks {
		out.Stats.SpanCount += len(b.Spans)
	}

	detector := NewColumnDetectorWithConfig(c.config.Columns)
	detector.SetLogger(c.log)
	colLayout := detector.Detect(filtered)

	out.Broken = colLayout.Broken
	out.Columns = colLayout.Columns
	out.Stats.ColumnCount = len(colLayout.Columns)

	assigned, unassigned := c.assignBlocks(blocks, colLayout.Columns)
	out.Unassigned = unassigned
	if unassigned > 0 {
		c.log.Debug("blocks not covered by any column",
			zap.Int("page", page.Index),
			zap.Int("count", unassigned))
	}

	for col := range colLayout.Columns {
		colBlocks := assigned[col]
		sort.SliceStable(colBlocks, func(i, j int) bool {
			if colBlocks[i].Rect.Top() != colBlocks[j].Rect.Top() {
				return colBlocks[i].Rect.Top() < colBlocks[j].Rect.Top()
			}
			return colBlocks[i].Rect.Left() < colBlocks[j].Rect.Left()
		})

		for _, block := range colBlocks {
			var pb model.ProcessedBlock
			if c.config.LineLevel {
				pb = c.composeLineBlock(block, colLayout.Columns[col])
			} else {
				pb = c.composeWholeBlock(block)
			}
			if pb.Content == "" {
				continue
			}
			out.Stats.LineCount += len(pb.Lines)
			out.Blocks = append(out.Blocks, pb)
		}
	}

	out.Stats.BlockCount = len(out.Blocks)
	return out
}

// filterMargins applies the configured margin removal mode.
func (c *DocumentContext) filterMargins(page *model.RawPage) ([]model.RawBlock, int) {
	if c.config.UseSmartMargins {
		return c.Margins.FilterPage(page)
	}
	return NewMarginAnalyzerWithConfig(c.config.Margins).StrictFilter(page)
}

// assignBlocks maps each text block to the first column (in reading order)
// covering at least BlockAssignOverlap of its area. Blocks no column covers
// are dropped from output but counted for diagnostics.
func (c *DocumentContext) assignBlocks(blocks []model.RawBlock, columns []model.Rect) (map[int][]model.RawBlock, int) {
	assigned := make(map[int][]model.RawBlock, len(columns))
	unassigned := 0

	for _, block := range blocks {
		if block.Type != model.TextBlock || len(block.Spans) == 0 {
			continue
		}
		placed := false
		for col, rect := range columns {
			if block.Rect.OverlapRatio(rect) >= c.config.BlockAssignOverlap {
				assigned[col] = append(assigned[col], block)
				placed = true
				break
			}
		}
		if !placed {
			unassigned++
		}
	}

	return assigned, unassigned
}

// composeWholeBlock emits one block as-is: content is the block's lines in
// extractor order, role is the role of its first line.
func (c *DocumentContext) composeWholeBlock(block model.RawBlock) model.ProcessedBlock {
	parts := make([]string, 0, len(block.Spans))
	for _, span := range block.Spans {
		if t := strings.TrimSpace(span.Text); t != "" {
			parts = append(parts, t)
		}
	}

	return model.ProcessedBlock{
		Role:    c.blockRole(block),
		Content: strings.Join(parts, "\n"),
		Rect:    block.Rect,
	}
}

// composeLineBlock rebuilds a block's lines with the line builder, using
// only spans the column geometrically owns, and emits them top to bottom.
// The block's role is unchanged from whole-block extraction.
func (c *DocumentContext) composeLineBlock(block model.RawBlock, column model.Rect) model.ProcessedBlock {
	var member []model.RawSpan
	for _, span := range block.Spans {
		if span.Rect.OverlapRatio(column) >= c.config.SpanMembership {
			member = append(member, span)
		}
	}

	lines := NewLineBuilderWithConfig(c.config.Lines).Build(member)
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.Text)
	}

	return model.ProcessedBlock{
		Role:    c.blockRole(block),
		Content: strings.Join(parts, "\n"),
		Rect:    block.Rect,
		Lines:   lines,
	}
}

// blockRole classifies a block by its first line's font size.
func (c *DocumentContext) blockRole(block model.RawBlock) model.Role {
	for _, span := range block.Spans {
		if size := span.FontSize(); size > 0 {
			return c.Profile.ClassifySize(size)
		}
	}
	return model.RoleBody
}

// ProcessDocument processes every page through the context. Pages are
// independent once the context exists, so they are fanned out across a
// worker pool; output order always follows page index.
func (c *DocumentContext) ProcessDocument(pages []*model.RawPage) *model.Document {
	workers := c.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(pages) {
		workers = len(pages)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*model.ProcessedPage, len(pages))
	indices := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = c.ProcessPage(pages[i])
			}
		}()
	}
	for i := range pages {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return &model.Document{Pages: results}
}
