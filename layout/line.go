package layout

import (
	"sort"
	"strings"

	"github.com/tsawler/folio/model"
)

// LineConfig holds configuration for grouping spans into visual lines.
type LineConfig struct {
	// BaseTolerance is the baseline vertical tolerance in points for
	// assigning a span to a line. The effective tolerance adapts to the
	// median font size but is clamped to [BaseTolerance, 2*BaseTolerance].
	// Default: 3.0
	BaseTolerance float64

	// ToleranceSizeFactor scales the median font size to derive the
	// adaptive tolerance before clamping.
	// Default: 0.25
	ToleranceSizeFactor float64

	// GapSplitMultiplier scales the median font size to derive the
	// horizontal gap above which a line is split in two. Splitting
	// separates justified body text from an adjacent, visually aligned
	// column fragment the column detector missed.
	// Default: 5.0
	GapSplitMultiplier float64

	// GapSplitMinSpans is the span count a line must exceed before gap
	// splitting is considered.
	// Default: 3
	GapSplitMinSpans int

	// OverlapMergeRatio is the fraction of the shorter line's height two
	// lines must vertically overlap to be merged (drop caps, sub- and
	// superscripts).
	// Default: 0.5
	OverlapMergeRatio float64

	// TieWindow is the vertical window in points within which two spans
	// are considered at the same height during sorting.
	// Default: 0.1
	TieWindow float64

	// MaxMergePasses caps the iterative overlap-merge loop.
	// Default: 20
	MaxMergePasses int
}

// DefaultLineConfig returns sensible default configuration.
func DefaultLineConfig() LineConfig {
	return LineConfig{
		BaseTolerance:       3.0,
		ToleranceSizeFactor: 0.25,
		GapSplitMultiplier:  5.0,
		GapSplitMinSpans:    3,
		OverlapMergeRatio:   0.5,
		TieWindow:           0.1,
		MaxMergePasses:      20,
	}
}

// LineBuilder groups the spans of one column into visual lines, splits
// falsely joined lines at large horizontal gaps, and merges visually
// overlapping lines.
type LineBuilder struct {
	config LineConfig
}

// NewLineBuilder creates a line builder with default configuration.
func NewLineBuilder() *LineBuilder {
	return &LineBuilder{config: DefaultLineConfig()}
}

// NewLineBuilderWithConfig creates a line builder with custom configuration.
func NewLineBuilderWithConfig(config LineConfig) *LineBuilder {
	return &LineBuilder{config: config}
}

// lineGroup accumulates spans assigned to one candidate line.
type lineGroup struct {
	spans []model.RawSpan
	tops  []float64
}

// medianTop returns the median top coordinate of the group's spans.
// The median, not a single span's top, is the line's reference point so a
// lone outlier cannot drag the whole line.
func (g *lineGroup) medianTop() float64 {
	return median(g.tops)
}

func (g *lineGroup) add(span model.RawSpan) {
	g.spans = append(g.spans, span)
	g.tops = append(g.tops, span.Rect.Top())
}

// Build groups spans into lines. An empty input yields an empty result,
// never an error. The returned lines are ordered top to bottom, then left
// to right.
func (b *LineBuilder) Build(spans []model.RawSpan) []model.PageLine {
	if len(spans) == 0 {
		return nil
	}

	sorted := b.sortSpans(spans)
	tolerance := b.verticalTolerance(sorted)
	groups := b.groupSpans(sorted, tolerance)
	groups = b.splitWideGaps(groups)

	lines := make([]model.PageLine, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, b.buildLine(g.spans))
	}

	lines = b.mergeOverlapping(lines)
	b.sortLines(lines)
	return lines
}

// sortSpans orders spans top to bottom, then left to right, treating tops
// within the tie window as equal.
func (b *LineBuilder) sortSpans(spans []model.RawSpan) []model.RawSpan {
	sorted := make([]model.RawSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		dy := sorted[i].Rect.Top() - sorted[j].Rect.Top()
		if absFloat(dy) > b.config.TieWindow {
			return dy < 0
		}
		return sorted[i].Rect.Left() < sorted[j].Rect.Left()
	})
	return sorted
}

// verticalTolerance computes the adaptive line-assignment tolerance from
// the median span font size, clamped to [base, 2*base]. Falls back to the
// base tolerance when no sizes are known.
func (b *LineBuilder) verticalTolerance(spans []model.RawSpan) float64 {
	var sizes []float64
	for _, s := range spans {
		if size := s.FontSize(); size > 0 {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		return b.config.BaseTolerance
	}
	return clamp(b.config.ToleranceSizeFactor*median(sizes),
		b.config.BaseTolerance, 2*b.config.BaseTolerance)
}

// groupSpans assigns each span to the group whose median top is within
// tolerance and closest, not merely the first group that fits.
func (b *LineBuilder) groupSpans(spans []model.RawSpan, tolerance float64) []*lineGroup {
	var groups []*lineGroup

	for _, span := range spans {
		var best *lineGroup
		bestDist := tolerance
		for _, g := range groups {
			dist := absFloat(g.medianTop() - span.Rect.Top())
			if dist <= bestDist {
				best = g
				bestDist = dist
			}
		}
		if best != nil {
			best.add(span)
		} else {
			g := &lineGroup{}
			g.add(span)
			groups = append(groups, g)
		}
	}

	return groups
}

// splitWideGaps splits any line with more than GapSplitMinSpans spans at
// its single largest horizontal gap, when that gap exceeds
// GapSplitMultiplier times the line's median font size.
func (b *LineBuilder) splitWideGaps(groups []*lineGroup) []*lineGroup {
	var result []*lineGroup

	for _, g := range groups {
		if len(g.spans) <= b.config.GapSplitMinSpans {
			result = append(result, g)
			continue
		}

		sort.SliceStable(g.spans, func(i, j int) bool {
			return g.spans[i].Rect.Left() < g.spans[j].Rect.Left()
		})

		gapIdx := -1
		gapSize := 0.0
		for i := 1; i < len(g.spans); i++ {
			gap := g.spans[i].Rect.Left() - g.spans[i-1].Rect.Right()
			if gap > gapSize {
				gapSize = gap
				gapIdx = i
			}
		}

		threshold := b.config.GapSplitMultiplier * groupMedianFontSize(g.spans)
		if gapIdx < 0 || threshold <= 0 || gapSize <= threshold {
			result = append(result, g)
			continue
		}

		left := &lineGroup{}
		for _, s := range g.spans[:gapIdx] {
			left.add(s)
		}
		right := &lineGroup{}
		for _, s := range g.spans[gapIdx:] {
			right.add(s)
		}
		result = append(result, left, right)
	}

	return result
}

// groupMedianFontSize returns the median known font size of spans, or the
// median span height when no sizes are known.
func groupMedianFontSize(spans []model.RawSpan) float64 {
	var sizes []float64
	for _, s := range spans {
		if size := s.FontSize(); size > 0 {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) > 0 {
		return median(sizes)
	}
	var heights []float64
	for _, s := range spans {
		if s.Rect.Height > 0 {
			heights = append(heights, s.Rect.Height)
		}
	}
	return median(heights)
}

// buildLine converts a span group into a PageLine: merged bounding box,
// texts joined by single spaces in horizontal order, median font size.
func (b *LineBuilder) buildLine(spans []model.RawSpan) model.PageLine {
	ordered := make([]model.RawSpan, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rect.Left() < ordered[j].Rect.Left()
	})

	var rect *model.Rect
	parts := make([]string, 0, len(ordered))
	for _, s := range ordered {
		merged := model.Union(rect, s.Rect)
		rect = &merged
		parts = append(parts, s.Text)
	}

	return model.PageLine{
		Spans:    ordered,
		Rect:     *rect,
		Text:     strings.Join(parts, " "),
		FontSize: groupMedianFontSize(ordered),
	}
}

// mergeOverlapping iteratively merges any two lines whose vertical overlap
// exceeds OverlapMergeRatio of the shorter line's height, until a full pass
// produces no merge. Handles drop caps and sub/superscripts that span
// grouping left as separate lines. Lines separated by a gap wider than the
// split threshold stay separate, so gap splitting is not undone here.
func (b *LineBuilder) mergeOverlapping(lines []model.PageLine) []model.PageLine {
	for pass := 0; pass < b.config.MaxMergePasses; pass++ {
		merged := false

		for i := 0; i < len(lines) && !merged; i++ {
			for j := i + 1; j < len(lines); j++ {
				overlap := lines[i].Rect.VerticalOverlap(lines[j].Rect)
				shorter := lines[i].Rect.Height
				if lines[j].Rect.Height < shorter {
					shorter = lines[j].Rect.Height
				}
				if shorter <= 0 || overlap <= b.config.OverlapMergeRatio*shorter {
					continue
				}
				if gap := horizontalGap(lines[i].Rect, lines[j].Rect); gap > 0 {
					size := lines[i].FontSize
					if lines[j].FontSize > size {
						size = lines[j].FontSize
					}
					if size > 0 && gap > b.config.GapSplitMultiplier*size {
						continue
					}
				}

				combined := append([]model.RawSpan{}, lines[i].Spans...)
				combined = append(combined, lines[j].Spans...)
				lines[i] = b.buildLine(combined)
				lines = append(lines[:j], lines[j+1:]...)
				merged = true
				break
			}
		}

		if !merged {
			break
		}
	}
	return lines
}

// horizontalGap returns the gap between the X ranges of a and b, or 0 when
// they overlap.
func horizontalGap(a, b model.Rect) float64 {
	if b.Left() > a.Right() {
		return b.Left() - a.Right()
	}
	if a.Left() > b.Right() {
		return a.Left() - b.Right()
	}
	return 0
}

// sortLines orders lines top to bottom, then left to right, treating tops
// within the tie window as equal.
func (b *LineBuilder) sortLines(lines []model.PageLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		dy := lines[i].Rect.Top() - lines[j].Rect.Top()
		if absFloat(dy) > b.config.TieWindow {
			return dy < 0
		}
		return lines[i].Rect.Left() < lines[j].Rect.Left()
	})
}
