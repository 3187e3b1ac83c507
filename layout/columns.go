package layout

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tsawler/folio/internal/textscan"
	"github.com/tsawler/folio/model"
)

// ColumnConfig holds configuration for column detection.
type ColumnConfig struct {
	// EdgeTolerance is the distance in points within which two column
	// edges are considered the same edge.
	// Default: 3.0
	EdgeTolerance float64

	// MaxVerticalGap is the largest vertical gap in points across which
	// two same-edge rectangles are joined into one column.
	// Default: 10.0
	MaxVerticalGap float64

	// MaxBridgeHeight is the tallest rectangle (e.g. a section heading)
	// that may act as a bridge between two column fragments.
	// Default: 50.0
	MaxBridgeHeight float64

	// MaxBridgeGap is the largest vertical gap in points between a bridge
	// and its neighbors.
	// Default: 20.0
	MaxBridgeGap float64

	// MaxBridgePasses caps the bridge-merge fixed-point iteration.
	// Default: 20
	MaxBridgePasses int

	// ContainedWidthRatio is the minimum width ratio for a rectangle
	// contained in another's X range to be merged into it. The asymmetry
	// is deliberate: a full-width paragraph must not absorb a narrower
	// side column merely because their X ranges overlap.
	// Default: 0.8
	ContainedWidthRatio float64

	// SmallNeighborAreaRatio marks a left neighbor as too small to drive
	// reading order when its area is below this fraction of the
	// rectangle being sorted (filters subscripts and markers).
	// Default: 0.15
	SmallNeighborAreaRatio float64

	// MinNeighborWidth is the minimum width in points for a left neighbor
	// to drive reading order.
	// Default: 50.0
	MinNeighborWidth float64

	// TieWindow is the vertical window in points within which two sort
	// keys are considered at the same height.
	// Default: 0.1
	TieWindow float64

	// HeaderMargin and FooterMargin are bands in points from the top and
	// bottom of the page; blocks entirely inside them are ignored.
	// Defaults: 50.0 each
	HeaderMargin float64
	FooterMargin float64

	// BrokenSampleChars is how many characters of page text the
	// broken-page check samples.
	// Default: 2000
	BrokenSampleChars int

	// BrokenCharRatio flags a page as broken when at least this fraction
	// of sampled characters are replacement characters.
	// Default: 0.5
	BrokenCharRatio float64

	// BrokenRunLength flags a page as broken when a run of this many
	// consecutive replacement characters exists.
	// Default: 16
	BrokenRunLength int
}

// DefaultColumnConfig returns sensible default configuration.
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		EdgeTolerance:          3.0,
		MaxVerticalGap:         10.0,
		MaxBridgeHeight:        50.0,
		MaxBridgeGap:           20.0,
		MaxBridgePasses:        20,
		ContainedWidthRatio:    0.8,
		SmallNeighborAreaRatio: 0.15,
		MinNeighborWidth:       50.0,
		TieWindow:              0.1,
		HeaderMargin:           50.0,
		FooterMargin:           50.0,
		BrokenSampleChars:      2000,
		BrokenCharRatio:        0.5,
		BrokenRunLength:        16,
	}
}

// ColumnLayout is the result of column detection: reading-order column
// rectangles plus data-quality diagnostics.
type ColumnLayout struct {
	// Columns are the detected column rectangles in reading order.
	// Pairwise non-overlapping once the merge phases complete.
	Columns []model.Rect

	// Broken indicates the page text looks encoding-corrupted. Advisory:
	// detection still ran.
	Broken bool

	// Dropped counts blocks removed by the filter phase (margins,
	// vertical writing, decorative content).
	Dropped int
}

// ColumnCount returns the number of detected columns.
func (l *ColumnLayout) ColumnCount() int {
	if l == nil {
		return 0
	}
	return len(l.Columns)
}

// ColumnDetector groups a page's text blocks into column rectangles and
// orders them for correct multi-column reading.
type ColumnDetector struct {
	config ColumnConfig
	log    *zap.Logger
}

// NewColumnDetector creates a column detector with default configuration.
func NewColumnDetector() *ColumnDetector {
	return NewColumnDetectorWithConfig(DefaultColumnConfig())
}

// NewColumnDetectorWithConfig creates a column detector with custom
// configuration.
func NewColumnDetectorWithConfig(config ColumnConfig) *ColumnDetector {
	return &ColumnDetector{config: config, log: zap.NewNop()}
}

// SetLogger attaches a logger for advisory diagnostics. A nil logger
// restores the no-op default.
func (d *ColumnDetector) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	d.log = log
}

// Detect produces the column layout for one page. An empty page yields an
// empty layout, never an error.
func (d *ColumnDetector) Detect(page *model.RawPage) *ColumnLayout {
	layout := &ColumnLayout{}
	if page == nil || len(page.Blocks) == 0 {
		return layout
	}

	layout.Broken = d.checkBroken(page)

	rects, dropped := d.filterBlocks(page)
	layout.Dropped = dropped
	if len(rects) == 0 {
		return layout
	}

	cols := d.mergeIntoColumns(rects)
	cols = d.joinAndNormalize(cols)
	cols = d.bridgeMerge(cols)
	cols = d.resolveResidualOverlaps(cols)
	d.sortReadingOrder(cols)

	layout.Columns = cols
	return layout
}

// checkBroken samples page text and flags font-encoding corruption: at
// least half the sampled characters are replacement characters, or a long
// run of them exists. Advisory only; a broken page still proceeds through
// detection.
func (d *ColumnDetector) checkBroken(page *model.RawPage) bool {
	sample := []rune(page.Text())
	if len(sample) == 0 {
		return false
	}
	if d.config.BrokenSampleChars > 0 && len(sample) > d.config.BrokenSampleChars {
		sample = sample[:d.config.BrokenSampleChars]
	}

	ratio, run := textscan.ReplacementStats(string(sample))
	broken := ratio >= d.config.BrokenCharRatio || run >= d.config.BrokenRunLength
	if broken {
		d.log.Warn("page text appears encoding-corrupted",
			zap.Int("page", page.Index),
			zap.Float64("replacement_ratio", ratio),
			zap.Int("longest_run", run))
	}
	return broken
}

// filterBlocks drops blocks inside header/footer margins, vertical-writing
// blocks, and purely decorative blocks. Each surviving block's rectangle is
// the union of its valid lines only.
func (d *ColumnDetector) filterBlocks(page *model.RawPage) ([]model.Rect, int) {
	var rects []model.Rect
	dropped := 0

	for _, block := range page.Blocks {
		if block.Type != model.TextBlock || len(block.Spans) == 0 {
			dropped++
			continue
		}
		if d.inMarginBand(block.Rect, page) {
			dropped++
			continue
		}
		if isVerticalBlock(block) {
			dropped++
			continue
		}
		if isDecorativeBlock(block) {
			dropped++
			continue
		}

		var rect *model.Rect
		for _, span := range block.Spans {
			if !textscan.IsValidLine(span.Text) {
				continue
			}
			merged := model.Union(rect, span.Rect)
			rect = &merged
		}
		if rect == nil || rect.IsEmpty() {
			dropped++
			continue
		}
		rects = append(rects, *rect)
	}

	return rects, dropped
}

// inMarginBand reports whether a rectangle sits entirely inside the
// header or footer margin band.
func (d *ColumnDetector) inMarginBand(r model.Rect, page *model.RawPage) bool {
	if r.Bottom() <= d.config.HeaderMargin {
		return true
	}
	return r.Top() >= page.Height-d.config.FooterMargin
}

// isVerticalBlock reports whether the majority of a block's spans are
// vertically written.
func isVerticalBlock(block model.RawBlock) bool {
	vertical := 0
	for _, s := range block.Spans {
		if s.Mode == model.Vertical {
			vertical++
		}
	}
	return vertical*2 > len(block.Spans)
}

// isDecorativeBlock reports whether every span in a block is decorative.
func isDecorativeBlock(block model.RawBlock) bool {
	for _, s := range block.Spans {
		if !textscan.IsDecorative(s.Text, s.FontName()) {
			return false
		}
	}
	return true
}

// mergeIntoColumns greedily unions each block rectangle into an existing
// accumulator when they horizontally overlap, share edges or satisfy the
// contained-width rule, and the union would not intersect any other
// accumulator. Otherwise the rectangle starts a new accumulator.
func (d *ColumnDetector) mergeIntoColumns(rects []model.Rect) []model.Rect {
	var cols []model.Rect

	for _, r := range rects {
		merged := false
		for i := range cols {
			if !cols[i].HorizontallyOverlaps(r) {
				continue
			}
			if !d.edgesCompatible(cols[i], r) {
				continue
			}
			union := cols[i].Union(r)
			if intersectsOther(union, cols, i) {
				continue
			}
			cols[i] = union
			merged = true
			break
		}
		if !merged {
			cols = append(cols, r)
		}
	}

	return cols
}

// edgesCompatible reports whether two rectangles share near-identical left
// and right edges, or one is contained in the other's X range with a width
// ratio above ContainedWidthRatio.
func (d *ColumnDetector) edgesCompatible(a, b model.Rect) bool {
	if a.SameEdges(b, d.config.EdgeTolerance) {
		return true
	}
	if b.HorizontallyContained(a, d.config.EdgeTolerance) && a.Width > 0 &&
		b.Width/a.Width > d.config.ContainedWidthRatio {
		return true
	}
	if a.HorizontallyContained(b, d.config.EdgeTolerance) && b.Width > 0 &&
		a.Width/b.Width > d.config.ContainedWidthRatio {
		return true
	}
	return false
}

// intersectsOther reports whether r intersects any rectangle in rects
// other than the one at skip.
func intersectsOther(r model.Rect, rects []model.Rect, skip int) bool {
	for i := range rects {
		if i == skip {
			continue
		}
		if r.Intersects(rects[i]) {
			return true
		}
	}
	return false
}

// joinAndNormalize snaps near-equal left/right edges across all
// accumulators to a common value, then repeatedly unions vertically
// adjacent same-edge rectangles until no more joins apply.
func (d *ColumnDetector) joinAndNormalize(cols []model.Rect) []model.Rect {
	d.snapEdges(cols)

	for pass := 0; pass < d.config.MaxBridgePasses; pass++ {
		joined := false

	outer:
		for i := 0; i < len(cols); i++ {
			for j := i + 1; j < len(cols); j++ {
				if !cols[i].SameEdges(cols[j], d.config.EdgeTolerance) {
					continue
				}
				if cols[i].VerticalGap(cols[j]) > d.config.MaxVerticalGap {
					continue
				}
				union := cols[i].Union(cols[j])
				if intersectsOtherOfTwo(union, cols, i, j) {
					continue
				}
				cols[i] = union
				cols = append(cols[:j], cols[j+1:]...)
				joined = true
				break outer
			}
		}

		if !joined {
			break
		}
	}

	return cols
}

// snapEdges clusters lefts and rights within the edge tolerance and
// rewrites each member to the cluster mean.
func (d *ColumnDetector) snapEdges(cols []model.Rect) {
	lefts := make([]float64, len(cols))
	rights := make([]float64, len(cols))
	for i, c := range cols {
		lefts[i] = c.Left()
		rights[i] = c.Right()
	}
	snapValues(lefts, d.config.EdgeTolerance)
	snapValues(rights, d.config.EdgeTolerance)

	for i := range cols {
		cols[i].X = lefts[i]
		cols[i].Width = rights[i] - lefts[i]
	}
}

// snapValues rewrites values within tolerance of each other to their
// cluster mean, in place.
func snapValues(values []float64, tolerance float64) {
	type entry struct {
		value float64
		index int
	}
	entries := make([]entry, len(values))
	for i, v := range values {
		entries[i] = entry{v, i}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	start := 0
	for start < len(entries) {
		end := start + 1
		for end < len(entries) && entries[end].value-entries[end-1].value <= tolerance {
			end++
		}
		sum := 0.0
		for _, e := range entries[start:end] {
			sum += e.value
		}
		mean := sum / float64(end-start)
		for _, e := range entries[start:end] {
			values[e.index] = mean
		}
		start = end
	}
}

// intersectsOtherOfTwo reports whether r intersects any rectangle other
// than the two at skipA and skipB.
func intersectsOtherOfTwo(r model.Rect, rects []model.Rect, skipA, skipB int) bool {
	for i := range rects {
		if i == skipA || i == skipB {
			continue
		}
		if r.Intersects(rects[i]) {
			return true
		}
	}
	return false
}

// bridgeMerge collapses a short rectangle (a heading) sandwiched between
// two taller rectangles with matching edges into a single column run,
// iterating to a fixed point since chains of bridges (heading, then
// sub-heading) must fully collapse.
func (d *ColumnDetector) bridgeMerge(cols []model.Rect) []model.Rect {
	for pass := 0; pass < d.config.MaxBridgePasses; pass++ {
		merged := false

	scan:
		for s := 0; s < len(cols); s++ {
			if cols[s].Height > d.config.MaxBridgeHeight {
				continue
			}
			for a := 0; a < len(cols); a++ {
				if a == s || !d.isAbove(cols[a], cols[s]) {
					continue
				}
				for b := 0; b < len(cols); b++ {
					if b == s || b == a || !d.isAbove(cols[s], cols[b]) {
						continue
					}
					if !d.bridgeable(cols[s], cols[a], cols[b]) {
						continue
					}
					union := cols[a].Union(cols[s]).Union(cols[b])
					if intersectsOtherOfThree(union, cols, s, a, b) {
						continue
					}

					cols[a] = union
					removed := []int{s, b}
					sort.Sort(sort.Reverse(sort.IntSlice(removed)))
					for _, idx := range removed {
						cols = append(cols[:idx], cols[idx+1:]...)
					}
					merged = true
					break scan
				}
			}
		}

		if !merged {
			break
		}
	}

	return cols
}

// isAbove reports whether a sits above b within the bridge gap.
func (d *ColumnDetector) isAbove(a, b model.Rect) bool {
	if a.Bottom() > b.Top()+d.config.EdgeTolerance {
		return false
	}
	return b.Top()-a.Bottom() <= d.config.MaxBridgeGap
}

// bridgeable reports whether the short rectangle s legitimately bridges
// the taller rectangles a (above) and b (below): a and b have matching
// edges and are taller than s, and s either significantly overlaps both in
// X or is horizontally contained in the wider one.
func (d *ColumnDetector) bridgeable(s, a, b model.Rect) bool {
	if a.Height <= s.Height && b.Height <= s.Height {
		return false
	}
	if !a.SameEdges(b, d.config.EdgeTolerance) {
		return false
	}

	wider := a
	if b.Width > wider.Width {
		wider = b
	}
	if s.HorizontallyContained(wider, d.config.EdgeTolerance) {
		return true
	}
	return xOverlapRatio(s, a) > 0.5 && xOverlapRatio(s, b) > 0.5
}

// xOverlapRatio returns the fraction of a's width shared with b's X range.
func xOverlapRatio(a, b model.Rect) float64 {
	if a.Width <= 0 {
		return 0
	}
	left := a.Left()
	if b.Left() > left {
		left = b.Left()
	}
	right := a.Right()
	if b.Right() < right {
		right = b.Right()
	}
	if right <= left {
		return 0
	}
	return (right - left) / a.Width
}

// intersectsOtherOfThree reports whether r intersects any rectangle other
// than the three given indices.
func intersectsOtherOfThree(r model.Rect, rects []model.Rect, skipA, skipB, skipC int) bool {
	for i := range rects {
		if i == skipA || i == skipB || i == skipC {
			continue
		}
		if r.Intersects(rects[i]) {
			return true
		}
	}
	return false
}

// resolveResidualOverlaps enforces the non-overlap post-condition. Raw
// block rectangles can overlap before any merge criterion applies; any
// pair still intersecting after the merge phases is unioned outright,
// iterating to a fixed point.
func (d *ColumnDetector) resolveResidualOverlaps(cols []model.Rect) []model.Rect {
	for pass := 0; pass < d.config.MaxBridgePasses; pass++ {
		merged := false

	outer:
		for i := 0; i < len(cols); i++ {
			for j := i + 1; j < len(cols); j++ {
				if !cols[i].Intersects(cols[j]) {
					continue
				}
				d.log.Debug("unioning residually overlapping columns",
					zap.Int("a", i), zap.Int("b", j))
				cols[i] = cols[i].Union(cols[j])
				cols = append(cols[:j], cols[j+1:]...)
				merged = true
				break outer
			}
		}

		if !merged {
			break
		}
	}
	return cols
}

// sortReadingOrder stable-sorts rectangles for correct multi-column
// reading. A rectangle with a qualifying neighbor to its left inherits
// that neighbor's top as its primary key, producing left-column-then-
// right-column ordering for two-column layouts while purely vertical
// single-column content stays top-to-bottom.
func (d *ColumnDetector) sortReadingOrder(cols []model.Rect) {
	type sortKey struct {
		y, x float64
	}
	keys := make(map[model.Rect]sortKey, len(cols))

	for _, r := range cols {
		key := sortKey{y: r.Top(), x: r.Left()}
		if n, ok := d.closestLeftNeighbor(r, cols); ok {
			key.y = n.Top()
		}
		keys[r] = key
	}

	sort.SliceStable(cols, func(i, j int) bool {
		a, b := keys[cols[i]], keys[cols[j]]
		if absFloat(a.y-b.y) > d.config.TieWindow {
			return a.y < b.y
		}
		return a.x < b.x
	})
}

// closestLeftNeighbor finds the nearest rectangle left of r that
// vertically overlaps it and is not small (area below
// SmallNeighborAreaRatio of r's, or narrower than MinNeighborWidth).
func (d *ColumnDetector) closestLeftNeighbor(r model.Rect, cols []model.Rect) (model.Rect, bool) {
	var best model.Rect
	bestDist := -1.0
	found := false

	for _, c := range cols {
		if c == r {
			continue
		}
		if c.Right() > r.Left()+d.config.EdgeTolerance {
			continue
		}
		if c.VerticalOverlap(r) <= 0 {
			continue
		}
		if c.Area() < d.config.SmallNeighborAreaRatio*r.Area() || c.Width < d.config.MinNeighborWidth {
			continue
		}
		dist := r.Left() - c.Right()
		if !found || dist < bestDist {
			best = c
			bestDist = dist
			found = true
		}
	}

	return best, found
}
