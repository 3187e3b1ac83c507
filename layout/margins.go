package layout

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/folio/model"
)

// MarginZone identifies which page edge a text element sits near. When an
// element could match multiple zones, priority is top, then bottom, then
// left, then right.
type MarginZone int

const (
	ZoneNone MarginZone = iota
	ZoneTop
	ZoneBottom
	ZoneLeft
	ZoneRight
)

// String returns a string representation of the margin zone.
func (z MarginZone) String() string {
	switch z {
	case ZoneTop:
		return "top"
	case ZoneBottom:
		return "bottom"
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	default:
		return "none"
	}
}

// MarginBands is a set of margin band widths in points, one per page edge.
type MarginBands struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// MarginConfig holds configuration for margin analysis.
type MarginConfig struct {
	// Strict is the band set used by the strict filter: any line entirely
	// inside a strict band is dropped with no cross-page analysis.
	// Defaults: 36pt top/bottom, 24pt left/right
	Strict MarginBands

	// Smart is the wider band set scanned for repeating headers/footers
	// in smart mode.
	// Defaults: 72pt top/bottom, 48pt left/right
	Smart MarginBands

	// RepeatThreshold is the fraction of pages on which a text must
	// repeat in a zone to become a removal candidate.
	// Default: 0.5
	RepeatThreshold float64

	// PositionTolerance is the maximum difference in edge distance for
	// two occurrences to count as the same running element.
	// Default: 5.0
	PositionTolerance float64

	// SequenceAgreement is the fraction of a numeric candidate's
	// occurrences that must share the same page-number offset to count
	// as a paginated sequence (folio numbers).
	// Default: 0.8
	SequenceAgreement float64

	// MinPages is the minimum document length for smart analysis.
	// Default: 2
	MinPages int
}

// DefaultMarginConfig returns sensible default configuration.
func DefaultMarginConfig() MarginConfig {
	return MarginConfig{
		Strict:            MarginBands{Top: 36, Bottom: 36, Left: 24, Right: 24},
		Smart:             MarginBands{Top: 72, Bottom: 72, Left: 48, Right: 48},
		RepeatThreshold:   0.5,
		PositionTolerance: 5.0,
		SequenceAgreement: 0.8,
		MinPages:          2,
	}
}

// MarginElement is one text line found in a margin zone, tagged with its
// source page. Elements are collected across the whole document before any
// removal decision is made.
type MarginElement struct {
	Text      string
	Rect      model.Rect
	PageIndex int
	Zone      MarginZone

	// EdgeDist is the element's distance from the zone's page edge.
	EdgeDist float64
}

// MarginAnalyzer classifies text elements by proximity to page edges and
// detects elements repeating across many pages (running headers/footers).
type MarginAnalyzer struct {
	config MarginConfig
}

// NewMarginAnalyzer creates an analyzer with default configuration.
func NewMarginAnalyzer() *MarginAnalyzer {
	return NewMarginAnalyzerWithConfig(DefaultMarginConfig())
}

// NewMarginAnalyzerWithConfig creates an analyzer with custom configuration.
func NewMarginAnalyzerWithConfig(config MarginConfig) *MarginAnalyzer {
	return &MarginAnalyzer{config: config}
}

// zoneFor classifies a rectangle against a band set, honoring the
// top/bottom/left/right priority.
func zoneFor(r model.Rect, pageWidth, pageHeight float64, bands MarginBands) (MarginZone, float64) {
	switch {
	case r.Bottom() <= bands.Top:
		return ZoneTop, r.Top()
	case r.Top() >= pageHeight-bands.Bottom:
		return ZoneBottom, pageHeight - r.Bottom()
	case r.Right() <= bands.Left:
		return ZoneLeft, r.Left()
	case r.Left() >= pageWidth-bands.Right:
		return ZoneRight, pageWidth - r.Right()
	default:
		return ZoneNone, 0
	}
}

// StrictFilter drops every span whose bounding box falls entirely in a
// strict margin band, with no cross-page analysis. Returns the surviving
// blocks and the number of removed spans.
func (a *MarginAnalyzer) StrictFilter(page *model.RawPage) ([]model.RawBlock, int) {
	removed := 0
	blocks := make([]model.RawBlock, 0, len(page.Blocks))

	for _, block := range page.Blocks {
		if block.Type != model.TextBlock {
			blocks = append(blocks, block)
			continue
		}

		kept := make([]model.RawSpan, 0, len(block.Spans))
		for _, span := range block.Spans {
			zone, _ := zoneFor(span.Rect, page.Width, page.Height, a.config.Strict)
			if zone == ZoneNone {
				kept = append(kept, span)
			} else {
				removed++
			}
		}
		if len(kept) > 0 {
			blocks = append(blocks, model.RawBlock{Type: block.Type, Rect: block.Rect, Spans: kept})
		}
	}

	return blocks, removed
}

// Collect gathers every margin-zone line across the whole document and
// identifies removal candidates: text repeating verbatim, or as a numeric
// sequence tracking page numbers, on at least RepeatThreshold of pages in
// a given zone. Removal is a document-wide judgment, not a per-page one.
func (a *MarginAnalyzer) Collect(pages []*model.RawPage) *MarginPlan {
	plan := &MarginPlan{config: a.config}
	if len(pages) < a.config.MinPages {
		return plan
	}

	elements := a.collectElements(pages)
	plan.Elements = elements

	minPages := a.config.RepeatThreshold * float64(len(pages))
	plan.verbatim = a.verbatimCandidates(elements, minPages)
	plan.sequences = a.sequenceCandidates(elements, pages, minPages)
	return plan
}

// collectElements scans every page for lines falling in the smart bands.
func (a *MarginAnalyzer) collectElements(pages []*model.RawPage) []MarginElement {
	var elements []MarginElement
	for _, page := range pages {
		for _, block := range page.Blocks {
			if block.Type != model.TextBlock {
				continue
			}
			for _, span := range block.Spans {
				zone, dist := zoneFor(span.Rect, page.Width, page.Height, a.config.Smart)
				if zone == ZoneNone {
					continue
				}
				text := strings.TrimSpace(span.Text)
				if text == "" {
					continue
				}
				elements = append(elements, MarginElement{
					Text:      text,
					Rect:      span.Rect,
					PageIndex: page.Index,
					Zone:      zone,
					EdgeDist:  dist,
				})
			}
		}
	}
	return elements
}

// verbatimKey groups occurrences of identical text in one zone.
type verbatimKey struct {
	zone MarginZone
	text string
}

// removalCandidate is one flagged running element.
type removalCandidate struct {
	zone     MarginZone
	text     string
	edgeDist float64 // median distance from the page edge

	// offset is the page-number offset of a numeric sequence candidate;
	// unused for verbatim candidates.
	offset int
}

// verbatimCandidates flags text repeating verbatim on enough pages.
func (a *MarginAnalyzer) verbatimCandidates(elements []MarginElement, minPages float64) []removalCandidate {
	groups := make(map[verbatimKey][]MarginElement)
	for _, e := range elements {
		key := verbatimKey{e.Zone, e.Text}
		groups[key] = append(groups[key], e)
	}

	keys := make([]verbatimKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].zone != keys[j].zone {
			return keys[i].zone < keys[j].zone
		}
		return keys[i].text < keys[j].text
	})

	var candidates []removalCandidate
	for _, key := range keys {
		occ := groups[key]
		pages := make(map[int]bool)
		dists := make([]float64, 0, len(occ))
		for _, e := range occ {
			pages[e.PageIndex] = true
			dists = append(dists, e.EdgeDist)
		}
		// A candidate always needs at least two distinct pages; a one-off
		// line is never a running element no matter how low the threshold.
		if len(pages) < 2 || float64(len(pages)) < minPages {
			continue
		}
		candidates = append(candidates, removalCandidate{
			zone:     key.zone,
			text:     key.text,
			edgeDist: median(dists),
		})
	}
	return candidates
}

// folioPatterns match folio-number shapes: a bare number, "Page 12",
// "12 of 300", or a number between dashes.
var folioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,4}$`),
	regexp.MustCompile(`(?i)^page\s+(\d+)(\s+of\s+\d+)?$`),
	regexp.MustCompile(`^(\d+)\s+of\s+\d+$`),
	regexp.MustCompile(`^[-–—]\s*(\d+)\s*[-–—]$`),
}

// folioNumber extracts the page-number value from a folio-shaped text, or
// returns false.
func folioNumber(text string) (int, bool) {
	for _, p := range folioPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		numText := m[0]
		if len(m) > 1 && m[1] != "" {
			numText = m[1]
		}
		n, err := strconv.Atoi(numText)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// sequenceCandidates flags zones carrying folio-shaped numbers that track
// the page number with a consistent offset on enough pages.
func (a *MarginAnalyzer) sequenceCandidates(elements []MarginElement, pages []*model.RawPage, minPages float64) []removalCandidate {
	numbers := make(map[int]int, len(pages)) // page index -> 1-based number
	for _, p := range pages {
		numbers[p.Index] = p.Number
	}

	type occurrence struct {
		offset   int
		edgeDist float64
		page     int
	}
	byZone := make(map[MarginZone][]occurrence)

	for _, e := range elements {
		value, ok := folioNumber(e.Text)
		if !ok {
			continue
		}
		byZone[e.Zone] = append(byZone[e.Zone], occurrence{
			offset:   value - numbers[e.PageIndex],
			edgeDist: e.EdgeDist,
			page:     e.PageIndex,
		})
	}

	var candidates []removalCandidate
	for _, zone := range []MarginZone{ZoneTop, ZoneBottom, ZoneLeft, ZoneRight} {
		occ := byZone[zone]
		if len(occ) == 0 {
			continue
		}

		pageSet := make(map[int]bool)
		offsets := make(map[int]int)
		dists := make([]float64, 0, len(occ))
		for _, o := range occ {
			pageSet[o.page] = true
			offsets[o.offset]++
			dists = append(dists, o.edgeDist)
		}
		if len(pageSet) < 2 || float64(len(pageSet)) < minPages {
			continue
		}

		dominantOffset := 0
		dominantCount := 0
		for off, count := range offsets {
			if count > dominantCount ||
				(count == dominantCount && count > 0 && off < dominantOffset) {
				dominantOffset = off
				dominantCount = count
			}
		}
		if float64(dominantCount) < a.config.SequenceAgreement*float64(len(occ)) {
			continue
		}

		candidates = append(candidates, removalCandidate{
			zone:     zone,
			edgeDist: median(dists),
			offset:   dominantOffset,
		})
	}
	return candidates
}

// MarginPlan is the document-wide removal plan produced by Collect.
// Only lines matching a removal candidate are excluded; margin-zone text
// that does not repeat is retained (it may be a one-off footnote).
type MarginPlan struct {
	// Elements are all margin-zone lines found across the document.
	Elements []MarginElement

	verbatim  []removalCandidate
	sequences []removalCandidate
	config    MarginConfig
}

// CandidateCount returns how many removal candidates the plan holds.
func (p *MarginPlan) CandidateCount() int {
	if p == nil {
		return 0
	}
	return len(p.verbatim) + len(p.sequences)
}

// ShouldRemove reports whether a line on the given page matches one of the
// plan's removal candidates.
func (p *MarginPlan) ShouldRemove(text string, r model.Rect, page *model.RawPage) bool {
	if p == nil {
		return false
	}
	zone, dist := zoneFor(r, page.Width, page.Height, p.config.Smart)
	if zone == ZoneNone {
		return false
	}
	trimmed := strings.TrimSpace(text)

	for _, c := range p.verbatim {
		if c.zone == zone && c.text == trimmed &&
			math.Abs(dist-c.edgeDist) <= p.config.PositionTolerance {
			return true
		}
	}

	// A folio-shaped number is stripped only when it actually continues
	// the zone's sequence; a stray number in the band is kept.
	if value, ok := folioNumber(trimmed); ok {
		for _, c := range p.sequences {
			if c.zone == zone && value == page.Number+c.offset &&
				math.Abs(dist-c.edgeDist) <= p.config.PositionTolerance {
				return true
			}
		}
	}

	return false
}

// FilterPage returns the page's blocks with removal-candidate spans
// excluded, plus the number of removed spans. The input page is never
// mutated.
func (p *MarginPlan) FilterPage(page *model.RawPage) ([]model.RawBlock, int) {
	if p == nil || p.CandidateCount() == 0 {
		return page.Blocks, 0
	}

	removed := 0
	blocks := make([]model.RawBlock, 0, len(page.Blocks))
	for _, block := range page.Blocks {
		if block.Type != model.TextBlock {
			blocks = append(blocks, block)
			continue
		}

		kept := make([]model.RawSpan, 0, len(block.Spans))
		for _, span := range block.Spans {
			if p.ShouldRemove(span.Text, span.Rect, page) {
				removed++
			} else {
				kept = append(kept, span)
			}
		}
		if len(kept) > 0 {
			blocks = append(blocks, model.RawBlock{Type: block.Type, Rect: block.Rect, Spans: kept})
		}
	}

	return blocks, removed
}
