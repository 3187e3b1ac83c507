package layout

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/tsawler/folio/internal/textscan"
	"github.com/tsawler/folio/model"
)

// StyleConfig holds configuration for document-wide typographic profiling.
type StyleConfig struct {
	// MinLineChars is the minimum trimmed character count for a line to
	// contribute weight to the profile.
	// Default: 4
	MinLineChars int

	// BodyThreshold is the fraction of the primary style's weight a style
	// needs to join the body-style set.
	// Default: 0.15
	BodyThreshold float64

	// HeadingRatio: sizes above HeadingRatio times the primary body size
	// classify as headings.
	// Default: 1.2
	HeadingRatio float64

	// CaptionRatio: sizes below CaptionRatio times the primary body size
	// classify as captions (unless small enough to be footnotes).
	// Default: 0.95
	CaptionRatio float64

	// FootnoteRatio: sizes below FootnoteRatio times the primary body
	// size classify as footnotes.
	// Default: 0.85
	FootnoteRatio float64

	// SampleSize limits how many pages are scanned. When the document has
	// more pages, a uniform random subset is profiled instead. 0 scans
	// every page.
	// Default: 0
	SampleSize int

	// SkipFirstPage controls whether page 0 is excluded from sampling.
	// Nil applies the empirical rule: skip when the document has more
	// than 3 pages (publisher boilerplate bias).
	SkipFirstPage *bool
}

// DefaultStyleConfig returns sensible default configuration.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		MinLineChars:  4,
		BodyThreshold: 0.15,
		HeadingRatio:  1.2,
		CaptionRatio:  0.95,
		FootnoteRatio: 0.85,
	}
}

// StyleProfile is the document-wide typographic profile: the primary body
// style, the body-style set, and the full character-weighted style table.
// Built once per document and immutable afterward.
type StyleProfile struct {
	// Primary is the style with the maximum character-weighted count.
	Primary model.TextStyle

	// PrimaryWeight is the primary style's character weight.
	PrimaryWeight int

	// Body is the set of styles within the body threshold of the primary,
	// ordered by descending weight. Never empty once at least one
	// qualifying span exists.
	Body []model.TextStyle

	// Counts is the full style table.
	Counts map[model.TextStyle]int

	config StyleConfig
}

// IsBody reports whether a style belongs to the body-style set.
func (p *StyleProfile) IsBody(style model.TextStyle) bool {
	for _, b := range p.Body {
		if b == style {
			return true
		}
	}
	return false
}

// Classify returns the semantic role of a style relative to the profile.
func (p *StyleProfile) Classify(style model.TextStyle) model.Role {
	return p.ClassifySize(float64(style.Size))
}

// ClassifySize returns the semantic role of a font size relative to the
// primary body size: larger sizes are headings, smaller ones captions or
// footnotes.
func (p *StyleProfile) ClassifySize(size float64) model.Role {
	body := float64(p.Primary.Size)
	if body <= 0 || size <= 0 {
		return model.RoleBody
	}
	switch {
	case size > p.config.HeadingRatio*body:
		return model.RoleHeading
	case size < p.config.FootnoteRatio*body:
		return model.RoleFootnote
	case size < p.config.CaptionRatio*body:
		return model.RoleCaption
	default:
		return model.RoleBody
	}
}

// StyleProfiler builds a document-wide frequency table of text styles
// weighted by character count.
type StyleProfiler struct {
	config StyleConfig
	rng    *rand.Rand
}

// NewStyleProfiler creates a profiler with default configuration.
func NewStyleProfiler() *StyleProfiler {
	return NewStyleProfilerWithConfig(DefaultStyleConfig())
}

// NewStyleProfilerWithConfig creates a profiler with custom configuration.
func NewStyleProfilerWithConfig(config StyleConfig) *StyleProfiler {
	return &StyleProfiler{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand injects the random source used for page sampling, so callers
// and tests can make the selection deterministic.
func (p *StyleProfiler) SetRand(rng *rand.Rand) {
	if rng != nil {
		p.rng = rng
	}
}

// Profile scans the document's pages and builds the style profile. An
// empty document yields a default 12pt "unknown" profile, never an error.
func (p *StyleProfiler) Profile(pages []*model.RawPage) *StyleProfile {
	counts := make(map[model.TextStyle]int)

	for _, page := range p.selectPages(pages) {
		for _, block := range page.Blocks {
			if block.Type != model.TextBlock {
				continue
			}
			for _, span := range block.Spans {
				if weight := p.lineWeight(span.Text); weight > 0 {
					counts[model.StyleOf(span)] += weight
				}
			}
		}
	}

	return p.buildProfile(counts)
}

// lineWeight returns the character weight a line contributes: its trimmed
// length, or 0 when too short or purely non-alphanumeric.
func (p *StyleProfiler) lineWeight(text string) int {
	trimmed := strings.TrimSpace(text)
	length := len([]rune(trimmed))
	if length < p.config.MinLineChars {
		return 0
	}
	if textscan.CountAlnum(trimmed) == 0 {
		return 0
	}
	return length
}

// selectPages applies the first-page skip rule and, when the document
// exceeds the sample size, draws a uniform random subset of pages.
func (p *StyleProfiler) selectPages(pages []*model.RawPage) []*model.RawPage {
	eligible := pages
	if p.skipFirst(len(pages)) && len(pages) > 1 {
		eligible = pages[1:]
	}

	if p.config.SampleSize <= 0 || len(eligible) <= p.config.SampleSize {
		return eligible
	}

	indices := p.rng.Perm(len(eligible))[:p.config.SampleSize]
	sort.Ints(indices)

	sampled := make([]*model.RawPage, 0, len(indices))
	for _, i := range indices {
		sampled = append(sampled, eligible[i])
	}
	return sampled
}

// skipFirst resolves the first-page skip rule for a document of n pages.
func (p *StyleProfiler) skipFirst(n int) bool {
	if p.config.SkipFirstPage != nil {
		return *p.config.SkipFirstPage
	}
	return n > 3
}

// buildProfile derives the primary style and body set from the weight
// table. Ties break deterministically on the style key.
func (p *StyleProfiler) buildProfile(counts map[model.TextStyle]int) *StyleProfile {
	profile := &StyleProfile{
		Counts: counts,
		config: p.config,
	}

	if len(counts) == 0 {
		profile.Primary = model.TextStyle{Size: 12, Font: "unknown"}
		profile.Counts = map[model.TextStyle]int{}
		return profile
	}

	styles := make([]model.TextStyle, 0, len(counts))
	for s := range counts {
		styles = append(styles, s)
	}
	sort.Slice(styles, func(i, j int) bool {
		if counts[styles[i]] != counts[styles[j]] {
			return counts[styles[i]] > counts[styles[j]]
		}
		return lessStyle(styles[i], styles[j])
	})

	profile.Primary = styles[0]
	profile.PrimaryWeight = counts[styles[0]]

	threshold := float64(profile.PrimaryWeight) * p.config.BodyThreshold
	for _, s := range styles {
		if float64(counts[s]) >= threshold {
			profile.Body = append(profile.Body, s)
		}
	}

	return profile
}

// lessStyle is a deterministic total order on style keys used only for
// tie-breaking.
func lessStyle(a, b model.TextStyle) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.Font != b.Font {
		return a.Font < b.Font
	}
	if a.Bold != b.Bold {
		return a.Bold
	}
	return a.Italic && !b.Italic
}
