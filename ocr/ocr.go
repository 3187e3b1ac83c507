// Package ocr detects whether a document's text layer is real or garbage,
// that is, whether the document needs OCR before its text can be trusted.
// It never
// performs recognition itself; it samples pages from the extractor, runs
// per-page text-quality and image-coverage heuristics, adaptively expands
// the sample when the signal is uncertain, and yields a document-level
// verdict with a primary reason. The verdict is advisory: the caller
// decides whether to abort, proceed, or route to an OCR pipeline.
package ocr

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/folio/internal/textscan"
	"github.com/tsawler/folio/model"
)

// Issue is one page-quality problem from a fixed vocabulary. A page
// accumulates zero or more issues; the document accumulates issue counts
// across the sample.
type Issue string

const (
	IssueNoTextBlocks        Issue = "no_text_blocks"
	IssueInsufficientText    Issue = "insufficient_text"
	IssueHighWhitespaceRatio Issue = "high_whitespace_ratio"
	IssueHighNewlineRatio    Issue = "high_newline_ratio"
	IssueLowAlnumRatio       Issue = "low_alphanumeric_ratio"
	IssueInvalidCharacters   Issue = "invalid_characters"
	IssueLargeImageCoverage  Issue = "large_image_coverage"
	IssueBBoxOverflow        Issue = "bbox_overflow"
	IssueExcessiveOverlap    Issue = "excessive_line_overlap"
)

// issueOrder fixes the tie-break priority when deriving the primary
// reason from issue counts.
var issueOrder = []Issue{
	IssueNoTextBlocks,
	IssueInsufficientText,
	IssueLargeImageCoverage,
	IssueInvalidCharacters,
	IssueLowAlnumRatio,
	IssueHighWhitespaceRatio,
	IssueHighNewlineRatio,
	IssueBBoxOverflow,
	IssueExcessiveOverlap,
}

// Reason is the document-level primary reason for an OCR-need verdict.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonMissingText      Reason = "missing_text_content"
	ReasonScannedWithout   Reason = "scanned_without_ocr"
	ReasonGarbledText      Reason = "garbled_text_content"
	ReasonDegradedGeometry Reason = "degraded_text_layout"
)

// issueReasons maps each issue to the reason it implies.
var issueReasons = map[Issue]Reason{
	IssueNoTextBlocks:        ReasonMissingText,
	IssueInsufficientText:    ReasonMissingText,
	IssueHighWhitespaceRatio: ReasonGarbledText,
	IssueHighNewlineRatio:    ReasonGarbledText,
	IssueLowAlnumRatio:       ReasonGarbledText,
	IssueInvalidCharacters:   ReasonGarbledText,
	IssueLargeImageCoverage:  ReasonScannedWithout,
	IssueBBoxOverflow:        ReasonDegradedGeometry,
	IssueExcessiveOverlap:    ReasonDegradedGeometry,
}

// Config holds configuration for OCR-need detection.
type Config struct {
	// SampleSize is the initial sampling window in pages.
	// Default: 6
	SampleSize int

	// MaxSampleSize is the expanded window used when the initial issue
	// ratio falls in the uncertain zone.
	// Default: 20
	MaxSampleSize int

	// LowerUncertain and UpperUncertain bound the uncertain zone of the
	// issue ratio: strictly inside it, the sample is expanded.
	// Defaults: 0.10 and 0.80
	LowerUncertain float64
	UpperUncertain float64

	// ConfirmThreshold is the issue ratio at or above which the document
	// needs OCR.
	// Default: 0.90
	ConfirmThreshold float64

	// MinTextChars is the minimum folded character count for a page's
	// text layer to count as sufficient.
	// Default: 50
	MinTextChars int

	// ImageCoverageRatio is the fraction of page area image blocks must
	// cover to signal a scan.
	// Default: 0.45
	ImageCoverageRatio float64

	// MaxWhitespaceRatio, MaxNewlineRatio and MinAlnumRatio bound the
	// text-quality ratios.
	// Defaults: 0.55, 0.30, 0.40
	MaxWhitespaceRatio float64
	MaxNewlineRatio    float64
	MinAlnumRatio      float64

	// MaxInvalidRatio and MinValidChars form the invalid-character dual
	// gate: a page is flagged only when the invalid ratio is high AND the
	// absolute count of valid characters is still below the floor, so a
	// long clean document with a few garbled sections is not penalized.
	// Defaults: 0.10 and 500
	MaxInvalidRatio float64
	MinValidChars   int

	// CheckGeometry enables the bounding-box validation checks (overflow
	// beyond page bounds, excessive mutual line overlap). Disabled by
	// default; the cutoffs below are provisional diagnostics.
	// Default: false
	CheckGeometry bool

	// BBoxMargin is the tolerance in points for the overflow check.
	// Default: 5.0
	BBoxMargin float64

	// MaxLineOverlapRatio is the fraction of spans that may substantially
	// overlap another span before the page is flagged.
	// Default: 0.30
	MaxLineOverlapRatio float64

	// SkipFirstPage controls whether page 0 is excluded from sampling.
	// Nil applies the empirical rule: skip when the document has more
	// than 3 pages (publisher boilerplate bias).
	SkipFirstPage *bool
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		SampleSize:          6,
		MaxSampleSize:       20,
		LowerUncertain:      0.10,
		UpperUncertain:      0.80,
		ConfirmThreshold:    0.90,
		MinTextChars:        50,
		ImageCoverageRatio:  0.45,
		MaxWhitespaceRatio:  0.55,
		MaxNewlineRatio:     0.30,
		MinAlnumRatio:       0.40,
		MaxInvalidRatio:     0.10,
		MinValidChars:       500,
		BBoxMargin:          5.0,
		MaxLineOverlapRatio: 0.30,
	}
}

// Extractor is the page-structure source the detector samples from.
// ExtractPage must be idempotent and side-effect-free.
type Extractor interface {
	PageCount() (int, error)
	ExtractPage(index int) (*model.RawPage, error)
}

// PageReport lists the issues found on one sampled page.
type PageReport struct {
	Index  int
	Issues []Issue
}

// Result is the document-level OCR verdict with its full diagnostic
// breakdown.
type Result struct {
	// NeedsOCR is true when the issue ratio meets the confirmation
	// threshold.
	NeedsOCR bool

	// PrimaryReason summarizes why, derived from the most frequent issue.
	PrimaryReason Reason

	// IssueRatio is the fraction of sampled pages with at least one
	// issue.
	IssueRatio float64

	// IssueCounts aggregates issue occurrences across the sample.
	IssueCounts map[Issue]int

	// Sampled lists the page indices that were analyzed.
	Sampled []int

	// Reports holds the per-page breakdowns.
	Reports []PageReport
}

// Detector runs OCR-need detection against a page extractor.
type Detector struct {
	config Config
	log    *zap.Logger
}

// NewDetector creates a detector with default configuration.
func NewDetector() *Detector {
	return NewDetectorWithConfig(DefaultConfig())
}

// NewDetectorWithConfig creates a detector with custom configuration.
func NewDetectorWithConfig(config Config) *Detector {
	return &Detector{config: config, log: zap.NewNop()}
}

// SetLogger attaches a logger for sampling diagnostics. A nil logger
// restores the no-op default.
func (d *Detector) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	d.log = log
}

// Detect samples pages and yields the document-level verdict. Extraction
// failures propagate as errors; quality problems never do.
func (d *Detector) Detect(ex Extractor) (*Result, error) {
	count, err := ex.PageCount()
	if err != nil {
		return nil, fmt.Errorf("ocr: page count: %w", err)
	}
	if count == 0 {
		return &Result{IssueCounts: map[Issue]int{}}, nil
	}

	start := 0
	if d.skipFirst(count) && count > 1 {
		start = 1
	}
	available := count - start

	window := d.config.SampleSize
	if window <= 0 || window > available {
		window = available
	}

	result, err := d.analyzeWindow(ex, start, window)
	if err != nil {
		return nil, err
	}

	if result.IssueRatio > d.config.LowerUncertain &&
		result.IssueRatio < d.config.UpperUncertain &&
		window < available && window < d.config.MaxSampleSize {
		expanded := d.config.MaxSampleSize
		if expanded > available {
			expanded = available
		}
		d.log.Debug("issue ratio uncertain, expanding sample",
			zap.Float64("ratio", result.IssueRatio),
			zap.Int("window", window),
			zap.Int("expanded", expanded))
		result, err = d.analyzeWindow(ex, start, expanded)
		if err != nil {
			return nil, err
		}
	}

	result.NeedsOCR = result.IssueRatio >= d.config.ConfirmThreshold
	result.PrimaryReason = d.primaryReason(result.IssueCounts)
	return result, nil
}

// analyzeWindow extracts and analyzes the pages [start, start+window).
func (d *Detector) analyzeWindow(ex Extractor, start, window int) (*Result, error) {
	result := &Result{IssueCounts: map[Issue]int{}}
	withIssues := 0

	for i := start; i < start+window; i++ {
		page, err := ex.ExtractPage(i)
		if err != nil {
			return nil, fmt.Errorf("ocr: extract page %d: %w", i, err)
		}
		if err := page.Validate(); err != nil {
			return nil, err
		}

		report := d.AnalyzePage(page)
		result.Sampled = append(result.Sampled, i)
		result.Reports = append(result.Reports, report)
		if len(report.Issues) > 0 {
			withIssues++
			for _, issue := range report.Issues {
				result.IssueCounts[issue]++
			}
		}
	}

	if len(result.Sampled) > 0 {
		result.IssueRatio = float64(withIssues) / float64(len(result.Sampled))
	}
	return result, nil
}

// AnalyzePage runs the per-page heuristics and returns the page's issues.
func (d *Detector) AnalyzePage(page *model.RawPage) PageReport {
	report := PageReport{Index: page.Index}
	add := func(issue Issue) {
		report.Issues = append(report.Issues, issue)
	}

	hasTextBlocks := false
	for _, b := range page.Blocks {
		if b.Type == model.TextBlock && len(b.Spans) > 0 {
			hasTextBlocks = true
			break
		}
	}
	if !hasTextBlocks {
		add(IssueNoTextBlocks)
	}

	text := textscan.Fold(page.Text())
	length := len([]rune(text))

	insufficient := hasTextBlocks && len(strings.TrimSpace(text)) < d.config.MinTextChars
	if insufficient {
		add(IssueInsufficientText)
	}

	// Image coverage signals a scan only when the text layer is also
	// absent or thin. Full-page figures over a real text layer are fine.
	if (!hasTextBlocks || insufficient) &&
		d.imageCoverage(page) >= d.config.ImageCoverageRatio {
		add(IssueLargeImageCoverage)
	}

	if length >= d.config.MinTextChars {
		if textscan.WhitespaceRatio(text) > d.config.MaxWhitespaceRatio {
			add(IssueHighWhitespaceRatio)
		}
		if textscan.NewlineRatio(text) > d.config.MaxNewlineRatio {
			add(IssueHighNewlineRatio)
		}
		if textscan.AlnumRatio(text) < d.config.MinAlnumRatio {
			add(IssueLowAlnumRatio)
		}
		invalidRatio, validCount := textscan.InvalidRatio(text)
		if invalidRatio > d.config.MaxInvalidRatio && validCount < d.config.MinValidChars {
			add(IssueInvalidCharacters)
		}
	}

	if d.config.CheckGeometry {
		report.Issues = append(report.Issues, d.geometryIssues(page)...)
	}

	return report
}

// imageCoverage returns the fraction of page area covered by image blocks.
func (d *Detector) imageCoverage(page *model.RawPage) float64 {
	pageArea := page.Width * page.Height
	if pageArea <= 0 {
		return 0
	}
	bounds := page.Bounds()
	covered := 0.0
	for _, b := range page.Blocks {
		if b.Type == model.ImageBlock {
			covered += b.Rect.IntersectionArea(bounds)
		}
	}
	return covered / pageArea
}

// geometryIssues runs the optional bounding-box validation: spans
// overflowing the page bounds beyond the margin tolerance, and excessive
// mutual span overlap.
func (d *Detector) geometryIssues(page *model.RawPage) []Issue {
	var issues []Issue
	expanded := page.Bounds().Expand(d.config.BBoxMargin)

	var spans []model.Rect
	for _, b := range page.Blocks {
		for _, s := range b.Spans {
			spans = append(spans, s.Rect)
		}
	}

	for _, r := range spans {
		if r.Left() < expanded.Left() || r.Right() > expanded.Right() ||
			r.Top() < expanded.Top() || r.Bottom() > expanded.Bottom() {
			issues = append(issues, IssueBBoxOverflow)
			break
		}
	}

	if len(spans) > 1 {
		overlapping := 0
		for i, a := range spans {
			for j, b := range spans {
				if i == j {
					continue
				}
				if a.OverlapRatio(b) > 0.5 {
					overlapping++
					break
				}
			}
		}
		if float64(overlapping)/float64(len(spans)) > d.config.MaxLineOverlapRatio {
			issues = append(issues, IssueExcessiveOverlap)
		}
	}

	return issues
}

// skipFirst resolves the first-page skip rule for a document of n pages.
func (d *Detector) skipFirst(n int) bool {
	if d.config.SkipFirstPage != nil {
		return *d.config.SkipFirstPage
	}
	return n > 3
}

// primaryReason derives the document-level reason from the aggregated
// issue counts. When large image coverage co-occurs with a text-absence
// issue, the verdict is always a scan without OCR: large images with good
// text (already-OCR'd scans) must never look identical to large images
// with no text.
func (d *Detector) primaryReason(counts map[Issue]int) Reason {
	if len(counts) == 0 {
		return ReasonNone
	}

	if counts[IssueLargeImageCoverage] > 0 &&
		(counts[IssueNoTextBlocks] > 0 || counts[IssueInsufficientText] > 0) {
		return ReasonScannedWithout
	}

	var top Issue
	topCount := 0
	for _, issue := range issueOrder {
		if counts[issue] > topCount {
			top = issue
			topCount = counts[issue]
		}
	}
	if topCount == 0 {
		return ReasonNone
	}
	return issueReasons[top]
}
