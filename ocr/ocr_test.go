package ocr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/folio/model"
)

// fakeExtractor serves a fixed page slice.
type fakeExtractor struct {
	pages []*model.RawPage
	err   error
}

func (f *fakeExtractor) PageCount() (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.pages), nil
}

func (f *fakeExtractor) ExtractPage(index int) (*model.RawPage, error) {
	if index < 0 || index >= len(f.pages) {
		return nil, fmt.Errorf("no page %d", index)
	}
	return f.pages[index], nil
}

func blankPage(i int) *model.RawPage {
	return &model.RawPage{Index: i, Number: i + 1, Width: 612, Height: 792}
}

func textPage(i int, text string) *model.RawPage {
	return &model.RawPage{
		Index: i, Number: i + 1, Width: 612, Height: 792,
		Blocks: []model.RawBlock{{
			Type: model.TextBlock,
			Rect: model.NewRect(72, 100, 468, 600),
			Spans: []model.RawSpan{{
				Text: text,
				Rect: model.NewRect(72, 100, 468, 12),
				Font: &model.FontDescriptor{Name: "Times-Roman", Size: 10},
			}},
		}},
	}
}

func scanPage(i int) *model.RawPage {
	page := blankPage(i)
	page.Blocks = []model.RawBlock{{
		Type: model.ImageBlock,
		Rect: model.NewRect(0, 0, 612, 792),
	}}
	return page
}

const cleanText = "The quick brown fox jumps over the lazy dog near the riverbank " +
	"while seventeen birds watch quietly from the tall oak trees nearby."

func TestDetector_BlankDocumentNeedsOCR(t *testing.T) {
	pages := make([]*model.RawPage, 5)
	for i := range pages {
		pages[i] = blankPage(i)
	}

	result, err := NewDetector().Detect(&fakeExtractor{pages: pages})
	if err != nil {
		t.Fatal(err)
	}

	if !result.NeedsOCR {
		t.Error("blank document should need OCR")
	}
	if result.PrimaryReason != ReasonMissingText {
		t.Errorf("primary reason = %q, want %q", result.PrimaryReason, ReasonMissingText)
	}
	// First page skipped, remaining 4 sampled.
	if len(result.Sampled) != 4 {
		t.Errorf("sampled %d pages, want 4", len(result.Sampled))
	}
	if result.IssueCounts[IssueNoTextBlocks] != 4 {
		t.Errorf("no_text_blocks count = %d, want 4", result.IssueCounts[IssueNoTextBlocks])
	}
	if result.IssueRatio != 1.0 {
		t.Errorf("issue ratio = %g, want 1", result.IssueRatio)
	}
}

func TestDetector_CleanDocumentPasses(t *testing.T) {
	pages := make([]*model.RawPage, 4)
	for i := range pages {
		pages[i] = textPage(i, cleanText)
	}

	result, err := NewDetector().Detect(&fakeExtractor{pages: pages})
	if err != nil {
		t.Fatal(err)
	}

	if result.NeedsOCR {
		t.Errorf("clean document flagged: %+v", result.IssueCounts)
	}
	if result.PrimaryReason != ReasonNone {
		t.Errorf("primary reason = %q, want none", result.PrimaryReason)
	}
	if result.IssueRatio != 0 {
		t.Errorf("issue ratio = %g, want 0", result.IssueRatio)
	}
}

func TestDetector_ScannedDocument(t *testing.T) {
	pages := make([]*model.RawPage, 5)
	for i := range pages {
		pages[i] = scanPage(i)
	}

	result, err := NewDetector().Detect(&fakeExtractor{pages: pages})
	if err != nil {
		t.Fatal(err)
	}

	if !result.NeedsOCR {
		t.Error("full-page scans should need OCR")
	}
	// Image coverage plus text absence always reads as a scan, so scanned
	// originals never masquerade as merely garbled text.
	if result.PrimaryReason != ReasonScannedWithout {
		t.Errorf("primary reason = %q, want %q", result.PrimaryReason, ReasonScannedWithout)
	}
	if result.IssueCounts[IssueLargeImageCoverage] == 0 {
		t.Error("expected large_image_coverage issues")
	}
}

func TestDetector_ScannedWithGoodTextLayerPasses(t *testing.T) {
	// An already-OCR'd scan: full-page images with a real text layer.
	pages := make([]*model.RawPage, 4)
	for i := range pages {
		page := textPage(i, cleanText)
		page.Blocks = append(page.Blocks, model.RawBlock{
			Type: model.ImageBlock,
			Rect: model.NewRect(0, 0, 612, 792),
		})
		pages[i] = page
	}

	result, err := NewDetector().Detect(&fakeExtractor{pages: pages})
	if err != nil {
		t.Fatal(err)
	}
	if result.NeedsOCR {
		t.Error("scan with a good text layer should not need OCR")
	}
}

func TestAnalyzePage_InvalidCharacterDualGate(t *testing.T) {
	detector := NewDetector()

	// High invalid ratio but plenty of valid text: a long clean document
	// with one garbled section is not flagged.
	longMixed := strings.Repeat("abcdefghij", 60) + strings.Repeat("�", 100)
	report := detector.AnalyzePage(textPage(0, longMixed))
	for _, issue := range report.Issues {
		if issue == IssueInvalidCharacters {
			t.Fatal("dual gate should spare pages with enough valid text")
		}
	}

	// High invalid ratio and little valid text: flagged.
	shortGarbled := strings.Repeat("abcde", 8) + strings.Repeat("�", 60)
	report = detector.AnalyzePage(textPage(0, shortGarbled))
	found := false
	for _, issue := range report.Issues {
		if issue == IssueInvalidCharacters {
			found = true
		}
	}
	if !found {
		t.Errorf("short garbled page not flagged: %v", report.Issues)
	}
}

func TestAnalyzePage_InsufficientText(t *testing.T) {
	report := NewDetector().AnalyzePage(textPage(0, "tiny"))
	found := false
	for _, issue := range report.Issues {
		if issue == IssueInsufficientText {
			found = true
		}
	}
	if !found {
		t.Errorf("expected insufficient_text, got %v", report.Issues)
	}
}

func TestAnalyzePage_GeometryChecksOptIn(t *testing.T) {
	page := textPage(0, cleanText)
	// A span hanging far off the right edge.
	page.Blocks[0].Spans = append(page.Blocks[0].Spans, model.RawSpan{
		Text: "overflow",
		Rect: model.NewRect(600, 100, 100, 12),
	})

	report := NewDetector().AnalyzePage(page)
	for _, issue := range report.Issues {
		if issue == IssueBBoxOverflow {
			t.Fatal("geometry checks must be opt-in")
		}
	}

	cfg := DefaultConfig()
	cfg.CheckGeometry = true
	report = NewDetectorWithConfig(cfg).AnalyzePage(page)
	found := false
	for _, issue := range report.Issues {
		if issue == IssueBBoxOverflow {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bbox_overflow, got %v", report.Issues)
	}
}

func TestDetector_ExpandsUncertainSample(t *testing.T) {
	// Pages 1 and 2 are blank, the rest are clean: the initial window's
	// ratio lands in the uncertain zone and the sample expands.
	pages := make([]*model.RawPage, 10)
	for i := range pages {
		if i == 1 || i == 2 {
			pages[i] = blankPage(i)
		} else {
			pages[i] = textPage(i, cleanText)
		}
	}

	result, err := NewDetector().Detect(&fakeExtractor{pages: pages})
	if err != nil {
		t.Fatal(err)
	}

	// Skip page 0, expand from 6 to all 9 remaining pages.
	if len(result.Sampled) != 9 {
		t.Errorf("sampled %d pages, want 9 after expansion", len(result.Sampled))
	}
	if result.NeedsOCR {
		t.Error("two bad pages in nine should not trip the verdict")
	}
}

func TestDetector_EmptyAndFailingExtractors(t *testing.T) {
	result, err := NewDetector().Detect(&fakeExtractor{})
	if err != nil {
		t.Fatal(err)
	}
	if result.NeedsOCR {
		t.Error("zero-page document should not need OCR")
	}

	wantErr := errors.New("backend gone")
	_, err = NewDetector().Detect(&fakeExtractor{err: wantErr})
	if !errors.Is(err, wantErr) {
		t.Errorf("extractor failure not propagated: %v", err)
	}
}

func TestDetector_Require(t *testing.T) {
	pages := make([]*model.RawPage, 5)
	for i := range pages {
		pages[i] = blankPage(i)
	}

	result, err := NewDetector().Require(&fakeExtractor{pages: pages})
	if err == nil {
		t.Fatal("blank document should fail the text-layer requirement")
	}

	var tlErr *TextLayerError
	if !errors.As(err, &tlErr) {
		t.Fatalf("error type = %T, want *TextLayerError", err)
	}
	if tlErr.Result != result {
		t.Error("error should carry the detection result")
	}
	if !strings.Contains(err.Error(), "requires OCR") {
		t.Errorf("error message = %q", err.Error())
	}
	if !strings.Contains(err.Error(), string(IssueNoTextBlocks)) {
		t.Errorf("error should list issue counts: %q", err.Error())
	}

	good := []*model.RawPage{textPage(0, cleanText), textPage(1, cleanText)}
	if _, err := NewDetector().Require(&fakeExtractor{pages: good}); err != nil {
		t.Errorf("clean document failed the requirement: %v", err)
	}
}
