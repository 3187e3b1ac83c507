// Package folio reconstructs human reading order and semantic structure
// from the raw geometric text layout of paginated documents: positioned
// text spans become ordered lines, columns and role-classified blocks,
// together with a judgment about whether a page's text layer is real or a
// scan that still needs OCR.
//
// Basic usage, given a page-structure extractor:
//
//	doc, warnings, err := folio.NewProcessor(folio.DefaultOptions()).Process(ex)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println(folio.FormatWarnings(warnings))
//	}
//	fmt.Println(doc.Text())
//
// The lower-level layout, ocr and search packages are also available for
// advanced use.
package folio

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/ocr"
)

// PageExtractor is the external page-structure engine this core consumes.
// ExtractPage must be idempotent and side-effect-free; it may be called
// multiple times for the same index within one document session. Retry
// policy around a flaky extractor belongs to the caller, not to this core.
type PageExtractor interface {
	PageCount() (int, error)
	ExtractPage(index int) (*model.RawPage, error)
}

// Warning is a non-fatal data-quality note produced while processing.
type Warning struct {
	// Page is the 0-based page index, or -1 for document-level warnings.
	Page    int
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Page < 0 {
		return w.Message
	}
	return fmt.Sprintf("page %d: %s", w.Page+1, w.Message)
}

// FormatWarnings joins warnings into a single display string.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, 0, len(warnings))
	for _, w := range warnings {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, "; ")
}

// Processor is the top-level entry point: it runs the whole-document
// passes, then composes every page into structured reading-order output.
type Processor struct {
	options Options
	log     *zap.Logger
}

// NewProcessor creates a processor with the given options.
func NewProcessor(options Options) *Processor {
	return &Processor{options: options, log: zap.NewNop()}
}

// SetLogger attaches a logger for pipeline diagnostics. A nil logger
// restores the no-op default.
func (p *Processor) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	p.log = log
}

// Process extracts every page, builds the document context and composes
// the pages in index order. Data-quality conditions surface as warnings;
// contract violations and extractor failures surface as errors.
func (p *Processor) Process(ex PageExtractor) (*model.Document, []Warning, error) {
	if p.options.RequireTextLayer {
		detector := ocr.NewDetectorWithConfig(p.options.OCR)
		detector.SetLogger(p.log)
		if _, err := detector.Require(ex); err != nil {
			return nil, nil, err
		}
	}

	count, err := ex.PageCount()
	if err != nil {
		return nil, nil, fmt.Errorf("folio: page count: %w", err)
	}

	pages := make([]*model.RawPage, 0, count)
	for i := 0; i < count; i++ {
		page, err := ex.ExtractPage(i)
		if err != nil {
			return nil, nil, fmt.Errorf("folio: extract page %d: %w", i, err)
		}
		if page == nil {
			return nil, nil, fmt.Errorf("folio: extractor returned nil page at index %d", i)
		}
		pages = append(pages, page)
	}

	return p.ProcessPages(pages)
}

// ProcessPages composes already-extracted pages. Useful when the caller
// owns the extraction loop or re-processes the same RawPage set; running
// it twice over the same input produces byte-identical output.
func (p *Processor) ProcessPages(pages []*model.RawPage) (*model.Document, []Warning, error) {
	ctx, err := layout.NewDocumentContext(pages, p.options.composeConfig(), p.log)
	if err != nil {
		return nil, nil, err
	}

	doc := ctx.ProcessDocument(pages)

	var warnings []Warning
	for _, page := range doc.Pages {
		if page.Broken {
			warnings = append(warnings, Warning{
				Page:    page.Index,
				Message: "text layer appears encoding-corrupted",
			})
		}
		if page.Unassigned > 0 {
			warnings = append(warnings, Warning{
				Page:    page.Index,
				Message: fmt.Sprintf("%d block(s) not covered by any column", page.Unassigned),
			})
		}
	}

	return doc, warnings, nil
}

// DetectOCRNeed runs OCR-need detection without extracting the full
// document. The verdict is advisory; deciding what to do with it belongs
// to the caller.
func (p *Processor) DetectOCRNeed(ex PageExtractor) (*ocr.Result, error) {
	detector := ocr.NewDetectorWithConfig(p.options.OCR)
	detector.SetLogger(p.log)
	return detector.Detect(ex)
}
