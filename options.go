package folio

import (
	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/ocr"
)

// Options holds the processor's configuration: extraction mode flags plus
// the threshold sets of every underlying component.
type Options struct {
	// LineLevel selects column+line extraction instead of whole-block
	// extraction.
	// Default: false
	LineLevel bool

	// UseSmartMargins enables document-wide running header/footer
	// removal; false falls back to the strict per-page band filter.
	// Default: true
	UseSmartMargins bool

	// RequireTextLayer makes Process fail with *ocr.TextLayerError when
	// the document needs OCR, instead of proceeding on garbage text.
	// Default: false
	RequireTextLayer bool

	// Workers is the number of pages composed concurrently. 0 uses the
	// machine's CPU count.
	// Default: 0
	Workers int

	// Component thresholds.
	Line   layout.LineConfig
	Column layout.ColumnConfig
	Style  layout.StyleConfig
	Margin layout.MarginConfig
	OCR    ocr.Config
}

// DefaultOptions returns the default processor configuration.
func DefaultOptions() Options {
	return Options{
		UseSmartMargins: true,
		Line:            layout.DefaultLineConfig(),
		Column:          layout.DefaultColumnConfig(),
		Style:           layout.DefaultStyleConfig(),
		Margin:          layout.DefaultMarginConfig(),
		OCR:             ocr.DefaultConfig(),
	}
}

// composeConfig assembles the layout package's configuration from the
// options.
func (o Options) composeConfig() layout.ComposeConfig {
	cfg := layout.DefaultComposeConfig()
	cfg.LineLevel = o.LineLevel
	cfg.UseSmartMargins = o.UseSmartMargins
	cfg.Workers = o.Workers
	cfg.Lines = o.Line
	cfg.Columns = o.Column
	cfg.Styles = o.Style
	cfg.Margins = o.Margin
	return cfg
}
