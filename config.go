package folio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOptions is the flat YAML shape for persisted configuration: named
// numeric/boolean thresholds only, each with a documented default in its
// component's config struct. Absent keys keep their defaults.
type fileOptions struct {
	LineLevel        *bool `yaml:"line_level"`
	SmartMargins     *bool `yaml:"smart_margins"`
	RequireTextLayer *bool `yaml:"require_text_layer"`
	Workers          *int  `yaml:"workers"`

	LineBaseTolerance *float64 `yaml:"line_base_tolerance"`
	LineGapMultiplier *float64 `yaml:"line_gap_multiplier"`
	LineOverlapRatio  *float64 `yaml:"line_overlap_ratio"`

	ColumnEdgeTolerance   *float64 `yaml:"column_edge_tolerance"`
	ColumnMaxVerticalGap  *float64 `yaml:"column_max_vertical_gap"`
	ColumnMaxBridgeHeight *float64 `yaml:"column_max_bridge_height"`

	StyleBodyThreshold *float64 `yaml:"style_body_threshold"`
	StyleSampleSize    *int     `yaml:"style_sample_size"`

	MarginRepeatThreshold *float64 `yaml:"margin_repeat_threshold"`
	MarginTop             *float64 `yaml:"margin_top"`
	MarginBottom          *float64 `yaml:"margin_bottom"`
	MarginLeft            *float64 `yaml:"margin_left"`
	MarginRight           *float64 `yaml:"margin_right"`

	OCRSampleSize        *int     `yaml:"ocr_sample_size"`
	OCRMaxSampleSize     *int     `yaml:"ocr_max_sample_size"`
	OCRConfirmThreshold  *float64 `yaml:"ocr_confirm_threshold"`
	OCRLowerUncertain    *float64 `yaml:"ocr_lower_uncertain"`
	OCRUpperUncertain    *float64 `yaml:"ocr_upper_uncertain"`
	OCRImageCoverage     *float64 `yaml:"ocr_image_coverage_ratio"`
	OCRCheckGeometry     *bool    `yaml:"ocr_check_geometry"`
	OCRMinTextChars      *int     `yaml:"ocr_min_text_chars"`
	OCRMinValidChars     *int     `yaml:"ocr_min_valid_chars"`
	OCRMaxInvalidRatio   *float64 `yaml:"ocr_max_invalid_ratio"`
	OCRMaxWhitespace     *float64 `yaml:"ocr_max_whitespace_ratio"`
	OCRMaxNewlineRatio   *float64 `yaml:"ocr_max_newline_ratio"`
	OCRMinAlnumRatio     *float64 `yaml:"ocr_min_alphanumeric_ratio"`
}

// LoadOptions reads a flat YAML threshold file and applies it over the
// defaults.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("folio: read options: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions applies YAML threshold data over the defaults.
func ParseOptions(data []byte) (Options, error) {
	var file fileOptions
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Options{}, fmt.Errorf("folio: parse options: %w", err)
	}

	opts := DefaultOptions()

	setBool(&opts.LineLevel, file.LineLevel)
	setBool(&opts.UseSmartMargins, file.SmartMargins)
	setBool(&opts.RequireTextLayer, file.RequireTextLayer)
	setInt(&opts.Workers, file.Workers)

	setFloat(&opts.Line.BaseTolerance, file.LineBaseTolerance)
	setFloat(&opts.Line.GapSplitMultiplier, file.LineGapMultiplier)
	setFloat(&opts.Line.OverlapMergeRatio, file.LineOverlapRatio)

	setFloat(&opts.Column.EdgeTolerance, file.ColumnEdgeTolerance)
	setFloat(&opts.Column.MaxVerticalGap, file.ColumnMaxVerticalGap)
	setFloat(&opts.Column.MaxBridgeHeight, file.ColumnMaxBridgeHeight)

	setFloat(&opts.Style.BodyThreshold, file.StyleBodyThreshold)
	setInt(&opts.Style.SampleSize, file.StyleSampleSize)

	setFloat(&opts.Margin.RepeatThreshold, file.MarginRepeatThreshold)
	setFloat(&opts.Margin.Smart.Top, file.MarginTop)
	setFloat(&opts.Margin.Smart.Bottom, file.MarginBottom)
	setFloat(&opts.Margin.Smart.Left, file.MarginLeft)
	setFloat(&opts.Margin.Smart.Right, file.MarginRight)

	setInt(&opts.OCR.SampleSize, file.OCRSampleSize)
	setInt(&opts.OCR.MaxSampleSize, file.OCRMaxSampleSize)
	setFloat(&opts.OCR.ConfirmThreshold, file.OCRConfirmThreshold)
	setFloat(&opts.OCR.LowerUncertain, file.OCRLowerUncertain)
	setFloat(&opts.OCR.UpperUncertain, file.OCRUpperUncertain)
	setFloat(&opts.OCR.ImageCoverageRatio, file.OCRImageCoverage)
	setBool(&opts.OCR.CheckGeometry, file.OCRCheckGeometry)
	setInt(&opts.OCR.MinTextChars, file.OCRMinTextChars)
	setInt(&opts.OCR.MinValidChars, file.OCRMinValidChars)
	setFloat(&opts.OCR.MaxInvalidRatio, file.OCRMaxInvalidRatio)
	setFloat(&opts.OCR.MaxWhitespaceRatio, file.OCRMaxWhitespace)
	setFloat(&opts.OCR.MaxNewlineRatio, file.OCRMaxNewlineRatio)
	setFloat(&opts.OCR.MinAlnumRatio, file.OCRMinAlnumRatio)

	return opts, nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
