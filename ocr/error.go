package ocr

import (
	"fmt"
	"sort"
	"strings"
)

// TextLayerError reports a failed "require text layer" precondition. It
// carries the full diagnostic breakdown so callers can inspect the issue
// ratio, per-issue counts and primary reason.
type TextLayerError struct {
	Result *Result
}

// Error formats the verdict with its diagnostics.
func (e *TextLayerError) Error() string {
	r := e.Result
	var sb strings.Builder
	fmt.Fprintf(&sb, "ocr: document requires OCR (reason=%s, issue ratio=%.2f",
		r.PrimaryReason, r.IssueRatio)

	issues := make([]string, 0, len(r.IssueCounts))
	for issue := range r.IssueCounts {
		issues = append(issues, string(issue))
	}
	sort.Strings(issues)
	for _, issue := range issues {
		fmt.Fprintf(&sb, ", %s=%d", issue, r.IssueCounts[Issue(issue)])
	}
	sb.WriteString(")")
	return sb.String()
}

// Require runs detection and fails when the document needs OCR. This is
// the only path where a quality condition becomes an error, and only
// because the caller explicitly asked for the precondition.
func (d *Detector) Require(ex Extractor) (*Result, error) {
	result, err := d.Detect(ex)
	if err != nil {
		return nil, err
	}
	if result.NeedsOCR {
		return result, &TextLayerError{Result: result}
	}
	return result, nil
}
