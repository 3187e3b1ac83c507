// Package textscan provides character-class scanning helpers shared by the
// layout and ocr packages: alphanumeric counting, replacement-character
// statistics, and detection of decorative or low-signal text.
package textscan

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Replacement is the Unicode replacement character emitted by extractors
// for glyphs they could not decode.
const Replacement = '�'

// Fold applies NFKC normalization so that ligatures, fullwidth forms and
// other compatibility variants count as ordinary text in ratio
// computations.
func Fold(s string) string {
	return norm.NFKC.String(s)
}

// CountAlnum returns the number of letters and digits in s.
func CountAlnum(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// AlnumRatio returns the fraction of runes in s that are letters or digits.
// Returns 0 for an empty string.
func AlnumRatio(s string) float64 {
	total := 0
	alnum := 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}

// WhitespaceRatio returns the fraction of runes in s that are whitespace.
func WhitespaceRatio(s string) float64 {
	total := 0
	ws := 0
	for _, r := range s {
		total++
		if unicode.IsSpace(r) {
			ws++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ws) / float64(total)
}

// NewlineRatio returns the fraction of runes in s that are newlines.
func NewlineRatio(s string) float64 {
	total := 0
	nl := 0
	for _, r := range s {
		total++
		if r == '\n' {
			nl++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nl) / float64(total)
}

// ReplacementStats returns the fraction of runes in s that are the Unicode
// replacement character, and the longest run of consecutive replacement
// characters.
func ReplacementStats(s string) (ratio float64, longestRun int) {
	total := 0
	bad := 0
	run := 0
	for _, r := range s {
		total++
		if r == Replacement {
			bad++
			run++
			if run > longestRun {
				longestRun = run
			}
		} else {
			run = 0
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(bad) / float64(total), longestRun
}

// InvalidRatio returns the fraction of runes in s that are replacement or
// non-printable control characters (tabs and newlines excluded), plus the
// count of remaining valid runes.
func InvalidRatio(s string) (ratio float64, validCount int) {
	total := 0
	invalid := 0
	for _, r := range s {
		total++
		if r == Replacement || (unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r') {
			invalid++
		} else {
			validCount++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(invalid) / float64(total), validCount
}

// IsValidLine reports whether a line of text carries enough signal to count
// toward block geometry: at least 2 alphanumeric characters, or at least 1
// alphanumeric character in a line of 3 or more characters.
func IsValidLine(s string) bool {
	trimmed := strings.TrimSpace(s)
	alnum := CountAlnum(trimmed)
	if alnum >= 2 {
		return true
	}
	return alnum >= 1 && len([]rune(trimmed)) >= 3
}

// symbolFontMarkers identifies fonts whose glyphs are decoration rather
// than text.
var symbolFontMarkers = []string{
	"symbol", "dingbat", "zapf", "wingding", "webding", "marvosym",
}

// IsSymbolFont reports whether a font name identifies a symbol font.
func IsSymbolFont(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range symbolFontMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// plotMarkers are glyphs commonly used as chart point markers or list
// decoration.
const plotMarkers = "•◦▪▫■□●○△▲▼▽◆◇★☆†‡*+×·–—-|/\\"

// IsDecorative reports whether a span's text is decorative content that
// should not participate in column geometry: symbol-font glyphs, a single
// repeated non-alphanumeric character, plot markers, or a low-signal
// fragment of 3 or fewer characters with no alphanumerics.
func IsDecorative(text, fontName string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if IsSymbolFont(fontName) {
		return true
	}

	runes := []rune(trimmed)
	if CountAlnum(trimmed) == 0 {
		if len(runes) <= 3 {
			return true
		}
		if isRepeatedRune(runes) {
			return true
		}
		if allPlotMarkers(runes) {
			return true
		}
	}
	return false
}

// isRepeatedRune reports whether all runes (ignoring spaces) are the same
// single character, e.g. "-----" or ". . . .".
func isRepeatedRune(runes []rune) bool {
	var first rune
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if first == 0 {
			first = r
			continue
		}
		if r != first {
			return false
		}
	}
	return first != 0
}

// allPlotMarkers reports whether every non-space rune is a plot marker.
func allPlotMarkers(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if !strings.ContainsRune(plotMarkers, r) {
			return false
		}
	}
	return true
}
