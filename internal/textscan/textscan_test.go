package textscan

import (
	"strings"
	"testing"
)

func TestFold_NormalizesCompatibilityForms(t *testing.T) {
	// The "ﬁ" ligature folds to "fi" under NFKC.
	if got := Fold("ﬁnd"); got != "find" {
		t.Errorf("Fold(ﬁnd) = %q, want find", got)
	}
}

func TestAlnumRatio(t *testing.T) {
	if got := AlnumRatio(""); got != 0 {
		t.Errorf("empty string ratio = %g, want 0", got)
	}
	if got := AlnumRatio("abcd"); got != 1 {
		t.Errorf("all-letter ratio = %g, want 1", got)
	}
	if got := AlnumRatio("ab  "); got != 0.5 {
		t.Errorf("half-letter ratio = %g, want 0.5", got)
	}
}

func TestWhitespaceAndNewlineRatio(t *testing.T) {
	s := "a b\nc d\n"
	// 4 whitespace runes of 8, of which 2 are newlines.
	if got := WhitespaceRatio(s); got != 0.5 {
		t.Errorf("whitespace ratio = %g, want 0.5", got)
	}
	if got := NewlineRatio(s); got != 0.25 {
		t.Errorf("newline ratio = %g, want 0.25", got)
	}
}

func TestReplacementStats(t *testing.T) {
	ratio, run := ReplacementStats("ab��c�")
	if ratio != 0.5 {
		t.Errorf("replacement ratio = %g, want 0.5", ratio)
	}
	if run != 2 {
		t.Errorf("longest run = %d, want 2", run)
	}

	ratio, run = ReplacementStats("clean text")
	if ratio != 0 || run != 0 {
		t.Errorf("clean text should have zero stats, got %g/%d", ratio, run)
	}
}

func TestInvalidRatio(t *testing.T) {
	ratio, valid := InvalidRatio("ab�\x00cd")
	if ratio != 2.0/6.0 {
		t.Errorf("invalid ratio = %g, want %g", ratio, 2.0/6.0)
	}
	if valid != 4 {
		t.Errorf("valid count = %d, want 4", valid)
	}

	// Tabs, newlines and carriage returns are not invalid.
	ratio, valid = InvalidRatio("a\tb\nc\r")
	if ratio != 0 || valid != 6 {
		t.Errorf("whitespace controls counted as invalid: %g/%d", ratio, valid)
	}
}

func TestIsValidLine(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"ab", true},
		{"a word", true},
		{"a", false},
		{"a--", true}, // one alnum in a 3-rune line
		{"--", false},
		{"   ", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsValidLine(c.text); got != c.want {
			t.Errorf("IsValidLine(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestIsSymbolFont(t *testing.T) {
	if !IsSymbolFont("ZapfDingbats") {
		t.Error("ZapfDingbats should be a symbol font")
	}
	if !IsSymbolFont("Wingdings-Regular") {
		t.Error("Wingdings should be a symbol font")
	}
	if IsSymbolFont("Times-Roman") {
		t.Error("Times-Roman should not be a symbol font")
	}
}

func TestIsDecorative(t *testing.T) {
	cases := []struct {
		text, font string
		want       bool
	}{
		{"", "", true},
		{"   ", "", true},
		{"a", "Symbol", true},
		{"•", "", true},
		{"-----", "", true},
		{". . . .", "", true},
		{"• ■ ●", "", true},
		{strings.Repeat("—", 10), "", true},
		{"Chapter 1", "", false},
		{"x", "", false}, // single alnum is signal, not decoration
		{"?!#%&", "", false},
	}
	for _, c := range cases {
		if got := IsDecorative(c.text, c.font); got != c.want {
			t.Errorf("IsDecorative(%q, %q) = %v, want %v", c.text, c.font, got, c.want)
		}
	}
}
