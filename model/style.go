package model

import (
	"math"
	"strings"
)

// TextStyle is a coarse typographic equivalence class used for grouping:
// rounded size plus font name plus bold/italic flags. Two styles are equal
// iff all four fields match, which makes TextStyle usable as a map key.
type TextStyle struct {
	Size   int // Font size rounded to the nearest point
	Font   string
	Bold   bool
	Italic bool
}

// StyleOf derives the style key for a span from its font descriptor.
// A span without a descriptor yields the zero style.
func StyleOf(span RawSpan) TextStyle {
	if span.Font == nil {
		return TextStyle{}
	}
	return TextStyle{
		Size:   int(math.Round(span.Font.Size)),
		Font:   span.Font.Name,
		Bold:   isBoldFont(span.Font),
		Italic: isItalicFont(span.Font),
	}
}

// isBoldFont checks the weight field first, falling back to name matching.
func isBoldFont(f *FontDescriptor) bool {
	if f.Weight >= 600 {
		return true
	}
	name := strings.ToLower(f.Name)
	return strings.Contains(name, "bold") || strings.Contains(name, "black") ||
		strings.Contains(name, "heavy")
}

// isItalicFont checks the style field first, falling back to name matching.
func isItalicFont(f *FontDescriptor) bool {
	style := strings.ToLower(f.Style)
	if style == "italic" || style == "oblique" {
		return true
	}
	name := strings.ToLower(f.Name)
	return strings.Contains(name, "italic") || strings.Contains(name, "oblique")
}

// Role is the layout-level semantic role of a text element, classified
// relative to the document's body style.
type Role int

const (
	RoleUnknown Role = iota
	RoleBody
	RoleHeading
	RoleCaption
	RoleFootnote
)

// String returns a string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleBody:
		return "body"
	case RoleHeading:
		return "heading"
	case RoleCaption:
		return "caption"
	case RoleFootnote:
		return "footnote"
	default:
		return "unknown"
	}
}
