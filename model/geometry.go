package model

import "math"

// Rect represents an axis-aligned rectangle in page coordinates.
// The origin is the top-left corner of the page and Y increases downward,
// matching the coordinate convention of the page-structure extractor.
type Rect struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewRect creates a rectangle from position and size.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate.
func (r Rect) Left() float64 {
	return r.X
}

// Right returns the right edge X coordinate.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Top returns the top edge Y coordinate.
func (r Rect) Top() float64 {
	return r.Y
}

// Bottom returns the bottom edge Y coordinate.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Area returns the area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// IsEmpty returns true if the rectangle has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the center X and Y coordinates.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Expand returns the rectangle grown by margin on all sides.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.Left(), other.Left())
	y := math.Min(r.Top(), other.Top())
	right := math.Max(r.Right(), other.Right())
	bottom := math.Max(r.Bottom(), other.Bottom())

	return Rect{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// Union accumulates a rectangle into an optional accumulator.
// A nil accumulator yields r itself, so callers can fold a sequence of
// rectangles without special-casing the first one.
func Union(acc *Rect, r Rect) Rect {
	if acc == nil {
		return r
	}
	return acc.Union(r)
}

// Intersects checks whether two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.Left() < other.Right() &&
		other.Left() < r.Right() &&
		r.Top() < other.Bottom() &&
		other.Top() < r.Bottom()
}

// IntersectionArea returns the area shared by two rectangles, or 0 if they
// do not overlap. Degenerate rectangles contribute zero overlap.
func (r Rect) IntersectionArea(other Rect) float64 {
	w := math.Min(r.Right(), other.Right()) - math.Max(r.Left(), other.Left())
	h := math.Min(r.Bottom(), other.Bottom()) - math.Max(r.Top(), other.Top())
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// OverlapRatio returns the fraction of r's area covered by outer.
// Returns 0 for a degenerate r, never dividing by zero.
func (r Rect) OverlapRatio(outer Rect) float64 {
	area := r.Area()
	if area <= 0 {
		return 0
	}
	return r.IntersectionArea(outer) / area
}

// SameLeft checks whether two rectangles share a left edge within tolerance.
func (r Rect) SameLeft(other Rect, tolerance float64) bool {
	return math.Abs(r.Left()-other.Left()) <= tolerance
}

// SameRight checks whether two rectangles share a right edge within tolerance.
func (r Rect) SameRight(other Rect, tolerance float64) bool {
	return math.Abs(r.Right()-other.Right()) <= tolerance
}

// SameEdges checks whether two rectangles share both left and right edges
// within tolerance.
func (r Rect) SameEdges(other Rect, tolerance float64) bool {
	return r.SameLeft(other, tolerance) && r.SameRight(other, tolerance)
}

// HorizontallyOverlaps checks whether the X ranges of two rectangles overlap.
func (r Rect) HorizontallyOverlaps(other Rect) bool {
	return r.Left() < other.Right() && other.Left() < r.Right()
}

// HorizontallyContained checks whether r's X range falls inside outer's
// X range, allowing each edge to stick out by up to tolerance.
func (r Rect) HorizontallyContained(outer Rect, tolerance float64) bool {
	return r.Left() >= outer.Left()-tolerance && r.Right() <= outer.Right()+tolerance
}

// VerticalOverlap returns the length of the shared Y range of two
// rectangles, or 0 if they do not overlap vertically.
func (r Rect) VerticalOverlap(other Rect) float64 {
	overlap := math.Min(r.Bottom(), other.Bottom()) - math.Max(r.Top(), other.Top())
	if overlap < 0 {
		return 0
	}
	return overlap
}

// VerticalGap returns the vertical distance between two rectangles,
// or 0 if their Y ranges overlap.
func (r Rect) VerticalGap(other Rect) float64 {
	if r.VerticalOverlap(other) > 0 {
		return 0
	}
	if r.Bottom() <= other.Top() {
		return other.Top() - r.Bottom()
	}
	return r.Top() - other.Bottom()
}
