// Package model defines the geometric primitives and the immutable data
// model shared by all layout-analysis components: rectangles, raw extractor
// output (spans, blocks, pages), typographic style keys, and the processed
// reading-order output structures.
package model
