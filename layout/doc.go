// Package layout reconstructs human reading order and semantic structure
// from the raw geometric text layout of a page: span-to-line grouping,
// multi-column detection and reading-order sorting, document-wide
// typographic profiling, running header/footer removal, and the page
// composer that ties these together behind a two-stage pipeline
// (DocumentContext built once, then per-page processing).
package layout
