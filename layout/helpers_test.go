package layout

import (
	"fmt"

	"github.com/tsawler/folio/model"
)

// makeSpan builds a test span with a plain font of the given size.
func makeSpan(x, y, w, h, size float64, text string) model.RawSpan {
	return model.RawSpan{
		Text: text,
		Rect: model.NewRect(x, y, w, h),
		Font: &model.FontDescriptor{Name: "Times-Roman", Size: size},
	}
}

// makeBlock builds a text block whose rectangle is the union of its spans.
func makeBlock(spans ...model.RawSpan) model.RawBlock {
	var rect *model.Rect
	for _, s := range spans {
		merged := model.Union(rect, s.Rect)
		rect = &merged
	}
	block := model.RawBlock{Type: model.TextBlock, Spans: spans}
	if rect != nil {
		block.Rect = *rect
	}
	return block
}

// makeParagraph builds a block of stacked full-width lines starting at
// (x, y), one span per line.
func makeParagraph(x, y, w, size float64, texts ...string) model.RawBlock {
	spans := make([]model.RawSpan, 0, len(texts))
	for i, text := range texts {
		spans = append(spans, makeSpan(x, y+float64(i)*(size+4), w, size+2, size, text))
	}
	return makeBlock(spans...)
}

// makePage builds a US-letter page from blocks.
func makePage(index int, blocks ...model.RawBlock) *model.RawPage {
	return &model.RawPage{
		Index:  index,
		Number: index + 1,
		Width:  612,
		Height: 792,
		Blocks: blocks,
	}
}

// bodyText returns distinct body-sized filler for page i.
func bodyText(i int) string {
	return fmt.Sprintf("The committee reviewed submission %d in detail before voting.", i)
}
