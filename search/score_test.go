package search

import (
	"testing"

	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
)

// tenPointProfile builds a profile anchored on a 10pt body face.
func tenPointProfile() *layout.StyleProfile {
	page := &model.RawPage{
		Index: 0, Number: 1, Width: 612, Height: 792,
		Blocks: []model.RawBlock{{
			Type: model.TextBlock,
			Spans: []model.RawSpan{{
				Text: "Enough ten point body text to anchor the profile firmly.",
				Rect: model.NewRect(72, 100, 400, 12),
				Font: &model.FontDescriptor{Name: "Times-Roman", Size: 10},
			}},
		}},
	}
	return layout.NewStyleProfiler().Profile([]*model.RawPage{page})
}

func makeLine(x, y, w, h, size float64, text string) model.PageLine {
	return model.PageLine{
		Rect:     model.NewRect(x, y, w, h),
		Text:     text,
		FontSize: size,
	}
}

func TestScorer_HeadingOutranksFootnote(t *testing.T) {
	profile := tenPointProfile()

	pages := []PageContent{
		{Index: 0, TextLength: 400, Lines: []model.PageLine{
			makeLine(72, 100, 300, 20, 20, "Glaciation in the Holocene"),
		}},
		{Index: 1, TextLength: 400, Lines: []model.PageLine{
			makeLine(72, 700, 300, 9, 8, "3. See the appendix on glaciation."),
		}},
	}
	hits := []Hit{
		{PageIndex: 0, Rect: model.NewRect(100, 102, 60, 14)},
		{PageIndex: 1, Rect: model.NewRect(100, 701, 60, 8)},
	}

	ranked := NewScorer().Rank(profile, pages, hits)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked pages, got %d", len(ranked))
	}
	if ranked[0].PageIndex != 0 {
		t.Fatalf("heading hit should rank first, got page %d", ranked[0].PageIndex)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("heading score %g should strictly exceed footnote score %g",
			ranked[0].Score, ranked[1].Score)
	}
	if ranked[0].Hits != 1 || ranked[1].Hits != 1 {
		t.Errorf("hit counts = %d/%d, want 1/1", ranked[0].Hits, ranked[1].Hits)
	}
}

func TestScorer_LengthNormalization(t *testing.T) {
	profile := tenPointProfile()
	line := makeLine(72, 100, 300, 12, 10, "body line")

	pages := []PageContent{
		{Index: 0, TextLength: 100, Lines: []model.PageLine{line}},
		{Index: 1, TextLength: 10000, Lines: []model.PageLine{line}},
	}
	hits := []Hit{
		{PageIndex: 0, Rect: model.NewRect(100, 102, 40, 8)},
		{PageIndex: 1, Rect: model.NewRect(100, 102, 40, 8)},
	}

	ranked := NewScorer().Rank(profile, pages, hits)
	if ranked[0].PageIndex != 0 {
		t.Error("identical hit on the sparser page should rank first")
	}

	cfg := DefaultConfig()
	cfg.NormalizeByLength = false
	flat := NewScorerWithConfig(cfg).Rank(profile, pages, hits)
	if flat[0].Score != flat[1].Score {
		t.Errorf("without normalization scores should tie: %g vs %g",
			flat[0].Score, flat[1].Score)
	}
	// Ties break on page index.
	if flat[0].PageIndex != 0 {
		t.Errorf("tie should break on page index, got %d first", flat[0].PageIndex)
	}
}

func TestScorer_UnmatchedHitUsesUnknownWeight(t *testing.T) {
	profile := tenPointProfile()

	pages := []PageContent{
		{Index: 0, TextLength: 400, Lines: []model.PageLine{
			makeLine(72, 100, 300, 12, 10, "body line"),
		}},
	}
	// The hit lands nowhere near any line.
	hits := []Hit{{PageIndex: 0, Rect: model.NewRect(400, 600, 40, 10)}}

	ranked := NewScorer().Rank(profile, pages, hits)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked page, got %d", len(ranked))
	}

	// unknown weight 0.5 * 10 / sqrt(400) = 0.25
	if ranked[0].Score != 0.25 {
		t.Errorf("unmatched hit score = %g, want 0.25", ranked[0].Score)
	}
}

func TestScorer_HitsOnUnknownPagesIgnored(t *testing.T) {
	profile := tenPointProfile()
	pages := []PageContent{{Index: 0, TextLength: 100}}
	hits := []Hit{
		{PageIndex: 5, Rect: model.NewRect(100, 100, 40, 10)},
	}

	ranked := NewScorer().Rank(profile, pages, hits)
	if len(ranked) != 0 {
		t.Errorf("hit on an unknown page produced a score: %+v", ranked)
	}
}
