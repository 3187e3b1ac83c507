package layout

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tsawler/folio/model"
)

func TestStyleProfiler_PrimaryIsHeaviestStyle(t *testing.T) {
	pages := []*model.RawPage{
		makePage(0,
			makeBlock(makeSpan(72, 80, 200, 20, 18, "Results")),
			makeParagraph(72, 120, 468, 10,
				"The committee reviewed every submission in considerable detail.",
				"Each reviewer filed an independent report before the meeting.",
			),
		),
		makePage(1,
			makeParagraph(72, 100, 468, 10,
				"Deliberations continued through the second day of the session.",
				"A final tally was recorded by the secretary that evening.",
			),
		),
	}

	profile := NewStyleProfiler().Profile(pages)
	if profile.Primary.Size != 10 {
		t.Fatalf("primary size = %d, want 10", profile.Primary.Size)
	}
	if profile.PrimaryWeight == 0 {
		t.Error("primary weight should be nonzero")
	}
	if !profile.IsBody(profile.Primary) {
		t.Error("primary style must belong to the body set")
	}

	// The heading's weight sits far below the body threshold.
	heading := model.TextStyle{Size: 18, Font: "Times-Roman"}
	if profile.IsBody(heading) {
		t.Error("rare heading style should not join the body set")
	}
}

func TestStyleProfile_ClassifySize(t *testing.T) {
	pages := []*model.RawPage{makePage(0,
		makeParagraph(72, 100, 468, 10,
			"Plenty of ten point body text to anchor the profile here.",
		),
	)}
	profile := NewStyleProfiler().Profile(pages)
	if profile.Primary.Size != 10 {
		t.Fatalf("primary size = %d, want 10", profile.Primary.Size)
	}

	cases := []struct {
		size float64
		want model.Role
	}{
		{12.1, model.RoleHeading},
		{18, model.RoleHeading},
		{12, model.RoleBody},
		{10, model.RoleBody},
		{9.5, model.RoleBody},
		{9.4, model.RoleCaption},
		{8.5, model.RoleCaption},
		{8.4, model.RoleFootnote},
		{6, model.RoleFootnote},
		{0, model.RoleBody}, // unknown size defaults to body
	}
	for _, c := range cases {
		if got := profile.ClassifySize(c.size); got != c.want {
			t.Errorf("ClassifySize(%g) = %v, want %v", c.size, got, c.want)
		}
	}
}

func TestStyleProfiler_EmptyDocument(t *testing.T) {
	profile := NewStyleProfiler().Profile(nil)
	if profile.Primary.Size != 12 || profile.Primary.Font != "unknown" {
		t.Errorf("empty document profile = %+v", profile.Primary)
	}
	// Classification still works against the fallback.
	if got := profile.ClassifySize(20); got != model.RoleHeading {
		t.Errorf("ClassifySize(20) = %v, want heading", got)
	}
}

func TestStyleProfiler_LowSignalLinesIgnored(t *testing.T) {
	pages := []*model.RawPage{makePage(0,
		makeBlock(
			makeSpan(72, 100, 30, 12, 10, "ab"),     // below MinLineChars
			makeSpan(72, 120, 60, 12, 10, "------"), // no alphanumerics
		),
	)}

	profile := NewStyleProfiler().Profile(pages)
	if len(profile.Counts) != 0 {
		t.Errorf("low-signal lines should contribute nothing, got %v", profile.Counts)
	}
	if profile.Primary.Size != 12 {
		t.Errorf("fallback primary size = %d, want 12", profile.Primary.Size)
	}
}

func TestStyleProfiler_SkipsFirstPageOfLongDocuments(t *testing.T) {
	// Page 0 is a title page full of display type; it would dominate the
	// profile if counted.
	pages := []*model.RawPage{
		makePage(0,
			makeParagraph(72, 100, 468, 30,
				"A Very Long And Heavy Title Filling The Opening Page",
				"With A Subtitle Set In The Same Oversized Display Face",
				"And Even More Front Matter Lines In Display Type Here",
			),
		),
		makePage(1, makeParagraph(72, 100, 468, 10, "Short body paragraph one.")),
		makePage(2, makeParagraph(72, 100, 468, 10, "Short body paragraph two.")),
		makePage(3, makeParagraph(72, 100, 468, 10, "Short body paragraph three.")),
	}

	profile := NewStyleProfiler().Profile(pages)
	if profile.Primary.Size != 10 {
		t.Errorf("with the first page skipped, primary = %d, want 10", profile.Primary.Size)
	}

	include := false
	cfg := DefaultStyleConfig()
	cfg.SkipFirstPage = &include
	// Explicitly counting page 0 flips the primary to the display face.
	forced := NewStyleProfilerWithConfig(cfg).Profile(pages)
	if forced.Primary.Size != 30 {
		t.Errorf("with the first page counted, primary = %d, want 30", forced.Primary.Size)
	}
}

func TestStyleProfiler_DeterministicSampling(t *testing.T) {
	pages := make([]*model.RawPage, 10)
	for i := range pages {
		size := float64(9 + i%3)
		pages[i] = makePage(i,
			makeBlock(makeSpan(72, 100, 400, size+2, size, bodyText(i))),
		)
	}

	cfg := DefaultStyleConfig()
	cfg.SampleSize = 4

	first := NewStyleProfilerWithConfig(cfg)
	first.SetRand(rand.New(rand.NewSource(42)))
	second := NewStyleProfilerWithConfig(cfg)
	second.SetRand(rand.New(rand.NewSource(42)))

	a := first.Profile(pages)
	b := second.Profile(pages)
	if !reflect.DeepEqual(a.Counts, b.Counts) {
		t.Errorf("same seed produced different profiles: %v vs %v", a.Counts, b.Counts)
	}
	if a.Primary != b.Primary {
		t.Errorf("same seed produced different primaries: %+v vs %+v", a.Primary, b.Primary)
	}
}
