// Package search scores raw text-search hits against the reconstructed
// semantic structure of a document: each hit is mapped to the line and
// role it overlaps, and pages are ranked by role-weighted relevance.
package search

import (
	"math"
	"sort"

	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
)

// Hit is one raw search match: the page it occurred on and the bounding
// box the search engine reported for the match.
type Hit struct {
	PageIndex int
	Rect      model.Rect
}

// PageContent is the per-page material the scorer matches hits against:
// the page's reconstructed lines and its text length.
type PageContent struct {
	Index      int
	Lines      []model.PageLine
	TextLength int
}

// Config holds configuration for relevance scoring.
type Config struct {
	// Weights maps each role to its contribution per hit. Headings carry
	// the most signal, footnotes the least; unmatched hits fall back to
	// the RoleUnknown weight.
	// Defaults: heading 2.0, body 1.0, caption 0.8, footnote 0.6,
	// unknown 0.5
	Weights map[model.Role]float64

	// BaseMultiplier scales the raw score.
	// Default: 10.0
	BaseMultiplier float64

	// NormalizeByLength divides the score by sqrt(max(textLength,
	// LengthFloor)) so matches on sparse pages are not over-rewarded,
	// while the floor keeps extremely short pages from producing
	// unbounded scores.
	// Default: true
	NormalizeByLength bool

	// LengthFloor is the minimum text length used for normalization.
	// Default: 64
	LengthFloor int

	// MatchTolerance is the bbox expansion in points used when matching
	// a hit to a line.
	// Default: 2.0
	MatchTolerance float64
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Weights: map[model.Role]float64{
			model.RoleHeading:  2.0,
			model.RoleBody:     1.0,
			model.RoleCaption:  0.8,
			model.RoleFootnote: 0.6,
			model.RoleUnknown:  0.5,
		},
		BaseMultiplier:    10.0,
		NormalizeByLength: true,
		LengthFloor:       64,
		MatchTolerance:    2.0,
	}
}

// PageScore is one ranked page.
type PageScore struct {
	PageIndex int
	Score     float64
	Hits      int
}

// Scorer ranks pages by the semantic roles their search hits land on.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with default configuration.
func NewScorer() *Scorer {
	return NewScorerWithConfig(DefaultConfig())
}

// NewScorerWithConfig creates a scorer with custom configuration.
func NewScorerWithConfig(config Config) *Scorer {
	return &Scorer{config: config}
}

// Rank maps each hit to the line it overlaps, classifies the line's role
// against the profile, and returns pages sorted by descending relevance.
func (s *Scorer) Rank(profile *layout.StyleProfile, pages []PageContent, hits []Hit) []PageScore {
	byIndex := make(map[int]*PageContent, len(pages))
	for i := range pages {
		byIndex[pages[i].Index] = &pages[i]
	}

	raw := make(map[int]*PageScore)
	for _, hit := range hits {
		page, ok := byIndex[hit.PageIndex]
		if !ok {
			continue
		}

		role := model.RoleUnknown
		if line, found := s.matchLine(hit, page.Lines); found {
			role = profile.ClassifySize(line.FontSize)
		}

		score, ok := raw[hit.PageIndex]
		if !ok {
			score = &PageScore{PageIndex: hit.PageIndex}
			raw[hit.PageIndex] = score
		}
		score.Score += s.weight(role)
		score.Hits++
	}

	results := make([]PageScore, 0, len(raw))
	for _, score := range raw {
		final := score.Score * s.config.BaseMultiplier
		if s.config.NormalizeByLength {
			length := byIndex[score.PageIndex].TextLength
			if length < s.config.LengthFloor {
				length = s.config.LengthFloor
			}
			final /= math.Sqrt(float64(length))
		}
		results = append(results, PageScore{
			PageIndex: score.PageIndex,
			Score:     final,
			Hits:      score.Hits,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PageIndex < results[j].PageIndex
	})
	return results
}

// matchLine finds the first line whose bounding box overlaps the hit
// within the match tolerance.
func (s *Scorer) matchLine(hit Hit, lines []model.PageLine) (model.PageLine, bool) {
	expanded := hit.Rect.Expand(s.config.MatchTolerance)
	for _, line := range lines {
		if line.Rect.Intersects(expanded) {
			return line, true
		}
	}
	return model.PageLine{}, false
}

// weight looks up a role's weight, falling back to the unknown weight.
func (s *Scorer) weight(role model.Role) float64 {
	if w, ok := s.config.Weights[role]; ok {
		return w
	}
	return s.config.Weights[model.RoleUnknown]
}
