package feed

import (
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// score builds the ranking breakdown for one retrieved chunk. All boosts
// are multiplicative on the similarity score and neutral (1.0) when the
// chunk lacks the metadata or the profile does not match.
func (s *Service) score(h domain.ChunkHit, p domain.Profile, now time.Time) domain.ScoredChunk {
	sc := domain.ScoredChunk{
		Chunk:         h.Chunk,
		BaseScore:     h.Score,
		CategoryBoost: 1.0,
		SourceBoost:   1.0,
		RecencyBoost:  1.0,
	}

	if cat := h.Chunk.Meta.Category; cat != "" && p.HasTopic(cat) {
		sc.CategoryBoost = s.cfg.CategoryBoost
		sc.MatchedPreferences = append(sc.MatchedPreferences, "category:"+strings.ToLower(cat))
	}
	if src := h.Chunk.Meta.Source; src != "" && p.PrefersSource(src) {
		sc.SourceBoost = s.cfg.SourceBoost
		sc.MatchedPreferences = append(sc.MatchedPreferences, "source:"+strings.ToLower(src))
	}
	sc.RecencyBoost = s.recencyBoost(h.Chunk.Meta.PublishedAt, now)

	sc.FinalScore = sc.BaseScore * sc.CategoryBoost * sc.SourceBoost * sc.RecencyBoost
	return sc
}

// recencyBoost decays exponentially with article age and never drops below
// neutral, so old articles are not penalized, just not boosted. A missing
// publication date stays neutral.
func (s *Service) recencyBoost(publishedAt, now time.Time) float64 {
	if publishedAt.IsZero() {
		return 1.0
	}
	ageHours := now.Sub(publishedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	boost := 1 + (s.cfg.RecencyMaxBoost-1)*math.Exp(-ageHours/s.cfg.RecencyDecayHours)
	if boost < 1 {
		return 1.0
	}
	return boost
}
