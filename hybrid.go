package kronroe

import (
	"math"
	"sort"
	"time"
)

// defaultRankConstant is the RRF rank constant (commonly written k). Larger
// values flatten the contribution of rank differences further down each
// channel's list; 60 is the constant used in the original reciprocal rank
// fusion paper and is a reasonable default absent a reason to tune it.
const defaultRankConstant = 60

// HybridParams configures a hybrid search. TextWeight and VectorWeight
// scale each channel's contribution to the fused score; RankConstant
// defaults to defaultRankConstant when zero. TemporalHalfLife, when
// nonzero, adds an exponential-decay adjustment to the fused score based
// on how long ago the fact became valid (ValidFrom), as a flat value
// clamped to [-0.1, 0.1]; see temporalAdjustment.
type HybridParams struct {
	TextWeight       float64
	VectorWeight     float64
	RankConstant     int
	TemporalHalfLife time.Duration
	At               *time.Time
}

// HybridHit is one result of a hybrid search: the fused score, the channel
// ranks (0 when the fact did not appear in that channel) that produced it,
// and a breakdown of the score into its components so callers can reason
// about ranking decisions. Score always equals TextContribution +
// VectorContribution + TemporalAdjustment.
type HybridHit struct {
	Fact               Fact
	Score              float64
	TextRank           int
	VectorRank         int
	TextContribution   float64
	VectorContribution float64
	TemporalAdjustment float64
}

// SearchHybrid fuses full-text and vector search results with weighted
// reciprocal rank fusion: each channel contributes weight/(k+rank) to a
// fact's score, where rank is the fact's 1-based position in that channel's
// ranked list. A fact missing from a channel contributes 0 from it. Requires
// the Hybrid feature; Open turns Vector on whenever Hybrid is set but leaves
// Fulltext as given, and with Fulltext off no facts are text-indexed, so the
// text channel finds nothing.
func (g *TemporalGraph) SearchHybrid(query string, queryVec []float32, limit int, params HybridParams) ([]HybridHit, error) {
	if !g.cfg.Features.Hybrid {
		return nil, featureUnavailableErr("SearchHybrid", "hybrid")
	}

	k := params.RankConstant
	if k == 0 {
		k = defaultRankConstant
	}
	textWeight, vecWeight := params.TextWeight, params.VectorWeight
	if textWeight == 0 && vecWeight == 0 {
		textWeight, vecWeight = 0.5, 0.5
	}

	textHits, err := g.fulltext.rank(query, params.At, g)
	if err != nil {
		return nil, err
	}
	var vecHits []VectorHit
	if len(queryVec) > 0 {
		vecHits, err = g.vector.rank(queryVec, params.At, g)
		if err != nil {
			return nil, err
		}
	}

	type fused struct {
		fact       Fact
		textScore  float64
		vecScore   float64
		textRank   int
		vectorRank int
	}
	byID := make(map[FactId]*fused)

	for i, h := range textHits {
		rank := i + 1
		f := byID[h.Fact.ID]
		if f == nil {
			f = &fused{fact: h.Fact}
			byID[h.Fact.ID] = f
		}
		f.textRank = rank
		f.textScore = textWeight / float64(k+rank)
	}
	for i, h := range vecHits {
		rank := i + 1
		f := byID[h.Fact.ID]
		if f == nil {
			f = &fused{fact: h.Fact}
			byID[h.Fact.ID] = f
		}
		f.vectorRank = rank
		f.vecScore = vecWeight / float64(k+rank)
	}

	out := make([]HybridHit, 0, len(byID))
	now := g.cfg.now()
	for _, f := range byID {
		var adj float64
		if params.TemporalHalfLife > 0 {
			adj = temporalAdjustment(f.fact, params.TemporalHalfLife, now)
		}
		out = append(out, HybridHit{
			Fact:               f.fact,
			Score:              f.textScore + f.vecScore + adj,
			TextRank:           f.textRank,
			VectorRank:         f.vectorRank,
			TextContribution:   f.textScore,
			VectorContribution: f.vecScore,
			TemporalAdjustment: adj,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Fact.ID < out[j].Fact.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// temporalAdjustment computes a flat, absolute nudge to a fused score from
// the fact's age in valid time (how long ago it became true, not when it was
// recorded): age = max(0, now - valid_from) in days, decay = exp(-ln2 *
// age/half_life), adjustment = clamp((decay-0.5)*2*0.1, [-0.1, 0.1]). The
// cap bounds recency's influence to at most a tenth of a point either way so
// it biases ordering without overwhelming the underlying retrieval signal.
func temporalAdjustment(f Fact, halfLife time.Duration, now time.Time) float64 {
	ageDays := now.Sub(f.ValidFrom).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	halfLifeDays := halfLife.Hours() / 24
	decay := math.Exp(-math.Ln2 * ageDays / halfLifeDays)
	adjustment := (decay - 0.5) * 2 * 0.1
	switch {
	case adjustment > 0.1:
		adjustment = 0.1
	case adjustment < -0.1:
		adjustment = -0.1
	}
	return adjustment
}
