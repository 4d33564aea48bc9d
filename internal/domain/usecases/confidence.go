// Package usecases - confidence.go grades suggestions into tiers.
package usecases

import (
	"fmt"
	"math"
	"sort"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// Thresholds tune retrieval and confidence grading.
type Thresholds struct {
	// Match is the minimum best similarity for the semantic path.
	Match float64
	// Yellow and Green are exclusive lower bounds of their tiers.
	Yellow float64
	Green  float64
}

// DefaultThresholds returns the stock gate and tier bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{Match: 0.70, Yellow: 0.75, Green: 0.90}
}

// Validate checks -1 <= Match <= Yellow <= Green <= 1.
func (t Thresholds) Validate() error {
	if t.Match < -1 || t.Green > 1 {
		return fmt.Errorf("thresholds must lie within [-1, 1]")
	}
	if t.Match > t.Yellow || t.Yellow > t.Green {
		return fmt.Errorf("thresholds must satisfy match <= yellow <= green (got %.2f, %.2f, %.2f)", t.Match, t.Yellow, t.Green)
	}
	return nil
}

// Classifier maps a retrieval outcome to a confidence tier.
type Classifier struct {
	t Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// UseFallback reports whether retrieval produced no usable semantic match.
func (c *Classifier) UseFallback(hits []entities.ScoredSegment) bool {
	return len(hits) == 0 || hits[0].Score < c.t.Match
}

// Semantic grades a similarity. Scores between the match gate and the yellow
// bound pass the gate but still grade red.
func (c *Classifier) Semantic(similarity float64) entities.ConfidenceTier {
	switch {
	case similarity > c.t.Green:
		return entities.ConfidenceGreen
	case similarity > c.t.Yellow:
		return entities.ConfidenceYellow
	default:
		return entities.ConfidenceRed
	}
}

// Fallback grades the direct-match path.
func (c *Classifier) Fallback(matched bool) entities.ConfidenceTier {
	if matched {
		return entities.ConfidenceYellow
	}
	return entities.ConfidenceRed
}

// CosineSimilarity returns dot(a,b)/(|a||b|) clamped to [-1, 1].
// Mismatched, empty or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// RankSegments scores every segment against query and returns the best topK,
// highest first. Ties break on segment id so ranking is stable.
func RankSegments(query []float32, segments []entities.SegmentEmbedding, topK int) []entities.ScoredSegment {
	scored := make([]entities.ScoredSegment, 0, len(segments))
	for _, s := range segments {
		scored = append(scored, entities.ScoredSegment{Segment: s, Score: CosineSimilarity(query, s.Vector)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Segment.SegmentID < scored[j].Segment.SegmentID
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
