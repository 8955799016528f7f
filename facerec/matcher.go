package facerec

import (
	"gonum.org/v1/gonum/floats"
)

// DefaultTolerance is the maximum Euclidean distance at which a probe is
// still considered to match a gallery entry. Matches the tolerance the
// embedding provider recommends for 128-d face descriptors.
const DefaultTolerance = 0.6

// GalleryEntry is one enrolled identity in the match search space.
type GalleryEntry struct {
	StudentId string
	Embedding Embedding
}

// MatchResult describes the best gallery candidate for a probe.
type MatchResult struct {
	StudentId  string
	Distance   float64
	Confidence float64
}

// Distance returns the Euclidean distance between two embeddings.
// Both embeddings must have the same length.
func Distance(a, b Embedding) float64 {
	return floats.Distance(a, b, 2)
}

// Match scans the gallery for the entry closest to probe.
//
// Only entries with distance <= tolerance qualify; among those the minimum
// distance wins, with ties broken by gallery order (first entry wins). The
// second return value is false when no entry qualifies -- that is a normal
// "no match" result, not an error.
//
// Match applies no minimum-confidence rule; accepting or rejecting a
// low-confidence match is the caller's policy.
func Match(probe Embedding, gallery []GalleryEntry, tolerance float64) (MatchResult, bool) {
	best := MatchResult{}
	found := false

	for _, entry := range gallery {
		if len(entry.Embedding) != len(probe) {
			continue
		}
		d := Distance(probe, entry.Embedding)
		if d > tolerance {
			continue
		}
		if !found || d < best.Distance {
			best = MatchResult{
				StudentId:  entry.StudentId,
				Distance:   d,
				Confidence: 1 - d,
			}
			found = true
		}
	}
	return best, found
}
