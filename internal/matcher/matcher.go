// Package matcher performs nearest-neighbor face matching over enrolled
// encodings.
package matcher

import (
	"math"
	"sort"
)

// EuclideanDistance computes the euclidean distance between two vectors.
// Mismatched or empty vectors yield +Inf so they can never match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Result is the outcome of a match query.
type Result struct {
	EmployeeID string
	Distance   float64
	Confidence float64 // 1 - distance
}

// Match scans all candidates for the nearest encoding to the query. A
// candidate matches only when its distance is strictly below threshold;
// a minimum distance exactly at the threshold is "no match". With an
// empty candidate set no comparison happens at all.
//
// Candidates are visited in sorted key order, and a closer candidate must
// be strictly closer to win, so an exact distance tie resolves
// deterministically to the smallest employee id.
//
// Complexity is O(n*d) per query; fine for the expected scale of tens to
// low thousands of enrolled employees. The facestore HNSW index covers
// larger deployments.
func Match(query []float32, candidates map[string][]float32, threshold float64) (*Result, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := ""
	minDistance := math.Inf(1)
	for _, id := range ids {
		if d := EuclideanDistance(query, candidates[id]); d < minDistance {
			minDistance = d
			best = id
		}
	}

	if minDistance >= threshold {
		return nil, false
	}
	return &Result{
		EmployeeID: best,
		Distance:   minDistance,
		Confidence: 1 - minDistance,
	}, true
}
