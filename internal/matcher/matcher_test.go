package matcher

import (
	"math"
	"testing"
)

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"unit apart", []float32{0, 0}, []float32{1, 0}, 1},
		{"pythagorean", []float32{0, 0}, []float32{3, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EuclideanDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEuclideanDistanceInvalidInput(t *testing.T) {
	if d := EuclideanDistance([]float32{1, 2}, []float32{1, 2, 3}); !math.IsInf(d, 1) {
		t.Errorf("mismatched lengths should yield +Inf, got %v", d)
	}
	if d := EuclideanDistance(nil, nil); !math.IsInf(d, 1) {
		t.Errorf("empty vectors should yield +Inf, got %v", d)
	}
}

func TestMatchExactEncoding(t *testing.T) {
	candidates := map[string][]float32{
		"emp-1": {0.1, 0.2, 0.3},
		"emp-2": {0.9, 0.8, 0.7},
	}

	res, ok := Match([]float32{0.1, 0.2, 0.3}, candidates, 0.6)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.EmployeeID != "emp-1" {
		t.Errorf("expected emp-1, got %s", res.EmployeeID)
	}
	if res.Distance != 0 {
		t.Errorf("expected distance 0, got %v", res.Distance)
	}
	if res.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", res.Confidence)
	}
}

func TestMatchThresholdIsStrict(t *testing.T) {
	candidates := map[string][]float32{
		// Exactly 0.6 away from the query.
		"emp-1": {0.6, 0},
	}

	if _, ok := Match([]float32{0, 0}, candidates, 0.6); ok {
		t.Error("distance exactly at threshold must not match")
	}

	candidates["emp-1"] = []float32{0.59, 0}
	res, ok := Match([]float32{0, 0}, candidates, 0.6)
	if !ok {
		t.Fatal("distance below threshold must match")
	}
	if math.Abs(res.Confidence-0.41) > 1e-6 {
		t.Errorf("expected confidence 0.41, got %v", res.Confidence)
	}
}

func TestMatchEmptyCandidates(t *testing.T) {
	if _, ok := Match([]float32{1, 2, 3}, nil, 0.6); ok {
		t.Error("empty candidate set must not match")
	}
	if _, ok := Match([]float32{1, 2, 3}, map[string][]float32{}, 0.6); ok {
		t.Error("empty candidate set must not match")
	}
}

func TestMatchTieBreakDeterministic(t *testing.T) {
	// Two candidates at exactly the same distance from the query.
	candidates := map[string][]float32{
		"emp-b": {0.1, 0},
		"emp-a": {-0.1, 0},
	}

	for range 50 {
		res, ok := Match([]float32{0, 0}, candidates, 0.6)
		if !ok {
			t.Fatal("expected a match")
		}
		if res.EmployeeID != "emp-a" {
			t.Fatalf("tie must resolve to smallest id, got %s", res.EmployeeID)
		}
	}
}

func TestMatchPicksNearest(t *testing.T) {
	candidates := map[string][]float32{
		"far":    {1, 1, 1},
		"near":   {0.1, 0, 0},
		"medium": {0.3, 0, 0},
	}

	res, ok := Match([]float32{0, 0, 0}, candidates, 0.6)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.EmployeeID != "near" {
		t.Errorf("expected nearest candidate, got %s", res.EmployeeID)
	}
}
