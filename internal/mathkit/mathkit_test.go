package mathkit

import (
	"math"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestRollingMean(t *testing.T) {
	values := []float64{10, 11, 12, 13, 14, 15}

	got := RollingMean(values, 3)
	want := []float64{11, 12, 13, 14}

	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("got[%d] = %f, want %f", i, got[i], v)
		}
	}
}

func TestRollingMean_NotEnoughData(t *testing.T) {
	if got := RollingMean([]float64{10, 11}, 5); len(got) != 0 {
		t.Errorf("expected empty slice, got %d values", len(got))
	}
	if got := RollingMean([]float64{10, 11}, 0); len(got) != 0 {
		t.Errorf("expected empty slice for zero window, got %d values", len(got))
	}
}

func TestExponentialSmoothing_SeedsWithFirstValue(t *testing.T) {
	values := []float64{10, 11, 12, 13}
	got := ExponentialSmoothing(values, 3)

	// Output length equals input length, no warm-up truncation.
	if len(got) != len(values) {
		t.Fatalf("expected %d values, got %d", len(values), len(got))
	}
	if got[0] != 10 {
		t.Errorf("got[0] = %f, want seed value 10", got[0])
	}

	// alpha = 2/(3+1) = 0.5: 11*0.5 + 10*0.5 = 10.5
	if !almostEqual(got[1], 10.5, 1e-9) {
		t.Errorf("got[1] = %f, want 10.5", got[1])
	}
}

func TestExponentialSmoothing_ConstantInput(t *testing.T) {
	values := []float64{42, 42, 42, 42, 42}
	got := ExponentialSmoothing(values, 4)

	for i, v := range got {
		if v != 42 {
			t.Errorf("got[%d] = %f, want exactly 42", i, v)
		}
	}
}

func TestStdDev_Population(t *testing.T) {
	// Population stddev of [2,4,4,4,5,5,7,9] is exactly 2 (divide by N).
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := StdDev(values); !almostEqual(got, 2, 1e-9) {
		t.Errorf("StdDev = %f, want 2", got)
	}
}

func TestStdDev_Empty(t *testing.T) {
	if got := StdDev(nil); got != 0 {
		t.Errorf("StdDev(nil) = %f, want 0", got)
	}
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	if got := Correlation(x, y); !almostEqual(got, 1, 1e-9) {
		t.Errorf("Correlation = %f, want 1", got)
	}

	inverse := []float64{10, 8, 6, 4, 2}
	if got := Correlation(x, inverse); !almostEqual(got, -1, 1e-9) {
		t.Errorf("Correlation = %f, want -1", got)
	}
}

func TestCorrelation_DegenerateInputs(t *testing.T) {
	if got := Correlation([]float64{1, 2}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("length mismatch should return 0, got %f", got)
	}

	flat := []float64{5, 5, 5}
	if got := Correlation(flat, []float64{1, 2, 3}); got != 0 {
		t.Errorf("zero variance should return 0, got %f", got)
	}
}
