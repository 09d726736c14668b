// Package mathkit provides the numeric primitives shared by all
// indicators. Every function is pure and operates on float64 slices.
package mathkit

import "math"

// RollingMean calculates the trailing average over a fixed window.
// Returns a slice of length len(values)-window+1, empty if the input
// is shorter than the window.
func RollingMean(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-window+1)

	var sum float64
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	result = append(result, sum/float64(window))

	for i := window; i < len(values); i++ {
		sum = sum - values[i-window] + values[i]
		result = append(result, sum/float64(window))
	}

	return result
}

// ExponentialSmoothing calculates an EMA seeded with the first value,
// alpha = 2/(window+1). Output length equals input length: unlike
// RollingMean there is no warm-up truncation. Downstream EMA-based
// indicators (MACD in particular) rely on this alignment.
func ExponentialSmoothing(values []float64, window int) []float64 {
	if window <= 0 || len(values) == 0 {
		return []float64{}
	}

	alpha := 2.0 / float64(window+1)
	result := make([]float64, len(values))
	result[0] = values[0]

	for i := 1; i < len(values); i++ {
		result[i] = values[i]*alpha + result[i-1]*(1-alpha)
	}

	return result
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation (divide by N).
func StdDev(values []float64) float64 {
	return StdDevAround(values, Mean(values))
}

// StdDevAround returns the population standard deviation around a
// precomputed mean.
func StdDevAround(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// Correlation returns the Pearson correlation of x and y. Returns 0 on
// length mismatch or when either series has zero variance; never panics.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}

	return cov / math.Sqrt(varX*varY)
}
