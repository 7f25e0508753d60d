package aqi

import "math"

// nowcastWindow is the maximum number of hourly samples considered.
const nowcastWindow = 12

// Sample is one hourly concentration reading. Valid is false for hours where
// the station reported nothing.
type Sample struct {
	Value float64
	Valid bool
}

// NewSample returns a valid hourly sample.
func NewSample(value float64) Sample {
	return Sample{Value: value, Valid: true}
}

// MissingSample returns a placeholder for an hour with no reading.
func MissingSample() Sample {
	return Sample{}
}

// Nowcast computes the EPA NowCast over a sequence of hourly samples ordered
// oldest first, newest last. It is a weight-decayed average: when recent
// values diverge sharply from older ones the decay factor shrinks (floored at
// 0.5) and older hours fade quickly; when the series is stable the result
// approaches a plain average.
//
// The second return value is false when the window holds insufficient data:
// fewer than 2 valid samples overall, or fewer than 2 valid samples among the
// 3 most recent hours. That is an expected outcome, not an error.
func Nowcast(samples []Sample) (float64, bool) {
	if len(samples) < 2 {
		return 0, false
	}

	// Most recent 12 hours only.
	if len(samples) > nowcastWindow {
		samples = samples[len(samples)-nowcastWindow:]
	}

	// At least 2 of the 3 most recent hours must be valid.
	recent := samples
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	validRecent := 0
	for _, s := range recent {
		if s.Valid {
			validRecent++
		}
	}
	if validRecent < 2 {
		return 0, false
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	validTotal := 0
	for _, s := range samples {
		if !s.Valid {
			continue
		}
		validTotal++
		minVal = math.Min(minVal, s.Value)
		maxVal = math.Max(maxVal, s.Value)
	}
	if validTotal < 2 {
		return 0, false
	}

	w := 1.0
	if maxVal > 0 {
		w = minVal / maxVal
	}
	if w < 0.5 {
		w = 0.5
	}

	var numerator, denominator float64
	for i, s := range samples {
		if !s.Valid {
			continue
		}
		decay := math.Pow(w, float64(i))
		numerator += s.Value * decay
		denominator += decay
	}
	if denominator == 0 {
		return 0, false
	}

	return round1(numerator / denominator), true
}
