package aqi

import "math"

// Result is a computed AQI for a single pollutant. Values are immutable once
// returned; AQI is always within [0, 500].
type Result struct {
	AQI           int       `json:"aqi"`
	Category      string    `json:"category"`
	Color         string    `json:"color"`
	Concentration float64   `json:"concentration"`
	Pollutant     Pollutant `json:"pollutant"`
}

// Calculate maps a pollutant concentration onto the AQI scale using the EPA
// linear interpolation formula:
//
//	I = ((I_high - I_low) / (BP_high - BP_low)) * (C - BP_low) + I_low
//
// Negative concentrations are clamped to zero before lookup. Concentrations
// above the highest published breakpoint saturate at AQI 500 / Hazardous
// instead of extrapolating: the standard does not define values beyond 500.
func Calculate(pollutant Pollutant, concentration float64) (Result, error) {
	if concentration < 0 {
		concentration = 0
	}

	row, err := rowFor(pollutant, concentration)
	if err == errOutOfRange {
		return Result{
			AQI:           500,
			Category:      CategoryHazardous,
			Color:         colorHazardous,
			Concentration: round1(concentration),
			Pollutant:     pollutant,
		}, nil
	}
	if err != nil {
		return Result{}, err
	}

	value := float64(row.AQIHigh-row.AQILow)/(row.ConcHigh-row.ConcLow)*
		(concentration-row.ConcLow) + float64(row.AQILow)

	return Result{
		AQI:           int(math.Round(value)),
		Category:      row.Category,
		Color:         row.Color,
		Concentration: round1(concentration),
		Pollutant:     pollutant,
	}, nil
}

// round1 rounds to one decimal place, the granularity the standard reports
// concentrations in.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
