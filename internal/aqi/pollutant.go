// Package aqi implements the EPA Air Quality Index: breakpoint lookup,
// linear interpolation, NowCast smoothing and dominant-pollutant selection.
//
// Everything in this package is a pure function over immutable inputs and is
// safe for concurrent use without synchronization.
package aqi

import (
	"errors"
	"strings"
)

// ErrUnknownPollutant is returned when a pollutant identifier is not in the
// closed set, or no breakpoint table is published for it.
var ErrUnknownPollutant = errors.New("unknown pollutant")

// Pollutant identifies an air quality pollutant species.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantO3   Pollutant = "O3"
	PollutantNO2  Pollutant = "NO2"
	PollutantSO2  Pollutant = "SO2"
	PollutantCO   Pollutant = "CO"
)

// priority ranks pollutants for station scoring and tie-breaking.
// Higher is better: PM2.5 > PM10 > O3 > NO2 > SO2 > CO.
var priority = map[Pollutant]int{
	PollutantPM25: 10,
	PollutantPM10: 9,
	PollutantO3:   8,
	PollutantNO2:  7,
	PollutantSO2:  6,
	PollutantCO:   5,
}

// Priority returns the fixed priority rank for a pollutant, or 0 if the
// pollutant is outside the priority table.
func Priority(p Pollutant) int {
	return priority[p]
}

// ParsePollutant normalizes an upstream parameter name (e.g. "pm25", "PM2.5")
// to a Pollutant. The second return value reports whether the name is in the
// closed set.
func ParsePollutant(name string) (Pollutant, bool) {
	switch strings.ToLower(strings.ReplaceAll(name, ".", "")) {
	case "pm25":
		return PollutantPM25, true
	case "pm10":
		return PollutantPM10, true
	case "o3", "ozone":
		return PollutantO3, true
	case "no2":
		return PollutantNO2, true
	case "so2":
		return PollutantSO2, true
	case "co":
		return PollutantCO, true
	default:
		return "", false
	}
}
