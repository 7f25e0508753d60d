package aqi

import (
	"errors"
	"fmt"
	"math"
)

// AQI category names and colors as published by the EPA.
const (
	CategoryGood          = "Good"
	CategoryModerate      = "Moderate"
	CategoryUSG           = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy     = "Unhealthy"
	CategoryVeryUnhealthy = "Very Unhealthy"
	CategoryHazardous     = "Hazardous"
)

const (
	colorGood          = "#00E400"
	colorModerate      = "#FFFF00"
	colorUSG           = "#FF7E00"
	colorUnhealthy     = "#FF0000"
	colorVeryUnhealthy = "#8F3F97"
	colorHazardous     = "#7E0023"
)

// errOutOfRange signals a concentration above every published breakpoint.
// It is handled internally by saturating to AQI 500 and never escapes the
// package.
var errOutOfRange = errors.New("concentration out of breakpoint range")

// Breakpoint is one published row of an EPA breakpoint table: a concentration
// interval mapped onto an AQI interval with its category and color.
type Breakpoint struct {
	ConcLow  float64
	ConcHigh float64
	AQILow   int
	AQIHigh  int
	Category string
	Color    string
}

// Breakpoint tables per EPA 40 CFR Part 58 Appendix G. The numeric values
// are reproduced verbatim from the published standard; any deviation is a
// correctness bug.
var breakpoints = map[Pollutant][]Breakpoint{
	// PM2.5, µg/m³, 24-hour average.
	PollutantPM25: {
		{0.0, 12.0, 0, 50, CategoryGood, colorGood},
		{12.1, 35.4, 51, 100, CategoryModerate, colorModerate},
		{35.5, 55.4, 101, 150, CategoryUSG, colorUSG},
		{55.5, 150.4, 151, 200, CategoryUnhealthy, colorUnhealthy},
		{150.5, 250.4, 201, 300, CategoryVeryUnhealthy, colorVeryUnhealthy},
		{250.5, 350.4, 301, 400, CategoryHazardous, colorHazardous},
		{350.5, 500.4, 401, 500, CategoryHazardous, colorHazardous},
	},
	// PM10, µg/m³, 24-hour average.
	PollutantPM10: {
		{0, 54, 0, 50, CategoryGood, colorGood},
		{55, 154, 51, 100, CategoryModerate, colorModerate},
		{155, 254, 101, 150, CategoryUSG, colorUSG},
		{255, 354, 151, 200, CategoryUnhealthy, colorUnhealthy},
		{355, 424, 201, 300, CategoryVeryUnhealthy, colorVeryUnhealthy},
		{425, 504, 301, 400, CategoryHazardous, colorHazardous},
		{505, 604, 401, 500, CategoryHazardous, colorHazardous},
	},
	// O3, ppm, 8-hour average.
	PollutantO3: {
		{0.000, 0.054, 0, 50, CategoryGood, colorGood},
		{0.055, 0.070, 51, 100, CategoryModerate, colorModerate},
		{0.071, 0.085, 101, 150, CategoryUSG, colorUSG},
		{0.086, 0.105, 151, 200, CategoryUnhealthy, colorUnhealthy},
		{0.106, 0.200, 201, 300, CategoryVeryUnhealthy, colorVeryUnhealthy},
	},
	// NO2, ppb, 1-hour average.
	PollutantNO2: {
		{0, 53, 0, 50, CategoryGood, colorGood},
		{54, 100, 51, 100, CategoryModerate, colorModerate},
		{101, 360, 101, 150, CategoryUSG, colorUSG},
		{361, 649, 151, 200, CategoryUnhealthy, colorUnhealthy},
		{650, 1249, 201, 300, CategoryVeryUnhealthy, colorVeryUnhealthy},
		{1250, 1649, 301, 400, CategoryHazardous, colorHazardous},
		{1650, 2049, 401, 500, CategoryHazardous, colorHazardous},
	},
}

// concStep is each table's published reporting resolution. Consecutive rows
// must be exactly one step apart in concentration space: anything less is an
// overlap, anything more is a gap.
var concStep = map[Pollutant]float64{
	PollutantPM25: 0.1,
	PollutantPM10: 1,
	PollutantO3:   0.001,
	PollutantNO2:  1,
}

// stepTolerance absorbs float rounding when comparing row spacing to the
// reporting step (e.g. 12.1 - 12.0 is not exactly 0.1 in float64).
const stepTolerance = 1e-9

func init() {
	// The tables are static regulatory data: a gap, overlap or broken AQI
	// chain is a build defect, not a runtime condition.
	if err := validateTables(breakpoints); err != nil {
		panic(err)
	}
}

// validateTables checks that every table is ordered, gap- and overlap-free in
// concentration space (consecutive rows exactly one reporting step apart) and
// chained in AQI space (aqiHigh+1 == next aqiLow).
func validateTables(tables map[Pollutant][]Breakpoint) error {
	for pollutant, rows := range tables {
		if len(rows) == 0 {
			return fmt.Errorf("aqi: empty breakpoint table for %s", pollutant)
		}
		step, ok := concStep[pollutant]
		if !ok {
			return fmt.Errorf("aqi: no reporting step defined for %s", pollutant)
		}
		for i, row := range rows {
			if row.ConcLow > row.ConcHigh || row.AQILow > row.AQIHigh {
				return fmt.Errorf("aqi: inverted breakpoint row %d for %s", i, pollutant)
			}
			if i == 0 {
				continue
			}
			prev := rows[i-1]
			spacing := row.ConcLow - prev.ConcHigh
			if spacing <= 0 {
				return fmt.Errorf("aqi: overlapping concentration rows %d/%d for %s", i-1, i, pollutant)
			}
			if math.Abs(spacing-step) > stepTolerance {
				return fmt.Errorf("aqi: concentration gap between rows %d/%d for %s", i-1, i, pollutant)
			}
			if row.AQILow != prev.AQIHigh+1 {
				return fmt.Errorf("aqi: broken AQI chain at row %d for %s", i, pollutant)
			}
		}
	}
	return nil
}

// Breakpoints returns the published table for a pollutant, or
// ErrUnknownPollutant if none is defined.
func Breakpoints(p Pollutant) ([]Breakpoint, error) {
	rows, ok := breakpoints[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPollutant, p)
	}
	return rows, nil
}

// rowFor returns the breakpoint row whose concentration interval contains c
// (both bounds inclusive), or errOutOfRange if c exceeds the table.
func rowFor(p Pollutant, c float64) (Breakpoint, error) {
	rows, err := Breakpoints(p)
	if err != nil {
		return Breakpoint{}, err
	}
	for _, row := range rows {
		if c >= row.ConcLow && c <= row.ConcHigh {
			return row, nil
		}
	}
	return Breakpoint{}, errOutOfRange
}
