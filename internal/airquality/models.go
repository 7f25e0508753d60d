// Package airquality assembles air quality observations: it selects the best
// monitoring station near a point, smooths recent particulate readings with
// the EPA NowCast and reports per-pollutant AQI with the dominant pollutant.
package airquality

import (
	"errors"
	"time"

	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/station"
)

// Service errors. ErrNoStations and ErrInsufficientData are expected
// outcomes the caller maps to an "insufficient data" payload, not failures.
var (
	ErrNoStations          = errors.New("no stations found near location")
	ErrInsufficientData    = errors.New("insufficient measurement data")
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Reading is a single hourly measurement reported by a station.
type Reading struct {
	StationID string
	Pollutant aqi.Pollutant
	Value     float64
	Unit      string
	Hour      time.Time
}

// Source describes how a reported concentration was derived.
type Source string

const (
	// SourceNowcast means the concentration is a NowCast over hourly data.
	SourceNowcast Source = "nowcast"
	// SourceLatest means the raw latest measurement was used because the
	// NowCast window held insufficient data.
	SourceLatest Source = "latest"
)

// PollutantObservation is the computed state of one pollutant at a station.
type PollutantObservation struct {
	Result aqi.Result `json:"result"`
	Source Source     `json:"source"`
	// HoursUsed is the number of valid hourly samples behind a NowCast
	// value; 1 for SourceLatest.
	HoursUsed int `json:"hoursUsed"`
}

// Observation is a full air quality observation at a location, built from the
// best station's data.
type Observation struct {
	Station       station.Candidate `json:"station"`
	StationScore  station.Score     `json:"stationScore"`
	StationsFound int               `json:"stationsFound"`

	Pollutants map[aqi.Pollutant]PollutantObservation `json:"pollutants"`

	// Dominant is the pollutant driving the overall index.
	Dominant    aqi.Pollutant `json:"dominant"`
	DominantAQI aqi.Result    `json:"dominantAqi"`

	ObservedAt time.Time `json:"observedAt"`
}

// WindowSamples aligns hourly readings into a gap-marked NowCast window
// ending at the hour containing end: oldest first, one slot per hour, missing
// slots where no reading landed. Readings outside the window are dropped;
// when two readings land in the same hour the later one wins.
func WindowSamples(readings []Reading, end time.Time, hours int) []aqi.Sample {
	if hours <= 0 {
		return nil
	}

	endHour := end.Truncate(time.Hour)
	startHour := endHour.Add(-time.Duration(hours-1) * time.Hour)

	samples := make([]aqi.Sample, hours)
	for _, r := range readings {
		slot := int(r.Hour.Truncate(time.Hour).Sub(startHour) / time.Hour)
		if slot < 0 || slot >= hours {
			continue
		}
		samples[slot] = aqi.NewSample(r.Value)
	}
	return samples
}
