package airquality_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/station"
)

var testNow = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

type fakeProvider struct {
	stations     []station.Candidate
	latest       map[string][]airquality.Reading
	hourly       map[string][]airquality.Reading
	locationsErr error
	hourlyErr    error

	locationsCalls int
}

func (f *fakeProvider) LocationsNear(_ context.Context, _, _ float64, _ int) ([]station.Candidate, error) {
	f.locationsCalls++
	if f.locationsErr != nil {
		return nil, f.locationsErr
	}
	return f.stations, nil
}

func (f *fakeProvider) LatestMeasurements(_ context.Context, stationID string) ([]airquality.Reading, error) {
	return f.latest[stationID], nil
}

func (f *fakeProvider) HourlyReadings(_ context.Context, stationID string, pollutant aqi.Pollutant, _ int) ([]airquality.Reading, error) {
	if f.hourlyErr != nil {
		return nil, f.hourlyErr
	}
	return f.hourly[stationID+":"+string(pollutant)], nil
}

func hourlyReadings(stationID string, pollutant aqi.Pollutant, end time.Time, values ...float64) []airquality.Reading {
	readings := make([]airquality.Reading, 0, len(values))
	endHour := end.Truncate(time.Hour)
	for i, v := range values {
		readings = append(readings, airquality.Reading{
			StationID: stationID,
			Pollutant: pollutant,
			Value:     v,
			Unit:      "µg/m³",
			Hour:      endHour.Add(-time.Duration(len(values)-1-i) * time.Hour),
		})
	}
	return readings
}

func newTestService(provider airquality.Provider) *airquality.Service {
	return airquality.NewService(airquality.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	})
}

func TestService_Latest(t *testing.T) {
	provider := &fakeProvider{
		stations: []station.Candidate{
			{
				ID:          "gas-only",
				Name:        "Gas Station",
				Pollutants:  []aqi.Pollutant{aqi.PollutantNO2},
				LastUpdated: testNow.Add(-1 * time.Hour),
			},
			{
				ID:          "full",
				Name:        "Full Station",
				Pollutants:  []aqi.Pollutant{aqi.PollutantPM25, aqi.PollutantNO2},
				LastUpdated: testNow.Add(-2 * time.Hour),
			},
		},
		latest: map[string][]airquality.Reading{
			"full": {
				{StationID: "full", Pollutant: aqi.PollutantNO2, Value: 45, Hour: testNow.Truncate(time.Hour)},
			},
		},
		hourly: map[string][]airquality.Reading{
			"full:PM25": hourlyReadings("full", aqi.PollutantPM25, testNow,
				25, 27, 30, 28, 26, 29, 31, 27, 26, 28, 30, 29),
		},
	}

	svc := newTestService(provider)
	obs, err := svc.Latest(context.Background(), 37.33, -121.89, 10000)
	require.NoError(t, err)

	assert.Equal(t, "full", obs.Station.ID, "PM2.5 station outranks NO2-only station")
	assert.Equal(t, 2, obs.StationsFound)

	pm25, ok := obs.Pollutants[aqi.PollutantPM25]
	require.True(t, ok)
	assert.Equal(t, airquality.SourceNowcast, pm25.Source)
	assert.Equal(t, 12, pm25.HoursUsed)
	// NowCast 27.5 lands in the Moderate row.
	assert.InDelta(t, 27.5, pm25.Result.Concentration, 1e-9)
	assert.Equal(t, aqi.CategoryModerate, pm25.Result.Category)

	no2, ok := obs.Pollutants[aqi.PollutantNO2]
	require.True(t, ok)
	assert.Equal(t, airquality.SourceLatest, no2.Source)

	assert.Equal(t, aqi.PollutantPM25, obs.Dominant)
	assert.Equal(t, pm25.Result.AQI, obs.DominantAQI.AQI)
}

func TestService_Latest_FallsBackToLatestWhenWindowThin(t *testing.T) {
	provider := &fakeProvider{
		stations: []station.Candidate{
			{ID: "s1", Pollutants: []aqi.Pollutant{aqi.PollutantPM25}},
		},
		latest: map[string][]airquality.Reading{
			"s1": {
				{StationID: "s1", Pollutant: aqi.PollutantPM25, Value: 40.0, Hour: testNow.Truncate(time.Hour)},
			},
		},
		// A single hourly value cannot satisfy the NowCast.
		hourly: map[string][]airquality.Reading{
			"s1:PM25": hourlyReadings("s1", aqi.PollutantPM25, testNow, 40),
		},
	}

	svc := newTestService(provider)
	obs, err := svc.Latest(context.Background(), 0, 0, 5000)
	require.NoError(t, err)

	pm25 := obs.Pollutants[aqi.PollutantPM25]
	assert.Equal(t, airquality.SourceLatest, pm25.Source)
	assert.Equal(t, aqi.CategoryUSG, pm25.Result.Category)
}

func TestService_Latest_NoStations(t *testing.T) {
	svc := newTestService(&fakeProvider{})

	_, err := svc.Latest(context.Background(), 0, 0, 5000)
	assert.ErrorIs(t, err, airquality.ErrNoStations)
}

func TestService_Latest_InsufficientData(t *testing.T) {
	// A station measuring only SO2 scores for selection but yields no AQI.
	provider := &fakeProvider{
		stations: []station.Candidate{
			{ID: "s1", Pollutants: []aqi.Pollutant{aqi.PollutantSO2}},
		},
		latest: map[string][]airquality.Reading{
			"s1": {{StationID: "s1", Pollutant: aqi.PollutantSO2, Value: 10}},
		},
	}

	svc := newTestService(provider)
	_, err := svc.Latest(context.Background(), 0, 0, 5000)
	assert.ErrorIs(t, err, airquality.ErrInsufficientData)
}

func TestService_Latest_ProviderUnavailable(t *testing.T) {
	provider := &fakeProvider{locationsErr: errors.New("connection refused")}

	svc := newTestService(provider)
	_, err := svc.Latest(context.Background(), 0, 0, 5000)
	assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
}

func TestService_Latest_CachesObservations(t *testing.T) {
	provider := &fakeProvider{
		stations: []station.Candidate{
			{ID: "s1", Pollutants: []aqi.Pollutant{aqi.PollutantNO2}},
		},
		latest: map[string][]airquality.Reading{
			"s1": {{StationID: "s1", Pollutant: aqi.PollutantNO2, Value: 30}},
		},
	}

	svc := newTestService(provider)
	ctx := context.Background()

	_, err := svc.Latest(ctx, 1, 2, 5000)
	require.NoError(t, err)
	_, err = svc.Latest(ctx, 1, 2, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.locationsCalls, "second call served from cache")

	svc.InvalidateCache()
	_, err = svc.Latest(ctx, 1, 2, 5000)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.locationsCalls)
}

func TestService_StationsNear_RankedBestFirst(t *testing.T) {
	provider := &fakeProvider{
		stations: []station.Candidate{
			{ID: "no2", Pollutants: []aqi.Pollutant{aqi.PollutantNO2}},
			{ID: "pm", Pollutants: []aqi.Pollutant{aqi.PollutantPM25}},
			{ID: "dup", Pollutants: []aqi.Pollutant{aqi.PollutantNO2}},
		},
	}

	svc := newTestService(provider)
	scored, err := svc.StationsNear(context.Background(), 0, 0, 5000)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.Equal(t, "pm", scored[0].ID)
	// Stable sort keeps provider order for the tied NO2 stations.
	assert.Equal(t, "no2", scored[1].ID)
	assert.Equal(t, "dup", scored[2].ID)
}

func TestWindowSamples(t *testing.T) {
	end := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	readings := []airquality.Reading{
		{Pollutant: aqi.PollutantPM25, Value: 10, Hour: end.Add(-30 * time.Minute)}, // 12:00 slot
		{Pollutant: aqi.PollutantPM25, Value: 20, Hour: end.Add(-2 * time.Hour)},    // 10:00 slot
		{Pollutant: aqi.PollutantPM25, Value: 99, Hour: end.Add(-15 * time.Hour)},   // outside window
	}

	samples := airquality.WindowSamples(readings, end, 12)
	require.Len(t, samples, 12)

	assert.True(t, samples[11].Valid)
	assert.Equal(t, 10.0, samples[11].Value)
	assert.True(t, samples[9].Valid)
	assert.Equal(t, 20.0, samples[9].Value)

	valid := 0
	for _, s := range samples {
		if s.Valid {
			valid++
		}
	}
	assert.Equal(t, 2, valid, "reading outside the window is dropped")
}
