package station_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/station"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestScoreCandidate(t *testing.T) {
	c := station.Candidate{
		ID:          "os-1",
		Pollutants:  []aqi.Pollutant{aqi.PollutantPM10, aqi.PollutantNO2, aqi.PollutantCO},
		LastUpdated: now.Add(-2 * time.Hour),
	}

	score := station.ScoreCandidate(c, now)
	assert.Equal(t, 9, score.Primary, "PM10 is the highest-priority pollutant measured")
	assert.Equal(t, 3, score.Secondary)
	assert.InDelta(t, 22.0, score.Tertiary, 1e-9)
}

func TestScoreCandidate_UnrecognizedPollutantsIgnored(t *testing.T) {
	c := station.Candidate{
		Pollutants: []aqi.Pollutant{"BC", "NH3"},
	}

	score := station.ScoreCandidate(c, now)
	assert.Equal(t, station.Score{}, score)
}

func TestScoreCandidate_MissingLastUpdated(t *testing.T) {
	c := station.Candidate{Pollutants: []aqi.Pollutant{aqi.PollutantPM25}}

	score := station.ScoreCandidate(c, now)
	assert.Equal(t, 10, score.Primary)
	assert.Zero(t, score.Tertiary, "unknown report time earns no recency bonus")
}

func TestScoreCandidate_StaleStation(t *testing.T) {
	c := station.Candidate{
		Pollutants:  []aqi.Pollutant{aqi.PollutantPM25},
		LastUpdated: now.Add(-36 * time.Hour),
	}

	score := station.ScoreCandidate(c, now)
	assert.Zero(t, score.Tertiary, "bonus never goes negative")
}

func TestSelectBest_PollutantCountDominatesRecency(t *testing.T) {
	fresh := station.Candidate{
		ID:          "fresh-narrow",
		Pollutants:  []aqi.Pollutant{aqi.PollutantPM25},
		LastUpdated: now.Add(-1 * time.Hour),
	}
	stale := station.Candidate{
		ID:          "stale-broad",
		Pollutants:  []aqi.Pollutant{aqi.PollutantPM25, aqi.PollutantPM10, aqi.PollutantO3},
		LastUpdated: now.Add(-20 * time.Hour),
	}

	best, ok := station.SelectBest([]station.Candidate{fresh, stale}, now)
	require.True(t, ok)
	assert.Equal(t, "stale-broad", best.ID,
		"secondary score (pollutant count) outranks the recency bonus")
}

func TestSelectBest_PriorityDominatesCount(t *testing.T) {
	gasOnly := station.Candidate{
		ID:         "gas",
		Pollutants: []aqi.Pollutant{aqi.PollutantO3, aqi.PollutantNO2, aqi.PollutantSO2, aqi.PollutantCO},
	}
	pm := station.Candidate{
		ID:         "pm",
		Pollutants: []aqi.Pollutant{aqi.PollutantPM25},
	}

	best, ok := station.SelectBest([]station.Candidate{gasOnly, pm}, now)
	require.True(t, ok)
	assert.Equal(t, "pm", best.ID, "a single PM2.5 outranks four lower-priority gases")
}

func TestSelectBest_RecencyBreaksFullTie(t *testing.T) {
	older := station.Candidate{
		ID:          "older",
		Pollutants:  []aqi.Pollutant{aqi.PollutantPM25},
		LastUpdated: now.Add(-6 * time.Hour),
	}
	newer := station.Candidate{
		ID:          "newer",
		Pollutants:  []aqi.Pollutant{aqi.PollutantPM25},
		LastUpdated: now.Add(-1 * time.Hour),
	}

	best, ok := station.SelectBest([]station.Candidate{older, newer}, now)
	require.True(t, ok)
	assert.Equal(t, "newer", best.ID)
}

func TestSelectBest_IdenticalScoresKeepFirstSupplied(t *testing.T) {
	a := station.Candidate{ID: "a", Pollutants: []aqi.Pollutant{aqi.PollutantPM25}}
	b := station.Candidate{ID: "b", Pollutants: []aqi.Pollutant{aqi.PollutantPM25}}

	for range 50 {
		best, ok := station.SelectBest([]station.Candidate{a, b}, now)
		require.True(t, ok)
		assert.Equal(t, "a", best.ID)
	}
}

func TestSelectBest_EmptyInput(t *testing.T) {
	_, ok := station.SelectBest(nil, now)
	assert.False(t, ok)

	_, ok = station.SelectBest([]station.Candidate{}, now)
	assert.False(t, ok)
}
