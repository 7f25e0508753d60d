// Package station ranks candidate monitoring stations and picks the best one
// to source readings from. Scoring is a pure transform over the candidate
// list and is safe for concurrent use.
package station

import (
	"time"

	"github.com/airchat/airchat/internal/aqi"
)

// Candidate is a monitoring station as reported by an upstream provider.
// The selector reads it but never mutates it.
type Candidate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Lat        float64         `json:"lat"`
	Lon        float64         `json:"lon"`
	Pollutants []aqi.Pollutant `json:"pollutants"`

	// LastUpdated is the station's most recent report time. The zero value
	// means unknown (missing or unparsable upstream).
	LastUpdated time.Time `json:"lastUpdated"`

	// DistanceMeters from the query point, when the provider reports it.
	DistanceMeters float64 `json:"distanceMeters"`
}

// recencyHorizon caps the recency bonus: a station silent for this long or
// longer scores no tertiary bonus at all.
const recencyHorizon = 24 * time.Hour

// Score is the three-level sort key used to rank candidates. It is compared
// lexicographically, each field descending.
type Score struct {
	// Primary is the highest pollutant priority the station measures.
	Primary int `json:"primary"`
	// Secondary is the number of recognized pollutants measured.
	Secondary int `json:"secondary"`
	// Tertiary is the recency bonus, max(0, 24 - hoursSinceLastUpdated).
	Tertiary float64 `json:"tertiary"`
}

// Beats reports whether s strictly outranks other.
func (s Score) Beats(other Score) bool {
	if s.Primary != other.Primary {
		return s.Primary > other.Primary
	}
	if s.Secondary != other.Secondary {
		return s.Secondary > other.Secondary
	}
	return s.Tertiary > other.Tertiary
}

// ScoreCandidate computes the sort key for one candidate as of now.
func ScoreCandidate(c Candidate, now time.Time) Score {
	var score Score
	for _, pollutant := range c.Pollutants {
		p := aqi.Priority(pollutant)
		if p == 0 {
			continue
		}
		score.Secondary++
		if p > score.Primary {
			score.Primary = p
		}
	}

	if !c.LastUpdated.IsZero() {
		since := now.Sub(c.LastUpdated)
		if since < recencyHorizon {
			score.Tertiary = (recencyHorizon - since).Hours()
		}
	}

	return score
}

// SelectBest picks the highest-scoring candidate. Candidates whose full score
// triple ties keep first-supplied order, so the choice is deterministic for a
// given input sequence. The boolean is false for an empty list.
func SelectBest(candidates []Candidate, now time.Time) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	best := candidates[0]
	bestScore := ScoreCandidate(best, now)
	for _, c := range candidates[1:] {
		if score := ScoreCandidate(c, now); score.Beats(bestScore) {
			best, bestScore = c, score
		}
	}
	return best, true
}
