// Package worker provides background refresh processing for AirChat.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region to refresh.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to refresh, typically city centers.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// RadiusMeters is the station search radius per point.
	// Default: 20000
	RadiusMeters int

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// HistoryRetention is how long hourly readings are kept before pruning.
	// Default: 48 hours
	HistoryRetention time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:          DefaultRefreshTargets(),
		RadiusMeters:     20000,
		Concurrency:      3,
		Timeout:          30 * time.Second,
		HistoryRetention: 48 * time.Hour,
	}
}

// DefaultRefreshTargets returns the default refresh targets: major US metro
// areas where station density keeps the snapshot cache useful.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "San Francisco Bay Area",
			Priority: 1,
			Points: []Point{
				{Lat: 37.3382, Lon: -121.8863}, // San Jose
				{Lat: 37.7749, Lon: -122.4194}, // San Francisco
				{Lat: 37.8044, Lon: -122.2712}, // Oakland
			},
		},
		{
			Name:     "Los Angeles",
			Priority: 1,
			Points: []Point{
				{Lat: 34.0522, Lon: -118.2437}, // Downtown LA
				{Lat: 34.1478, Lon: -118.1445}, // Pasadena
			},
		},
		{
			Name:     "New York",
			Priority: 1,
			Points: []Point{
				{Lat: 40.7128, Lon: -74.0060}, // Manhattan
				{Lat: 40.6782, Lon: -73.9442}, // Brooklyn
			},
		},
		{
			Name:     "Chicago",
			Priority: 2,
			Points: []Point{
				{Lat: 41.8781, Lon: -87.6298},
			},
		},
		{
			Name:     "Seattle",
			Priority: 2,
			Points: []Point{
				{Lat: 47.6062, Lon: -122.3321},
			},
		},
		{
			Name:     "Denver",
			Priority: 2,
			Points: []Point{
				{Lat: 39.7392, Lon: -104.9903},
			},
		},
		{
			Name:     "Houston",
			Priority: 3,
			Points: []Point{
				{Lat: 29.7604, Lon: -95.3698},
			},
		},
		{
			Name:     "Phoenix",
			Priority: 3,
			Points: []Point{
				{Lat: 33.4484, Lon: -112.0740},
			},
		},
		{
			Name:     "Portland",
			Priority: 3,
			Points: []Point{
				{Lat: 45.5152, Lon: -122.6784},
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
