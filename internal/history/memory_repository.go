package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
)

type readingKey struct {
	stationID string
	pollutant aqi.Pollutant
	hour      time.Time
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local runs. Production should use
// PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	readings map[readingKey]airquality.Reading
}

// NewInMemoryRepository creates a new in-memory readings repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		readings: make(map[readingKey]airquality.Reading),
	}
}

// Record upserts readings keyed by station, pollutant and hour.
func (r *InMemoryRepository) Record(_ context.Context, readings []airquality.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reading := range readings {
		key := readingKey{
			stationID: reading.StationID,
			pollutant: reading.Pollutant,
			hour:      reading.Hour.Truncate(time.Hour).UTC(),
		}
		reading.Hour = key.hour
		r.readings[key] = reading
	}
	return nil
}

// Window returns stored readings for the trailing window, oldest first.
func (r *InMemoryRepository) Window(_ context.Context, stationID string, pollutant aqi.Pollutant, end time.Time, hours int) ([]airquality.Reading, error) {
	if hours <= 0 {
		return nil, nil
	}

	endHour := end.Truncate(time.Hour).UTC()
	startHour := endHour.Add(-time.Duration(hours-1) * time.Hour)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []airquality.Reading
	for key, reading := range r.readings {
		if key.stationID != stationID || key.pollutant != pollutant {
			continue
		}
		if key.hour.Before(startHour) || key.hour.After(endHour) {
			continue
		}
		out = append(out, reading)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out, nil
}

// Prune deletes readings older than the cutoff.
func (r *InMemoryRepository) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := olderThan.UTC()
	var removed int64
	for key := range r.readings {
		if key.hour.Before(cutoff) {
			delete(r.readings, key)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
var _ airquality.History = (*InMemoryRepository)(nil)
