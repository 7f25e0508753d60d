// Package history stores hourly pollutant readings so NowCast windows can be
// reassembled when the upstream provider has gaps or is down.
package history

import (
	"context"
	"time"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
)

// Repository persists hourly readings per station and pollutant.
type Repository interface {
	// Record upserts readings; a reading replaces an earlier value for the
	// same station, pollutant and hour.
	Record(ctx context.Context, readings []airquality.Reading) error

	// Window returns stored readings for the trailing window ending at the
	// hour containing end, oldest first.
	Window(ctx context.Context, stationID string, pollutant aqi.Pollutant, end time.Time, hours int) ([]airquality.Reading, error)

	// Prune deletes readings older than the cutoff.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
