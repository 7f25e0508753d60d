package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL readings repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Record upserts readings in one batch.
func (r *PostgresRepository) Record(ctx context.Context, readings []airquality.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	query := `
		INSERT INTO readings (station_id, pollutant, hour, value, unit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (station_id, pollutant, hour)
		DO UPDATE SET value = EXCLUDED.value, unit = EXCLUDED.unit
	`

	batch := &pgx.Batch{}
	for _, reading := range readings {
		batch.Queue(query,
			reading.StationID,
			string(reading.Pollutant),
			reading.Hour.Truncate(time.Hour).UTC(),
			reading.Value,
			reading.Unit,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range readings {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Window returns stored readings for the trailing window, oldest first.
func (r *PostgresRepository) Window(ctx context.Context, stationID string, pollutant aqi.Pollutant, end time.Time, hours int) ([]airquality.Reading, error) {
	if hours <= 0 {
		return nil, nil
	}

	endHour := end.Truncate(time.Hour).UTC()
	startHour := endHour.Add(-time.Duration(hours-1) * time.Hour)

	query := `
		SELECT station_id, pollutant, hour, value, unit
		FROM readings
		WHERE station_id = $1 AND pollutant = $2 AND hour BETWEEN $3 AND $4
		ORDER BY hour ASC
	`

	rows, err := r.pool.Query(ctx, query, stationID, string(pollutant), startHour, endHour)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []airquality.Reading
	for rows.Next() {
		var reading airquality.Reading
		var name string
		err := rows.Scan(&reading.StationID, &name, &reading.Hour, &reading.Value, &reading.Unit)
		if err != nil {
			return nil, err
		}
		reading.Pollutant = aqi.Pollutant(name)
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// Prune deletes readings older than the cutoff and reports how many went.
func (r *PostgresRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM readings WHERE hour < $1`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
var _ airquality.History = (*PostgresRepository)(nil)
