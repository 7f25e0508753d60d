package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airchat/airchat/internal/airquality"
)

// AirQuality is the slice of the air quality service the refresh job drives.
// Calling Latest warms the snapshot cache and backfills hourly history.
type AirQuality interface {
	Latest(ctx context.Context, lat, lon float64, radiusMeters int) (*airquality.Observation, error)
}

// HistoryPruner deletes hourly readings older than a cutoff.
type HistoryPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// RefreshJob warms the observation cache for configured target points.
type RefreshJob struct {
	config     RefreshConfig
	logger     zerolog.Logger
	airQuality AirQuality
	history    HistoryPruner

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	PointsRefreshed   int64
	PointsWithoutData int64
	PointsFailed      int64
	ReadingsPruned    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config     RefreshConfig
	Logger     zerolog.Logger
	AirQuality AirQuality

	// History is optional; when set Run prunes readings past retention.
	History HistoryPruner
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.RadiusMeters <= 0 {
		config.RadiusMeters = 20000
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HistoryRetention <= 0 {
		config.HistoryRetention = 48 * time.Hour
	}

	return &RefreshJob{
		config:     config,
		logger:     cfg.Logger,
		airQuality: cfg.AirQuality,
		history:    cfg.History,
		metrics:    &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int

	// Refreshed counts points that produced an observation.
	Refreshed int

	// WithoutData counts points where no station or no usable measurements
	// exist. These are expected outcomes, not failures.
	WithoutData int

	// Failed counts points where the provider errored.
	Failed int

	// Pruned is the number of history readings removed this run.
	Pruned int64

	Errors []RefreshError
}

// RefreshError records one failed point.
type RefreshError struct {
	Point Point
	Error string
}

// Run refreshes every configured point and prunes old history.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting refresh job")

	points := j.config.AllPoints()
	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		switch pr.outcome {
		case outcomeRefreshed:
			result.Refreshed++
		case outcomeNoData:
			result.WithoutData++
		case outcomeFailed:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{Point: pr.point, Error: pr.err})
		}
	}

	if j.history != nil {
		pruned, err := j.history.Prune(ctx, startTime.Add(-j.config.HistoryRetention))
		if err != nil {
			j.logger.Warn().Err(err).Msg("history prune failed")
		} else {
			result.Pruned = pruned
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("refreshed", result.Refreshed).
		Int("without_data", result.WithoutData).
		Int("failed", result.Failed).
		Int64("pruned", result.Pruned).
		Msg("refresh job completed")

	return result
}

type refreshOutcome int

const (
	outcomeRefreshed refreshOutcome = iota
	outcomeNoData
	outcomeFailed
)

type pointResult struct {
	point   Point
	outcome refreshOutcome
	err     string
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.airQuality.Latest(pointCtx, point.Lat, point.Lon, j.config.RadiusMeters)
	switch {
	case err == nil:
		return pointResult{point: point, outcome: outcomeRefreshed}
	case errors.Is(err, airquality.ErrNoStations), errors.Is(err, airquality.ErrInsufficientData):
		// Sparse coverage is not a job failure.
		j.logger.Debug().Err(err).
			Float64("lat", point.Lat).Float64("lon", point.Lon).
			Msg("no usable data at refresh point")
		return pointResult{point: point, outcome: outcomeNoData}
	default:
		return pointResult{point: point, outcome: outcomeFailed, err: err.Error()}
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.PointsRefreshed += int64(result.Refreshed)
	j.metrics.PointsWithoutData += int64(result.WithoutData)
	j.metrics.PointsFailed += int64(result.Failed)
	j.metrics.ReadingsPruned += result.Pruned
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		PointsRefreshed:   j.metrics.PointsRefreshed,
		PointsWithoutData: j.metrics.PointsWithoutData,
		PointsFailed:      j.metrics.PointsFailed,
		ReadingsPruned:    j.metrics.ReadingsPruned,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":          m.TotalRuns,
		"points_refreshed":    m.PointsRefreshed,
		"points_without_data": m.PointsWithoutData,
		"points_failed":       m.PointsFailed,
		"readings_pruned":     m.ReadingsPruned,
		"last_run_at":         m.LastRunAt,
		"last_run_duration":   m.LastRunDuration.String(),
	}
}
