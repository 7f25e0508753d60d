package airquality

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/station"
)

// nowcastHours is the NowCast window length requested from providers.
const nowcastHours = 12

// Provider defines the upstream air quality data source.
type Provider interface {
	// LocationsNear returns candidate stations within radiusMeters of a point.
	LocationsNear(ctx context.Context, lat, lon float64, radiusMeters int) ([]station.Candidate, error)

	// LatestMeasurements returns the most recent reading per pollutant at a station.
	LatestMeasurements(ctx context.Context, stationID string) ([]Reading, error)

	// HourlyReadings returns hourly readings for one pollutant over the
	// trailing window.
	HourlyReadings(ctx context.Context, stationID string, pollutant aqi.Pollutant, hours int) ([]Reading, error)
}

// History stores hourly readings so NowCast windows survive provider gaps.
type History interface {
	Record(ctx context.Context, readings []Reading) error
	Window(ctx context.Context, stationID string, pollutant aqi.Pollutant, end time.Time, hours int) ([]Reading, error)
}

// CacheMetrics records snapshot cache outcomes for observability.
type CacheMetrics interface {
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the upstream data source.
	Provider Provider

	// History is an optional reading store; fetched hourly data is recorded
	// there and consulted when the provider cannot serve a window.
	History History

	// Metrics is optional; when set, snapshot cache hits and misses are
	// recorded against it.
	Metrics CacheMetrics

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long observations are cached (default: 5 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale observations on provider errors
	// (default: 30 minutes).
	StaleIfErrorTTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service computes air quality observations with short-lived caching.
type Service struct {
	provider        Provider
	history         History
	metrics         CacheMetrics
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	now             func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedObservation
}

type cachedObservation struct {
	observation *Observation
	fetchedAt   time.Time
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:        cfg.Provider,
		history:         cfg.History,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		now:             now,
		cache:           make(map[string]cachedObservation),
	}
}

// Latest returns the current observation for a point: best nearby station,
// NowCast-smoothed particulates, per-pollutant AQI and the dominant pollutant.
// Returns ErrNoStations or ErrInsufficientData when upstream data cannot
// support an observation; both are expected outcomes.
func (s *Service) Latest(ctx context.Context, lat, lon float64, radiusMeters int) (*Observation, error) {
	key := cacheKey(lat, lon, radiusMeters)
	now := s.now()

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && now.Sub(cached.fetchedAt) < s.cacheTTL {
		if s.metrics != nil {
			s.metrics.RecordCacheHit("airquality", "latest")
		}
		return cached.observation, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("airquality", "latest")
	}

	observation, err := s.observe(ctx, lat, lon, radiusMeters, now)
	if err != nil {
		// Serve stale data on provider failure, never on a data-quality
		// outcome like ErrNoStations.
		if ok && errors.Is(err, ErrProviderUnavailable) &&
			now.Sub(cached.fetchedAt) < s.staleIfErrorTTL {
			s.logger.Warn().Err(err).Str("cache_key", key).
				Msg("serving stale observation after provider failure")
			return cached.observation, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cachedObservation{observation: observation, fetchedAt: now}
	s.mu.Unlock()
	return observation, nil
}

// ScoredStation pairs a candidate with its computed score.
type ScoredStation struct {
	station.Candidate
	Score station.Score
}

// StationsNear returns candidate stations around a point, ranked best first.
// The sort is stable: candidates with identical scores keep provider order.
func (s *Service) StationsNear(ctx context.Context, lat, lon float64, radiusMeters int) ([]ScoredStation, error) {
	candidates, err := s.provider.LocationsNear(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	now := s.now()
	scored := make([]ScoredStation, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredStation{Candidate: c, Score: station.ScoreCandidate(c, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Beats(scored[j].Score)
	})
	return scored, nil
}

// InvalidateCache clears all cached observations.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedObservation)
}

func (s *Service) observe(ctx context.Context, lat, lon float64, radiusMeters int, now time.Time) (*Observation, error) {
	candidates, err := s.provider.LocationsNear(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	best, ok := station.SelectBest(candidates, now)
	if !ok {
		return nil, ErrNoStations
	}

	latest := s.latestByPollutant(ctx, best.ID)

	pollutants := make(map[aqi.Pollutant]PollutantObservation)
	results := make(map[aqi.Pollutant]aqi.Result)
	for _, pollutant := range best.Pollutants {
		obs, ok := s.observePollutant(ctx, best.ID, pollutant, latest[pollutant], now)
		if !ok {
			continue
		}
		pollutants[pollutant] = obs
		results[pollutant] = obs.Result
	}

	dominant, dominantResult, ok := aqi.Dominant(results)
	if !ok {
		return nil, ErrInsufficientData
	}

	return &Observation{
		Station:       best,
		StationScore:  station.ScoreCandidate(best, now),
		StationsFound: len(candidates),
		Pollutants:    pollutants,
		Dominant:      dominant,
		DominantAQI:   dominantResult,
		ObservedAt:    now,
	}, nil
}

// observePollutant derives one pollutant's observation. Particulates go
// through the NowCast when enough hourly data exists; everything falls back
// to the latest raw measurement.
func (s *Service) observePollutant(ctx context.Context, stationID string, pollutant aqi.Pollutant, latest *Reading, now time.Time) (PollutantObservation, bool) {
	if pollutant == aqi.PollutantPM25 || pollutant == aqi.PollutantPM10 {
		if samples, hoursUsed := s.nowcastWindow(ctx, stationID, pollutant, now); samples != nil {
			if value, ok := aqi.Nowcast(samples); ok {
				result, err := aqi.Calculate(pollutant, value)
				if err == nil {
					return PollutantObservation{
						Result:    result,
						Source:    SourceNowcast,
						HoursUsed: hoursUsed,
					}, true
				}
			}
		}
	}

	if latest == nil {
		return PollutantObservation{}, false
	}
	result, err := aqi.Calculate(pollutant, latest.Value)
	if err != nil {
		// No breakpoint table for this pollutant (SO2, CO); it still counts
		// toward station scoring but produces no AQI here.
		return PollutantObservation{}, false
	}
	return PollutantObservation{Result: result, Source: SourceLatest, HoursUsed: 1}, true
}

// nowcastWindow fetches the hourly window for a pollutant, recording it to
// history and falling back to history when the provider cannot serve it.
// Returns nil when no window is available at all.
func (s *Service) nowcastWindow(ctx context.Context, stationID string, pollutant aqi.Pollutant, now time.Time) ([]aqi.Sample, int) {
	readings, err := s.provider.HourlyReadings(ctx, stationID, pollutant, nowcastHours)
	if err == nil && len(readings) > 0 {
		if s.history != nil {
			if recordErr := s.history.Record(ctx, readings); recordErr != nil {
				s.logger.Warn().Err(recordErr).
					Str("station_id", stationID).
					Str("pollutant", string(pollutant)).
					Msg("failed to record readings to history")
			}
		}
		samples := WindowSamples(readings, now, nowcastHours)
		return samples, countValid(samples)
	}
	if err != nil {
		s.logger.Debug().Err(err).
			Str("station_id", stationID).
			Str("pollutant", string(pollutant)).
			Msg("hourly readings unavailable from provider")
	}

	if s.history == nil {
		return nil, 0
	}
	stored, err := s.history.Window(ctx, stationID, pollutant, now, nowcastHours)
	if err != nil || len(stored) == 0 {
		return nil, 0
	}
	samples := WindowSamples(stored, now, nowcastHours)
	return samples, countValid(samples)
}

// latestByPollutant indexes the latest readings at a station. A provider
// failure here degrades to an empty map; NowCast may still succeed.
func (s *Service) latestByPollutant(ctx context.Context, stationID string) map[aqi.Pollutant]*Reading {
	readings, err := s.provider.LatestMeasurements(ctx, stationID)
	if err != nil {
		s.logger.Debug().Err(err).Str("station_id", stationID).
			Msg("latest measurements unavailable")
		return map[aqi.Pollutant]*Reading{}
	}

	latest := make(map[aqi.Pollutant]*Reading, len(readings))
	for i := range readings {
		r := readings[i]
		if prev, ok := latest[r.Pollutant]; ok && prev.Hour.After(r.Hour) {
			continue
		}
		latest[r.Pollutant] = &r
	}
	return latest
}

func countValid(samples []aqi.Sample) int {
	n := 0
	for _, s := range samples {
		if s.Valid {
			n++
		}
	}
	return n
}

func cacheKey(lat, lon float64, radiusMeters int) string {
	// Round to ~100m so nearby queries share a cache entry.
	return fmt.Sprintf("%.3f:%.3f:%d", lat, lon, radiusMeters)
}
