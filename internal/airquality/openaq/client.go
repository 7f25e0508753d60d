// Package openaq provides a client for the OpenAQ API v3.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/provider/resilience"
	"github.com/airchat/airchat/internal/station"
)

const (
	// DefaultBaseURL is the base URL for the OpenAQ API v3.
	DefaultBaseURL = "https://api.openaq.org/v3"

	// ProviderName identifies this provider.
	ProviderName = "openaq"

	// maxRadiusMeters is the largest radius OpenAQ accepts.
	maxRadiusMeters = 25000

	// locationsLimit caps the number of candidate stations per query.
	locationsLimit = 100
)

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// APIKey is sent as X-API-Key on every request.
	APIKey string

	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an OpenAQ API v3 client implementing airquality.Provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a new OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// API response types (from the OpenAQ API v3).

type locationsResponse struct {
	Results []locationData `json:"results"`
}

type locationData struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Coordinates  coordinatesData `json:"coordinates"`
	Sensors      []sensorData    `json:"sensors"`
	DatetimeLast *datetimeData   `json:"datetimeLast"`
	Distance     float64         `json:"distance"`
}

type coordinatesData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type sensorData struct {
	ID        int           `json:"id"`
	Parameter parameterData `json:"parameter"`
}

type parameterData struct {
	Name  string `json:"name"`
	Units string `json:"units"`
}

type datetimeData struct {
	UTC string `json:"utc"`
}

type latestResponse struct {
	Results []latestData `json:"results"`
}

type latestData struct {
	SensorsID int          `json:"sensorsId"`
	Value     float64      `json:"value"`
	Datetime  datetimeData `json:"datetime"`
}

type measurementsResponse struct {
	Results []measurementData `json:"results"`
}

type measurementData struct {
	Value     float64       `json:"value"`
	Parameter parameterData `json:"parameter"`
	Period    periodData    `json:"period"`
}

type periodData struct {
	DatetimeFrom datetimeData `json:"datetimeFrom"`
	DatetimeTo   datetimeData `json:"datetimeTo"`
}

// LocationsNear returns candidate stations within radiusMeters of a point.
// The radius is capped at the API maximum of 25 km.
func (c *Client) LocationsNear(ctx context.Context, lat, lon float64, radiusMeters int) ([]station.Candidate, error) {
	if radiusMeters > maxRadiusMeters {
		radiusMeters = maxRadiusMeters
	}

	params := url.Values{}
	params.Set("coordinates", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("limit", strconv.Itoa(locationsLimit))

	var result locationsResponse
	if err := c.get(ctx, "/locations?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("fetch locations: %w", err)
	}

	candidates := make([]station.Candidate, 0, len(result.Results))
	for _, loc := range result.Results {
		candidates = append(candidates, toCandidate(&loc))
	}
	return candidates, nil
}

// LatestMeasurements returns the most recent reading per pollutant at a
// station. Sensor-to-pollutant mapping comes from the location document.
func (c *Client) LatestMeasurements(ctx context.Context, stationID string) ([]airquality.Reading, error) {
	sensors, err := c.fetchSensorMap(ctx, stationID)
	if err != nil {
		return nil, err
	}

	var result latestResponse
	if err := c.get(ctx, "/locations/"+url.PathEscape(stationID)+"/latest", &result); err != nil {
		return nil, fmt.Errorf("fetch latest: %w", err)
	}

	readings := make([]airquality.Reading, 0, len(result.Results))
	for _, latest := range result.Results {
		pollutant, ok := sensors[latest.SensorsID]
		if !ok {
			continue
		}
		readings = append(readings, airquality.Reading{
			StationID: stationID,
			Pollutant: pollutant,
			Value:     latest.Value,
			Hour:      parseTime(latest.Datetime.UTC),
		})
	}
	return readings, nil
}

// HourlyReadings returns hourly readings for one pollutant over the trailing
// window.
func (c *Client) HourlyReadings(ctx context.Context, stationID string, pollutant aqi.Pollutant, hours int) ([]airquality.Reading, error) {
	now := time.Now().UTC()
	params := url.Values{}
	params.Set("date_from", now.Add(-time.Duration(hours)*time.Hour).Format(time.RFC3339))
	params.Set("date_to", now.Format(time.RFC3339))
	params.Set("parameter", apiParameterName(pollutant))
	params.Set("limit", "1000")

	var result measurementsResponse
	path := "/locations/" + url.PathEscape(stationID) + "/measurements?" + params.Encode()
	if err := c.get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("fetch measurements: %w", err)
	}

	readings := make([]airquality.Reading, 0, len(result.Results))
	for _, m := range result.Results {
		measured := parseTime(m.Period.DatetimeTo.UTC)
		if measured.IsZero() {
			continue
		}
		readings = append(readings, airquality.Reading{
			StationID: stationID,
			Pollutant: pollutant,
			Value:     m.Value,
			Unit:      m.Parameter.Units,
			Hour:      measured,
		})
	}
	return readings, nil
}

// fetchSensorMap fetches a location document and indexes sensor ID to
// pollutant, skipping parameters outside the closed set.
func (c *Client) fetchSensorMap(ctx context.Context, stationID string) (map[int]aqi.Pollutant, error) {
	var result locationsResponse
	if err := c.get(ctx, "/locations/"+url.PathEscape(stationID), &result); err != nil {
		return nil, fmt.Errorf("fetch location: %w", err)
	}

	sensors := make(map[int]aqi.Pollutant)
	for _, loc := range result.Results {
		for _, sensor := range loc.Sensors {
			if pollutant, ok := aqi.ParsePollutant(sensor.Parameter.Name); ok {
				sensors[sensor.ID] = pollutant
			}
		}
	}
	return sensors, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AirChat/2.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// toCandidate converts an OpenAQ location to a station candidate. A missing
// or unparsable datetimeLast leaves LastUpdated zero; the station scorer
// treats that as no recency bonus rather than an error.
func toCandidate(loc *locationData) station.Candidate {
	pollutants := make([]aqi.Pollutant, 0, len(loc.Sensors))
	seen := make(map[aqi.Pollutant]bool)
	for _, sensor := range loc.Sensors {
		pollutant, ok := aqi.ParsePollutant(sensor.Parameter.Name)
		if !ok || seen[pollutant] {
			continue
		}
		seen[pollutant] = true
		pollutants = append(pollutants, pollutant)
	}

	var lastUpdated time.Time
	if loc.DatetimeLast != nil {
		lastUpdated = parseTime(loc.DatetimeLast.UTC)
	}

	return station.Candidate{
		ID:             strconv.Itoa(loc.ID),
		Name:           loc.Name,
		Lat:            loc.Coordinates.Latitude,
		Lon:            loc.Coordinates.Longitude,
		Pollutants:     pollutants,
		LastUpdated:    lastUpdated,
		DistanceMeters: loc.Distance,
	}
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// apiParameterName maps a pollutant to the OpenAQ parameter name.
func apiParameterName(p aqi.Pollutant) string {
	return strings.ToLower(string(p))
}
