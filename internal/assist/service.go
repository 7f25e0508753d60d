package assist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/geocode/nominatim"
	"github.com/airchat/airchat/internal/weather"
)

// ErrNoLocation is returned when a chat request carries neither a place name
// nor coordinates.
var ErrNoLocation = errors.New("no location in request")

const defaultRadiusMeters = 20000

// AirQuality is the slice of the air quality service the assistant needs.
type AirQuality interface {
	Latest(ctx context.Context, lat, lon float64, radiusMeters int) (*airquality.Observation, error)
}

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*nominatim.Location, error)
}

// Weather fetches current conditions used as advice context.
type Weather interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Observation, error)
}

// Narrator rewrites a factual report as a conversational answer. It is
// optional; without one the assistant returns the report verbatim.
type Narrator interface {
	Narrate(ctx context.Context, question, report string) (string, error)
}

// ServiceConfig holds dependencies for the assist service.
type ServiceConfig struct {
	AirQuality AirQuality
	Geocoder   Geocoder

	// Weather is optional; when set its summary is folded into the advice.
	Weather Weather

	// Narrator is optional; when set the answer is phrased by the LLM.
	Narrator Narrator

	Logger zerolog.Logger

	// RadiusMeters bounds the station search (defaults to 20 km).
	RadiusMeters int
}

// Service answers air quality questions for a location.
type Service struct {
	aq       AirQuality
	geocoder Geocoder
	weather  Weather
	narrator Narrator
	logger   zerolog.Logger
	radius   int
}

// NewService creates an assist service.
func NewService(cfg ServiceConfig) *Service {
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = defaultRadiusMeters
	}
	return &Service{
		aq:       cfg.AirQuality,
		geocoder: cfg.Geocoder,
		weather:  cfg.Weather,
		narrator: cfg.Narrator,
		logger:   cfg.Logger,
		radius:   radius,
	}
}

// ChatRequest is one question about a place.
type ChatRequest struct {
	// Message is the user's question, passed to the narrator as-is.
	Message string

	// Location is a free-text place name, geocoded when Lat/Lon are unset.
	Location string

	Lat *float64
	Lon *float64
}

// ChatReply is the assistant's answer plus the data behind it.
type ChatReply struct {
	Answer      string                  `json:"answer"`
	Place       string                  `json:"place"`
	Advice      string                  `json:"advice"`
	Observation *airquality.Observation `json:"observation"`
	Weather     *weather.Observation    `json:"weather,omitempty"`

	// Narrated reports whether the answer came from the LLM rather than the
	// report template.
	Narrated bool `json:"narrated"`
}

// Chat resolves the request's location, gathers air quality and weather, and
// composes an answer.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	lat, lon, place, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	obs, err := s.aq.Latest(ctx, lat, lon, s.radius)
	if err != nil {
		return nil, err
	}

	var wx *weather.Observation
	if s.weather != nil {
		wx, err = s.weather.Current(ctx, lat, lon)
		if err != nil {
			// Advice degrades gracefully without weather context.
			s.logger.Warn().Err(err).Msg("weather lookup failed, answering without it")
			wx = nil
		}
	}

	var weatherSummary string
	if wx != nil {
		weatherSummary = wx.Summary()
	}
	advice := AdviceWithWeather(obs.DominantAQI.AQI, weatherSummary)
	report := buildReport(place, obs, advice)

	reply := &ChatReply{
		Answer:      report,
		Place:       place,
		Advice:      advice,
		Observation: obs,
		Weather:     wx,
	}

	if s.narrator != nil {
		answer, err := s.narrator.Narrate(ctx, req.Message, report)
		if err != nil {
			s.logger.Warn().Err(err).Msg("narration failed, falling back to report")
		} else {
			reply.Answer = answer
			reply.Narrated = true
		}
	}
	return reply, nil
}

func (s *Service) resolve(ctx context.Context, req ChatRequest) (lat, lon float64, place string, err error) {
	if req.Lat != nil && req.Lon != nil {
		return *req.Lat, *req.Lon, fmt.Sprintf("%.4f,%.4f", *req.Lat, *req.Lon), nil
	}
	if strings.TrimSpace(req.Location) == "" {
		return 0, 0, "", ErrNoLocation
	}
	loc, err := s.geocoder.Geocode(ctx, req.Location)
	if err != nil {
		return 0, 0, "", fmt.Errorf("geocode %q: %w", req.Location, err)
	}
	place = loc.DisplayName
	if place == "" {
		place = req.Location
	}
	return loc.Lat, loc.Lon, place, nil
}

// buildReport renders the observation as a plain-text report. The layout is
// stable so tests and the narrator fallback stay predictable.
func buildReport(place string, obs *airquality.Observation, advice string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Air quality near %s:\n", place)
	fmt.Fprintf(&b, "AQI %d (%s), dominant pollutant %s.\n",
		obs.DominantAQI.AQI, obs.DominantAQI.Category, strings.ToUpper(string(obs.Dominant)))
	fmt.Fprintf(&b, "Station: %s.\n", obs.Station.Name)

	pollutants := make([]aqi.Pollutant, 0, len(obs.Pollutants))
	for p := range obs.Pollutants {
		pollutants = append(pollutants, p)
	}
	sort.Slice(pollutants, func(i, j int) bool {
		return aqi.Priority(pollutants[i]) > aqi.Priority(pollutants[j])
	})
	for _, p := range pollutants {
		po := obs.Pollutants[p]
		fmt.Fprintf(&b, "%s: AQI %d (%s), concentration %.1f, source %s.\n",
			strings.ToUpper(string(p)), po.Result.AQI, po.Result.Category, po.Result.Concentration, po.Source)
	}
	b.WriteString(advice)
	return b.String()
}
