// Package handler provides HTTP handlers for the AirChat API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/api/models"
	"github.com/airchat/airchat/internal/api/response"
)

const (
	defaultRadiusMeters = 20000
	maxRadiusMeters     = 25000
)

// AirQualityHandler handles air quality endpoints.
type AirQualityHandler struct {
	service *airquality.Service
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(service *airquality.Service) *AirQualityHandler {
	return &AirQualityHandler{service: service}
}

// Latest handles GET /v1/air-quality/latest - current observation for a point.
func (h *AirQualityHandler) Latest(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, fieldErrors := parseLocationQuery(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrors)
		return
	}

	obs, err := h.service.Latest(r.Context(), lat, lon, radius)
	if err != nil {
		switch {
		case errors.Is(err, airquality.ErrNoStations):
			response.JSON(w, r, http.StatusOK, models.LatestResponse{
				Location: models.Point{Lat: lat, Lon: lon},
				Reason:   "no_stations",
			})
		case errors.Is(err, airquality.ErrInsufficientData):
			response.JSON(w, r, http.StatusOK, models.LatestResponse{
				Location: models.Point{Lat: lat, Lon: lon},
				Reason:   "insufficient_data",
			})
		default:
			response.ServiceUnavailable(w, r, "air quality provider is unavailable")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, toLatestResponse(lat, lon, obs))
}

// Stations handles GET /v1/air-quality/stations - ranked candidate stations.
func (h *AirQualityHandler) Stations(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, fieldErrors := parseLocationQuery(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrors)
		return
	}

	stations, err := h.service.StationsNear(r.Context(), lat, lon, radius)
	if err != nil {
		response.ServiceUnavailable(w, r, "air quality provider is unavailable")
		return
	}

	out := models.StationsResponse{
		Location: models.Point{Lat: lat, Lon: lon},
		Stations: make([]models.ScoredStationResponse, 0, len(stations)),
	}
	for _, s := range stations {
		entry := models.ScoredStationResponse{
			ID:             s.ID,
			Name:           s.Name,
			Point:          models.Point{Lat: s.Lat, Lon: s.Lon},
			DistanceMeters: s.DistanceMeters,
			Pollutants:     make([]models.Pollutant, 0, len(s.Pollutants)),
			Score: models.StationScore{
				Priority: s.Score.Primary,
				Count:    s.Score.Secondary,
				Recency:  s.Score.Tertiary,
			},
		}
		for _, p := range s.Pollutants {
			entry.Pollutants = append(entry.Pollutants, models.Pollutant(p))
		}
		if !s.LastUpdated.IsZero() {
			ts := models.Timestamp(s.LastUpdated)
			entry.LastUpdated = &ts
		}
		out.Stations = append(out.Stations, entry)
	}

	response.JSON(w, r, http.StatusOK, out)
}

func toLatestResponse(lat, lon float64, obs *airquality.Observation) models.LatestResponse {
	observedAt := models.Timestamp(obs.ObservedAt)
	resp := models.LatestResponse{
		Location: models.Point{Lat: lat, Lon: lon},
		AQI: &models.AQISummary{
			Value:             obs.DominantAQI.AQI,
			Category:          obs.DominantAQI.Category,
			Color:             obs.DominantAQI.Color,
			DominantPollutant: models.Pollutant(obs.Dominant),
		},
		Pollutants: make(map[models.Pollutant]models.PollutantDetail, len(obs.Pollutants)),
		Station: &models.StationSummary{
			ID:             obs.Station.ID,
			Name:           obs.Station.Name,
			Point:          models.Point{Lat: obs.Station.Lat, Lon: obs.Station.Lon},
			DistanceMeters: obs.Station.DistanceMeters,
			StationsFound:  obs.StationsFound,
		},
		ObservedAt: &observedAt,
	}
	for pollutant, po := range obs.Pollutants {
		resp.Pollutants[models.Pollutant(pollutant)] = models.PollutantDetail{
			AQI:           po.Result.AQI,
			Category:      po.Result.Category,
			Color:         po.Result.Color,
			Concentration: po.Result.Concentration,
			Source:        string(po.Source),
			HoursUsed:     po.HoursUsed,
		}
	}
	return resp
}

// parseLocationQuery extracts lat/lon/radius from query parameters.
func parseLocationQuery(r *http.Request) (lat, lon float64, radius int, fieldErrors []models.FieldError) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lat", Message: "must be a number between -90 and 90",
		})
	}
	lon, err = strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lon", Message: "must be a number between -180 and 180",
		})
	}

	radius = defaultRadiusMeters
	if raw := query.Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius <= 0 {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: "radius", Message: "must be a positive integer (meters)",
			})
		} else if radius > maxRadiusMeters {
			radius = maxRadiusMeters
		}
	}
	return lat, lon, radius, fieldErrors
}
