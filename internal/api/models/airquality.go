package models

// AQISummary is the headline index for an observation.
type AQISummary struct {
	Value             int       `json:"value"`
	Category          string    `json:"category"`
	Color             string    `json:"color"`
	DominantPollutant Pollutant `json:"dominantPollutant"`
}

// PollutantDetail is the computed state of one pollutant.
type PollutantDetail struct {
	AQI           int     `json:"aqi"`
	Category      string  `json:"category"`
	Color         string  `json:"color"`
	Concentration float64 `json:"concentration"`

	// Source is "nowcast" or "latest".
	Source string `json:"source"`

	// HoursUsed is the number of hourly samples behind a NowCast value.
	HoursUsed int `json:"hoursUsed"`
}

// StationSummary describes the station behind an observation.
type StationSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Point          Point   `json:"point"`
	DistanceMeters float64 `json:"distanceMeters,omitempty"`
	StationsFound  int     `json:"stationsFound"`
}

// LatestResponse is the response for GET /v1/air-quality/latest.
//
// When no station or no usable measurements exist near the point, the
// response still succeeds: AQI and Pollutants are empty and Reason explains
// why. Upstream failure is the only error outcome.
type LatestResponse struct {
	Location Point `json:"location"`

	AQI        *AQISummary                   `json:"aqi,omitempty"`
	Pollutants map[Pollutant]PollutantDetail `json:"pollutants,omitempty"`
	Station    *StationSummary               `json:"station,omitempty"`

	// Reason is set when no observation could be computed
	// ("no_stations" or "insufficient_data").
	Reason string `json:"reason,omitempty"`

	ObservedAt *Timestamp `json:"observedAt,omitempty"`
}

// ScoredStationResponse is one entry in the stations listing.
type ScoredStationResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Point          Point       `json:"point"`
	Pollutants     []Pollutant `json:"pollutants"`
	DistanceMeters float64     `json:"distanceMeters,omitempty"`
	LastUpdated    *Timestamp  `json:"lastUpdated,omitempty"`

	Score StationScore `json:"score"`
}

// StationScore mirrors the lexicographic ranking triple.
type StationScore struct {
	Priority int     `json:"priority"`
	Count    int     `json:"count"`
	Recency  float64 `json:"recency"`
}

// StationsResponse is the response for GET /v1/air-quality/stations.
type StationsResponse struct {
	Location Point                   `json:"location"`
	Stations []ScoredStationResponse `json:"stations"`
}

// ChatRequest is the request body for POST /v1/assist/chat.
type ChatRequest struct {
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}
