// Package weather provides current-conditions lookups used as context for
// health advice alongside air quality data.
package weather

import (
	"errors"
	"fmt"
	"time"
)

// ErrProviderUnavailable is returned when the upstream weather API fails.
var ErrProviderUnavailable = errors.New("weather provider unavailable")

// Observation is a current-conditions snapshot at a point.
type Observation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// TemperatureC in degrees Celsius.
	TemperatureC float64 `json:"temperatureC"`

	// Humidity percentage (0-100).
	Humidity float64 `json:"humidity"`

	// WindSpeed in m/s.
	WindSpeed float64 `json:"windSpeed"`

	// Description is the provider's condition text ("scattered clouds").
	Description string `json:"description"`

	ObservedAt time.Time `json:"observedAt"`
}

// TemperatureF returns the temperature in Fahrenheit.
func (o *Observation) TemperatureF() float64 {
	return o.TemperatureC*9/5 + 32
}

// Summary renders a one-line description suitable for advice text.
func (o *Observation) Summary() string {
	return fmt.Sprintf("%s, %.0f°F (%.0f°C), humidity %.0f%%, wind %.1f m/s",
		o.Description, o.TemperatureF(), o.TemperatureC, o.Humidity, o.WindSpeed)
}
