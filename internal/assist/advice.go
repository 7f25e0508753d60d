// Package assist turns air quality observations into health guidance and
// conversational answers.
package assist

// adviceBand maps an AQI range to activity guidance.
type adviceBand struct {
	maxAQI int
	text   string
}

// adviceBands follows the EPA category boundaries. The last entry catches
// everything above 300.
var adviceBands = []adviceBand{
	{50, "Air quality is good. Enjoy normal outdoor activity."},
	{100, "Air quality is moderate. Sensitive individuals should consider shorter outdoor activity."},
	{150, "Unhealthy for sensitive groups. Limit prolonged or heavy exertion outdoors."},
	{200, "Unhealthy. Reduce or avoid outdoor exertion; consider indoor alternatives."},
	{300, "Very unhealthy. Avoid outdoor activity; stay indoors with clean air."},
}

const hazardousAdvice = "Hazardous. Stay indoors; use high-quality air filtration if available."

// Advice returns activity guidance for an AQI value.
func Advice(aqi int) string {
	for _, band := range adviceBands {
		if aqi <= band.maxAQI {
			return band.text
		}
	}
	return hazardousAdvice
}

// AdviceWithWeather appends a weather summary to the guidance when present.
func AdviceWithWeather(aqi int, weatherSummary string) string {
	base := Advice(aqi)
	if weatherSummary == "" {
		return base
	}
	return base + " Weather: " + weatherSummary
}
