package aqi

// Dominant picks the pollutant driving the overall index: the entry with the
// strictly greatest AQI. Ties resolve by the fixed pollutant priority order
// (PM2.5 > PM10 > O3 > NO2 > SO2 > CO) so the result never depends on map
// iteration order. The boolean is false for empty input.
func Dominant(results map[Pollutant]Result) (Pollutant, Result, bool) {
	var (
		dominant Pollutant
		best     Result
		found    bool
	)
	for pollutant, result := range results {
		if !found {
			dominant, best, found = pollutant, result, true
			continue
		}
		if result.AQI > best.AQI {
			dominant, best = pollutant, result
			continue
		}
		if result.AQI == best.AQI && Priority(pollutant) > Priority(dominant) {
			dominant, best = pollutant, result
		}
	}
	return dominant, best, found
}
