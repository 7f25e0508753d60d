package assist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/aqi"
	"github.com/airchat/airchat/internal/assist"
	"github.com/airchat/airchat/internal/geocode/nominatim"
	"github.com/airchat/airchat/internal/station"
	"github.com/airchat/airchat/internal/weather"
)

type fakeAirQuality struct {
	obs    *airquality.Observation
	err    error
	gotLat float64
	gotLon float64
}

func (f *fakeAirQuality) Latest(_ context.Context, lat, lon float64, _ int) (*airquality.Observation, error) {
	f.gotLat, f.gotLon = lat, lon
	if f.err != nil {
		return nil, f.err
	}
	return f.obs, nil
}

type fakeGeocoder struct {
	loc *nominatim.Location
	err error
}

func (f *fakeGeocoder) Geocode(context.Context, string) (*nominatim.Location, error) {
	return f.loc, f.err
}

type fakeWeather struct {
	obs *weather.Observation
	err error
}

func (f *fakeWeather) Current(context.Context, float64, float64) (*weather.Observation, error) {
	return f.obs, f.err
}

type fakeNarrator struct {
	answer    string
	err       error
	gotReport string
}

func (f *fakeNarrator) Narrate(_ context.Context, _, report string) (string, error) {
	f.gotReport = report
	return f.answer, f.err
}

func moderateObservation() *airquality.Observation {
	pm25, _ := aqi.Calculate(aqi.PollutantPM25, 27.5)
	no2, _ := aqi.Calculate(aqi.PollutantNO2, 45)
	return &airquality.Observation{
		Station: station.Candidate{ID: "2178", Name: "San Jose - Knox Ave"},
		Pollutants: map[aqi.Pollutant]airquality.PollutantObservation{
			aqi.PollutantPM25: {Result: pm25, Source: airquality.SourceNowcast, HoursUsed: 12},
			aqi.PollutantNO2:  {Result: no2, Source: airquality.SourceLatest, HoursUsed: 1},
		},
		Dominant:    aqi.PollutantPM25,
		DominantAQI: pm25,
	}
}

func TestService_ChatGeocodesAndReports(t *testing.T) {
	aq := &fakeAirQuality{obs: moderateObservation()}
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: aq,
		Geocoder: &fakeGeocoder{loc: &nominatim.Location{
			Lat: 37.3362, Lon: -121.8906, DisplayName: "San Jose, California",
		}},
		Logger: zerolog.Nop(),
	})

	reply, err := svc.Chat(context.Background(), assist.ChatRequest{
		Message:  "How is the air in San Jose?",
		Location: "San Jose, CA",
	})
	require.NoError(t, err)

	assert.InDelta(t, 37.3362, aq.gotLat, 1e-9)
	assert.InDelta(t, -121.8906, aq.gotLon, 1e-9)
	assert.Equal(t, "San Jose, California", reply.Place)
	assert.False(t, reply.Narrated)
	assert.Contains(t, reply.Answer, "AQI 83 (Moderate), dominant pollutant PM25.")
	assert.Contains(t, reply.Answer, "Station: San Jose - Knox Ave.")
	assert.Contains(t, reply.Answer, "Air quality is moderate.")
	assert.Contains(t, reply.Advice, "moderate")
}

func TestService_ChatUsesCoordinatesDirectly(t *testing.T) {
	aq := &fakeAirQuality{obs: moderateObservation()}
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: aq,
		Geocoder:   &fakeGeocoder{err: errors.New("geocoder must not be called")},
		Logger:     zerolog.Nop(),
	})

	lat, lon := 37.3382, -121.8863
	reply, err := svc.Chat(context.Background(), assist.ChatRequest{
		Message: "air?",
		Lat:     &lat,
		Lon:     &lon,
	})
	require.NoError(t, err)
	assert.Equal(t, "37.3382,-121.8863", reply.Place)
}

func TestService_ChatFoldsWeatherIntoAdvice(t *testing.T) {
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: &fakeAirQuality{obs: moderateObservation()},
		Geocoder:   &fakeGeocoder{loc: &nominatim.Location{Lat: 1, Lon: 2, DisplayName: "Somewhere"}},
		Weather: &fakeWeather{obs: &weather.Observation{
			TemperatureC: 22.4, Humidity: 40, WindSpeed: 3.2, Description: "scattered clouds",
		}},
		Logger: zerolog.Nop(),
	})

	reply, err := svc.Chat(context.Background(), assist.ChatRequest{Message: "air?", Location: "Somewhere"})
	require.NoError(t, err)
	assert.Contains(t, reply.Advice, "Weather: scattered clouds")
	require.NotNil(t, reply.Weather)
}

func TestService_ChatWeatherFailureIsNonFatal(t *testing.T) {
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: &fakeAirQuality{obs: moderateObservation()},
		Geocoder:   &fakeGeocoder{loc: &nominatim.Location{Lat: 1, Lon: 2, DisplayName: "Somewhere"}},
		Weather:    &fakeWeather{err: weather.ErrProviderUnavailable},
		Logger:     zerolog.Nop(),
	})

	reply, err := svc.Chat(context.Background(), assist.ChatRequest{Message: "air?", Location: "Somewhere"})
	require.NoError(t, err)
	assert.Nil(t, reply.Weather)
	assert.NotContains(t, reply.Advice, "Weather:")
}

func TestService_ChatNarratesWhenConfigured(t *testing.T) {
	narrator := &fakeNarrator{answer: "The air is fine today, enjoy your run."}
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: &fakeAirQuality{obs: moderateObservation()},
		Geocoder:   &fakeGeocoder{loc: &nominatim.Location{Lat: 1, Lon: 2, DisplayName: "Somewhere"}},
		Narrator:   narrator,
		Logger:     zerolog.Nop(),
	})

	reply, err := svc.Chat(context.Background(), assist.ChatRequest{Message: "air?", Location: "Somewhere"})
	require.NoError(t, err)
	assert.True(t, reply.Narrated)
	assert.Equal(t, "The air is fine today, enjoy your run.", reply.Answer)
	assert.Contains(t, narrator.gotReport, "AQI 83")
}

func TestService_ChatNarratorFailureFallsBackToReport(t *testing.T) {
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: &fakeAirQuality{obs: moderateObservation()},
		Geocoder:   &fakeGeocoder{loc: &nominatim.Location{Lat: 1, Lon: 2, DisplayName: "Somewhere"}},
		Narrator:   &fakeNarrator{err: errors.New("rate limited")},
		Logger:     zerolog.Nop(),
	})

	reply, err := svc.Chat(context.Background(), assist.ChatRequest{Message: "air?", Location: "Somewhere"})
	require.NoError(t, err)
	assert.False(t, reply.Narrated)
	assert.Contains(t, reply.Answer, "AQI 83")
}

func TestService_ChatNoLocation(t *testing.T) {
	svc := assist.NewService(assist.ServiceConfig{
		AirQuality: &fakeAirQuality{obs: moderateObservation()},
		Geocoder:   &fakeGeocoder{},
		Logger:     zerolog.Nop(),
	})

	_, err := svc.Chat(context.Background(), assist.ChatRequest{Message: "air?"})
	assert.ErrorIs(t, err, assist.ErrNoLocation)
}

func TestAdvice_Bands(t *testing.T) {
	tests := []struct {
		aqi  int
		want string
	}{
		{0, "Air quality is good."},
		{50, "Air quality is good."},
		{51, "Air quality is moderate."},
		{100, "Air quality is moderate."},
		{150, "Unhealthy for sensitive groups."},
		{200, "Unhealthy."},
		{300, "Very unhealthy."},
		{301, "Hazardous."},
		{500, "Hazardous."},
	}
	for _, tt := range tests {
		assert.Contains(t, assist.Advice(tt.aqi), tt.want, "aqi %d", tt.aqi)
	}
}
