package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultWeatherURL is the Open-Meteo forecast endpoint, which also carries
// the current_weather block this client consumes.
const DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// Conditions is the current surface weather at the reservoir.
type Conditions struct {
	TemperatureF float64
	WindMPH      float64
	WeatherCode  int
	Condition    string
	ObservedAt   time.Time
}

// WeatherClient fetches current conditions for a fixed coordinate pair
// from the Open-Meteo API.
type WeatherClient struct {
	// BaseURL defaults to DefaultWeatherURL.
	BaseURL string

	// Latitude and Longitude locate the reservoir.
	Latitude  float64
	Longitude float64

	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

// Current fetches the current conditions.
func (c *WeatherClient) Current(ctx context.Context) (Conditions, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultWeatherURL
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", c.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", c.Longitude))
	q.Set("current_weather", "true")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("windspeed_unit", "mph")

	body, err := getJSON(ctx, c.HTTPClient, base+"?"+q.Encode())
	if err != nil {
		return Conditions{}, err
	}

	if !gjson.ValidBytes(body) {
		return Conditions{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	cw := gjson.GetBytes(body, "current_weather")
	if !cw.Exists() {
		return Conditions{}, fmt.Errorf("%w: missing current_weather", ErrMalformed)
	}

	temp := cw.Get("temperature")
	code := cw.Get("weathercode")
	if !temp.Exists() || !code.Exists() {
		return Conditions{}, fmt.Errorf("%w: current_weather missing temperature or weathercode", ErrMalformed)
	}

	cond := Conditions{
		TemperatureF: temp.Float(),
		WindMPH:      cw.Get("windspeed").Float(),
		WeatherCode:  int(code.Int()),
	}
	cond.Condition = ConditionText(cond.WeatherCode)

	if ts := cw.Get("time"); ts.Exists() {
		if t, err := time.Parse("2006-01-02T15:04", ts.String()); err == nil {
			cond.ObservedAt = t
		}
	}

	return cond, nil
}

// ConditionText maps a WMO weather interpretation code to display text.
func ConditionText(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
