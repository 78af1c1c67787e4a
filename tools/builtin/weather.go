package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/tools"
)

const (
	WeatherName = "get_weather"

	// WeatherLocationArg is the argument the approval gate inspects.
	WeatherLocationArg = "location"
)

var ErrLocationNotFound = errors.New("location not found")

func WeatherTool() protocol.Tool {
	return protocol.Tool{
		Name:        WeatherName,
		Description: "Get the current weather for a location.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				WeatherLocationArg: map[string]any{
					"type":        "string",
					"description": "City name, optionally with region or country, e.g. \"Paris, France\".",
				},
			},
			"required": []string{WeatherLocationArg},
		},
	}
}

// Weather looks up current conditions through the Open-Meteo geocoding and
// forecast APIs.
type Weather struct {
	client       *apiClient
	geocodingURL string
	forecastURL  string
}

func NewWeather(cfg Config) *Weather {
	return &Weather{
		client:       newAPIClient(cfg),
		geocodingURL: cfg.GeocodingURL,
		forecastURL:  cfg.ForecastURL,
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Handle is the get_weather tool handler.
func (w *Weather) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	location := strings.TrimSpace(args.Location)
	if location == "" {
		return tools.Result{}, errors.New("invalid arguments: location is required")
	}

	// Open-Meteo geocodes the bare city name; the qualifier narrows the
	// candidates.
	name, qualifier, _ := strings.Cut(location, ",")
	qualifier = strings.ToLower(strings.TrimSpace(qualifier))

	var geo geocodeResponse
	err := w.client.getJSON(ctx, w.geocodingURL, url.Values{
		"name":     {strings.TrimSpace(name)},
		"count":    {"10"},
		"language": {"en"},
		"format":   {"json"},
	}, &geo)
	if err != nil {
		return tools.Result{}, fmt.Errorf("geocoding %s: %w", location, err)
	}
	if len(geo.Results) == 0 {
		return tools.Result{}, fmt.Errorf("%w: %s", ErrLocationNotFound, location)
	}

	place := geo.Results[0]
	if qualifier != "" {
		for _, r := range geo.Results {
			if strings.Contains(strings.ToLower(r.Admin1), qualifier) || strings.Contains(strings.ToLower(r.Country), qualifier) {
				place = r
				break
			}
		}
	}

	var fc forecastResponse
	err = w.client.getJSON(ctx, w.forecastURL, url.Values{
		"latitude":  {strconv.FormatFloat(place.Latitude, 'f', 4, 64)},
		"longitude": {strconv.FormatFloat(place.Longitude, 'f', 4, 64)},
		"current":   {"temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code"},
	}, &fc)
	if err != nil {
		return tools.Result{}, fmt.Errorf("forecast %s: %w", location, err)
	}

	label := joinNonEmpty(", ", place.Name, place.Admin1, place.Country)
	return tools.Result{
		Content: fmt.Sprintf("Current weather in %s: %s, %.1f°C, humidity %.0f%%, wind %.1f km/h",
			label, describeWeatherCode(fc.Current.WeatherCode),
			fc.Current.Temperature, fc.Current.Humidity, fc.Current.WindSpeed),
	}, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// describeWeatherCode maps WMO weather interpretation codes to text.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown conditions"
	}
}
