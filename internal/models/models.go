package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WeatherRecord is an OpenWeatherMap current-conditions body, kept exactly as received.
type WeatherRecord json.RawMessage

func (r WeatherRecord) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

func (r *WeatherRecord) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

// Fields decodes the record into a generic map.
func (r WeatherRecord) Fields() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(r, &m); err != nil {
		return nil, fmt.Errorf("decode weather record: %w", err)
	}
	return m, nil
}

// Summary is the subset of a WeatherRecord the dashboard renders.
type Summary struct {
	City        string  `json:"city"`
	Country     string  `json:"country,omitempty"`
	TempC       float64 `json:"temp_c"`
	FeelsLikeC  float64 `json:"feels_like_c"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Summary decodes the rendered fields. Missing fields are left zero.
func (r WeatherRecord) Summary() (Summary, error) {
	var resp currentResponse
	if err := json.Unmarshal(r, &resp); err != nil {
		return Summary{}, fmt.Errorf("decode weather summary: %w", err)
	}

	s := Summary{
		City:       resp.Name,
		Country:    resp.Sys.Country,
		TempC:      resp.Main.Temp,
		FeelsLikeC: resp.Main.FeelsLike,
		Humidity:   resp.Main.Humidity,
		WindSpeed:  resp.Wind.Speed,
	}
	if len(resp.Weather) > 0 {
		w := resp.Weather[0]
		s.Description = w.Description
		if s.Description == "" {
			s.Description = strings.ToLower(w.Main)
		}
		s.Icon = w.Icon
	}
	return s, nil
}

// IconURL returns the OpenWeatherMap icon URL, or "" when the record carried no icon.
func (s Summary) IconURL() string {
	if s.Icon == "" {
		return ""
	}
	return "https://openweathermap.org/img/wn/" + s.Icon + "@2x.png"
}
