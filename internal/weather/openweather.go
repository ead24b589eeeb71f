package weather

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLat = 39.9042
	DefaultLon = 116.4074
)

type openWeatherResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Name string `json:"name"`
	DT   int64  `json:"dt"`
}

// OpenWeather reads /data/2.5/weather in metric units.
type OpenWeather struct {
	host       string
	key        string
	httpClient *http.Client
}

func NewOpenWeather(host, key string, hc *http.Client) *OpenWeather {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenWeather{host: strings.TrimRight(host, "/"), key: key, httpClient: hc}
}

func (o *OpenWeather) Name() string { return ProviderOpenWeather }

func (o *OpenWeather) Current(ctx context.Context, query Query) (Data, error) {
	if o.key == "" {
		return Data{}, ErrNotConfigured
	}
	lat, lon := query.Lat, query.Lon
	if !query.hasCoordinates() {
		lat, lon = DefaultLat, DefaultLon
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {o.key},
		"units": {"metric"},
		"lang":  {"zh_cn"},
	}
	var resp openWeatherResponse
	if err := getJSON(ctx, o.httpClient, o.host+"/data/2.5/weather?"+params.Encode(), &resp); err != nil {
		return Data{}, fmt.Errorf("openweather: %w", err)
	}

	id, desc := 800, "晴"
	if len(resp.Weather) > 0 {
		if resp.Weather[0].ID != 0 {
			id = resp.Weather[0].ID
		}
		if resp.Weather[0].Description != "" {
			desc = resp.Weather[0].Description
		}
	}

	return Data{
		Type:        MapOpenWeatherID(id),
		Temperature: math.Round(resp.Main.Temp),
		Humidity:    resp.Main.Humidity,
		WindSpeed:   math.Round(resp.Wind.Speed * 3.6),
		Description: desc,
		City:        resp.Name,
		UpdateTime:  time.Unix(resp.DT, 0).UTC().Format(time.RFC3339),
		Source:      ProviderOpenWeather,
	}, nil
}
