package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrNotConfigured is returned by a provider without an API key.
var ErrNotConfigured = errors.New("weather provider not configured")

const DefaultQWeatherLocation = "101010100"

type qweatherResponse struct {
	Code string `json:"code"`
	Now  struct {
		Temp      string `json:"temp"`
		Humidity  string `json:"humidity"`
		WindSpeed string `json:"windSpeed"`
		Text      string `json:"text"`
		Icon      string `json:"icon"`
	} `json:"now"`
	UpdateTime string `json:"updateTime"`
}

// QWeather reads /v7/weather/now. A body code other than "200" is a failure.
type QWeather struct {
	host       string
	key        string
	httpClient *http.Client
}

func NewQWeather(host, key string, hc *http.Client) *QWeather {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &QWeather{host: strings.TrimRight(host, "/"), key: key, httpClient: hc}
}

func (q *QWeather) Name() string { return ProviderQWeather }

func (q *QWeather) Current(ctx context.Context, query Query) (Data, error) {
	if q.key == "" {
		return Data{}, ErrNotConfigured
	}
	location := query.Location
	if location == "" {
		location = DefaultQWeatherLocation
	}

	params := url.Values{"location": {location}, "key": {q.key}}
	var resp qweatherResponse
	if err := getJSON(ctx, q.httpClient, q.host+"/v7/weather/now?"+params.Encode(), &resp); err != nil {
		return Data{}, fmt.Errorf("qweather: %w", err)
	}
	if resp.Code != "200" {
		return Data{}, fmt.Errorf("qweather: api returned code %s", resp.Code)
	}

	return Data{
		Type:        MapQWeatherCode(resp.Now.Icon),
		Temperature: parseNumber(resp.Now.Temp),
		Humidity:    parseNumber(resp.Now.Humidity),
		WindSpeed:   parseNumber(resp.Now.WindSpeed),
		Description: resp.Now.Text,
		City:        "当前位置",
		UpdateTime:  resp.UpdateTime,
		Source:      ProviderQWeather,
	}, nil
}

func parseNumber(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// getJSON issues a GET and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, hc *http.Client, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
