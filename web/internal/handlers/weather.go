package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/devilmonastery/inkwell/internal/weather"
)

// weatherQuery reads provider, location, lat and lon from the query string.
// Unparseable coordinates are ignored.
func weatherQuery(r *http.Request) weather.Query {
	values := r.URL.Query()
	q := weather.Query{
		Provider: values.Get("provider"),
		Location: values.Get("location"),
	}
	if lat, err := strconv.ParseFloat(values.Get("lat"), 64); err == nil {
		q.Lat = lat
	}
	if lon, err := strconv.ParseFloat(values.Get("lon"), 64); err == nil {
		q.Lon = lon
	}
	return q
}

// Weather renders the weather page
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	current := h.app.Weather.Current(r.Context(), weatherQuery(r))

	data := h.newTemplateData(w, r)
	data["Current"] = current
	h.renderTemplate(w, "weather.html", data)
}

// WeatherAPI returns current conditions as JSON. It always answers with
// data, falling back to the default observation.
func (h *Handler) WeatherAPI(w http.ResponseWriter, r *http.Request) {
	current := h.app.Weather.Current(r.Context(), weatherQuery(r))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(current); err != nil {
		h.log.Error("failed to encode weather", slog.String("error", err.Error()))
	}
}
