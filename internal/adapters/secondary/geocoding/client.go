package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultURL = "https://maps.googleapis.com/maps/api/geocode/json"

var (
	ErrNoAPIKey = errors.New("geocoding api key not configured")
	ErrNoCity   = errors.New("no city found for these coordinates")
)

type component struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []component `json:"address_components"`
	} `json:"results"`
}

// Client fait du reverse geocoding (lat, lng) -> ville.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) ReverseCity(ctx context.Context, lat, lng float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return "", fmt.Errorf("coordinates out of range: %v,%v", lat, lng)
	}

	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode geocoding response: %w", err)
	}
	switch out.Status {
	case "OK":
	case "ZERO_RESULTS":
		return "", ErrNoCity
	default:
		return "", fmt.Errorf("geocoding api: %s %s", out.Status, out.ErrorMessage)
	}

	// Ville = "locality", à défaut le premier niveau administratif
	for _, kind := range []string{"locality", "postal_town", "administrative_area_level_2", "administrative_area_level_1"} {
		for _, r := range out.Results {
			for _, comp := range r.AddressComponents {
				if slices.Contains(comp.Types, kind) && comp.LongName != "" {
					return comp.LongName, nil
				}
			}
		}
	}
	return "", ErrNoCity
}
