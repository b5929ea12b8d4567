// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package restroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/http"
	"github.com/wneessen/gotta-go/internal/logger"
)

const (
	DefaultEndpoint = "https://www.refugerestrooms.org/api/v1/restrooms/by_location"
	PageSize        = 50
	Page            = 1
)

// Record is a single restroom as returned by the Refuge Restrooms API.
type Record struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Street        string    `json:"street"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	Comment       string    `json:"comment"`
	Directions    string    `json:"directions"`
	Accessible    bool      `json:"accessible"`
	Unisex        bool      `json:"unisex"`
	ChangingTable bool      `json:"changing_table"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Distance      float64   `json:"distance"`
	Upvote        int       `json:"upvote"`
	Downvote      int       `json:"downvote"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Coordinate returns the position of the restroom.
func (r Record) Coordinate() geobus.Coordinate {
	return geobus.Coordinate{Lat: r.Latitude, Lon: r.Longitude}
}

// NetworkError is returned when the API could not be reached.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "restroom lookup network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError is returned when the API answered with a non-success status, a content type
// other than JSON or a body that could not be decoded.
type ProtocolError struct {
	StatusCode int
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("restroom lookup protocol error (HTTP %d): %s", e.StatusCode, e.Err)
	}
	return "restroom lookup protocol error: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Client queries the restroom API. Every Fetch performs a fresh round-trip.
type Client struct {
	http     *http.Client
	endpoint string
	logger   *logger.Logger
}

func New(client *http.Client, endpoint string, log *logger.Logger) (*Client, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid restroom API endpoint: %w", err)
	}
	return &Client{
		http:     client,
		endpoint: endpoint,
		logger:   log,
	}, nil
}

// Fetch returns the first page of restrooms around center. The search radius is decided by
// the API.
func (c *Client) Fetch(ctx context.Context, center geobus.Coordinate) ([]Record, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(center.Lon, 'f', -1, 64))
	query.Set("per_page", strconv.Itoa(PageSize))
	query.Set("page", strconv.Itoa(Page))

	var records []Record
	start := time.Now()
	code, err := c.http.Get(ctx, c.endpoint, &records, query, nil)
	if err != nil {
		switch {
		case errors.Is(err, http.ErrUnexpectedStatus), errors.Is(err, http.ErrUnexpectedContentType):
			return nil, &ProtocolError{StatusCode: code, Err: err}
		case code != 0:
			// a status code means a response was received, so the body did not decode
			return nil, &ProtocolError{StatusCode: code, Err: err}
		default:
			return nil, &NetworkError{Err: err}
		}
	}
	if records == nil {
		records = []Record{}
	}

	c.logger.Debug("restrooms fetched", slog.Int("count", len(records)),
		slog.Float64("lat", center.Lat), slog.Float64("lng", center.Lon),
		slog.Duration("took", time.Since(start)))
	return records, nil
}
