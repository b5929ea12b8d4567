// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package restroom

import (
	"context"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/http"
	"github.com/wneessen/gotta-go/internal/logger"
	"github.com/wneessen/gotta-go/internal/testhelper"
)

const testFile = "../../testdata/restrooms.json"

var testCenter = geobus.Coordinate{Lat: 40.7185, Lon: -74.0025}

func TestNew(t *testing.T) {
	t.Run("new client uses the default endpoint", func(t *testing.T) {
		client, err := New(http.New(testLogger()), "", testLogger())
		if err != nil {
			t.Fatalf("failed to create restroom client: %s", err)
		}
		if client.endpoint != DefaultEndpoint {
			t.Errorf("expected endpoint to be %s, got %s", DefaultEndpoint, client.endpoint)
		}
	})
	t.Run("new client without http client fails", func(t *testing.T) {
		if _, err := New(nil, "", testLogger()); err == nil {
			t.Fatal("expected client creation to fail")
		}
	})
	t.Run("new client without logger fails", func(t *testing.T) {
		if _, err := New(http.New(testLogger()), "", nil); err == nil {
			t.Fatal("expected client creation to fail")
		}
	})
	t.Run("new client with invalid endpoint fails", func(t *testing.T) {
		if _, err := New(http.New(testLogger()), "http://[::1", testLogger()); err == nil {
			t.Fatal("expected client creation to fail")
		}
	})
}

func TestClient_Fetch(t *testing.T) {
	t.Run("fetch succeeds and sends the expected query", func(t *testing.T) {
		var req *stdhttp.Request
		client := testClient(t, func(r *stdhttp.Request) (*stdhttp.Response, error) {
			req = r
			return fileResponse(t, testFile, 200, testhelper.JSONHeader()), nil
		})
		records, err := client.Fetch(t.Context(), testCenter)
		if err != nil {
			t.Fatalf("failed to fetch restrooms: %s", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}

		query := req.URL.Query()
		want := map[string]string{"lat": "40.7185", "lng": "-74.0025", "per_page": "50", "page": "1"}
		for k, v := range want {
			if query.Get(k) != v {
				t.Errorf("expected query parameter %s to be %s, got %s", k, v, query.Get(k))
			}
		}
		if len(query) != len(want) {
			t.Errorf("expected %d query parameters, got %d", len(want), len(query))
		}
		if req.Method != stdhttp.MethodGet {
			t.Errorf("expected GET request, got %s", req.Method)
		}

		first := records[0]
		if first.ID != 69870 || first.Name != "Whole Foods Market" || first.Street != "270 Greenwich St" {
			t.Errorf("unexpected first record: %+v", first)
		}
		if !first.Accessible || first.Unisex || !first.ChangingTable {
			t.Errorf("unexpected flags in first record: %+v", first)
		}
		if first.Latitude != 40.7154 || first.Longitude != -74.0109 {
			t.Errorf("unexpected position of first record: %f,%f", first.Latitude, first.Longitude)
		}
		if first.Upvote != 12 || first.Downvote != 1 || first.UpdatedAt.IsZero() {
			t.Errorf("unexpected metadata in first record: %+v", first)
		}
		if first.Coordinate().Lat != first.Latitude {
			t.Error("expected coordinate to match the record position")
		}
	})
	t.Run("empty result is not nil", func(t *testing.T) {
		client := testClient(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return stringResponse("null", 200, testhelper.JSONHeader()), nil
		})
		records, err := client.Fetch(t.Context(), testCenter)
		if err != nil {
			t.Fatalf("failed to fetch restrooms: %s", err)
		}
		if records == nil || len(records) != 0 {
			t.Errorf("expected empty, non-nil result, got %v", records)
		}
	})
	t.Run("transport failure is a network error", func(t *testing.T) {
		client := testClient(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("connection refused")
		})
		_, err := client.Fetch(t.Context(), testCenter)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("expected network error, got %v", err)
		}
	})
	t.Run("canceled context is a network error", func(t *testing.T) {
		client := testClient(t, func(r *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, r.Context().Err()
		})
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := client.Fetch(ctx, testCenter)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("expected network error, got %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected error to wrap %s, got %v", context.Canceled, err)
		}
	})
	t.Run("protocol errors", func(t *testing.T) {
		tests := []struct {
			name   string
			body   string
			status int
			header stdhttp.Header
			code   int
		}{
			{"server error", `{"error":"boom"}`, 500, testhelper.JSONHeader(), 500},
			{"not found", `{}`, 404, testhelper.JSONHeader(), 404},
			{"html response", "<html></html>", 200, stdhttp.Header{"Content-Type": []string{"text/html"}}, 200},
			{"missing content type", "[]", 200, stdhttp.Header{}, 200},
			{"malformed JSON", `[{"id":"one"`, 200, testhelper.JSONHeader(), 200},
			{"object instead of array", `{"id":1}`, 200, testhelper.JSONHeader(), 200},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				client := testClient(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
					return stringResponse(tc.body, tc.status, tc.header), nil
				})
				records, err := client.Fetch(t.Context(), testCenter)
				var protoErr *ProtocolError
				if !errors.As(err, &protoErr) {
					t.Fatalf("expected protocol error, got %v", err)
				}
				if protoErr.StatusCode != tc.code {
					t.Errorf("expected status code %d, got %d", tc.code, protoErr.StatusCode)
				}
				if records != nil {
					t.Errorf("expected no records, got %d", len(records))
				}
				if !strings.Contains(err.Error(), "protocol error") {
					t.Errorf("unexpected error message: %s", err)
				}
			})
		}
	})
	t.Run("online fetch", func(t *testing.T) {
		testhelper.PerformIntegrationTests(t)
		client, err := New(http.New(testLogger()), "", testLogger())
		if err != nil {
			t.Fatalf("failed to create restroom client: %s", err)
		}
		if _, err = client.Fetch(t.Context(), testCenter); err != nil {
			t.Fatalf("failed to fetch restrooms: %s", err)
		}
	})
}

func testClient(t *testing.T, fn func(*stdhttp.Request) (*stdhttp.Response, error)) *Client {
	t.Helper()
	httpClient := http.New(testLogger())
	httpClient.Transport = testhelper.MockRoundTripper{Fn: fn}
	client, err := New(httpClient, "", testLogger())
	if err != nil {
		t.Fatalf("failed to create restroom client: %s", err)
	}
	return client
}

func fileResponse(t *testing.T, file string, status int, header stdhttp.Header) *stdhttp.Response {
	t.Helper()
	data, err := os.Open(file)
	if err != nil {
		t.Fatalf("failed to open JSON response file: %s", err)
	}
	return &stdhttp.Response{StatusCode: status, Body: data, Header: header}
}

func stringResponse(body string, status int, header stdhttp.Header) *stdhttp.Response {
	return &stdhttp.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: header}
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}
