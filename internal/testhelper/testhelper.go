// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for the package tests.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// TestOnlineAPIURL is a reachable HTTP endpoint used by tests that require network access.
const TestOnlineAPIURL = "https://www.refugerestrooms.org/api/v1/restrooms?per_page=1"

// MockRoundTripper is a http.RoundTripper that hands every request to Fn.
type MockRoundTripper struct {
	Fn func(*http.Request) (*http.Response, error)
}

// RoundTrip implements the http.RoundTripper interface.
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless PERFORM_ONLINE_TESTS is set.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if val := os.Getenv("PERFORM_ONLINE_TESTS"); val == "" {
		t.Skip("skipping online test, set PERFORM_ONLINE_TESTS to enable")
	}
}

// JSONHeader returns a header set that marks a response body as JSON.
func JSONHeader() http.Header {
	header := make(http.Header)
	header.Set("Content-Type", "application/json; charset=utf-8")
	return header
}
