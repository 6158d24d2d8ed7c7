package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchAggregates(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"t": 1704153600000, "o": 100, "h": 102, "l": 99, "c": 101, "v": 5000},
				{"t": 1704240000000, "o": 101, "h": 103, "l": 100, "c": 102, "v": 6000}
			]
		}`))
	}))
	defer srv.Close()

	adapter := NewPolygonAdapter("test-key", srv.URL, "", nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	bars, err := adapter.FetchAggregates(context.Background(), "AAPL", 1, "day", from, to)
	if err != nil {
		t.Fatalf("FetchAggregates failed: %v", err)
	}

	if gotPath != "/v2/aggs/ticker/AAPL/range/1/day/2024-01-01/2024-01-03" {
		t.Errorf("Wrong request path: %s", gotPath)
	}
	if !strings.Contains(gotQuery, "adjusted=true") || !strings.Contains(gotQuery, "apiKey=test-key") {
		t.Errorf("Missing query params: %s", gotQuery)
	}

	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(bars))
	}
	first := bars[0]
	if !first.Time.Equal(time.UnixMilli(1704153600000).UTC()) {
		t.Errorf("Wrong bar time: %v", first.Time)
	}
	if first.Open != 100 || first.High != 102 || first.Low != 99 || first.Close != 101 || first.Volume != 5000 {
		t.Errorf("Wrong bar values: %+v", first)
	}
}

func TestFetchAggregates_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ERROR", "results": []}`))
	}))
	defer srv.Close()

	adapter := NewPolygonAdapter("test-key", srv.URL, "", nil)
	_, err := adapter.FetchAggregates(context.Background(), "AAPL", 1, "day", time.Now().AddDate(0, 0, -1), time.Now())
	if err == nil {
		t.Error("Expected error for non-OK status")
	}
}

func TestFetchAggregates_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	adapter := NewPolygonAdapter("bad-key", srv.URL, "", nil)
	_, err := adapter.FetchAggregates(context.Background(), "AAPL", 1, "day", time.Now().AddDate(0, 0, -1), time.Now())
	if err == nil {
		t.Error("Expected error for HTTP 401")
	}
}

func TestFetchAggregates_DelayedStatusAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "DELAYED", "results": [{"t": 1704153600000, "o": 1, "h": 1, "l": 1, "c": 1, "v": 1}]}`))
	}))
	defer srv.Close()

	adapter := NewPolygonAdapter("test-key", srv.URL, "", nil)
	bars, err := adapter.FetchAggregates(context.Background(), "AAPL", 1, "day", time.Now().AddDate(0, 0, -1), time.Now())
	if err != nil {
		t.Fatalf("DELAYED status must be accepted: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("Expected 1 bar, got %d", len(bars))
	}
}
