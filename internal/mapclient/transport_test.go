package mapclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nestmap/nestmap/internal/mapclient"
)

func TestHTTPFetcher_SendsFormAndParsesEnvelope(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"listings":[{"id":"a"},{"id":"b"}],"total":42}}`))
	}))
	defer srv.Close()

	fetcher := &mapclient.HTTPFetcher{
		Endpoint: srv.URL,
		Action:   "map_search",
		Security: "tok-123",
	}

	q := mapclient.ViewportQuery{
		Bounds:      mapclient.Bounds{North: 40.1, South: 40.0, East: -73.9, West: -74.0},
		Zoom:        13,
		Filters:     map[string]string{"min_beds": "2"},
		IsNewFilter: true,
	}
	res, err := fetcher.Fetch(context.Background(), q, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Listings) != 2 || res.Total != 42 {
		t.Errorf("unexpected result: %d listings, total %d", len(res.Listings), res.Total)
	}
	if !res.FitBounds {
		t.Error("new filter should request a bounds fit")
	}

	for k, want := range map[string]string{
		"action":          "map_search",
		"security":        "tok-123",
		"zoom":            "13",
		"north":           "40.1",
		"south":           "40",
		"request_id":      "7",
		"is_new_filter":   "true",
		"is_initial_load": "false",
	} {
		if form[k] != want {
			t.Errorf("form field %s = %q, want %q", k, form[k], want)
		}
	}
	if form["filters"] != `{"min_beds":"2"}` {
		t.Errorf("filters field = %q", form["filters"])
	}
}

func TestHTTPFetcher_InitialLoadOmitsBounds(t *testing.T) {
	var hasBounds bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		hasBounds = r.PostForm.Has("north")
		w.Write([]byte(`{"success":true,"data":{"listings":[],"total":0}}`))
	}))
	defer srv.Close()

	fetcher := &mapclient.HTTPFetcher{Endpoint: srv.URL, Action: "map_search"}
	q := mapclient.ViewportQuery{Zoom: 10, IsInitialLoad: true}
	res, err := fetcher.Fetch(context.Background(), q, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasBounds {
		t.Error("initial load must omit the bounding box")
	}
	if !res.FitBounds {
		t.Error("initial load should request a bounds fit")
	}
}

func TestHTTPFetcher_UnsuccessfulEnvelopeIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"data":{"message":"invalid security token"}}`))
	}))
	defer srv.Close()

	fetcher := &mapclient.HTTPFetcher{Endpoint: srv.URL, Action: "map_search"}
	_, err := fetcher.Fetch(context.Background(), mapclient.ViewportQuery{Zoom: 10}, 1)

	var srvErr *mapclient.ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if srvErr.Message != "invalid security token" {
		t.Errorf("unexpected message %q", srvErr.Message)
	}
}

func TestHTTPFetcher_HTTPStatusErrorIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := &mapclient.HTTPFetcher{Endpoint: srv.URL, Action: "map_search"}
	_, err := fetcher.Fetch(context.Background(), mapclient.ViewportQuery{Zoom: 10}, 1)

	var srvErr *mapclient.ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if srvErr.Status != http.StatusInternalServerError {
		t.Errorf("unexpected status %d", srvErr.Status)
	}
}

func TestHTTPFetcher_ConnectionErrorIsNotServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	fetcher := &mapclient.HTTPFetcher{Endpoint: srv.URL, Action: "map_search"}
	_, err := fetcher.Fetch(context.Background(), mapclient.ViewportQuery{Zoom: 10}, 1)
	if err == nil {
		t.Fatal("expected an error")
	}
	var srvErr *mapclient.ServerError
	if errors.As(err, &srvErr) {
		t.Error("connection failures must stay connectivity-class, not ServerError")
	}
}
