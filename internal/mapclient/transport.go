package mapclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Fetcher performs one viewport fetch. Implementations must honor
// context cancellation and return the context's error when aborted.
type Fetcher interface {
	Fetch(ctx context.Context, q ViewportQuery, seq uint64) (*Result, error)
}

// ServerError is a response that was received but rejected by the
// server (non-2xx status or a success:false envelope). It is terminal;
// the client does not retry it.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

// HTTPFetcher posts viewport queries as form data to a fixed endpoint.
type HTTPFetcher struct {
	Endpoint string
	// Action discriminates server-side routing.
	Action string
	// Security is an anti-forgery token, passed through opaquely.
	Security string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

type responseEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Listings []json.RawMessage `json:"listings"`
		Total    int               `json:"total"`
		Message  string            `json:"message"`
	} `json:"data"`
}

// Fetch sends one query. Transport-level failures come back as-is so
// the caller can classify them; rejected responses come back as
// *ServerError.
func (f *HTTPFetcher) Fetch(ctx context.Context, q ViewportQuery, seq uint64) (*Result, error) {
	form := url.Values{}
	form.Set("action", f.Action)
	if f.Security != "" {
		form.Set("security", f.Security)
	}
	form.Set("zoom", strconv.Itoa(q.Zoom))
	if !q.IsInitialLoad {
		form.Set("north", strconv.FormatFloat(q.Bounds.North, 'f', -1, 64))
		form.Set("south", strconv.FormatFloat(q.Bounds.South, 'f', -1, 64))
		form.Set("east", strconv.FormatFloat(q.Bounds.East, 'f', -1, 64))
		form.Set("west", strconv.FormatFloat(q.Bounds.West, 'f', -1, 64))
	}
	if len(q.Filters) > 0 {
		encoded, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		form.Set("filters", string(encoded))
	}
	form.Set("is_new_filter", strconv.FormatBool(q.IsNewFilter))
	form.Set("is_initial_load", strconv.FormatBool(q.IsInitialLoad))
	form.Set("is_state_restoration", strconv.FormatBool(q.IsStateRestoration))
	form.Set("request_id", strconv.FormatUint(seq, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env responseEnvelope
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = json.Unmarshal(raw, &env)
		return nil, &ServerError{Status: resp.StatusCode, Message: env.Data.Message}
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ServerError{Status: resp.StatusCode, Message: "malformed response"}
	}
	if !env.Success {
		return nil, &ServerError{Status: resp.StatusCode, Message: env.Data.Message}
	}

	return &Result{
		Listings:  env.Data.Listings,
		Total:     env.Data.Total,
		FitBounds: q.IsNewFilter || q.IsInitialLoad,
	}, nil
}
