package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RelayResponse is a backend reply copied verbatim.
type RelayResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Relay forwards raw JSON-RPC envelopes for methods the gateway has no typed
// handler for. The rpc client cannot do this since it owns the envelope.
type Relay struct {
	url    string
	client *http.Client
}

func NewRelay(url string, timeout time.Duration) *Relay {
	return &Relay{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (r *Relay) Forward(ctx context.Context, body []byte) (_ *RelayResponse, err error) {
	defer func(start time.Time) { observe("relay", "passthrough", start, err) }(time.Now())
	if r.url == "" {
		return nil, fmt.Errorf("relay: backend URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("relay: read response: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	return &RelayResponse{StatusCode: resp.StatusCode, ContentType: ct, Body: respBody}, nil
}
