package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFlow delegates a tool to a remote service speaking the same JSON
// request and response shapes.
type HTTPFlow struct {
	url        string
	httpClient *http.Client
}

func NewHTTPFlow(url string, timeout time.Duration) *HTTPFlow {
	return &HTTPFlow{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (f *HTTPFlow) Run(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encoding tool request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("creating tool request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("calling tool %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("tool %s returned %d: %s", f.url, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decoding tool response: %w", err)
	}
	return out, nil
}
