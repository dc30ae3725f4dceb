// Package upstream performs the outbound HTTP call to a backend provider.
// It owns URL construction, auth header shape and response decompression;
// it never retries — failures surface to the caller once.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/nvbach/llm-bridge/internal/config"
	"github.com/nvbach/llm-bridge/internal/protocol"
)

const anthropicVersion = "2023-06-01"

// Client is the shared outbound HTTP client. Safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient builds a client with a transport tuned for long-lived
// streaming responses.
func NewClient() *Client {
	return &Client{http: &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          1000,
			MaxIdleConnsPerHost:   100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 600 * time.Second,
			ForceAttemptHTTP2:     true,
			// Decompression is handled explicitly so streaming bodies
			// stay byte-transparent.
			DisableCompression: true,
		},
	}}
}

// Do sends body to the provider and returns the response. Streaming
// responses keep their raw body; completed responses are wrapped for
// transparent decompression. The caller owns resp.Body.
func (c *Client) Do(ctx context.Context, prov *config.Provider, model string, body []byte, stream bool) (*http.Response, error) {
	target, err := prov.Protocol()
	if err != nil {
		return nil, err
	}

	url := endpointURL(prov.BaseURL, target, model, stream)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	setAuthHeaders(req, target, prov.APIKey)
	for k, v := range prov.Headers {
		req.Header.Set(k, v)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s: %w", prov.Type, err)
	}
	if !stream {
		if body, derr := decompressBody(resp); derr != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("upstream: decompress: %w", derr)
		} else {
			resp.Body = body
		}
	}
	return resp, nil
}

// ReadBody drains and closes a completed response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func endpointURL(base string, target protocol.Protocol, model string, stream bool) string {
	switch target.Family() {
	case protocol.FamilyAnthropic:
		return base + "/v1/messages"
	case protocol.FamilyGemini:
		if stream {
			return fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", base, model)
		}
		return fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, model)
	default:
		return base + "/chat/completions"
	}
}

func setAuthHeaders(req *http.Request, target protocol.Protocol, apiKey string) {
	if apiKey == "" {
		return
	}
	switch target.Family() {
	case protocol.FamilyAnthropic:
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
	case protocol.FamilyGemini:
		req.Header.Set("x-goog-api-key", apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}
