// Package removebg talks to the remove.bg HTTP API and serves the standalone
// "remove background and add colour" page.
package removebg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	apiKeyHeader = "X-Api-Key"
	fileField    = "image_file"
)

// UpstreamError is a non-200 reply from the removal API. Status and body are
// kept verbatim so callers can pass them through.
type UpstreamError struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("remove.bg returned %d: %s", e.StatusCode, string(e.Body))
}

// Client calls the remove.bg API over HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{endpoint: endpoint, apiKey: apiKey, httpClient: &http.Client{Timeout: timeout}}
}

// Remove uploads the image bytes unchanged with size=auto and returns the
// transparent-background image from the API.
func (c *Client) Remove(ctx context.Context, filename string, data []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, fmt.Errorf("remove.bg: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("remove.bg: build form: %w", err)
	}
	if err := mw.WriteField("size", "auto"); err != nil {
		return nil, fmt.Errorf("remove.bg: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("remove.bg: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("remove.bg: new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remove.bg: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp); err != nil {
		return nil, err
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remove.bg: read body: %w", err)
	}
	return out, nil
}

// checkResp turns anything but 200 into an UpstreamError carrying the body.
func checkResp(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return &UpstreamError{StatusCode: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}
}
