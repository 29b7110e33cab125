package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"depthcapture/internal/dto"
)

// Client talks to the capture service HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL. A zero timeout leaves
// deadlines to the request contexts.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EventsURL returns the websocket URL of the artifact event feed.
func (c *Client) EventsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/events")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// CaptureBase64 sends an encoded payload. An empty filename lets the service
// name the artifact.
func (c *Client) CaptureBase64(ctx context.Context, imageData, filename string) (*dto.EncodedInfo, error) {
	body, err := json.Marshal(dto.EncodedCaptureRequest{ImageData: imageData, Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var resp dto.CaptureResponse[dto.EncodedInfo]
	if err := c.do(ctx, "capture-base64", http.MethodPost, "/api/capture-base64", "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Upload sends r as the multipart "image" field named name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*dto.UploadInfo, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	var resp dto.CaptureResponse[dto.UploadInfo]
	if err := c.do(ctx, "upload", http.MethodPost, "/api/capture", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListImages returns the artifact listing, newest first.
func (c *Client) ListImages(ctx context.Context) (*dto.ImagesResponse, error) {
	var resp dto.ImagesResponse
	if err := c.do(ctx, "list", http.MethodGet, "/api/images", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns capture journal statistics.
func (c *Client) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	var resp dto.StatsResponse
	if err := c.do(ctx, "stats", http.MethodGet, "/api/images/stats", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var resp dto.HealthResponse
	if err := c.do(ctx, "health", http.MethodGet, "/api/health", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &NetworkError{Op: op, URL: endpoint, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		netErr := &NetworkError{Op: op, URL: endpoint, StatusCode: resp.StatusCode}
		var errBody dto.ErrorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&errBody) == nil {
			netErr.Message = errBody.Error
		}
		return netErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
