package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/driversync/internal/observability"
)

// Client talks to the DriverSync PHP backend. It is explicitly constructed
// and injectable; there is no package-level instance. Every operation in
// this module goes through one of its Post* methods.
//
// The client never retries and configures no timeout of its own beyond the
// one on HTTPClient. A failed call leaves no state behind.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New builds a client for the given base URL, e.g.
// "http://localhost/Driver/". A trailing slash is added if missing.
func New(baseURL string, logger *slog.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
	}
}

// PostForm sends an application/x-www-form-urlencoded POST and decodes the
// JSON response into out. Keys and values are both percent-encoded; the
// backend's PHP scripts read $_POST, which urldecodes either way.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	return c.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

// PostJSON sends a raw JSON body.
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return &ValidationError{Field: "payload", Reason: err.Error()}
	}
	return c.post(ctx, endpoint, "application/json", bytes.NewReader(b), out)
}

// PostMultipart sends string fields plus exactly one binary image field.
func (c *Client) PostMultipart(ctx context.Context, endpoint string, fields map[string]string, image ImageField, out any) error {
	if len(image.Data) == 0 {
		return &ValidationError{Field: "image", Reason: "image data is required"}
	}
	boundary := newBoundary()
	body := buildMultipartBody(fields, image, boundary)
	return c.post(ctx, endpoint, "multipart/form-data; boundary="+boundary, bytes.NewReader(body), out)
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	start := time.Now()
	err := c.doPost(ctx, endpoint, contentType, body, out)
	observability.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	observability.APIRequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	if err != nil {
		c.Logger.Debug("api call failed", "endpoint", endpoint, "error", err)
	}
	return err
}

func (c *Client) doPost(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, body)
	if err != nil {
		return &ValidationError{Field: "url", Reason: err.Error()}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Cause: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &EmptyResponseError{Endpoint: endpoint}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Raw: string(raw), Cause: err}
	}
	return nil
}

func outcome(err error) string {
	switch err.(type) {
	case nil:
		return "ok"
	case *TransportError:
		return "transport_error"
	case *EmptyResponseError:
		return "empty_response"
	case *DecodeError:
		return "decode_error"
	default:
		return "error"
	}
}
