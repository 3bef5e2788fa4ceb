// Package submit provides the client side of the crop submission
// boundary: it posts the two-region ratio payload and decodes the
// output descriptors the processing service returns.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/speakersplit/speakersplit/internal/region"
)

// Static errors for submission operations.
var (
	// ErrBaseURLRequired is returned when no base URL is provided.
	ErrBaseURLRequired = errors.New("submit: base URL is required")
	// ErrTwoRegionsRequired is returned when the payload does not hold
	// exactly two regions.
	ErrTwoRegionsRequired = errors.New("submit: exactly two regions are required")
	// ErrRequestFailed is returned when the service answers with a
	// non-success status.
	ErrRequestFailed = errors.New("submit: request failed")
)

// genericFailureMessage is used when a non-success response carries no
// readable error field.
const genericFailureMessage = "video processing failed"

// Payload is the body of a single submission: an ordered list of
// exactly two region crop specs in ratio space.
type Payload struct {
	Regions []region.CropSpec `json:"regions"`
}

// CropWindow is a pixel-space crop rectangle as reported back by the
// processing service for display.
type CropWindow struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Output describes one produced crop: a label for display, the file it
// was written to, a download URL, and the pixel window that was cut.
type Output struct {
	Label    string     `json:"label"`
	Filename string     `json:"filename"`
	URL      string     `json:"url"`
	Crop     CropWindow `json:"crop"`
}

// Result is a successful submission response. An empty Outputs slice is
// a valid response, distinct from a request failure.
type Result struct {
	Outputs []Output `json:"outputs"`
}

// errorBody is the error envelope the service uses for failures.
type errorBody struct {
	Error string `json:"error"`
}

// Client defines the submission boundary consumed by the interaction
// controller.
type Client interface {
	// Submit posts the payload and returns the produced outputs.
	Submit(ctx context.Context, payload Payload) (Result, error)
}

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// NewClient creates a submission client for the given service base URL.
func NewClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Submit posts the payload to the /process endpoint. A non-success
// status is surfaced as an error carrying the service's message when
// one is present, or a generic message otherwise; it is never a panic
// and never carries a partial Result.
func (c *HTTPClient) Submit(ctx context.Context, payload Payload) (Result, error) {
	if len(payload.Regions) != 2 {
		return Result{}, ErrTwoRegionsRequired
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("submit: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("submit: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("submit: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: %s", ErrRequestFailed, failureMessage(raw))
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("submit: decode response: %w", err)
	}

	return result, nil
}

// failureMessage extracts the human-readable error field from a failure
// body, falling back to a generic message when it is absent or
// unreadable.
func failureMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return genericFailureMessage
	}
	return body.Error
}
