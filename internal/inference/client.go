// Package inference talks to a crater segmentation model server. The
// pipeline only reaches for it when the on-disk predictions cache is
// missing; predictions are regenerated once and re-saved for later runs.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cratercat/internal/detect"
)

const (
	defaultURL   = "http://localhost:8093"
	defaultModel = "deepmoon"
)

// Client is an HTTP client for a segmentation model server.
type Client struct {
	parsedURL *url.URL
	model     string
	client    *http.Client
}

// NewClient creates a client for the given server URL and model name.
// Empty arguments fall back to the defaults.
func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultURL
	}
	if model == "" {
		model = defaultModel
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid inference URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid inference URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid inference URL: missing host")
	}
	return &Client{
		parsedURL: parsed,
		model:     model,
		client:    &http.Client{},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type predictRequest struct {
	Model  string   `json:"model"`
	Dim    int      `json:"dim"`
	Images []string `json:"images"` // base64 grayscale PNGs
}

type predictResponse struct {
	Model       string   `json:"model"`
	Predictions []string `json:"predictions"` // base64 grayscale PNGs
}

// Predict sends a batch of preprocessed input images and returns one
// prediction surface per image, in input order.
func (c *Client) Predict(ctx context.Context, images []*detect.Surface, dim int) ([]*detect.Surface, error) {
	req := predictRequest{
		Model:  c.model,
		Dim:    dim,
		Images: make([]string, len(images)),
	}
	for i, s := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, s.ToGray16()); err != nil {
			return nil, fmt.Errorf("encoding input image %d: %w", i, err)
		}
		req.Images[i] = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Predictions) != len(images) {
		return nil, fmt.Errorf("inference server returned %d predictions for %d images",
			len(resp.Predictions), len(images))
	}

	surfaces := make([]*detect.Surface, len(resp.Predictions))
	for i, enc := range resp.Predictions {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("decoding prediction %d: %w", i, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding prediction image %d: %w", i, err)
		}
		s, err := detect.FromImage(img).Resized(dim)
		if err != nil {
			return nil, fmt.Errorf("rescaling prediction %d: %w", i, err)
		}
		surfaces[i] = s
	}
	return surfaces, nil
}

func (c *Client) sendRequest(ctx context.Context, reqBody predictRequest) (*predictResponse, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.parsedURL.JoinPath("/v1/predict")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference server error (status %d): %s", resp.StatusCode, string(body))
	}

	var predResp predictResponse
	if err := json.Unmarshal(body, &predResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &predResp, nil
}
