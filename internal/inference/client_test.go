package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"cratercat/internal/detect"
)

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != "deepmoon" {
		t.Errorf("expected default model deepmoon, got %s", c.Model())
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad scheme", "ftp://example.com"},
		{"missing host", "http://"},
		{"garbage", "://nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.url, "test"); err == nil {
				t.Errorf("expected error for URL %q", tt.url)
			}
		})
	}
}

// echoServer decodes the request and returns the input images back as
// predictions.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model  string   `json:"model"`
			Dim    int      `json:"dim"`
			Images []string `json:"images"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":       req.Model,
			"predictions": req.Images,
		})
	}))
}

func TestPredict(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	client, err := NewClient(srv.URL, "test-model")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	const dim = 16
	in := detect.NewSurface(dim, dim)
	in.Set(4, 4, 1.0)
	in.Set(10, 12, 0.5)

	out, err := client.Predict(context.Background(), []*detect.Surface{in}, dim)
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(out))
	}
	if out[0].W != dim || out[0].H != dim {
		t.Errorf("expected %dx%d surface, got %dx%d", dim, dim, out[0].W, out[0].H)
	}
	// The echo server returns the input, so the marked pixels survive.
	if out[0].At(4, 4) < 0.9 {
		t.Errorf("expected bright pixel at (4, 4), got %f", out[0].At(4, 4))
	}
}

func TestPredict_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"model": "test", "predictions": []string{}})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Predict(context.Background(), []*detect.Surface{detect.NewSurface(8, 8)}, 8)
	if err == nil {
		t.Error("expected error on prediction count mismatch")
	}
}

func TestPredict_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Predict(context.Background(), []*detect.Surface{detect.NewSurface(8, 8)}, 8)
	if err == nil {
		t.Error("expected error on server failure")
	}
}

func TestPredict_BadPredictionPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model":       "test",
			"predictions": []string{base64.StdEncoding.EncodeToString([]byte("not a png"))},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Predict(context.Background(), []*detect.Surface{detect.NewSurface(8, 8)}, 8)
	if err == nil {
		t.Error("expected error decoding a non-PNG prediction")
	}
}

func TestPredict_RescalesResponse(t *testing.T) {
	// Server answers with a 32x32 surface regardless of the requested dim.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, detect.NewSurface(32, 32).ToGray16()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":       "test",
			"predictions": []string{base64.StdEncoding.EncodeToString(buf.Bytes())},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	out, err := client.Predict(context.Background(), []*detect.Surface{detect.NewSurface(16, 16)}, 16)
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if out[0].W != 16 || out[0].H != 16 {
		t.Errorf("expected response rescaled to 16x16, got %dx%d", out[0].W, out[0].H)
	}
}
