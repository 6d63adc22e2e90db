// Package vision talks to a local Ollama server to describe an image and
// turns the answer into scene suggestions. Every call degrades to a fixed
// fallback instead of returning an error.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/studio3d/internal/pixel"
)

const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultVisionModel = "llama3.2-vision"
	DefaultTextModel   = "qwen2.5"
)

const analyzePrompt = `Analyze this image and answer ONLY with JSON of this shape:
{
  "subject": "short description of the main subject",
  "description": "detailed description",
  "hasBackground": true/false,
  "suggestedDepth": number between 10 and 100,
  "suggestedLighting": "dramatic" or "natural" or "soft",
  "confidence": number between 0 and 1,
  "objects": ["list", "of", "recognized", "objects"]
}

Identify the main subject, whether it sits on a complex background, and suggest the best parameters for a 3D conversion.`

const moodPrompt = `Suggest a fitting music mood for a video: energetic, calm or dramatic. Answer with a single word.`

var errServiceUnavailable = errors.New("vision: service unavailable")

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the Ollama server at baseURL
// (DefaultBaseURL when empty).
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger,
	}
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Images  []string         `json:"images,omitempty"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// CheckAvailability probes the server. Any failure means false.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	resp, err := c.get(ctx, "/api/tags")
	if err != nil {
		c.logger.Debug("vision service not available", zap.Error(err))
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the installed model names, empty on any failure.
func (c *Client) ListModels(ctx context.Context) []string {
	resp, err := c.get(ctx, "/api/tags")
	if err != nil {
		c.logger.Warn("list models", zap.Error(err))
		return []string{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return []string{}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		c.logger.Warn("list models", zap.Error(err))
		return []string{}
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names
}

// Analyze sends an encoded image to the vision model. A data URI prefix,
// when present in a base64 string passed through AnalyzeBase64, is removed.
func (c *Client) Analyze(ctx context.Context, image []byte, model string) Result {
	return c.AnalyzeBase64(ctx, base64.StdEncoding.EncodeToString(image), model)
}

func (c *Client) AnalyzeBase64(ctx context.Context, encoded, model string) Result {
	if model == "" {
		model = DefaultVisionModel
	}
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}

	text, err := c.generate(ctx, generateRequest{
		Model:   model,
		Prompt:  analyzePrompt,
		Images:  []string{encoded},
		Options: &generateOptions{Temperature: 0.3},
	})
	if err != nil {
		c.logger.Warn("image analysis failed", zap.String("model", model), zap.Error(err))
		return Fallback()
	}
	r, err := Parse(text)
	if err != nil {
		c.logger.Warn("image analysis unparseable", zap.String("model", model), zap.Error(err))
		return Fallback()
	}
	return r
}

// AnalyzeBuffer encodes buf as PNG and analyzes it.
func (c *Client) AnalyzeBuffer(ctx context.Context, buf *pixel.Buffer, model string) Result {
	if buf.Empty() {
		return Fallback()
	}
	data, err := buf.EncodePNG()
	if err != nil {
		c.logger.Warn("encode analysis image", zap.Error(err))
		return Fallback()
	}
	return c.Analyze(ctx, data, model)
}

func (c *Client) generate(ctx context.Context, body generateRequest) (string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", errServiceUnavailable, resp.StatusCode, string(data))
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return out.Response, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errServiceUnavailable, err)
	}
	return resp, nil
}
