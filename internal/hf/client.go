package hf

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
)

const defaultBaseURL = "https://api-inference.huggingface.co/models/"

// HTTPDoer allows tests to fake HTTP transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts JSON payloads to the hosted inference API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a client with sane defaults. An empty baseURL means the
// public inference endpoint.
func NewClient(apiKey, baseURL string, httpClient HTTPDoer) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// APIError is a non-2xx answer from the inference API.
type APIError struct {
	StatusCode    int
	Message       string
	EstimatedTime float64
}

func (e *APIError) Error() string {
	if e.EstimatedTime > 0 {
		return fmt.Sprintf("huggingface status %d: %s (estimated_time=%.0fs)", e.StatusCode, e.Message, e.EstimatedTime)
	}
	return fmt.Sprintf("huggingface status %d: %s", e.StatusCode, e.Message)
}

// Infer sends payload to model and decodes the response body into out.
func (c *Client) Infer(ctx context.Context, model string, payload any, out any) error {
	if c == nil {
		return errors.New("huggingface client is not initialized")
	}
	model = strings.Trim(strings.TrimSpace(model), "/")
	if model == "" {
		return errors.New("model is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal huggingface request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+model, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("huggingface request failed: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read huggingface response: %w", err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		var envelope errorEnvelope
		if json.Unmarshal(raw, &envelope) == nil && envelope.message() != "" {
			return &APIError{StatusCode: response.StatusCode, Message: envelope.message(), EstimatedTime: envelope.EstimatedTime}
		}
		return &APIError{StatusCode: response.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode huggingface response: %w", err)
	}
	return nil
}

// errorEnvelope covers both {"error": "..."} and {"error": ["..."]}.
type errorEnvelope struct {
	Error         json.RawMessage `json:"error"`
	EstimatedTime float64         `json:"estimated_time"`
}

func (e errorEnvelope) message() string {
	if len(e.Error) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(e.Error, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var asList []string
	if err := json.Unmarshal(e.Error, &asList); err == nil {
		return strings.TrimSpace(strings.Join(asList, "; "))
	}
	return strings.TrimSpace(string(e.Error))
}
