// Package chat forwards visitor messages to the Gemini generative-language
// API and returns the model's reply.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second
)

// Turn is one transient chat exchange entry. Turns live only in the client
// session; nothing here is ever persisted.
type Turn struct {
	Text   string `json:"text"`
	Sender string `json:"sender"` // "user" or "bot"
}

// generateContentRequest is the Gemini REST request body for a single-turn
// prompt.
type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateContentResponse is the subset of the Gemini response this client
// depends on. Decoding is strict about presence: a response with no
// candidate text is a DecodeError, not an empty reply.
type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// UpstreamError reports a failed call to the Gemini API (transport failure
// or non-2xx status).
type UpstreamError struct {
	Status int
	cause  error
}

func (e *UpstreamError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("calling Gemini: %v", e.cause)
	}
	return fmt.Sprintf("Gemini returned status %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.cause }

// DecodeError reports a Gemini response that did not match the expected
// candidate structure.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding Gemini response: %v", e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gemini client. An empty model or baseURL falls back
// to the defaults; an empty apiKey is allowed and simply makes every call
// fail upstream.
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Reply forwards message verbatim as a single-turn user prompt and returns
// the first candidate's text. No retries: a failed call fails the request.
func (c *Client) Reply(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: message}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode}
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &DecodeError{cause: err}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &DecodeError{cause: fmt.Errorf("response carries no candidate text")}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
