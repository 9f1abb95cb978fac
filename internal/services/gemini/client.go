// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gemini talks to the Gemini generateContent REST API.

The [Client] implements both generative collaborators of the shot list:
  - [shotlist.Enricher]: technical shot suggestions and prompt refinement
    through the text model.
  - [shotlist.ImageSynthesizer]: storyboard frame generation and editing
    through the image model. Images are returned as data URIs.

Transient failures (408, 429, 5xx and network timeouts) are retried with
exponential backoff honoring Retry-After.
*/
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
)

const (
	jsonMimeType          = "application/json"
	defaultImageMimeType  = "image/png"
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultTextModel      = "gemini-2.5-flash"
	defaultImageModel     = "gemini-2.5-flash-image"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 3
	apiKeyHeader          = "x-goog-api-key"
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// Client wraps the generateContent endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

var (
	_ shotlist.Enricher         = (*Client)(nil)
	_ shotlist.ImageSynthesizer = (*Client)(nil)
)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	client := &Client{
		cfg: Config{
			APIKey:     strings.TrimSpace(cfg.APIKey),
			BaseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TextModel:  strings.TrimSpace(cfg.TextModel),
			ImageModel: strings.TrimSpace(cfg.ImageModel),
			Timeout:    timeout,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.TextModel == "" {
		client.cfg.TextModel = defaultTextModel
	}
	if client.cfg.ImageModel == "" {
		client.cfg.ImageModel = defaultImageModel
	}

	return client
}

// # Errors

// ErrNoImage is returned when the image model answers without inline image data.
var ErrNoImage = errors.New("gemini: no image generated in response")

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type blockedError struct {
	Op     string
	Reason string
}

func (e *blockedError) Error() string {
	return fmt.Sprintf("%s: prompt blocked (reason=%q)", e.Op, e.Reason)
}

// # Collaborator Operations

// Suggest asks the text model for technical settings matching description.
func (c *Client) Suggest(ctx context.Context, description string) (shotlist.Suggestion, error) {
	var empty shotlist.Suggestion

	description = strings.TrimSpace(description)
	if description == "" {
		return empty, errors.New("gemini suggest: description required")
	}

	payload := generateRequest{
		Contents:         []content{{Parts: []part{{Text: SuggestionPrompt(description)}}}},
		GenerationConfig: &generationConfig{ResponseMimeType: jsonMimeType},
	}

	response, err := c.generateWithRetry(ctx, c.cfg.TextModel, payload, "gemini suggest")
	if err != nil {
		return empty, err
	}

	text := response.text()
	if text == "" {
		return empty, errors.New("gemini suggest: empty response")
	}

	var suggestion shotlist.Suggestion
	if err := DecodeJSON(text, &suggestion); err != nil {
		return empty, fmt.Errorf("gemini suggest: parse payload: %w", err)
	}

	return suggestion, nil
}

// RefinePrompt turns a shot description into a detailed English image prompt.
func (c *Client) RefinePrompt(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", errors.New("gemini refine: description required")
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: RefinementPrompt(description)}}}},
	}

	response, err := c.generateWithRetry(ctx, c.cfg.TextModel, payload, "gemini refine")
	if err != nil {
		return "", err
	}

	return response.text(), nil
}

// Generate renders a new frame from prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("gemini generate: prompt required")
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	return c.image(ctx, payload, "gemini generate")
}

// Edit reworks an existing frame. image must be a base64 data URI.
func (c *Client) Edit(ctx context.Context, image, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("gemini edit: prompt required")
	}

	mimeType, data, err := ParseDataURI(image)
	if err != nil {
		return "", fmt.Errorf("gemini edit: %w", err)
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: mimeType, Data: data}},
			{Text: prompt},
		}}},
	}

	return c.image(ctx, payload, "gemini edit")
}

func (c *Client) image(ctx context.Context, payload generateRequest, op string) (string, error) {
	response, err := c.generateWithRetry(ctx, c.cfg.ImageModel, payload, op)
	if err != nil {
		return "", err
	}

	inline := response.inlineImage()
	if inline == nil {
		return "", fmt.Errorf("%s: %w", op, ErrNoImage)
	}

	return DataURI(inline.MimeType, inline.Data), nil
}

// # Data URIs

// DataURI formats base64 image data as a data URI. An empty mime type is
// treated as PNG.
func DataURI(mimeType, data string) string {
	if mimeType == "" {
		mimeType = defaultImageMimeType
	}
	return "data:" + mimeType + ";base64," + data
}

// ParseDataURI splits a base64 data URI into its mime type and payload.
func ParseDataURI(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return "", "", errors.New("image is not a data URI")
	}

	header, data, ok := strings.Cut(rest, ",")
	if !ok || data == "" {
		return "", "", errors.New("data URI has no payload")
	}

	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", "", errors.New("data URI is not base64 encoded")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", "", fmt.Errorf("unsupported mime type %q", mimeType)
	}

	return mimeType, data, nil
}

// # Wire Types

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// text concatenates the text parts of the first candidate.
func (response generateResponse) text() string {
	if len(response.Candidates) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		builder.WriteString(p.Text)
	}

	return strings.TrimSpace(builder.String())
}

// inlineImage returns the first inline payload of the first candidate.
func (response generateResponse) inlineImage() *inlineData {
	if len(response.Candidates) == 0 {
		return nil
	}

	for _, p := range response.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData
		}
	}

	return nil
}

// # Transport

func (c *Client) generateWithRetry(ctx context.Context, model string, payload generateRequest, op string) (generateResponse, error) {
	if c.cfg.APIKey == "" {
		return generateResponse{}, fmt.Errorf("%s: api key required", op)
	}

	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := c.sendOnce(ctx, model, payload)
		if err == nil {
			if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
				return generateResponse{}, &blockedError{Op: op, Reason: response.PromptFeedback.BlockReason}
			}
			return response, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return generateResponse{}, fmt.Errorf("%s: %w", op, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return generateResponse{}, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return generateResponse{}, fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, model string, payload generateRequest) (generateResponse, error) {
	var response generateResponse

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", model+":generateContent")
	if err != nil {
		return response, fmt.Errorf("gemini request: build url: %w", err)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return response, fmt.Errorf("gemini request: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return response, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	req.Header.Set("Content-Type", jsonMimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response, fmt.Errorf("gemini request: http error (timeout=%s): %w", c.cfg.Timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response, fmt.Errorf("gemini request: read body: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return response, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return response, fmt.Errorf("gemini request: decode response: %w", err)
	}
	if response.Error != nil {
		return response, fmt.Errorf("gemini request: api error: %s", strings.TrimSpace(response.Error.Message))
	}

	return response, nil
}

// # Retry Policy

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

// backoffDelay doubles the base delay per attempt: base, base*2, base*4, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}

	maxDelay := c.maxDelay()
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}

	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := c.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) maxDelay() time.Duration {
	if c.retryMaxDelay > 0 {
		return c.retryMaxDelay
	}
	return defaultRetryMaxDelay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}

	return 0, false
}

// # JSON Payloads

// DecodeJSON unmarshals a model answer, tolerating markdown code fences and
// prose around the JSON object.
func DecodeJSON(raw string, target any) error {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return errors.New("empty payload")
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "json")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	if err := json.Unmarshal([]byte(cleaned), target); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in %q", summarize(cleaned))
	}

	return json.Unmarshal([]byte(cleaned[start:end+1]), target)
}

func summarize(value string) string {
	const limit = 120
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
