package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Probe values sent by Client.Probe.
const (
	ProbeSessionID = "test_connection"
	ProbeMessage   = "test"
)

// ChatRequest represents the request body for the chat endpoint
type ChatRequest struct {
	SessionID     string `json:"session_id"`
	UserMessage   string `json:"user_message"`
	LeagueID      string `json:"league_id,omitempty"`
	VectorStoreID string `json:"vector_store_id,omitempty"`
}

// TransportError is returned when the chat endpoint answers with a non-2xx status.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: %s", e.Status)
	}
	return fmt.Sprintf("API error: %s - %s", e.Status, e.Body)
}

// Client posts chat requests to a single endpoint. The response body is plain text.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer

	duration metric.Float64Histogram
	requests metric.Int64Counter
	failures metric.Int64Counter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTelemetry sets the tracer and meter used for every request.
func WithTelemetry(tracer trace.Tracer, meter metric.Meter) Option {
	return func(c *Client) {
		c.tracer = tracer
		c.initInstruments(meter)
	}
}

// NewClient creates a client for endpoint. timeout 0 means no client-side timeout.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
		tracer:     nooptrace.NewTracerProvider().Tracer("fantasychat"),
	}
	c.initInstruments(noop.NewMeterProvider().Meter("fantasychat"))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) initInstruments(meter metric.Meter) {
	var err error
	c.duration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		c.logger.Warn("failed to create histogram", "error", err)
	}
	c.requests, err = meter.Int64Counter(
		"chat.requests",
		metric.WithDescription("Chat requests sent"),
	)
	if err != nil {
		c.logger.Warn("failed to create counter", "error", err)
	}
	c.failures, err = meter.Int64Counter(
		"chat.failures",
		metric.WithDescription("Chat requests that failed"),
	)
	if err != nil {
		c.logger.Warn("failed to create counter", "error", err)
	}
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts req and returns the response body as text.
func (c *Client) Send(ctx context.Context, req ChatRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "chat_api_call", trace.WithAttributes(
		attribute.String("chat.session_id", req.SessionID),
	))
	defer span.End()

	body, err := c.post(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("chat request failed", "session_id", req.SessionID, "error", err)
		return "", err
	}

	c.logger.Info("chat response received", "session_id", req.SessionID, "bytes", len(body))
	return body, nil
}

// Probe sends a throwaway request to check that the endpoint answers.
func (c *Client) Probe(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "connection_probe")
	defer span.End()

	_, err := c.post(ctx, ChatRequest{SessionID: ProbeSessionID, UserMessage: ProbeMessage})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("connection probe failed", "endpoint", c.endpoint, "error", err)
		return err
	}
	c.logger.Info("connection probe succeeded", "endpoint", c.endpoint)
	return nil
}

func (c *Client) post(ctx context.Context, req ChatRequest) (string, error) {
	start := time.Now()
	c.count(ctx, c.requests)

	body, err := c.do(ctx, req)

	if c.duration != nil {
		c.duration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		c.count(ctx, c.failures)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, req ChatRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return string(body), nil
}

func (c *Client) count(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", c.endpoint)))
	}
}
