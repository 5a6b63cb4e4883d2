package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/logging"
)

const defaultTimeout = 2 * time.Minute

// answerPaths are tried in order to find the reply text in a run response.
var answerPaths = []string{
	"outputs.0.outputs.0.results.message.text",
	"outputs.0.outputs.0.results.message.data.text",
	"outputs.0.outputs.0.outputs.message.message",
	"outputs.0.outputs.0.messages.0.message",
}

// Runner executes flows on a Langflow server.
type Runner struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithAPIKey sets the x-api-key header.
func WithAPIKey(key string) Option {
	return func(r *Runner) {
		r.apiKey = key
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Runner) {
		r.httpClient = hc
	}
}

// WithMetrics records flow runs.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a Runner for the server at baseURL.
func NewRunner(baseURL string, opts ...Option) *Runner {
	r := &Runner{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type runRequest struct {
	InputValue string `json:"input_value"`
	InputType  string `json:"input_type"`
	OutputType string `json:"output_type"`
}

// AnswerViaFlow loads dir/file and runs it with question as chat input.
func (r *Runner) AnswerViaFlow(ctx context.Context, dir, file, question string) (string, error) {
	f, err := LoadFlowFrom(dir, file)
	if err != nil {
		return "", err
	}
	return r.Run(ctx, f, question)
}

// Run sends input to the flow and returns the text of its first chat output.
func (r *Runner) Run(ctx context.Context, f *Flow, input string) (string, error) {
	ctx, span := instrumentation.StartAPISpan(ctx, instrumentation.ServiceFlow, instrumentation.OperationRunFlow)
	defer span.End()

	start := time.Now()
	status, answer, err := r.run(ctx, f, input)
	if r.metrics != nil {
		r.metrics.RecordAPIOperation(ctx, instrumentation.ServiceFlow, instrumentation.OperationRunFlow, status, time.Since(start))
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		r.logger.Warn("flow run failed", "flow", f.Name, logging.KeyError, err.Error())
		return "", err
	}

	instrumentation.SetSpanSuccess(span)
	r.logger.Debug("flow run completed", "flow", f.Name, logging.KeyDuration, time.Since(start))
	return answer, nil
}

func (r *Runner) run(ctx context.Context, f *Flow, input string) (int, string, error) {
	payload, err := json.Marshal(runRequest{
		InputValue: input,
		InputType:  "chat",
		OutputType: "chat",
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/run/%s?stream=false", r.baseURL, url.PathEscape(f.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("x-api-key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := gjson.GetBytes(body, "detail").String()
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return resp.StatusCode, "", fmt.Errorf("flow server error (status %d): %s", resp.StatusCode, detail)
	}
	if !gjson.ValidBytes(body) {
		return resp.StatusCode, "", errors.New("flow server returned invalid JSON")
	}

	for _, path := range answerPaths {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String {
			return resp.StatusCode, v.String(), nil
		}
	}
	return resp.StatusCode, "", errors.New("flow returned no chat output")
}
