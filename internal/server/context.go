package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/flow"
	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/logging"
	"github.com/teemow/medpages/internal/medical"
	"github.com/teemow/medpages/internal/tokens"
)

// CredentialSource yields the credentials a tool call runs with.
// *config.Loader implements it and reads them fresh on every call.
type CredentialSource interface {
	Credentials() (config.Credential, error)
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	config      *config.Config
	credentials CredentialSource

	clients     map[string]*medical.Client // Maps token to API client
	clientOpts  []medical.Option
	runner      *flow.Runner
	counter     *tokens.Counter
	loadCounter func() (*tokens.Counter, error)

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, cfg *config.Config, credentials CredentialSource) (*ServerContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		config:      cfg,
		credentials: credentials,
		clients:     make(map[string]*medical.Client),
		loadCounter: tokens.NewCL100K,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the runtime settings.
func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

// Credentials reads the current credentials from the configured source.
func (sc *ServerContext) Credentials() (config.Credential, error) {
	return sc.credentials.Credentials()
}

// SetClientOptions adds options applied to every API client created after
// the call.
func (sc *ServerContext) SetClientOptions(opts ...medical.Option) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.clientOpts = append(sc.clientOpts, opts...)
	sc.clients = make(map[string]*medical.Client)
}

// MedicalClient returns the API client for token.
// Creates and caches the client if it doesn't exist yet
func (sc *ServerContext) MedicalClient(token string) *medical.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.clients[token]; ok {
		return client
	}

	opts := []medical.Option{
		medical.WithBaseURL(sc.config.APIBaseURL),
		medical.WithTimeout(sc.config.HTTPTimeout),
		medical.WithMaxRetries(sc.config.MaxRetries),
		medical.WithMaxSearchPages(sc.config.MaxSearchPages),
		medical.WithLogger(logging.NewSlogAdapter(logging.WithService(slog.Default(), instrumentation.ServiceWorkspace))),
	}
	if sc.metrics != nil {
		opts = append(opts, medical.WithMetrics(sc.metrics))
	}
	opts = append(opts, sc.clientOpts...)

	client := medical.NewClient(token, opts...)
	sc.clients[token] = client
	return client
}

// FlowRunner returns the flow runner, or nil when no flow server is configured.
func (sc *ServerContext) FlowRunner() *flow.Runner {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.runner != nil || sc.config.LangflowURL == "" {
		return sc.runner
	}

	logger := logging.WithOperation(logging.WithService(slog.Default(), instrumentation.ServiceFlow), instrumentation.OperationRunFlow)
	opts := []flow.Option{
		flow.WithAPIKey(sc.config.LangflowAPIKey),
		flow.WithLogger(logging.NewSlogAdapter(logger)),
	}
	if sc.metrics != nil {
		opts = append(opts, flow.WithMetrics(sc.metrics))
	}
	sc.runner = flow.NewRunner(sc.config.LangflowURL, opts...)
	return sc.runner
}

// TokenCounter returns the token counter, loading cl100k_base on first use.
// The load runs without holding the context lock.
func (sc *ServerContext) TokenCounter() (*tokens.Counter, error) {
	sc.mu.RLock()
	counter, load := sc.counter, sc.loadCounter
	sc.mu.RUnlock()

	if counter != nil {
		return counter, nil
	}
	counter, err := load()
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.counter == nil {
		sc.counter = counter
	}
	return sc.counter, nil
}

// SetTokenCounter replaces the token counter.
func (sc *ServerContext) SetTokenCounter(counter *tokens.Counter) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.counter = counter
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder. Clients created earlier keep
// their previous recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil when audit logging is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
