package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/tokens"
)

type staticCredentials struct {
	cred config.Credential
	err  error
}

func (s staticCredentials) Credentials() (config.Credential, error) {
	return s.cred, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		APIBaseURL:     "https://api.example.com/v1",
		HTTPTimeout:    5 * time.Second,
		MaxRetries:     3,
		TokenBudget:    6000,
		MaxSearchPages: 10,
		FlowDir:        "./langflow",
		FlowFile:       "loadmedicine.json",
	}
}

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()

	sc, err := NewServerContext(context.Background(), testConfig(),
		staticCredentials{cred: config.Credential{Token: "tok", DatabaseID: "db"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0

	_, err := NewServerContext(context.Background(), cfg, staticCredentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEDICAL_MAX_RETRIES")
}

func TestServerContext_MedicalClientCached(t *testing.T) {
	sc := newTestServerContext(t)

	a := sc.MedicalClient("tok-a")
	assert.Same(t, a, sc.MedicalClient("tok-a"))
	assert.NotSame(t, a, sc.MedicalClient("tok-b"))

	sc.SetClientOptions()
	assert.NotSame(t, a, sc.MedicalClient("tok-a"))
}

func TestServerContext_FlowRunner(t *testing.T) {
	sc := newTestServerContext(t)
	assert.Nil(t, sc.FlowRunner())

	cfg := testConfig()
	cfg.LangflowURL = "http://localhost:7860"
	withFlow, err := NewServerContext(context.Background(), cfg, staticCredentials{})
	require.NoError(t, err)

	runner := withFlow.FlowRunner()
	require.NotNil(t, runner)
	assert.Same(t, runner, withFlow.FlowRunner())
}

type countEncoder struct{}

func (countEncoder) Encode(text string) []int { return make([]int, len(text)) }

func TestServerContext_TokenCounter(t *testing.T) {
	sc := newTestServerContext(t)

	counter := tokens.NewCounter(countEncoder{})
	sc.SetTokenCounter(counter)

	got, err := sc.TokenCounter()
	require.NoError(t, err)
	assert.Same(t, counter, got)
}

func TestServerContext_TokenCounterLoadDoesNotBlock(t *testing.T) {
	sc := newTestServerContext(t)

	loading := make(chan struct{})
	release := make(chan struct{})
	counter := tokens.NewCounter(countEncoder{})
	sc.loadCounter = func() (*tokens.Counter, error) {
		close(loading)
		<-release
		return counter, nil
	}

	done := make(chan *tokens.Counter)
	go func() {
		got, _ := sc.TokenCounter()
		done <- got
	}()
	<-loading

	clientReady := make(chan struct{})
	go func() {
		sc.MedicalClient("tok")
		_ = sc.Metrics()
		close(clientReady)
	}()

	select {
	case <-clientReady:
	case <-time.After(2 * time.Second):
		t.Fatal("context lock held while loading the token counter")
	}

	close(release)
	assert.Same(t, counter, <-done)

	got, err := sc.TokenCounter()
	require.NoError(t, err)
	assert.Same(t, counter, got)
}

func TestServerContext_Credentials(t *testing.T) {
	sc, err := NewServerContext(context.Background(), testConfig(),
		staticCredentials{err: errors.New("invalid configuration: MEDICAL_TOKEN is required")})
	require.NoError(t, err)

	_, err = sc.Credentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEDICAL_TOKEN")
}

func TestServerContext_Instrumentation(t *testing.T) {
	sc := newTestServerContext(t)
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())

	m := &instrumentation.Metrics{}
	al := instrumentation.NewAuditLogger(nil)
	sc.SetMetrics(m)
	sc.SetAuditLogger(al)

	assert.Same(t, m, sc.Metrics())
	assert.Same(t, al, sc.AuditLogger())
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t)
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
}
