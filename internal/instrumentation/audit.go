package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/medpages/internal/logging"
)

// ToolInvocation captures all information about a tool invocation for audit logging.
//
// # Privacy Considerations
//
// Input holds what the agent asked for (a page title or a question). In a
// medical workspace that can identify a patient, so LogAttrs only emits a
// hash of it. LogAuditAttrs emits the raw value.
type ToolInvocation struct {
	// Tool name
	Tool string

	// Input is the primary tool argument
	Input string

	// Kind is the failure category reported to the agent, empty on success
	Kind string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with the input hashed.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if ti.Input != "" {
		attrs = append(attrs, logging.InputHash(ti.Input))
	}
	return ti.appendOptional(attrs, false)
}

// LogAuditAttrs returns slog attributes including the raw input.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if ti.Input != "" {
		attrs = append(attrs, slog.String("input", ti.Input))
	}
	return ti.appendOptional(attrs, true)
}

func (ti *ToolInvocation) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
}

func (ti *ToolInvocation) appendOptional(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if ti.Kind != "" {
		attrs = append(attrs, slog.String("kind", ti.Kind))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if withSpan && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithInput sets the primary tool argument.
func (ti *ToolInvocation) WithInput(input string) *ToolInvocation {
	ti.Input = input
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, kind, message string) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	ti.Kind = kind
	ti.Error = message
	return ti
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, "", "")
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger        *slog.Logger
	includeInputs bool
	enabled       bool
}

// NewAuditLogger creates a new AuditLogger. Inputs are hashed by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:        logger,
		includeInputs: config.IncludeInputs,
		enabled:       config.Enabled,
	}
}

// LogToolInvocation logs a tool invocation. Raw inputs are only written
// when the logger was configured with IncludeInputs.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includeInputs {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
