package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/guard"
	"github.com/ygn-labs/ygn-brain/pkg/session"
)

// ToolEventKind classifies the outcome of an interrupted tool call.
type ToolEventKind string

const (
	ToolEventCall    ToolEventKind = "tool_call"
	ToolEventSuccess ToolEventKind = "tool_success"
	ToolEventError   ToolEventKind = "tool_error"
	ToolEventTimeout ToolEventKind = "tool_timeout"
	ToolEventBlocked ToolEventKind = "tool_blocked"
)

// ToolEvent is the record of one tool call through the interrupt
// handler. Exactly one of Result or Error is meaningful, selected by
// Kind.
type ToolEvent struct {
	EventID    string         `json:"event_id"`
	Timestamp  float64        `json:"timestamp"`
	Kind       ToolEventKind  `json:"kind"`
	ToolName   string         `json:"tool_name"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Result     string         `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	LatencyMS  float64        `json:"latency_ms"`
	Normalized *Normalized    `json:"normalized,omitempty"`
}

// DefaultToolTimeout bounds a single tool call through the handler.
const DefaultToolTimeout = 30 * time.Second

// externalizeThreshold is the result size in bytes above which the raw
// output moves to the artifact store and only a handle stays in context.
const externalizeThreshold = 1024

// InterruptHandler pauses the model loop around a tool call: it records
// the call on the session, executes with a timeout, normalizes the
// output, and externalizes oversized results.
type InterruptHandler struct {
	executor ToolExecutor
	aligner  *Aligner
	session  *session.Session
	store    artifact.Store
	guard    *guard.ToolInvocationGuard
	timeout  time.Duration
}

// HandlerOption configures an InterruptHandler.
type HandlerOption func(*InterruptHandler)

// WithArtifactStore enables externalization of large results.
func WithArtifactStore(store artifact.Store) HandlerOption {
	return func(h *InterruptHandler) { h.store = store }
}

// WithToolTimeout overrides the per-call timeout.
func WithToolTimeout(d time.Duration) HandlerOption {
	return func(h *InterruptHandler) { h.timeout = d }
}

// WithAligner overrides the output aligner, typically to supply a
// schema registry populated from tool discovery.
func WithAligner(a *Aligner) HandlerOption {
	return func(h *InterruptHandler) { h.aligner = a }
}

// WithToolGuard checks every invocation against the tool guard before
// executing. Blocked calls never reach the executor.
func WithToolGuard(g *guard.ToolInvocationGuard) HandlerOption {
	return func(h *InterruptHandler) { h.guard = g }
}

func NewInterruptHandler(executor ToolExecutor, sess *session.Session, opts ...HandlerOption) *InterruptHandler {
	h := &InterruptHandler{
		executor: executor,
		aligner:  NewAligner(nil),
		session:  sess,
		timeout:  DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Call executes one tool call end to end. Failures are reported through
// the returned event, not an error: the model loop continues either way
// and the event carries what the model needs to see.
func (h *InterruptHandler) Call(ctx context.Context, toolName string, args map[string]any) (ToolEvent, error) {
	if h.guard != nil {
		if check := h.guard.Check(invocationString(toolName, args)); !check.Allowed {
			if _, err := h.session.Record(session.KindGuardDecision, "tool", map[string]any{
				"tool_name":    toolName,
				"blocked":      true,
				"threat_level": string(check.Level),
				"reason":       check.Reason,
			}, 5); err != nil {
				return ToolEvent{}, err
			}
			return ToolEvent{
				EventID:   newToolEventID(),
				Timestamp: float64(time.Now().UnixNano()) / 1e9,
				Kind:      ToolEventBlocked,
				ToolName:  toolName,
				Arguments: args,
				Error:     check.Reason,
			}, nil
		}
	}

	if _, err := h.session.Record(session.KindToolCall, "tool", map[string]any{
		"tool_name": toolName,
		"arguments": args,
	}, 10); err != nil {
		return ToolEvent{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	result, err := h.executor.Execute(callCtx, toolName, args)
	latencyMS := float64(time.Since(start)) / float64(time.Millisecond)

	event := ToolEvent{
		EventID:   newToolEventID(),
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		ToolName:  toolName,
		Arguments: args,
		LatencyMS: latencyMS,
	}

	switch {
	case callCtx.Err() == context.DeadlineExceeded:
		event.Kind = ToolEventTimeout
		event.Error = fmt.Sprintf("Tool '%s' timed out after %gs", toolName, h.timeout.Seconds())
		if _, err := h.session.Record(session.KindToolTimeout, "tool", map[string]any{
			"tool_name":   toolName,
			"timeout_sec": h.timeout.Seconds(),
		}, 5); err != nil {
			return ToolEvent{}, err
		}

	case err != nil:
		event.Kind = ToolEventError
		event.Error = err.Error()
		if _, recErr := h.session.Record(session.KindToolError, "tool", map[string]any{
			"tool_name": toolName,
			"error":     err.Error(),
		}, 5); recErr != nil {
			return ToolEvent{}, recErr
		}

	default:
		event.Kind = ToolEventSuccess
		event.Result = result
		normalized := h.aligner.Normalize(toolName, result)
		event.Normalized = &normalized

		if h.store != nil && len(result) >= externalizeThreshold {
			if err := h.externalize(&event, toolName, result); err != nil {
				return ToolEvent{}, err
			}
		} else {
			// No store means the raw result stays inline, so bound it
			// before it lands on the session log.
			event.Result = TruncateForStorage(event.Result)
		}

		if _, err := h.session.Record(session.KindToolSuccess, "tool", map[string]any{
			"tool_name":     toolName,
			"latency_ms":    latencyMS,
			"result_tokens": EstimateTokens(result),
		}, 5); err != nil {
			return ToolEvent{}, err
		}
	}

	return event, nil
}

// externalize moves the raw result into the artifact store and replaces
// the event's result with the handle reference.
func (h *InterruptHandler) externalize(event *ToolEvent, toolName, result string) error {
	handle, err := h.store.Store([]byte(result), "tool:"+toolName, "text/plain")
	if err != nil {
		return fmt.Errorf("externalize tool result: %w", err)
	}
	event.Result = fmt.Sprintf("[artifact %s: %s]", handle.ArtifactID[:12], handle.Summary)
	_, err = h.session.Record(session.KindArtifactStored, "tool", map[string]any{
		"artifact_id": handle.ArtifactID,
		"size_bytes":  handle.SizeBytes,
		"source":      handle.Source,
	}, 10)
	return err
}

// invocationString renders a call in the "tool_name:args" form the tool
// guard checks.
func invocationString(toolName string, args map[string]any) string {
	if len(args) == 0 {
		return toolName
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return toolName
	}
	return toolName + ":" + string(encoded)
}

func newToolEventID() string {
	ts := time.Now().UnixNano() / int64(time.Millisecond)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%012x-%s", ts, suffix)
}
