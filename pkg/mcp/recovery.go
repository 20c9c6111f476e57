package mcp

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

// RecoveryAction determines how to handle an MCP operation failure.
type RecoveryAction int

const (
	// NoRetry — the error is not recoverable (bad request, auth failure,
	// timeout).
	NoRetry RecoveryAction = iota
	// RetrySameSession — transient error, retry on the existing session.
	RetrySameSession
	// RetryNewSession — transport failure, recreate the session and retry.
	RetryNewSession
)

// Recovery configuration constants.
const (
	// MaxRetries is the number of retry attempts after the initial failure.
	MaxRetries = 1

	// ReinitTimeout is the deadline for recreating a session during recovery.
	ReinitTimeout = 10 * time.Second

	// OperationTimeout is the per-call deadline for CallTool and ListTools.
	OperationTimeout = 30 * time.Second

	// RetryBackoffMin is the minimum jittered backoff between retries.
	RetryBackoffMin = 250 * time.Millisecond

	// RetryBackoffMax is the maximum jittered backoff between retries.
	RetryBackoffMax = 750 * time.Millisecond

	// InitTimeout is the per-server initialization timeout (transport spawn
	// plus handshake).
	InitTimeout = 30 * time.Second

	// ShutdownGrace is how long Close waits for a stdio server to exit
	// after stdin is closed before the process is killed.
	ShutdownGrace = 5 * time.Second
)

// ClassifyError determines the recovery action for an MCP operation error.
func ClassifyError(err error) RecoveryAction {
	if err == nil {
		return NoRetry
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NoRetry
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NoRetry // could be a slow server, retrying won't help
		}
		return RetryNewSession
	}

	if isConnectionError(err) {
		return RetryNewSession
	}

	if isProtocolError(err) {
		return NoRetry
	}

	// Unknown errors are not safe to retry.
	return NoRetry
}

// isConnectionError detects connection-level transport failures.
func isConnectionError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	connectionErrors := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"connection closed",
		"no such host",
	}
	for _, e := range connectionErrors {
		if strings.Contains(msg, e) {
			return true
		}
	}
	return false
}

// isProtocolError detects JSON-RPC protocol errors from the SDK. These
// are client-side errors like bad request or method not found.
func isProtocolError(err error) bool {
	msg := strings.ToLower(err.Error())
	protocolIndicators := []string{
		"method not found",
		"invalid params",
		"invalid request",
		"parse error",
	}
	for _, indicator := range protocolIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
