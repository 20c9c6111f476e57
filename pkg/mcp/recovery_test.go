package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RecoveryAction
	}{
		{"nil", nil, NoRetry},
		{"context canceled", context.Canceled, NoRetry},
		{"deadline exceeded", context.DeadlineExceeded, NoRetry},
		{"eof", io.EOF, RetryNewSession},
		{"unexpected eof", io.ErrUnexpectedEOF, RetryNewSession},
		{"connection refused", errors.New("dial tcp: connection refused"), RetryNewSession},
		{"broken pipe", errors.New("write: broken pipe"), RetryNewSession},
		{"connection closed", fmt.Errorf("call: %w", errors.New("connection closed")), RetryNewSession},
		{"method not found", errors.New("jsonrpc: method not found"), NoRetry},
		{"invalid params", errors.New("invalid params"), NoRetry},
		{"unknown", errors.New("something strange"), NoRetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
