package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"OmnichainNexus/internal/jsonx"
)

// Error codes reported by EIP-1193 wallet providers.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnrecognizedChain = 4902
	CodeInternal          = -32603
)

// Provider is the external wallet capability: a single generic request method.
type Provider interface {
	Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
}

// RPCError is a provider-defined failure.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func codeOf(err error) (int, bool) {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

// IsUnrecognizedChain reports whether the provider does not know the requested chain.
func IsUnrecognizedChain(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeUnrecognizedChain
}

// IsUserRejected reports whether the user declined the request.
func IsUserRejected(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeUserRejected
}

// Message returns the human-readable part of a provider failure.
func Message(err error) string {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Message != "" {
		return rpcErr.Message
	}
	return err.Error()
}

// Call issues method and decodes the result into out. A nil out discards the result.
func Call(ctx context.Context, p Provider, method string, params interface{}, out interface{}) error {
	raw, err := p.Request(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := jsonx.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
