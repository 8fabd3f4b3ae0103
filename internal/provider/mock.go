package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"OmnichainNexus/internal/jsonx"
)

// HandlerFunc answers one method on a MockProvider.
type HandlerFunc func(params interface{}) (interface{}, error)

// MockCall is one entry of the MockProvider call log.
type MockCall struct {
	Method string
	Params interface{}
}

// MockProvider is an in-process provider with per-method handlers.
// Methods without a handler fail with a -32601 error.
type MockProvider struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []MockCall
}

func NewMockProvider() *MockProvider {
	return &MockProvider{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for method, replacing any earlier handler.
func (m *MockProvider) Handle(method string, fn HandlerFunc) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = fn
	return m
}

// Return makes method always answer result.
func (m *MockProvider) Return(method string, result interface{}) *MockProvider {
	return m.Handle(method, func(interface{}) (interface{}, error) { return result, nil })
}

// Fail makes method always fail with err.
func (m *MockProvider) Fail(method string, err error) *MockProvider {
	return m.Handle(method, func(interface{}) (interface{}, error) { return nil, err })
}

func (m *MockProvider) Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Params: params})
	fn, ok := m.handlers[method]
	m.mu.Unlock()

	if !ok {
		return nil, &RPCError{Code: -32601, Message: fmt.Sprintf("method %s not supported", method)}
	}
	result, err := fn(params)
	if err != nil {
		return nil, err
	}
	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	return jsonx.Marshal(result)
}

// Calls returns the methods requested so far, in order.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many times method was requested.
func (m *MockProvider) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
