package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"

	"OmnichainNexus/internal/logx"
)

// RPCProvider reaches a node or wallet bridge over JSON-RPC 2.0 on HTTP.
type RPCProvider struct {
	URL     string
	Timeout time.Duration

	client *jrpc2.Client
}

// NewRPCProvider creates a provider for url. A zero timeout disables the per-call deadline.
func NewRPCProvider(url string, timeout time.Duration) *RPCProvider {
	ch := jhttp.NewChannel(url, nil)
	return &RPCProvider{
		URL:     url,
		Timeout: timeout,
		client:  jrpc2.NewClient(ch, nil),
	}
}

func (p *RPCProvider) Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	logx.Debug("RPC", method)
	var raw json.RawMessage
	if err := p.client.CallResult(ctx, method, params, &raw); err != nil {
		var jerr *jrpc2.Error
		if errors.As(err, &jerr) {
			return nil, &RPCError{Code: int(jerr.Code), Message: jerr.Message, Data: jerr.Data}
		}
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return raw, nil
}

func (p *RPCProvider) Close() error {
	return p.client.Close()
}
