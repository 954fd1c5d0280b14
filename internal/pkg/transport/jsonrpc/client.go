// Package jsonrpc implements a generic JSON-RPC 2.0 client over HTTP. It is
// suitable for any JSON-RPC compatible endpoint, most notably blockchain
// node providers.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrProviderReturnedError indicates that the remote JSON-RPC server
// answered with an error object instead of a result.
var ErrProviderReturnedError = errors.New("provider error")

// response represents a standard JSON-RPC 2.0 response.
type response struct {
	JsonRPC string `json:"jsonrpc"` // protocol version (usually "2.0")
	Error   *struct {
		Code    int    `json:"code"`    // standard JSON-RPC error code or custom server logic
		Message string `json:"message"` // human-readable error message
	} `json:"error"`
	Result json.RawMessage `json:"result"` // raw result payload
}

// Err returns an error when the response carries a JSON-RPC error object,
// wrapping ErrProviderReturnedError with the code and message.
func (r response) Err() error {
	if r.Error == nil {
		return nil
	}

	return fmt.Errorf("%w: [%d] - %s", ErrProviderReturnedError, r.Error.Code, r.Error.Message)
}

// Client is the interface for a generic JSON-RPC client. It exists so
// callers can mock the transport in tests.
type Client interface {
	// Fetch sends a JSON-RPC request with the given method and parameters
	// and returns the raw result, or an error if the request or the remote
	// server fails.
	Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// client is the default Client implementation. It posts requests to the
// configured provider endpoint using the supplied HTTP client.
type client struct {
	providerEndpoint string       // URL of the remote JSON-RPC server
	httpClient       *http.Client // HTTP client used to perform requests
}

var _ Client = (*client)(nil)

// Fetch sends a JSON-RPC request to the remote server. The request id is a
// freshly generated UUID string.
func (c *client) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.providerEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Result, data.Err()
}

// NewClient returns a Client that sends JSON-RPC requests to the given
// provider endpoint using the supplied HTTP client.
func NewClient(httpClient *http.Client, providerEndpoint string) *client {
	return &client{
		providerEndpoint: providerEndpoint,
		httpClient:       httpClient,
	}
}
