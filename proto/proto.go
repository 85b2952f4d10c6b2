package proto

import (
	"context"
	"encoding/json"
	"fmt"
)

// Version is the protocol version tag carried by every envelope.
const Version = "2.0"

// MethodCall is the envelope method used for all data operations.
const MethodCall = "call"

// Request is the envelope written for every call. Params carries the
// endpoint-specific parameter bag (AuthParams, SearchReadParams, CallKwParams).
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

// NewRequest builds a call envelope around params.
func NewRequest(id uint64, params interface{}) *Request {
	return &Request{
		JSONRPC: Version,
		Method:  MethodCall,
		Params:  params,
		ID:      id,
	}
}

// Response is the envelope read back for every call. Exactly one of Result
// and Error is set on a well-formed response; the codec rejects anything else.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a server-reported protocol error. Code, message and data are
// propagated verbatim from the wire.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// TransportError wraps a failed HTTP exchange: connection refused, timeout,
// non-2xx status, or an unreadable/ill-formed response body. It is distinct
// from Error so callers can tell "server said no" from "could not reach
// server".
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthParams is the parameter bag for the authentication endpoint.
type AuthParams struct {
	DB       string `json:"db"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// SearchReadParams is the parameter bag for the search_read endpoint.
// Domain and Fields must be non-nil so they marshal as empty arrays rather
// than null; the client takes care of that.
type SearchReadParams struct {
	Model  string   `json:"model"`
	Domain Domain   `json:"domain"`
	Fields []string `json:"fields"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Sort   string   `json:"sort,omitempty"`
}

// CallKwParams is the parameter bag for the generic call_kw endpoint.
type CallKwParams struct {
	Model  string                 `json:"model"`
	Method string                 `json:"method"`
	Args   []interface{}          `json:"args"`
	KWArgs map[string]interface{} `json:"kwargs"`
}

// A ClientCodec performs one request/response exchange with the server.
// The transport is stateless: every RoundTrip is an independent exchange,
// and the request id serves only to pair the response inside it.
// Implementations must be safe for concurrent use.
type ClientCodec interface {
	RoundTrip(ctx context.Context, endpoint string, req *Request) (*Response, error)

	Close() error
}
