// Package odoorpc is a JSON-RPC 2.0 client for an Odoo-style
// business-management server. It owns session establishment and envelope
// construction; callers get typed primitives (SearchRead, Create, Write,
// Unlink, CallMethod) plus an escape hatch for any other server-side method.
//
// The client never retries and never swallows an error: transport failures
// surface as *proto.TransportError, server-reported failures as *proto.Error,
// and credential problems as *AuthError. Retry and recovery policy belongs
// to the caller.
package odoorpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jgtolentino/clean-dashboard/codec"
	"github.com/jgtolentino/clean-dashboard/proto"
)

// Server endpoints, relative to the configured server URL.
const (
	EndpointAuthenticate = "/web/session/authenticate"
	EndpointSearchRead   = "/web/dataset/search_read"
	EndpointCallKw       = "/web/dataset/call_kw"
)

// DefaultLimit is the page size applied when a SearchRead caller does not
// set one.
const DefaultLimit = 80

// ErrClosed is returned for any operation on a closed client.
var ErrClosed = errors.New("odoorpc: client is closed")

// AuthError reports rejected credentials or an unreachable authentication
// endpoint. It is distinct from the per-call error types so callers can
// re-prompt for credentials instead of treating it as a generic failure.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Credentials identify one server, tenant database, and user.
type Credentials struct {
	URL      string
	Database string
	Login    string
	Password string
}

func (c Credentials) validate() error {
	switch {
	case c.URL == "":
		return errors.New("odoorpc: server URL is required")
	case c.Database == "":
		return errors.New("odoorpc: database name is required")
	case c.Login == "":
		return errors.New("odoorpc: login is required")
	case c.Password == "":
		return errors.New("odoorpc: password is required")
	}
	return nil
}

// Record is one row returned by the server, field name to loosely typed
// value. The helper package coerces individual values.
type Record map[string]interface{}

// SearchOptions override the SearchRead paging defaults. A zero Limit means
// DefaultLimit; Sort is the server's "field direction" syntax.
type SearchOptions struct {
	Limit  int
	Offset int
	Sort   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used by the default codec. Timeouts
// are imposed here or per call via context; the client itself adds none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the logrus standard logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = logrus.NewEntry(log) }
}

// WithCodec substitutes the transport codec. Mainly for tests.
func WithCodec(cc proto.ClientCodec) Option {
	return func(c *Client) { c.codec = cc }
}

// Client is a session-holding RPC client. One instance is meant to be shared
// by every call site needing the same session; it is safe for concurrent
// use. Concurrent first calls serialize on the session mutex, so at most one
// authentication round-trip happens per session lifetime.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	log        *logrus.Entry

	mu     sync.Mutex // guards uid, seq, closed
	codec  proto.ClientCodec
	uid    int64 // 0 means not yet authenticated
	seq    uint64
	closed bool
}

// New validates the credentials and returns a client. Validation is strict
// so that a misconfigured client fails here rather than sending malformed
// requests later.
func New(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		creds: creds,
		log:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.codec == nil {
		cc, err := codec.NewHTTPCodec(creds.URL, c.httpClient, c.log)
		if err != nil {
			return nil, err
		}
		c.codec = cc
	}
	return c, nil
}

// Authenticate returns the session's numeric user id, establishing the
// session on first use. Once a session exists the cached id is returned
// without a network call; Logout clears it.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.uid != 0 {
		return c.uid, nil
	}

	c.seq++
	req := proto.NewRequest(c.seq, proto.AuthParams{
		DB:       c.creds.Database,
		Login:    c.creds.Login,
		Password: c.creds.Password,
	})

	resp, err := c.codec.RoundTrip(ctx, EndpointAuthenticate, req)
	if err != nil {
		var te *proto.TransportError
		if errors.As(err, &te) {
			return 0, &AuthError{Reason: "authentication endpoint unreachable", Err: err}
		}
		return 0, &AuthError{Reason: "authentication call failed", Err: err}
	}
	if resp.Error != nil {
		return 0, &AuthError{Reason: resp.Error.Message, Err: resp.Error}
	}

	// The server answers a numeric uid, or the JSON value false when the
	// credentials are rejected.
	var uid int64
	if err := json.Unmarshal(resp.Result, &uid); err != nil {
		var rejected bool
		if json.Unmarshal(resp.Result, &rejected) == nil && !rejected {
			return 0, &AuthError{Reason: "credentials rejected"}
		}
		return 0, &AuthError{Reason: "unexpected authentication result", Err: err}
	}
	if uid <= 0 {
		return 0, &AuthError{Reason: fmt.Sprintf("server returned invalid uid %d", uid)}
	}

	c.uid = uid
	c.log.WithFields(logrus.Fields{"uid": uid, "db": c.creds.Database}).Info("session established")
	return uid, nil
}

// call authenticates if needed, then performs one exchange. The session
// mutex is released before the data round-trip so independent calls can be
// in flight concurrently.
func (c *Client) call(ctx context.Context, endpoint string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	if _, err := c.authenticateLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.seq++
	req := proto.NewRequest(c.seq, params)
	c.mu.Unlock()

	resp, err := c.codec.RoundTrip(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// SearchRead queries model for records matching domain. A nil domain
// matches everything; a nil or empty fields list requests the server's
// default field set. Zero matches returns an empty slice, not an error.
func (c *Client) SearchRead(ctx context.Context, model string, domain proto.Domain, fields []string, opts *SearchOptions) ([]Record, error) {
	if model == "" {
		return nil, errors.New("odoorpc: model is required")
	}
	if err := domain.Validate(); err != nil {
		return nil, errors.Wrap(err, "odoorpc: invalid domain")
	}

	params := proto.SearchReadParams{
		Model:  model,
		Domain: domain,
		Fields: fields,
		Limit:  DefaultLimit,
	}
	if params.Domain == nil {
		params.Domain = proto.Domain{}
	}
	if params.Fields == nil {
		params.Fields = []string{}
	}
	if opts != nil {
		if opts.Limit > 0 {
			params.Limit = opts.Limit
		}
		params.Offset = opts.Offset
		params.Sort = opts.Sort
	}

	raw, err := c.call(ctx, EndpointSearchRead, params)
	if err != nil {
		return nil, err
	}

	// The server wraps rows as {records, length}; a bare list is accepted
	// for compatibility with older endpoints.
	var wrapped struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Records != nil {
		return wrapped.Records, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &proto.TransportError{
			Endpoint: EndpointSearchRead,
			Err:      errors.Wrap(err, "decode records"),
		}
	}
	return records, nil
}

// Create inserts one record and returns its id. Required-field validation
// happens server-side and surfaces as a *proto.Error.
func (c *Client) Create(ctx context.Context, model string, values map[string]interface{}) (int64, error) {
	raw, err := c.callKw(ctx, model, "create", []interface{}{values}, nil)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, &proto.TransportError{
			Endpoint: EndpointCallKw,
			Err:      errors.Wrap(err, "decode created id"),
		}
	}
	return id, nil
}

// Write applies the same value set to every record in ids. Atomicity across
// the id set is the server's; on an error response nothing was changed and
// the whole call fails.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]interface{}) (bool, error) {
	if len(ids) == 0 {
		return false, errors.New("odoorpc: write needs at least one id")
	}
	raw, err := c.callKw(ctx, model, "write", []interface{}{ids, values}, nil)
	if err != nil {
		return false, err
	}
	return decodeBool(raw)
}

// Unlink deletes the records in ids, all or nothing per the server's
// transaction semantics.
func (c *Client) Unlink(ctx context.Context, model string, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return false, errors.New("odoorpc: unlink needs at least one id")
	}
	raw, err := c.callKw(ctx, model, "unlink", []interface{}{ids}, nil)
	if err != nil {
		return false, err
	}
	return decodeBool(raw)
}

// CallMethod invokes an arbitrary server-side method on model with
// positional and keyword arguments. It is the escape hatch for workflow
// transitions, report aggregation, and anything else the four CRUD
// primitives cannot express; the raw result is returned undecoded.
func (c *Client) CallMethod(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (json.RawMessage, error) {
	if method == "" {
		return nil, errors.New("odoorpc: method is required")
	}
	return c.callKw(ctx, model, method, args, kwargs)
}

func (c *Client) callKw(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (json.RawMessage, error) {
	if model == "" {
		return nil, errors.New("odoorpc: model is required")
	}
	if args == nil {
		args = []interface{}{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	return c.call(ctx, EndpointCallKw, proto.CallKwParams{
		Model:  model,
		Method: method,
		Args:   args,
		KWArgs: kwargs,
	})
}

// Logout discards the cached session id. It never fails, including when no
// session exists; the next operation re-authenticates transparently.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		c.log.WithField("uid", c.uid).Info("session cleared")
	}
	c.uid = 0
}

// Close releases the transport. Further operations return ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.uid = 0
	c.mu.Unlock()
	return c.codec.Close()
}

func decodeBool(raw json.RawMessage) (bool, error) {
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, &proto.TransportError{
			Endpoint: EndpointCallKw,
			Err:      errors.Wrap(err, "decode boolean result"),
		}
	}
	return ok, nil
}
