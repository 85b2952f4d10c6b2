package codec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgtolentino/clean-dashboard/proto"
)

func newCodec(t *testing.T, handler http.HandlerFunc) proto.ClientCodec {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cc, err := NewHTTPCodec(srv.URL, srv.Client(), nil)
	require.NoError(t, err)
	return cc
}

func TestNewHTTPCodecRejectsBadURL(t *testing.T) {
	_, err := NewHTTPCodec("://nope", nil, nil)
	assert.Error(t, err)

	_, err = NewHTTPCodec("ftp://host", nil, nil)
	assert.Error(t, err)
}

func TestRoundTripSuccess(t *testing.T) {
	cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/web/dataset/search_read", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req proto.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, proto.Version, req.JSONRPC)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": proto.Version,
			"id":      req.ID,
			"result":  []int{1, 2, 3},
		})
	})

	resp, err := cc.RoundTrip(context.Background(), "/web/dataset/search_read",
		proto.NewRequest(11, map[string]string{"model": "res.partner"}))
	require.NoError(t, err)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `[1,2,3]`, string(resp.Result))
}

func TestRoundTripServerErrorEnvelope(t *testing.T) {
	cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
		var req proto.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": proto.Version,
			"id":      req.ID,
			"error":   map[string]interface{}{"code": 100, "message": "Session Expired"},
		})
	})

	resp, err := cc.RoundTrip(context.Background(), "/web/dataset/call_kw", proto.NewRequest(1, nil))
	require.NoError(t, err, "an error envelope is a successful exchange")
	require.NotNil(t, resp.Error)
	assert.Equal(t, 100, resp.Error.Code)
	assert.Equal(t, "Session Expired", resp.Error.Message)
}

func TestRoundTripNon2xxStatus(t *testing.T) {
	cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := cc.RoundTrip(context.Background(), "/web/session/authenticate", proto.NewRequest(1, nil))
	var transErr *proto.TransportError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, "/web/session/authenticate", transErr.Endpoint)
}

func TestRoundTripMalformedBody(t *testing.T) {
	cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	_, err := cc.RoundTrip(context.Background(), "/web/dataset/search_read", proto.NewRequest(1, nil))
	var transErr *proto.TransportError
	assert.ErrorAs(t, err, &transErr)
}

func TestRoundTripConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	cc, err := NewHTTPCodec(srv.URL, nil, nil)
	require.NoError(t, err)

	_, err = cc.RoundTrip(context.Background(), "/web/session/authenticate", proto.NewRequest(1, nil))
	var transErr *proto.TransportError
	assert.ErrorAs(t, err, &transErr)
}

func TestRoundTripEnvelopeInvariant(t *testing.T) {
	cases := map[string]string{
		"both result and error": `{"jsonrpc":"2.0","id":1,"result":true,"error":{"code":1,"message":"x"}}`,
		"neither":               `{"jsonrpc":"2.0","id":1}`,
		"null result only":      `{"jsonrpc":"2.0","id":1,"result":null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := cc.RoundTrip(context.Background(), "/web/dataset/call_kw", proto.NewRequest(1, nil))
			var transErr *proto.TransportError
			assert.ErrorAs(t, err, &transErr)
		})
	}
}

func TestRoundTripIDMismatch(t *testing.T) {
	cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":999,"result":true}`))
	})

	_, err := cc.RoundTrip(context.Background(), "/web/dataset/call_kw", proto.NewRequest(5, nil))
	var transErr *proto.TransportError
	assert.ErrorAs(t, err, &transErr)
}

func TestRoundTripHonorsContext(t *testing.T) {
	cc := newCodec(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cc.RoundTrip(ctx, "/web/dataset/search_read", proto.NewRequest(1, nil))
	var transErr *proto.TransportError
	assert.ErrorAs(t, err, &transErr)
}
