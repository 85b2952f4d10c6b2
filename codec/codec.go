package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jgtolentino/clean-dashboard/proto"
)

// httpCodec exchanges one envelope per HTTP POST. There is no connection
// state to demultiplex: a response belongs to the request it was posted for,
// and the envelope id is checked only as a sanity guard.
type httpCodec struct {
	base *url.URL
	hc   *http.Client
	log  *logrus.Entry
}

// NewHTTPCodec returns a proto.ClientCodec posting envelopes to endpoints
// relative to rawurl. A nil httpClient falls back to http.DefaultClient; a
// nil log falls back to the logrus standard logger.
func NewHTTPCodec(rawurl string, httpClient *http.Client, log *logrus.Entry) (proto.ClientCodec, error) {
	base, err := url.Parse(rawurl)
	if err != nil {
		return nil, errors.Wrapf(err, "parse server url %q", rawurl)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("server url %q: scheme must be http or https", rawurl)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &httpCodec{
		base: base,
		hc:   httpClient,
		log:  log,
	}, nil
}

func (c *httpCodec) RoundTrip(ctx context.Context, endpoint string, req *proto.Request) (*proto.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	target := strings.TrimSuffix(c.base.String(), "/") + endpoint

	if c.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		c.log.Debugf("=> %s %s", endpoint, body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, &proto.TransportError{Endpoint: endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, &proto.TransportError{Endpoint: endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &proto.TransportError{Endpoint: endpoint, Err: errors.Wrap(err, "read response body")}
	}

	if c.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		c.log.Debugf("<= %s %s", endpoint, raw)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &proto.TransportError{
			Endpoint: endpoint,
			Err:      errors.Errorf("unexpected status %d", httpResp.StatusCode),
		}
	}

	resp := &proto.Response{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, &proto.TransportError{Endpoint: endpoint, Err: errors.Wrap(err, "decode response")}
	}
	if err := checkShape(req, resp); err != nil {
		return nil, &proto.TransportError{Endpoint: endpoint, Err: err}
	}
	return resp, nil
}

// checkShape enforces the envelope invariant: exactly one of result and
// error, and an id echoing the request's.
func checkShape(req *proto.Request, resp *proto.Response) error {
	hasResult := len(resp.Result) > 0 && string(resp.Result) != "null"
	hasError := resp.Error != nil
	switch {
	case hasResult && hasError:
		return errors.New("response carries both result and error")
	case !hasResult && !hasError:
		return errors.New("response carries neither result nor error")
	case resp.ID != 0 && resp.ID != req.ID:
		return errors.Errorf("response id %d does not match request id %d", resp.ID, req.ID)
	}
	return nil
}

func (c *httpCodec) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
