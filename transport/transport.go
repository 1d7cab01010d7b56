// Package transport sends requests to the enclave worker over one-shot
// WebSocket sessions and collects the frames it answers with.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/config"
	"github.com/litentry/enclave-client/log"
	"github.com/litentry/enclave-client/metrics"
	"github.com/litentry/enclave-client/response"
)

const (
	moduleName = "transport"

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

var (
	// ErrMalformedFrame is the error returned in strict mode for frames that
	// are not JSON-RPC responses carrying a worker return value.
	ErrMalformedFrame = errors.New(moduleName, 1, "transport: malformed frame")
	// ErrUnexpectedID is the error returned in strict mode for responses to
	// another request id.
	ErrUnexpectedID = errors.New(moduleName, 2, "transport: unexpected response id")
	// ErrConnectionClosed is the error returned when the connection fails or
	// closes before the final frame.
	ErrConnectionClosed = errors.New(moduleName, 3, "transport: connection closed")
	// ErrRPCError is the error returned when the worker answers with a
	// JSON-RPC error object.
	ErrRPCError = errors.New(moduleName, 4, "transport: rpc error")
	// ErrTimeout is the error returned when a request outlives its timeout.
	ErrTimeout = errors.New(moduleName, 5, "transport: request timed out")
)

// FrameHandler is notified of each result frame as it is delivered.
type FrameHandler func(frame *codec.WorkerRpcReturnValue)

// StateObserver is notified of every session state transition.
type StateObserver func(session string, from, to State)

// Option configures a Client.
type Option func(*Client)

// WithStateObserver registers an observer of session transitions.
func WithStateObserver(o StateObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// Client sends requests to one enclave endpoint. Every Send opens its own
// connection, so a Client is safe for concurrent use.
type Client struct {
	endpoint string
	timeout  time.Duration
	strict   bool

	dialer   *websocket.Dialer
	observer StateObserver
	logger   *log.Logger
	metrics  metrics.RequestMetrics
}

// NewClient creates a client for the configured enclave.
func NewClient(cfg *config.EnclaveConfig, logger *log.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	c := &Client{
		endpoint: cfg.Endpoint,
		timeout:  cfg.RequestTimeout,
		strict:   cfg.StrictFrames,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		logger:  logger.WithModule(moduleName),
		metrics: metrics.NewDefaultRequestMetrics("enclave_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send performs req on a fresh connection and returns the delivered frames.
//
// For streaming methods every non-empty frame is delivered, and onFrame (if
// not nil) is called as each one arrives. For other methods only the final
// frame is delivered. The request completes on the first frame whose
// do_watch flag is false. When exactly one frame was delivered it is also
// classified, and an application error in it is returned along with the
// frames.
func (c *Client) Send(ctx context.Context, req Request, onFrame FrameHandler) ([]*codec.WorkerRpcReturnValue, error) {
	timer := c.metrics.RequestTimer(string(req.Method))
	defer timer.ObserveDuration()

	s := newSession(c, req, onFrame)
	frames, err := s.run(ctx)
	if err == nil && len(frames) == 1 {
		err = response.ExtractErrors(frames[0])
	}

	if err != nil {
		c.metrics.RequestCounter(string(req.Method), metrics.StatusFailure, errorCause(err)).Inc()
		return frames, err
	}
	c.metrics.RequestCounter(string(req.Method), metrics.StatusOk).Inc()
	return frames, nil
}

func errorCause(err error) string {
	for _, known := range []struct {
		err   error
		cause string
	}{
		{ErrTimeout, "timeout"},
		{ErrRPCError, "rpc_error"},
		{ErrMalformedFrame, "malformed_frame"},
		{ErrUnexpectedID, "unexpected_id"},
		{ErrConnectionClosed, "connection_closed"},
		{context.Canceled, "canceled"},
	} {
		if errors.Is(err, known.err) {
			return known.cause
		}
	}
	return "application"
}
