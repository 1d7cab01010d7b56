package transport

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oasisprotocol/oasis-core/go/common/errors"
	"golang.org/x/sync/errgroup"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/log"
	"github.com/litentry/enclave-client/metrics"
)

// session is one request on its own connection.
type session struct {
	id      string
	client  *Client
	req     Request
	onFrame FrameHandler
	logger  *log.Logger

	state atomic.Uint32
}

func newSession(c *Client, req Request, onFrame FrameHandler) *session {
	id := uuid.New().String()
	return &session{
		id:      id,
		client:  c,
		req:     req,
		onFrame: onFrame,
		logger:  c.logger.With("session", id, "method", string(req.Method)),
	}
}

func (s *session) State() State {
	return State(s.state.Load())
}

func (s *session) transition(to State) {
	from := s.State()
	if from == to || from.Terminal() {
		return
	}
	if !canTransition(from, to) {
		panic(fmt.Sprintf("transport: invalid transition %s -> %s", from, to))
	}
	s.state.Store(uint32(to))
	s.logger.Debug("session state", "from", from.String(), "to", to.String())
	if s.client.observer != nil {
		s.client.observer(s.id, from, to)
	}
}

func (s *session) fail(err error) error {
	s.transition(StateFailed)
	s.logger.Info("request failed", "err", err)
	return err
}

// ctxError maps a finished context to the error reported for it.
func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

func (s *session) run(ctx context.Context) ([]*codec.WorkerRpcReturnValue, error) {
	s.state.Store(uint32(StateConnecting))

	ctx, cancel := context.WithTimeout(ctx, s.client.timeout)
	defer cancel()

	conn, _, err := s.client.dialer.DialContext(ctx, s.client.endpoint, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, s.fail(ctxError(ctx))
		}
		return nil, s.fail(errors.WithContext(ErrConnectionClosed, fmt.Sprintf("dial %s: %s", s.client.endpoint, err)))
	}
	defer conn.Close()
	s.logger.Debug("connected", "endpoint", s.client.endpoint)

	payload, err := encodeRequest(s.req)
	if err != nil {
		return nil, s.fail(fmt.Errorf("transport: encoding request: %w", err))
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err = conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, s.fail(errors.WithContext(ErrConnectionClosed, err.Error()))
	}
	s.transition(StateAwaitingFrames)

	// The reader owns stop: it ends the session when it returns, which
	// makes the closer tear the connection down. The closer also fires on
	// timeout or cancellation, unblocking the reader.
	sessCtx, stop := context.WithCancel(ctx)
	defer stop()

	incoming := make(chan *codec.WorkerRpcReturnValue)
	var g errgroup.Group
	g.Go(func() error {
		defer stop()
		defer close(incoming)
		return s.read(sessCtx, conn, incoming)
	})
	g.Go(func() error {
		<-sessCtx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return conn.Close()
	})

	var delivered []*codec.WorkerRpcReturnValue
	for frame := range incoming {
		if s.req.Method.Streaming() || !frame.DoWatch {
			delivered = append(delivered, frame)
			s.client.metrics.FrameCounter(string(s.req.Method), metrics.FrameDelivered).Inc()
			if s.onFrame != nil {
				s.onFrame(frame)
			}
		}
	}

	if err := g.Wait(); err != nil {
		return delivered, s.fail(err)
	}
	s.transition(StateCompleted)
	s.logger.Debug("request completed", "frames", len(delivered))
	return delivered, nil
}

// read forwards result frames until the final one. Frames that are empty
// but still watching are dropped here.
func (s *session) read(ctx context.Context, conn *websocket.Conn, out chan<- *codec.WorkerRpcReturnValue) error {
	method := string(s.req.Method)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctxError(ctx)
			}
			return errors.WithContext(ErrConnectionClosed, err.Error())
		}

		frame, err := decodeFrame(data)
		switch {
		case err == nil:
		case errors.Is(err, ErrRPCError), s.client.strict:
			return err
		default:
			s.client.metrics.FrameCounter(method, metrics.FrameSkipped).Inc()
			s.logger.Debug("skipping frame", "err", err)
			continue
		}

		if s.req.Method.Streaming() {
			s.transition(StateStreaming)
		} else {
			s.transition(StateBuffering)
		}
		s.logger.Debug("frame received",
			"do_watch", frame.DoWatch,
			"status", frame.Status.String(),
			"value_len", len(frame.Value),
		)

		if frame.DoWatch && len(frame.Value) == 0 {
			s.client.metrics.FrameCounter(method, metrics.FrameDropped).Inc()
			continue
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return ctxError(ctx)
		}
		if !frame.DoWatch {
			return nil
		}
	}
}
