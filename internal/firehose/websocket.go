package firehose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
)

// FrameHandler processes one raw frame from the event stream. A returned error
// tears down the connection; the consumer loop then reconnects per its policy.
type FrameHandler func(ctx context.Context, frame []byte) error

// WebsocketDialer connects to an upstream relay's event-stream endpoint.
type WebsocketDialer struct {
	url     string
	handler FrameHandler
	logger  *slog.Logger
}

func NewWebsocketDialer(url string, handler FrameHandler, logger *slog.Logger) *WebsocketDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebsocketDialer{url: url, handler: handler, logger: logger}
}

func (d *WebsocketDialer) Dial(ctx context.Context) (Stream, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", d.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", d.url, err)
	}
	return &websocketStream{conn: conn, handler: d.handler, logger: d.logger}, nil
}

type websocketStream struct {
	conn    *websocket.Conn
	handler FrameHandler
	logger  *slog.Logger
}

// Consume reads frames until the connection breaks or ctx is cancelled. The
// read loop runs in its own goroutine so cancellation does not wait on a
// blocked ReadMessage; closing the connection unblocks it.
func (s *websocketStream) Consume(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, frame, err := s.conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			if s.handler == nil {
				continue
			}
			if err := s.handler(ctx, frame); err != nil {
				s.logger.Warn("frame handler failed", "error", err)
				done <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = s.conn.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (s *websocketStream) Close() error {
	return s.conn.Close()
}

var _ Dialer = (*WebsocketDialer)(nil)
