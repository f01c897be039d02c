package firehose

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func relayFixture(t *testing.T, frames []string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, frame := range frames {
			require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(frame)))
		}
	}))
}

func TestWebsocketDialer_DeliversFrames(t *testing.T) {
	server := relayFixture(t, []string{"one", "two"})
	defer server.Close()
	wsURL := strings.Replace(server.URL, "http", "ws", 1)

	received := make(chan string, 2)
	dialer := NewWebsocketDialer(wsURL, func(ctx context.Context, frame []byte) error {
		received <- string(frame)
		return nil
	}, nil)

	stream, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	// The server closes after writing, so Consume returns an error.
	err = stream.Consume(context.Background())
	require.Error(t, err)
	require.Equal(t, "one", <-received)
	require.Equal(t, "two", <-received)
}

func TestWebsocketDialer_DialFailure(t *testing.T) {
	dialer := NewWebsocketDialer("ws://127.0.0.1:1/stream", nil, nil)
	_, err := dialer.Dial(context.Background())
	require.Error(t, err)
}

func TestWebsocketStream_HandlerErrorTearsDown(t *testing.T) {
	server := relayFixture(t, []string{"bad"})
	defer server.Close()
	wsURL := strings.Replace(server.URL, "http", "ws", 1)

	dialer := NewWebsocketDialer(wsURL, func(ctx context.Context, frame []byte) error {
		return context.DeadlineExceeded
	}, nil)
	stream, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	require.ErrorIs(t, stream.Consume(context.Background()), context.DeadlineExceeded)
}

func TestWebsocketStream_CancelUnblocksConsume(t *testing.T) {
	upgrader := websocket.Upgrader{}
	hold := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		<-hold
	}))
	defer server.Close()
	defer close(hold)
	wsURL := strings.Replace(server.URL, "http", "ws", 1)

	dialer := NewWebsocketDialer(wsURL, nil, nil)
	stream, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stream.Consume(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after cancellation")
	}
}
