package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type echoServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []string
}

func newEchoServer(t *testing.T) *echoServer {
	t.Helper()
	es := &echoServer{}
	es.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		es.mu.Lock()
		es.conns = append(es.conns, conn)
		es.mu.Unlock()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			es.mu.Lock()
			es.received = append(es.received, string(data))
			es.mu.Unlock()
		}
	}))
	t.Cleanup(es.srv.Close)
	return es
}

func (es *echoServer) url() string {
	return "ws" + strings.TrimPrefix(es.srv.URL, "http")
}

func (es *echoServer) push(t *testing.T, text string) {
	t.Helper()
	es.mu.Lock()
	defer es.mu.Unlock()
	require.NotEmpty(t, es.conns, "no device connected")
	conn := es.conns[len(es.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

func (es *echoServer) gotFrames() []string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return append([]string(nil), es.received...)
}

func (es *echoServer) dropConns() {
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, c := range es.conns {
		_ = c.Close()
	}
	es.conns = nil
}

func (es *echoServer) connCount() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.conns)
}

func TestClientReceivesFrames(t *testing.T) {
	es := newEchoServer(t)

	var mu sync.Mutex
	var got []string
	connected := make(chan struct{}, 4)

	client := New(Options{
		URL:    es.url(),
		Logger: zerolog.Nop(),
		OnMessage: func(text string) {
			mu.Lock()
			got = append(got, text)
			mu.Unlock()
		},
		OnConnect: func() { connected <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("client never connected")
	}

	es.push(t, `{"topic":"ui/layout","payload":[]}`)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, `{"topic":"ui/layout","payload":[]}`, got[0])
	mu.Unlock()
}

func TestClientSend(t *testing.T) {
	es := newEchoServer(t)
	connected := make(chan struct{}, 4)

	client := New(Options{
		URL:       es.url(),
		Logger:    zerolog.Nop(),
		OnConnect: func() { connected <- struct{}{} },
	})

	// Sends while disconnected are dropped with an error, never queued.
	err := client.Send("too early")
	assert.ErrorIs(t, err, ErrDisconnected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("client never connected")
	}

	require.NoError(t, client.Send(`{"topic":"ui/click"}`))
	require.Eventually(t, func() bool {
		return len(es.gotFrames()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, `{"topic":"ui/click"}`, es.gotFrames()[0])
	assert.True(t, client.Connected())
}

func TestClientPingsAndSendsShareOneWriter(t *testing.T) {
	es := newEchoServer(t)
	connected := make(chan struct{}, 4)

	client := New(Options{
		URL:       es.url(),
		Logger:    zerolog.Nop(),
		OnConnect: func() { connected <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("client never connected")
	}

	client.mu.Lock()
	conn := client.conn
	client.mu.Unlock()
	require.NotNil(t, conn)

	// Interleave keepalive pings with uplink frames. The race detector
	// flags this if the two paths ever write the connection concurrently.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, client.writePing(conn))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, client.Send(`{"topic":"telemetry/heartbeat","payload":{}}`))
		}
	}()
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(es.gotFrames()) == 50
	}, 3*time.Second, 10*time.Millisecond)

	// A ping aimed at a torn-down connection is dropped, not written.
	client.Close()
	assert.ErrorIs(t, client.writePing(conn), ErrDisconnected)
}

func TestClientReconnects(t *testing.T) {
	es := newEchoServer(t)
	connected := make(chan struct{}, 4)

	client := New(Options{
		URL:               es.url(),
		ReconnectInterval: 50 * time.Millisecond,
		Logger:            zerolog.Nop(),
		OnConnect:         func() { connected <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("first connect timed out")
	}

	es.dropConns()

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("client did not reconnect")
	}
	require.Eventually(t, func() bool { return es.connCount() >= 1 }, 3*time.Second, 10*time.Millisecond)
}
