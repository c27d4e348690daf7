package services

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 10 * time.Second
	wsPingEvery    = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
)

// wsConn is the part of *websocket.Conn the hub uses.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
}

// WSClient owns one notification socket. The socket is only valid until
// release: the handler that accepted it hands the conn back to a pool when it
// returns.
type WSClient struct {
	id   string
	conn wsConn
	send chan []byte
	done chan struct{}

	mu       sync.Mutex
	closed   bool
	released bool
}

func newWSClient(id string, conn wsConn) *WSClient {
	return &WSClient{
		id:   id,
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
}

func (c *WSClient) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// close ends the client: the write loop sends a close frame and the read
// pump is interrupted. It never touches a released conn.
func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	if !c.released {
		_ = c.conn.SetReadDeadline(time.Now())
	}
}

// extendRead pushes the read deadline out, unless the client was closed in
// the meantime.
func (c *WSClient) extendRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = c.conn.SetReadDeadline(time.Now())
		return
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
}

// serve runs the socket until the peer goes away or the client is closed. It
// returns only once the write loop has stopped, so the caller may hand the
// conn back afterwards.
func (c *WSClient) serve(onDone func()) {
	go c.writeLoop()
	c.readPump(onDone)

	c.close()
	<-c.done

	c.mu.Lock()
	c.released = true
	c.mu.Unlock()
}

func (c *WSClient) writeLoop() {
	defer close(c.done)
	defer c.close()

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; browsers never send data.
func (c *WSClient) readPump(onDone func()) {
	defer onDone()
	c.conn.SetReadLimit(1 << 20)
	c.extendRead()
	c.conn.SetPongHandler(func(string) error {
		c.extendRead()
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
