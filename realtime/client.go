// file: realtime/client.go

package realtime

import (
	"sync"
	"time"

	"noxa-api/logger"
	"noxa-api/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ConnState is the lifecycle of one socket.
type ConnState string

const (
	StateConnecting    ConnState = "connecting"
	StateAuthenticated ConnState = "authenticated"
	StateAnonymous     ConnState = "anonymous"
	StateClosed        ConnState = "closed"
)

const maxMessageSize = 4 << 10

// Client is one websocket connection. It starts Connecting and is bound to a principal, or to
// nobody, exactly once before it joins the hub.
type Client struct {
	id          string
	principalID string
	state       ConnState
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once

	pingInterval time.Duration
	writeTimeout time.Duration
}

func newClient(conn *websocket.Conn, opts GatewayOptions) *Client {
	return &Client{
		id:           uuid.NewString(),
		state:        StateConnecting,
		conn:         conn,
		send:         make(chan []byte, opts.SendBuffer),
		done:         make(chan struct{}),
		pingInterval: opts.PingInterval,
		writeTimeout: opts.WriteTimeout,
	}
}

// bind fixes the principal of a Connecting client. Later calls are ignored.
func (c *Client) bind(principalID string) {
	if c.state != StateConnecting {
		return
	}
	c.principalID = principalID
	if principalID != "" {
		c.state = StateAuthenticated
	} else {
		c.state = StateAnonymous
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) PrincipalID() string { return c.principalID }

func (c *Client) State() ConnState {
	select {
	case <-c.done:
		return StateClosed
	default:
		return c.state
	}
}

func (c *Client) log() *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"client_id":    c.id,
		"principal_id": c.principalID,
	})
}

// enqueue never blocks. A full buffer drops the frame for this client only.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.RealtimeDropped.Inc()
		c.log().Warn("Client send buffer full, dropping message")
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(c.writeTimeout))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log().WithError(err).Debug("Websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; clients never send application messages.
func (c *Client) readPump(hub *Hub) {
	defer hub.Unregister(c)

	pongWait := c.pingInterval * 2
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log().WithError(err).Debug("Websocket closed unexpectedly")
			}
			return
		}
	}
}
