package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/shopsphere-storefront/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10 // must stay under pongWait

	// Dashboards only send keepalives
	maxMessageSize = 4 * 1024
)

// Conn wraps a websocket connection
type Conn struct {
	*websocket.Conn
}

func (c *Conn) write(messageType int, payload []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(messageType, payload)
}

func (c *Conn) extendReadDeadline() {
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
}

// ReadPump consumes keepalives until the dashboard disconnects, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.extendReadDeadline()
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.extendReadDeadline()
		return nil
	})

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err == nil {
			c.Hub.HandleClientMessage(c, payload)
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			logger.Warn("Live feed read failed", map[string]interface{}{
				"session_id": c.SessionID,
				"error":      err.Error(),
			})
		}
		return
	}
}

// WritePump forwards hub events to the dashboard one frame each and pings
// on pingPeriod. It returns when Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				_ = c.Conn.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.write(websocket.TextMessage, payload); err != nil {
				logger.Warn("Live feed write failed", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
				return
			}

		case <-ticker.C:
			if err := c.Conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
