package server

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/hub"
)

const (
	wsWriteWait      = 5 * time.Second
	wsPongWait       = 60 * time.Second
	wsMaxMessageSize = 4 * 1024
)

// handleWS mirrors the SSE feed over a raw websocket. Same frames, but
// heartbeats become ping frames. Dashboards pick whichever transport suits.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return
	}

	sess, err := s.hub.Register()
	if err != nil {
		conn.Close()
		return
	}

	c := &wsClient{conn: conn, hub: s.hub, sess: sess, logger: s.logger}
	go c.writePump()
	go c.readPump()
}

type wsClient struct {
	conn   net.Conn
	hub    *hub.Hub
	sess   *hub.Session
	logger *zap.Logger
}

// readPump only polices the connection: pongs refresh the read deadline,
// anything else besides a clean close is ignored. The feed is one-way.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.Deregister(c.sess)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			return
		}
		if header.Length > wsMaxMessageSize {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			return
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return
		}
		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPong:
			c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		}
	}
}

func (c *wsClient) writePump() {
	for {
		select {
		case f := <-c.sess.Frames():
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			var err error
			if f.Heartbeat {
				err = wsutil.WriteServerMessage(c.conn, ws.OpPing, nil)
			} else {
				err = wsutil.WriteServerText(c.conn, f.Data)
			}
			if err != nil {
				c.hub.Deregister(c.sess)
				c.conn.Close()
				return
			}

		case <-c.sess.Done():
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.Write(ws.CompiledClose)
			c.conn.Close()
			return
		}
	}
}
