package kds

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	clientBuffer   = 64
)

// Serve streams hub events to conn until either side goes away. It blocks.
func Serve(hub *Hub, conn *websocket.Conn, role string) {
	events, teardown := hub.Subscribe(clientBuffer)
	defer teardown()

	utils.InfoLogger.Printf("kds: %s client connected from %s (%d subscribers)", role, conn.RemoteAddr(), hub.Count())

	done := make(chan struct{})
	go func() {
		defer close(done)
		readPump(conn)
	}()

	writePump(conn, events, done)
	conn.Close()
	<-done

	utils.InfoLogger.Printf("kds: %s client disconnected", role)
}

// readPump only services control frames; clients never send commands here.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.ErrorLogger.Printf("kds: unexpected close: %v", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, events <-chan Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				utils.ErrorLogger.Printf("kds: marshal event: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
