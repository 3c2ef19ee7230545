package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order/kds"
	"github.com/yeremiapane/table-order/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// tokens travel in the query string, so any origin holding one may connect
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// Stream upgrades to a websocket carrying one JSON message per order event.
// It runs behind AuthMiddleware and RequireCapability(orders:read).
func (kc *KDSController) Stream(c *gin.Context) {
	s := session.From(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kds.Serve(kc.Hub, ws, string(s.Role))
}
