package services

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection and registers it with the
// coordinator. Identity arrives later over the socket itself.
func (c *Coordinator) HandleWebSocket(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Errorw("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		id:    uuid.NewString(),
		conn:  conn,
		coord: c,
		send:  make(chan []byte, 32),
	}
	c.register(client)
}
