package live

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the page and the API share an origin in every deployment we run
	},
}

// WSHandler upgrades the request and keeps the socket registered until the
// client goes away. Incoming messages are ignored.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Debug("ws upgrade failed", zap.Error(err))
			return
		}

		if !hub.AddWS(ws) {
			hub.log.Debug("ws client gone before welcome", zap.String("remote", c.Request.RemoteAddr))
			return
		}
		hub.log.Debug("ws client connected", zap.String("remote", c.Request.RemoteAddr))

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		hub.log.Debug("ws client disconnected", zap.String("remote", c.Request.RemoteAddr))
	}
}
