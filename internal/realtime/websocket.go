package realtime

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Bridge streams hub changes to websocket clients as JSON text frames
type Bridge struct {
	hub      *Hub
	buffer   int
	upgrader websocket.Upgrader
}

// NewBridge creates a bridge whose clients queue at most buffer changes.
// A client that falls further behind misses notifications.
func NewBridge(hub *Hub, buffer int) *Bridge {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bridge{
		hub:    hub,
		buffer: buffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Serve upgrades the request and blocks until the client disconnects. The
// client is subscribed once per distinct table and only receives changes
// visible to viewer. Subscriptions are removed before Serve returns.
func (b *Bridge) Serve(w http.ResponseWriter, r *http.Request, tables []string, mask Event, viewer uuid.UUID, log *zap.Logger) error {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	queue := make(chan Change, b.buffer)
	handles := make([]Handle, 0, len(tables))
	seen := make(map[string]bool, len(tables))
	for _, table := range tables {
		if seen[table] {
			continue
		}
		seen[table] = true
		handles = append(handles, b.hub.Subscribe(table, mask, func(c Change) {
			if !c.VisibleTo(viewer) {
				return
			}
			select {
			case queue <- c:
			default:
				log.Debug("Dropping change for slow realtime client",
					zap.String("table", c.Table),
					zap.String("record_id", c.RecordID.String()))
			}
		}))
	}
	defer func() {
		for _, h := range handles {
			b.hub.Unsubscribe(h)
		}
	}()

	log.Info("Realtime client connected", zap.Strings("tables", tables), zap.String("events", mask.String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Info("Realtime client disconnected")
			return nil
		case <-r.Context().Done():
			return nil
		case c := <-queue:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				log.Warn("Realtime write failed", zap.Error(err))
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
