package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// hub maintains the set of /v1/stream/hints subscribers and periodically
// broadcasts volume.EmitStreamingHints over every connected domain's
// volume set. Adapted from the teacher's websocket Hub: same
// connect/broadcast/disconnect shape, re-targeted from CoinJoin alerts to
// streaming-hint advisories.
type hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

func newHub() *hub {
	return &hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

func (h *hub) run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("stream/hints write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

func (h *hub) subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade stream/hints websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *hub) broadcastBytes(data []byte) {
	h.broadcast <- data
}

// runHintLoop periodically emits streaming hints for every registered
// volume and broadcasts them as JSON to every /v1/stream/hints client.
func runHintLoop(h *hub, r *registry, every time.Duration, budgetUnits uint32) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		volumes := r.allVolumes()
		if len(volumes) == 0 {
			continue
		}
		budget := volume.NewBudget(budgetUnits)
		hints := volume.EmitStreamingHints(volumes, budget)
		if len(hints) == 0 {
			continue
		}
		data, err := marshalHints(hints)
		if err != nil {
			log.Printf("marshaling stream hints: %v", err)
			continue
		}
		h.broadcastBytes(data)
	}
}
