package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// IssuanceEvent is broadcast to every connected client when a certificate is
// minted, real or simulated.
type IssuanceEvent struct {
	CertificateID string    `json:"certificate_id"`
	TokenID       uint64    `json:"token_id"`
	Simulated     bool      `json:"simulated"`
	IssuedAt      time.Time `json:"issued_at"`
}

var clients = make(map[*websocket.Conn]bool)
var clientsMu sync.RWMutex
var Register = make(chan *websocket.Conn)
var Unregister = make(chan *websocket.Conn)
var Broadcast = make(chan IssuanceEvent, 16)

func RunHub() {
	for {
		select {
		case conn := <-Register:
			clientsMu.Lock()
			clients[conn] = true
			clientsMu.Unlock()
			log.Printf("Event feed client connected (%d total)", clientCount())
		case conn := <-Unregister:
			clientsMu.Lock()
			delete(clients, conn)
			clientsMu.Unlock()
			log.Printf("Event feed client disconnected (%d total)", clientCount())
		case event := <-Broadcast:
			clientsMu.RLock()
			stale := make([]*websocket.Conn, 0)
			for conn := range clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending issuance event: %v", err)
					conn.Close()
					stale = append(stale, conn)
				}
			}
			clientsMu.RUnlock()

			if len(stale) > 0 {
				clientsMu.Lock()
				for _, conn := range stale {
					delete(clients, conn)
				}
				clientsMu.Unlock()
			}
		}
	}
}

// PublishIssued hands an event to the hub without blocking the mint path.
// Events are dropped when the hub is saturated or not running.
func PublishIssued(event IssuanceEvent) {
	select {
	case Broadcast <- event:
	default:
	}
}

// ServeWs keeps a client registered until its connection drops. Clients only
// listen; inbound frames are discarded.
func ServeWs(conn *websocket.Conn) {
	Register <- conn
	defer func() {
		Unregister <- conn
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func clientCount() int {
	clientsMu.RLock()
	defer clientsMu.RUnlock()
	return len(clients)
}
