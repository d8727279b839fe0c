package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/mvillanueva/parokya/internal/model"
)

const (
	snapshotChunkSize = 50
	snapshotYield     = 5 * time.Millisecond
)

// SnapshotFunc supplies the current calendar for the initial sync of a new
// connection.
type SnapshotFunc func() ([]model.CalendarEvent, error)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. When snapshot is non-nil the new
// client first receives the current calendar as calendar_snapshot messages,
// sent in fixed-size chunks with a yield between chunks so one large
// calendar cannot monopolize the connection.
func HandleWebSocket(hub *Hub, snapshot SnapshotFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Public schedule; any origin may subscribe
		})
		if err != nil {
			log.Printf("websocket: accept: %v", err)
			return
		}

		client := NewClient(hub, conn)

		if snapshot != nil {
			go sendSnapshot(client, snapshot)
		}

		client.Run(r.Context())
	}
}

func sendSnapshot(c *Client, snapshot SnapshotFunc) {
	events, err := snapshot()
	if err != nil {
		log.Printf("websocket: snapshot: %v", err)
		return
	}

	for start := 0; start < len(events); start += snapshotChunkSize {
		end := start + snapshotChunkSize
		if end > len(events) {
			end = len(events)
		}

		msg := NewMessage("calendar", "snapshot", "", map[string]any{
			"events":    events[start:end],
			"remaining": len(events) - end,
		})
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("websocket: marshal snapshot: %v", err)
			return
		}
		if !c.Enqueue(data) {
			return
		}

		time.Sleep(snapshotYield)
	}
}
