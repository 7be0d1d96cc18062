package transport

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mcoot/quizarena/internal/model"
)

type clientKind string

const (
	kindWebSocket clientKind = "websocket"
	kindSSE       clientKind = "sse"
)

// Client is one live connection registered with the hub
type Client struct {
	id          model.ConnectionID
	kind        clientKind
	send        chan []byte
	connectedAt time.Time
	owner       model.UserID // guarded by Hub.mu
}

// ID returns the connection id
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// frame encodes an event for this client's wire format
func (c *Client) frame(event model.EventType, data []byte) []byte {
	if c.kind == kindSSE {
		return formatSSEMessage(string(event), string(data))
	}
	out, _ := json.Marshal(envelope{Event: event, Data: data})
	return out
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteString("\n")
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r", ""), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}
