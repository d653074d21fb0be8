package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(id string) *Connection {
	return &Connection{
		ID:   id,
		Send: make(chan []byte, 8),
	}
}

func drainEvents(t *testing.T, conn *Connection) []GameEvent {
	t.Helper()
	var events []GameEvent
	for {
		select {
		case data := <-conn.Send:
			var e GameEvent
			require.NoError(t, json.Unmarshal(data, &e))
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestBroadcastScopedToGame(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	connX := newTestConnection("x1")
	connY := newTestConnection("y1")
	h.register(connX)
	h.register(connY)
	h.Join(connX, "GAMEX")
	h.Join(connY, "GAMEY")

	h.deliver(broadcastMessage{gameID: "GAMEX", event: NewEvent("GAMEX", EventBuzzerLocked, nil)})

	xEvents := drainEvents(t, connX)
	require.Len(t, xEvents, 1)
	assert.Equal(t, EventBuzzerLocked, xEvents[0].Type)
	assert.Empty(t, drainEvents(t, connY))
}

func TestBroadcastReachesEveryGameConnection(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	conns := []*Connection{newTestConnection("a"), newTestConnection("b"), newTestConnection("c")}
	for _, c := range conns {
		h.register(c)
		h.Join(c, "GAME1")
	}

	h.deliver(broadcastMessage{gameID: "GAME1", event: NewEvent("GAME1", EventPlayerListUpdate, nil)})

	for _, c := range conns {
		assert.Len(t, drainEvents(t, c), 1)
	}
}

func TestSendToDeliversToSingleConnection(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	connA := newTestConnection("a")
	connB := newTestConnection("b")
	h.register(connA)
	h.register(connB)
	h.Join(connA, "GAME1")
	h.Join(connB, "GAME1")

	h.deliver(broadcastMessage{target: connA, event: NewEvent("GAME1", EventError, ErrorPayload{Message: "nope"})})

	aEvents := drainEvents(t, connA)
	require.Len(t, aEvents, 1)
	assert.Equal(t, EventError, aEvents[0].Type)
	assert.Empty(t, drainEvents(t, connB))
}

func TestBroadcastAllIgnoresGameBoundaries(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	connX := newTestConnection("x1")
	connY := newTestConnection("y1")
	connNone := newTestConnection("n1") // connected, joined nothing yet
	h.register(connX)
	h.register(connY)
	h.register(connNone)
	h.Join(connX, "GAMEX")
	h.Join(connY, "GAMEY")

	h.deliver(broadcastMessage{all: true, event: NewEvent("", EventError, ErrorPayload{Message: "maintenance"})})

	assert.Len(t, drainEvents(t, connX), 1)
	assert.Len(t, drainEvents(t, connY), 1)
	assert.Len(t, drainEvents(t, connNone), 1)
}

func TestSlowConnectionDroppedNotBlocking(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	slow := &Connection{ID: "slow", Send: make(chan []byte)} // no buffer, no reader
	ok := newTestConnection("ok")
	h.register(slow)
	h.register(ok)
	h.Join(slow, "GAME1")
	h.Join(ok, "GAME1")

	h.deliver(broadcastMessage{gameID: "GAME1", event: NewEvent("GAME1", EventBuzzerLocked, nil)})

	assert.Len(t, drainEvents(t, ok), 1)

	h.mu.RLock()
	_, stillRegistered := h.connections[slow]
	h.mu.RUnlock()
	assert.False(t, stillRegistered)
}

func TestJoinMovesConnectionBetweenGames(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	conn := newTestConnection("c1")
	h.register(conn)
	h.Join(conn, "GAME1")
	h.Join(conn, "GAME2")

	h.deliver(broadcastMessage{gameID: "GAME1", event: NewEvent("GAME1", EventBuzzerLocked, nil)})
	assert.Empty(t, drainEvents(t, conn))

	h.deliver(broadcastMessage{gameID: "GAME2", event: NewEvent("GAME2", EventBuzzerLocked, nil)})
	assert.Len(t, drainEvents(t, conn), 1)

	stats := h.Stats()
	assert.Equal(t, 1, stats["total_connections"])
	assert.Equal(t, 1, stats["active_games"])
}

func TestUnregisterEmptiesGamePool(t *testing.T) {
	h := NewHub(DefaultConnectionConfig())
	conn := newTestConnection("c1")
	h.register(conn)
	h.Join(conn, "GAME1")

	h.unregister(conn)

	stats := h.Stats()
	assert.Equal(t, 0, stats["total_connections"])
	assert.Equal(t, 0, stats["active_games"])

	// A second unregister for the same connection is a no-op.
	h.unregister(conn)
}
