package websocket

import (
	"errors"

	"github.com/pokecloud/trade-server/internal/pokemon"
)

var errSocketInactive = errors.New("socket is disconnected")

// conn adapts one socket into the emitter and sender shapes the trade
// coordinators consume. Emits on a dead socket report an error instead of
// being dropped silently, so the coordinators can react.
type conn struct {
	sd *SocketData
}

func newConn(sd *SocketData) *conn {
	return &conn{sd: sd}
}

// Emit sends a named event to the client.
func (c *conn) Emit(event string, args ...any) error {
	if !c.sd.active.Load() {
		return errSocketInactive
	}
	c.sd.Socket.Emit(event, args...)
	c.sd.touch()
	return nil
}

// Send delivers a traded Pokemon as a raw message event.
func (c *conn) Send(p pokemon.Pokemon, receivedFrom string) error {
	return c.Emit("message", p, receivedFrom)
}
