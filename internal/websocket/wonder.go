package websocket

import (
	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/pokecloud/trade-server/internal/pokemon"
)

// registerWonderTradeHandlers wires the Wonder Trade protocol onto a socket
// that declared tradeType WONDER_TRADE.
func (s *SocketIOServer) registerWonderTradeHandlers(client *socket.Socket, sd *SocketData) {
	client.On("message", func(data ...any) {
		sd.touch()

		randomizer := boolArg(data, 1)

		// Prevent Wonder Trade in multiple tabs at once
		if !s.checkSyncKey(sd, randomizer, "WT") {
			return
		}

		username, _ := sd.identity()
		s.wonder.HandleTradeRequest(sd.ClientID, username, pokemonArg(data, 0), randomizer, newConn(sd))
	})
}

func pokemonArg(data []any, i int) pokemon.Pokemon {
	if i >= len(data) {
		return nil
	}
	m, ok := data[i].(map[string]any)
	if !ok {
		return nil
	}
	return pokemon.Pokemon(m)
}
