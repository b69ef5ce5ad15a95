package websocket

import (
	socket "github.com/zishang520/socket.io/servers/socket/v3"
)

// registerFriendTradeHandlers wires the Friend Trade protocol onto a socket
// that declared tradeType FRIEND_TRADE.
func (s *SocketIOServer) registerFriendTradeHandlers(client *socket.Socket, sd *SocketData) {
	client.On("createCode", func(data ...any) {
		sd.touch()

		randomizer := boolArg(data, 0)
		if !s.checkSyncKey(sd, randomizer, "FT") {
			return
		}

		username, _ := sd.identity()
		s.friend.CreateCode(sd.ClientID, username, randomizer, newConn(sd))
	})

	client.On("checkCode", func(data ...any) {
		sd.touch()

		code, _ := stringArg(data, 0)
		randomizer := boolArg(data, 1)
		if !s.checkSyncKey(sd, randomizer, "FT") {
			return
		}

		username, _ := sd.identity()
		s.friend.CheckCode(sd.ClientID, username, code, randomizer, newConn(sd))
	})

	client.On("tradeOffer", func(data ...any) {
		sd.touch()
		s.friend.HandleOffer(sd.ClientID, pokemonArg(data, 0), newConn(sd))
	})

	client.On("acceptedTrade", func(...any) {
		sd.touch()
		s.friend.Accept(sd.ClientID)
	})

	client.On("cancelledTradeAcceptance", func(...any) {
		sd.touch()
		s.friend.Unaccept(sd.ClientID)
	})

	client.On("tradeAgain", func(...any) {
		sd.touch()
		s.friend.TradeAgain(sd.ClientID)
	})
}
