package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/pokecloud/trade-server/internal/logger"
	"github.com/pokecloud/trade-server/internal/tradeutil"
)

const (
	// driverInterval is how often each connection's trade state advances.
	driverInterval = 1 * time.Second

	// socketActivityTimeout disconnects sockets that produced no traffic
	// for this long.
	socketActivityTimeout = 2 * time.Minute
)

// Trade type constants
const (
	TradeTypeWonderTrade = "WONDER_TRADE"
	TradeTypeFriendTrade = "FRIEND_TRADE"
)

// SocketData stores per-connection state for each socket.
type SocketData struct {
	ClientID string
	Socket   *socket.Socket

	mu       sync.Mutex
	username string
	syncKey  string

	active       atomic.Bool
	lastActivity atomic.Int64
	cancel       context.CancelFunc
}

func (sd *SocketData) touch() {
	sd.lastActivity.Store(time.Now().UnixMilli())
}

func (sd *SocketData) setInactive() {
	sd.active.Store(false)
	if sd.cancel != nil {
		sd.cancel()
	}
}

func (sd *SocketData) setIdentity(username, syncKey string) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	sd.username = username
	sd.syncKey = syncKey
}

func (sd *SocketData) identity() (username, syncKey string) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.username, sd.syncKey
}

// clientName is the label used in logs: the username when one was provided,
// the socket id otherwise.
func (sd *SocketData) clientName() string {
	username, _ := sd.identity()
	if username != "" {
		return username
	}
	return sd.ClientID
}

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	clientID := string(client.Id())

	sd := &SocketData{
		ClientID: clientID,
		Socket:   client,
	}
	sd.active.Store(true)
	sd.touch()

	ctx, cancel := context.WithCancel(context.Background())
	sd.cancel = cancel
	s.socketData.Store(clientID, sd)

	logger.Infof("Client %s connected", clientID)

	// Application-level keepalive on top of the protocol's own ping.
	client.On("ping", func(...any) {
		sd.touch()
		_ = newConn(sd).Emit("pong")
	})

	client.On("disconnect", func(data ...any) {
		reason := ""
		if len(data) > 0 {
			if r, ok := data[0].(string); ok {
				reason = r
			}
		}
		logger.Infof("Client %s disconnected: %s", sd.clientName(), reason)

		sd.setInactive()
		s.wonder.HandleDisconnect(clientID)
		s.friend.HandleDisconnect(clientID)
		s.socketData.Delete(clientID)
	})

	client.On("tradeType", func(data ...any) {
		sd.touch()

		tradeType, _ := stringArg(data, 0)
		username, _ := stringArg(data, 1)
		syncKey, _ := stringArg(data, 2)
		sd.setIdentity(username, syncKey)

		switch tradeType {
		case TradeTypeWonderTrade:
			logger.Infof("[WT] %s (%s) wants a Wonder Trade", clientID, username)
			s.registerWonderTradeHandlers(client, sd)
		case TradeTypeFriendTrade:
			logger.Infof("[FT] %s (%s) wants a Friend Trade", clientID, username)
			s.registerFriendTradeHandlers(client, sd)
		default:
			logger.Errorf("Invalid trade type received from %s: %q", sd.clientName(), tradeType)
			// Repurpose invalidCloudDataSyncKey to display the error for the user
			_ = newConn(sd).Emit("invalidCloudDataSyncKey", "Trade type not recognized!")
		}
	})

	go s.runClientLoop(ctx, sd)
}

// runClientLoop drives the connection's trade state once per tick until the
// socket goes away.
func (s *SocketIOServer) runClientLoop(ctx context.Context, sd *SocketData) {
	ticker := time.NewTicker(driverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !sd.active.Load() {
			return
		}

		idle := time.Since(time.UnixMilli(sd.lastActivity.Load()))
		if idle > socketActivityTimeout {
			logger.Warnf("Socket timeout for %s (%s idle), terminating connection", sd.clientName(), idle)
			sd.setInactive()
			sd.Socket.Disconnect(true)
			return
		}

		c := newConn(sd)
		if !s.wonder.ProcessTransactions(sd.ClientID, c) {
			sd.setInactive()
			return
		}
		if !s.friend.ProcessStates(sd.ClientID, c) {
			sd.setInactive()
			return
		}
	}
}

// checkSyncKey enforces the single-tab rule before any trade request is
// honored. Emits the rejection reason to the client when the check fails.
func (s *SocketIOServer) checkSyncKey(sd *SocketData, randomizer bool, tag string) bool {
	username, syncKey := sd.identity()
	ok, reason := tradeutil.SyncKeyValidForTrade(s.accounts, username, syncKey, randomizer, s.enforceUsernames)
	if ok {
		return true
	}

	logger.Infof("[%s] Rejecting trade request from %s: %s", tag, sd.clientName(), reason)
	_ = newConn(sd).Emit("invalidCloudDataSyncKey", reason)
	return false
}

func stringArg(data []any, i int) (string, bool) {
	if i >= len(data) {
		return "", false
	}
	v, ok := data[i].(string)
	return v, ok
}

func boolArg(data []any, i int) bool {
	if i >= len(data) {
		return false
	}
	switch v := data[i].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	return false
}
