package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/pokecloud/trade-server/internal/friendtrade"
	"github.com/pokecloud/trade-server/internal/logger"
	"github.com/pokecloud/trade-server/internal/tradeutil"
	"github.com/pokecloud/trade-server/internal/wondertrade"
)

// SocketIOServer wraps the Socket.IO server and fans connections out to the
// two trade coordinators.
type SocketIOServer struct {
	server     *socket.Server
	socketData sync.Map // Maps socket ID to connection data

	accounts         tradeutil.AccountChecker
	wonder           *wondertrade.Coordinator
	friend           *friendtrade.Coordinator
	enforceUsernames bool
}

// NewSocketIOServer creates a new Socket.IO server for trading.
func NewSocketIOServer(accounts tradeutil.AccountChecker, wonder *wondertrade.Coordinator, friend *friendtrade.Coordinator, enforceUsernames bool) *SocketIOServer {
	// Create default server options
	opts := socket.DefaultServerOptions()

	// Configure CORS
	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})

	// SocketIOPingInterval defines how frequently the server pings clients
	// to detect stale/disconnected sockets.
	const SocketIOPingInterval = 25 * time.Second

	// SocketIOPingTimeout defines how long the server waits before
	// considering a socket dead (no pong received).
	const SocketIOPingTimeout = 60 * time.Second

	opts.SetPingTimeout(SocketIOPingTimeout)
	opts.SetPingInterval(SocketIOPingInterval)

	// Create Socket.IO server with options
	server := socket.NewServer(nil, opts)

	s := &SocketIOServer{
		server:           server,
		socketData:       sync.Map{},
		accounts:         accounts,
		wonder:           wonder,
		friend:           friend,
		enforceUsernames: enforceUsernames,
	}

	// Set up event handlers
	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})

	return s
}

// HandleSocketIO creates a Gin handler for Socket.IO
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	// Get the HTTP handler from Socket.IO server
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight
		if c.Request.Method == "OPTIONS" {
			c.Status(http.StatusOK)
			return
		}

		logger.Debugf("Socket.IO request: %s %s", c.Request.Method, c.Request.URL.Path)

		// Serve Socket.IO
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close drops every live connection and shuts down the Socket.IO server
func (s *SocketIOServer) Close() error {
	s.socketData.Range(func(_, value any) bool {
		if sd, ok := value.(*SocketData); ok {
			sd.setInactive()
			sd.Socket.Disconnect(true)
		}
		return true
	})
	s.server.Close(nil)
	return nil
}
