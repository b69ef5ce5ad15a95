package friendtrade

import (
	"math/rand"
	"sync"

	"github.com/pokecloud/trade-server/internal/logger"
	"github.com/pokecloud/trade-server/internal/pokemon"
	"github.com/pokecloud/trade-server/internal/tradeutil"
)

// State is a session's position in the friend trade handshake.
type State int

const (
	// StateInitial means the code was created and nobody has claimed it.
	StateInitial State = iota
	// StateConnected means a partner claimed the code; the session hasn't
	// been told yet.
	StateConnected
	// StateNotifiedConnection is the resting state: offers and accept
	// flags are exchanged here.
	StateNotifiedConnection
	// StateAcceptedTrade means both sides accepted; the exchanged Pokemon
	// is about to be delivered.
	StateAcceptedTrade
	// StateEndingTrade means this session received its Pokemon. "Trade
	// again" resets back to StateNotifiedConnection.
	StateEndingTrade
)

const codeLength = 8

const codeCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// Emitter sends a named event back to the originating connection.
type Emitter interface {
	Emit(event string, args ...any) error
}

// Client is one friend trade session. The struct keeps a fixed shape across
// states; OfferSet distinguishes "no offer yet" from "offer explicitly
// cancelled" (a nil OfferingPokemon).
type Client struct {
	Username   string
	Code       string
	Friend     string
	Randomizer bool
	State      State

	OfferingPokemon       pokemon.Pokemon
	OfferSet              bool
	NotifiedFriendOfOffer bool
	AcceptedTrade         bool

	FriendPokemon  pokemon.Pokemon
	FriendUsername string
}

// Coordinator pairs two specific clients through a shared code and runs the
// handshake between them. One mutex guards the session map and the code
// registry; code registration and session deletion happen in the same
// locked section, so a disconnect can't leave a claimable ghost code.
type Coordinator struct {
	mu      sync.Mutex
	clients map[string]*Client
	codes   map[string]bool

	genCode func() string
}

// NewCoordinator creates an empty friend trade coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		clients: make(map[string]*Client),
		codes:   make(map[string]bool),
		genCode: randomCode,
	}
}

func randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeCharset[rand.Intn(len(codeCharset))]
	}
	return string(b)
}

// CreateCode starts a session: it generates a code no other session holds,
// sends it to the client and registers it. Returns the code.
func (c *Coordinator) CreateCode(clientID, username string, randomizer bool, emitter Emitter) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := c.genCode()
	for c.codes[code] {
		code = c.genCode()
	}

	_ = emitter.Emit("createCode", code)
	logger.Infof("[FT] %s has created code %q", clientID, code)

	c.clients[clientID] = &Client{
		Username:   username,
		Code:       code,
		Randomizer: randomizer,
		State:      StateInitial,
	}
	c.codes[code] = true
	return code
}

// CheckCode tries to claim a friend's code. On success both sessions move
// to StateConnected cross-linked to each other; the per-tick driver then
// notifies each side. Self-trades and mismatched randomizer settings are
// rejected without touching either session.
func (c *Coordinator) CheckCode(clientID, username, code string, randomizer bool, emitter Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger.Infof("[FT] %s is looking for code %q", clientID, code)

	for otherID, other := range c.clients {
		if other.Friend != "" || other.Code != code {
			continue
		}

		if tradeutil.IsSameClient(clientID, otherID, username, other.Username) {
			logger.Infof("[FT] %s tried to trade with themself", clientID)
			_ = emitter.Emit("tradeWithSelf")
			return
		}

		if !tradeutil.HasMatchingRandomizerSettings(randomizer, other.Randomizer) {
			logger.Infof("[FT] %s and %s don't match randomizer statuses", clientID, otherID)
			_ = emitter.Emit("mismatchedRandomizer")
			return
		}

		logger.Infof("[FT] %s has matched with %s", clientID, other.Username)
		c.clients[clientID] = &Client{
			Username:   username,
			Code:       code,
			Friend:     otherID,
			Randomizer: randomizer,
			State:      StateConnected,
		}
		other.Friend = clientID
		other.State = StateConnected
		return
	}

	logger.Infof("[FT] %s could not find partner", clientID)
	_ = emitter.Emit("friendNotFound")
}

// HandleOffer stores the session's trade offer. A nil Pokemon cancels the
// current offer. Clearing the relayed flag makes the driver re-notify the
// partner on its next tick.
func (c *Coordinator) HandleOffer(clientID string, p pokemon.Pokemon, emitter Emitter) {
	if !pokemon.Validate(p, true, false) {
		logger.Infof("[FT] %s sent an invalid Pokemon for a Friend Trade", clientID)
		_ = emitter.Emit("invalidPokemon")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok {
		logger.Errorf("[FT] %s not found in Friend Trade clients when handling offer", clientID)
		return
	}

	if p == nil {
		logger.Infof("[FT] %s cancelled the trade offer", clientID)
	} else {
		logger.Infof("[FT] %s is offering %s", clientID, pokemon.GetSpecies(p))
	}

	client.OfferingPokemon = p
	client.OfferSet = true
	client.NotifiedFriendOfOffer = false
}

// Accept marks the session as having accepted the trade.
func (c *Coordinator) Accept(clientID string) {
	c.setAccepted(clientID, true)
}

// Unaccept withdraws the session's acceptance.
func (c *Coordinator) Unaccept(clientID string) {
	c.setAccepted(clientID, false)
}

func (c *Coordinator) setAccepted(clientID string, accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[clientID]; ok {
		client.AcceptedTrade = accepted
	}
}

// TradeAgain resets the session for another round with the same partner.
// Each side calls it independently; they need not be synchronized.
func (c *Coordinator) TradeAgain(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok {
		logger.Errorf("[FT] %s not found in Friend Trade clients when handling tradeAgain", clientID)
		return
	}

	logger.Infof("[FT] %s wants to trade again", clientID)
	client.State = StateNotifiedConnection
	client.OfferingPokemon = nil
	client.OfferSet = false
	client.NotifiedFriendOfOffer = false
	client.AcceptedTrade = false
}

// HandleDisconnect removes the session and releases its code. The partner
// finds out on its next tick when the code is gone from the registry.
func (c *Coordinator) HandleDisconnect(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok {
		return
	}

	delete(c.codes, client.Code)
	delete(c.clients, clientID)
	logger.Infof("[FT] %s disconnected", clientID)
}

// ProcessStates advances the session's handshake by at most one step. Only
// sessions with a linked partner have anything to do. Returns false when an
// emit failed and the connection should be marked inactive.
func (c *Coordinator) ProcessStates(clientID string, emitter Emitter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok || client.Friend == "" {
		return true
	}

	switch client.State {
	case StateConnected:
		logger.Infof("[FT] %s has been notified of the friend connection", clientID)
		client.State = StateNotifiedConnection
		if err := emitter.Emit("friendFound"); err != nil {
			logger.Errorf("[FT] Socket emit failed for %s: %v", clientID, err)
			return false
		}

	case StateNotifiedConnection:
		return c.driveNotifiedLocked(clientID, client, emitter)

	case StateAcceptedTrade:
		received := client.FriendPokemon.Clone()
		if received != nil {
			pokemon.UpdateAfterFriendTrade(received, client.OfferingPokemon)
		}

		if err := emitter.Emit("acceptedTrade", received); err != nil {
			logger.Errorf("[FT] Socket emit failed for %s: %v", clientID, err)
			return false
		}
		client.State = StateEndingTrade
		logger.Infof("[FT] %s received %s from %s", clientID, pokemon.GetSpecies(received), client.FriendUsername)
	}

	return true
}

func (c *Coordinator) driveNotifiedLocked(clientID string, client *Client, emitter Emitter) bool {
	// The code leaves the registry only when a session holding it
	// disconnects, so its absence means the partner is gone.
	if !c.codes[client.Code] {
		if err := emitter.Emit("partnerDisconnected"); err != nil {
			logger.Errorf("[FT] Socket emit failed for %s: %v", clientID, err)
			return false
		}
		return true
	}

	friend, ok := c.clients[client.Friend]
	if !ok {
		return true
	}

	if client.AcceptedTrade && friend.AcceptedTrade {
		client.State = StateAcceptedTrade
		client.FriendPokemon = friend.OfferingPokemon
		client.FriendUsername = friend.Username
		friend.State = StateAcceptedTrade
		friend.FriendPokemon = client.OfferingPokemon
		friend.FriendUsername = client.Username
		return true
	}

	if friend.OfferSet && !friend.NotifiedFriendOfOffer {
		if friend.OfferingPokemon == nil {
			logger.Infof("[FT] %s has been notified of the trade offer cancellation", clientID)
		} else {
			logger.Infof("[FT] %s received offer for %s", clientID, pokemon.GetSpecies(friend.OfferingPokemon))
		}

		if err := emitter.Emit("tradeOffer", friend.OfferingPokemon); err != nil {
			logger.Errorf("[FT] Socket emit failed for %s: %v", clientID, err)
			return false
		}
		friend.NotifiedFriendOfOffer = true
	}

	return true
}

// ClientData returns a copy of a session record, or nil.
func (c *Coordinator) ClientData(clientID string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok {
		return nil
	}
	copied := *client
	return &copied
}

// CodeInUse reports whether a code is registered.
func (c *Coordinator) CodeInUse(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[code]
}
