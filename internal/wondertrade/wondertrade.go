package wondertrade

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pokecloud/trade-server/internal/logger"
	"github.com/pokecloud/trade-server/internal/pokemon"
	"github.com/pokecloud/trade-server/internal/tradeutil"
)

// SpeciesCooldown is how long the same sender/recipient pair must wait
// before trading the same species again. Stops two accounts from farming
// trade evolutions off each other.
const SpeciesCooldown = 5 * time.Minute

// Webhook message colors.
const (
	colorWaiting   = 0x00FF00
	colorCancelled = 0xFF0000
	colorTraded    = 0x0000FF
)

// DuplicateSessionError is emitted when an account tries to Wonder Trade
// from two connections at once.
const DuplicateSessionError = "Your account already has a Wonder Trade in progress!"

// Notifier is the outbound side channel announcing queue activity. It is
// best-effort: an empty handle means the announcement didn't go out, and
// the trade proceeds regardless.
type Notifier interface {
	SendOrUpdate(title string, color int, messageID string) string
}

// Emitter sends a named event back to the originating connection.
type Emitter interface {
	Emit(event string, args ...any) error
}

// Sender delivers a traded Pokemon to the client along with the partner's
// username.
type Sender interface {
	Send(p pokemon.Pokemon, receivedFrom string) error
}

// Client is one queued Wonder Trade session.
//
// Before a match, Pokemon and OriginalPokemon both hold the client's own
// offer. After a match, Pokemon holds what the client will receive while
// OriginalPokemon still holds what it gave away. TradedWith is set exactly
// once; it never returns to empty while the session lives.
type Client struct {
	Username        string
	Pokemon         pokemon.Pokemon
	OriginalPokemon pokemon.Pokemon
	TradedWith      string
	ReceivedFrom    string
	Randomizer      bool
	MessageID       string
}

// Coordinator matches anonymously queued sessions pairwise. One mutex
// guards the session map, the species cooldown table and the last-trade
// timestamp; every mutation happens under it.
type Coordinator struct {
	mu      sync.Mutex
	clients map[string]*Client

	// species is recipient -> sender -> species -> last trade time, all
	// usernames lowercased and species ids uppercased.
	species     map[string]map[string]map[string]time.Time
	lastTradeAt time.Time

	accounts tradeutil.AccountChecker
	notifier Notifier
	now      func() time.Time
}

// NewCoordinator creates an empty Wonder Trade coordinator.
func NewCoordinator(accounts tradeutil.AccountChecker, notifier Notifier) *Coordinator {
	return &Coordinator{
		clients:  make(map[string]*Client),
		species:  make(map[string]map[string]map[string]time.Time),
		accounts: accounts,
		notifier: notifier,
		now:      time.Now,
	}
}

// HandleTradeRequest processes one inbound Wonder Trade offer: rejects
// duplicate in-flight sessions for the same account, validates the Pokemon,
// then either matches against a waiting partner or joins the queue.
func (c *Coordinator) HandleTradeRequest(clientID, username string, p pokemon.Pokemon, randomizer bool, emitter Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if active := c.activeClientForLocked(clientID, username); active != "" {
		logger.Infof("[WT] %s has an active Wonder Trade elsewhere so rejecting this one", username)
		_ = emitter.Emit("invalidCloudDataSyncKey", DuplicateSessionError)
		return
	}

	if !pokemon.Validate(p, false, false) {
		logger.Infof("[WT] %s sent an invalid Pokemon for a Wonder Trade", clientID)
		_ = emitter.Emit("invalidPokemon")
		return
	}

	partners := c.validClientsForLocked(clientID, username, randomizer)
	if len(partners) > 0 {
		c.processMatchLocked(clientID, username, p, partners[0])
	} else {
		c.addToQueueLocked(clientID, username, p, randomizer)
	}
}

// ActiveClientFor returns the id of an unpaired session already held by the
// same identity (same client id, or same username ignoring case), or "".
// Callers reject the new request instead of overwriting the old session.
func (c *Coordinator) ActiveClientFor(clientID, username string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeClientForLocked(clientID, username)
}

func (c *Coordinator) activeClientForLocked(clientID, username string) string {
	if username == "" {
		return "" // Can't tell two anonymous sessions apart.
	}

	for otherID, other := range c.clients {
		if tradeutil.IsSameClient(clientID, otherID, username, other.Username) && other.TradedWith == "" {
			return otherID
		}
	}
	return ""
}

// AddToQueue enqueues a session. Returns false without side effects if the
// session id is already queued, so a resubmission neither duplicates the
// record nor requests a second notification.
func (c *Coordinator) AddToQueue(clientID, username string, p pokemon.Pokemon, randomizer bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addToQueueLocked(clientID, username, p, randomizer)
}

func (c *Coordinator) addToQueueLocked(clientID, username string, p pokemon.Pokemon, randomizer bool) bool {
	if _, ok := c.clients[clientID]; ok {
		return false
	}

	logger.Infof("[WT] %s is offering %s", clientID, pokemon.GetSpecies(p))
	messageID := c.notifier.SendOrUpdate("Someone is waiting for a Wonder Trade!", colorWaiting, "")
	c.clients[clientID] = &Client{
		Username:        username,
		Pokemon:         p,
		OriginalPokemon: p,
		Randomizer:      randomizer,
		MessageID:       messageID,
	}
	return true
}

// ValidClientsFor lists the queued sessions the given client may trade
// with. A banned caller gets an empty list but is still allowed to wait, so
// banned users don't just make a fresh account.
func (c *Coordinator) ValidClientsFor(clientID, username string, randomizer bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validClientsForLocked(clientID, username, randomizer)
}

func (c *Coordinator) validClientsForLocked(clientID, username string, randomizer bool) []string {
	var partners []string

	if c.accounts.IsUserBannedFromWonderTrade(username) {
		return partners
	}

	for otherID := range c.clients {
		if c.isValidPartnerLocked(clientID, otherID, username, randomizer) {
			partners = append(partners, otherID)
		}
	}
	return partners
}

func (c *Coordinator) isValidPartnerLocked(clientID, otherID, username string, randomizer bool) bool {
	other, ok := c.clients[otherID]
	if !ok {
		return false
	}
	if other.TradedWith != "" {
		return false
	}
	if !tradeutil.HasMatchingRandomizerSettings(randomizer, other.Randomizer) {
		return false
	}
	if tradeutil.IsSameClient(clientID, otherID, username, other.Username) {
		return false
	}
	if c.accounts.IsUserBannedFromWonderTrade(other.Username) {
		return false
	}
	return !c.hasRecentSpeciesTradeLocked(username, other.Username, pokemon.GetSpecies(other.Pokemon))
}

// ProcessMatch pairs the caller with a waiting partner. Both records are
// rewritten in the same locked section, so the pairing is always symmetric:
// the partner receives the caller's Pokemon and vice versa, and both sides
// point at each other.
func (c *Coordinator) ProcessMatch(clientID, username string, p pokemon.Pokemon, partnerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processMatchLocked(clientID, username, p, partnerID)
}

func (c *Coordinator) processMatchLocked(clientID, username string, p pokemon.Pokemon, partnerID string) bool {
	partner, ok := c.clients[partnerID]
	if !ok {
		logger.Warnf("[WT] No client data found for partner %s", partnerID)
		return false
	}

	partnerUsername := partner.Username
	partnerOffer := partner.OriginalPokemon

	// The partner keeps its own notification handle; the caller rides
	// along on the same announcement.
	partner.Pokemon = p
	partner.TradedWith = clientID
	partner.ReceivedFrom = username

	c.clients[clientID] = &Client{
		Username:        username,
		Pokemon:         partnerOffer,
		OriginalPokemon: p,
		TradedWith:      partnerID,
		ReceivedFrom:    partnerUsername,
		Randomizer:      partner.Randomizer,
		MessageID:       partner.MessageID,
	}

	c.addSpeciesEntryLocked(username, partnerUsername, pokemon.GetSpecies(partnerOffer))
	c.addSpeciesEntryLocked(partnerUsername, username, pokemon.GetSpecies(p))
	c.lastTradeAt = c.now()
	return true
}

// ProcessTransactions is the per-tick delivery step. Once the session has
// been matched, the received Pokemon is mutated for a non-friend trade and
// delivered exactly once; the session record is dropped after a successful
// delivery. Returns false when the transport failed and the connection
// should be marked inactive.
func (c *Coordinator) ProcessTransactions(clientID string, sender Sender) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok || client.TradedWith == "" {
		return true
	}

	received := client.Pokemon.Clone()
	pokemon.UpdateAfterNonFriendTrade(received, client.OriginalPokemon)

	if err := sender.Send(received, client.ReceivedFrom); err != nil {
		logger.Errorf("[WT] Delivery failed for %s: %v", clientID, err)
		return false
	}

	names := []string{
		pokemon.GetMonSpeciesName(client.OriginalPokemon),
		pokemon.GetMonSpeciesName(received),
	}
	sort.Strings(names)
	logger.Infof("[WT] %s received %s from %s", client.Username, pokemon.GetMonSpeciesName(received), client.ReceivedFrom)
	if client.MessageID != "" {
		c.notifier.SendOrUpdate(names[0]+" and "+names[1]+" were traded!", colorTraded, client.MessageID)
	}

	delete(c.clients, clientID)
	return true
}

// HandleDisconnect removes the session. If it was still waiting for a
// match, the queue announcement is updated to a cancellation first.
func (c *Coordinator) HandleDisconnect(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[clientID]
	if !ok {
		return
	}
	logger.Infof("[WT] %s disconnected", clientID)

	if client.TradedWith == "" {
		c.notifier.SendOrUpdate("The Wonder Trade was cancelled...", colorCancelled, client.MessageID)
	}
	delete(c.clients, clientID)
}

// HasRecentSpeciesTrade reports whether the recipient received this species
// from this sender within the cooldown window. Expired entries are pruned
// as they're found.
func (c *Coordinator) HasRecentSpeciesTrade(username, otherUsername, otherSpecies string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasRecentSpeciesTradeLocked(username, otherUsername, otherSpecies)
}

func (c *Coordinator) hasRecentSpeciesTradeLocked(username, otherUsername, otherSpecies string) bool {
	username = strings.ToLower(username)
	otherUsername = strings.ToLower(otherUsername)
	otherSpecies = strings.ToUpper(otherSpecies)

	if username == "" || otherUsername == "" || otherSpecies == "" {
		return false
	}

	bySender, ok := c.species[username]
	if !ok {
		return false
	}
	bySpecies, ok := bySender[otherUsername]
	if !ok {
		return false
	}
	lastReceivedAt, ok := bySpecies[otherSpecies]
	if !ok {
		return false
	}

	if c.now().Sub(lastReceivedAt) < SpeciesCooldown {
		return true
	}

	delete(bySpecies, otherSpecies)
	return false
}

// AddSpeciesEntry records that recipient just received species from sender.
func (c *Coordinator) AddSpeciesEntry(username, receivedFromUser, species string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addSpeciesEntryLocked(username, receivedFromUser, species)
}

func (c *Coordinator) addSpeciesEntryLocked(username, receivedFromUser, species string) {
	c.tryWipeSpeciesTableLocked()

	username = strings.ToLower(username)
	receivedFromUser = strings.ToLower(receivedFromUser)
	species = strings.ToUpper(species)

	if username == "" || receivedFromUser == "" || species == "" {
		return
	}

	if _, ok := c.species[username]; !ok {
		c.species[username] = make(map[string]map[string]time.Time)
	}
	if _, ok := c.species[username][receivedFromUser]; !ok {
		c.species[username][receivedFromUser] = make(map[string]time.Time)
	}
	c.species[username][receivedFromUser][species] = c.now()
}

// TryWipeSpeciesTable drops the whole cooldown table once everything in it
// has necessarily expired, instead of sweeping entry by entry.
func (c *Coordinator) TryWipeSpeciesTable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tryWipeSpeciesTableLocked()
}

func (c *Coordinator) tryWipeSpeciesTableLocked() {
	if c.lastTradeAt.IsZero() {
		return
	}
	if c.now().Sub(c.lastTradeAt) >= SpeciesCooldown {
		c.species = make(map[string]map[string]map[string]time.Time)
		c.lastTradeAt = time.Time{}
	}
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
