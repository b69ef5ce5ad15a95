package wondertrade

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pokecloud/trade-server/internal/pokemon"
)

type fakeAccounts struct {
	banned map[string]bool
}

func (f fakeAccounts) GetCloudDataSyncKey(username string, randomizer bool) (string, error) {
	return "", nil
}

func (f fakeAccounts) IsUserBannedFromWonderTrade(username string) bool {
	return f.banned[username]
}

type fakeNotifier struct {
	calls []notifyCall
	next  string
}

type notifyCall struct {
	title     string
	color     int
	messageID string
}

func (f *fakeNotifier) SendOrUpdate(title string, color int, messageID string) string {
	f.calls = append(f.calls, notifyCall{title: title, color: color, messageID: messageID})
	if f.next != "" {
		return f.next
	}
	return messageID
}

type fakeEmitter struct {
	events []string
	args   [][]any
}

func (f *fakeEmitter) Emit(event string, args ...any) error {
	f.events = append(f.events, event)
	f.args = append(f.args, args)
	return nil
}

type fakeSender struct {
	sent []pokemon.Pokemon
	from []string
	err  error
}

func (f *fakeSender) Send(p pokemon.Pokemon, receivedFrom string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, p)
	f.from = append(f.from, receivedFrom)
	return nil
}

func mon(t *testing.T, species string) pokemon.Pokemon {
	t.Helper()
	p := pokemon.Pokemon{"species": species, "friendship": float64(100)}
	p["checksum"] = pokemon.CalculateChecksum(p)
	return p
}

func newTestCoordinator(banned map[string]bool) (*Coordinator, *fakeNotifier, *time.Time) {
	notifier := &fakeNotifier{next: "msg-1"}
	c := NewCoordinator(fakeAccounts{banned: banned}, notifier)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, notifier, &now
}

func TestAddToQueue_Idempotent(t *testing.T) {
	c, notifier, _ := newTestCoordinator(nil)

	require.True(t, c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false))
	require.False(t, c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false))

	require.Len(t, notifier.calls, 1)
	require.Equal(t, "Someone is waiting for a Wonder Trade!", notifier.calls[0].title)
	require.Equal(t, "msg-1", c.ClientData("c1").MessageID)
}

func TestActiveClientFor_PreventsDoubleSession(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)

	// Same username from another tab, case-insensitively.
	require.Equal(t, "c1", c.ActiveClientFor("c2", "ALICE"))
	// A different user is unaffected.
	require.Equal(t, "", c.ActiveClientFor("c2", "bob"))
	// Anonymous sessions can't be correlated.
	require.Equal(t, "", c.ActiveClientFor("c2", ""))
}

func TestHandleTradeRequest_RejectsDuplicateSession(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)

	emitter := &fakeEmitter{}
	c.HandleTradeRequest("c2", "alice", mon(t, "SPECIES_EEVEE"), false, emitter)

	require.Equal(t, []string{"invalidCloudDataSyncKey"}, emitter.events)
	require.Equal(t, DuplicateSessionError, emitter.args[0][0])
	require.Nil(t, c.ClientData("c2"))
}

func TestHandleTradeRequest_RejectsInvalidPokemon(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)

	emitter := &fakeEmitter{}
	c.HandleTradeRequest("c1", "alice", pokemon.Pokemon{"species": "SPECIES_MEW"}, false, emitter)

	require.Equal(t, []string{"invalidPokemon"}, emitter.events)
	require.Nil(t, c.ClientData("c1"))
}

func TestValidClientsFor(t *testing.T) {
	c, _, _ := newTestCoordinator(map[string]bool{"mallory": true})
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)
	c.AddToQueue("c2", "bob", mon(t, "SPECIES_EEVEE"), true)
	c.AddToQueue("c3", "mallory", mon(t, "SPECIES_MEWTWO"), false)

	// Matching randomizer flag, distinct user, not banned.
	require.Equal(t, []string{"c1"}, c.ValidClientsFor("c9", "carol", false))
	// Randomizer saves only match randomizer saves.
	require.Equal(t, []string{"c2"}, c.ValidClientsFor("c9", "carol", true))
	// Own session is never a candidate.
	require.Empty(t, c.ValidClientsFor("c1", "alice", false))
	// A banned caller gets no candidates at all.
	require.Empty(t, c.ValidClientsFor("c9", "mallory", false))
}

func TestValidClientsFor_SkipsRecentSpeciesTrade(t *testing.T) {
	c, _, nowPtr := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)
	c.AddSpeciesEntry("bob", "alice", "SPECIES_PIKACHU")

	require.Empty(t, c.ValidClientsFor("c2", "bob", false))

	// The pair may trade that species again once the cooldown lapses.
	*nowPtr = nowPtr.Add(SpeciesCooldown)
	require.Equal(t, []string{"c1"}, c.ValidClientsFor("c2", "bob", false))
}

func TestProcessMatch_SymmetricPairing(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	offerA := mon(t, "SPECIES_PIKACHU")
	offerB := mon(t, "SPECIES_EEVEE")
	c.AddToQueue("c1", "alice", offerA, false)

	require.True(t, c.ProcessMatch("c2", "bob", offerB, "c1"))

	a := c.ClientData("c1")
	b := c.ClientData("c2")
	require.Equal(t, "c2", a.TradedWith)
	require.Equal(t, "c1", b.TradedWith)
	require.Equal(t, "bob", a.ReceivedFrom)
	require.Equal(t, "alice", b.ReceivedFrom)
	// Each side now holds the other's offer, keeping its own as a record.
	require.Equal(t, "SPECIES_EEVEE", a.Pokemon["species"])
	require.Equal(t, "SPECIES_PIKACHU", a.OriginalPokemon["species"])
	require.Equal(t, "SPECIES_PIKACHU", b.Pokemon["species"])
	require.Equal(t, "SPECIES_EEVEE", b.OriginalPokemon["species"])
	// The matcher rides on the enqueuer's notification handle.
	require.Equal(t, a.MessageID, b.MessageID)

	// Cooldown entries exist in both directions.
	require.True(t, c.HasRecentSpeciesTrade("alice", "bob", "SPECIES_EEVEE"))
	require.True(t, c.HasRecentSpeciesTrade("bob", "alice", "SPECIES_PIKACHU"))
}

func TestProcessMatch_MissingPartner(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	require.False(t, c.ProcessMatch("c1", "alice", mon(t, "SPECIES_PIKACHU"), "ghost"))
}

func TestHandleTradeRequest_MatchesWaitingPartner(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	emitter := &fakeEmitter{}

	c.HandleTradeRequest("c1", "alice", mon(t, "SPECIES_PIKACHU"), false, emitter)
	require.Empty(t, emitter.events)
	require.Equal(t, "", c.ClientData("c1").TradedWith)

	c.HandleTradeRequest("c2", "bob", mon(t, "SPECIES_EEVEE"), false, emitter)
	require.Empty(t, emitter.events)
	require.Equal(t, "c2", c.ClientData("c1").TradedWith)
	require.Equal(t, "c1", c.ClientData("c2").TradedWith)
}

func TestHasRecentSpeciesTrade_Expiry(t *testing.T) {
	c, _, nowPtr := newTestCoordinator(nil)
	c.AddSpeciesEntry("Bob", "Alice", "species_pikachu")

	// Normalized to lowercase users and uppercase species.
	require.True(t, c.HasRecentSpeciesTrade("BOB", "alice", "SPECIES_PIKACHU"))

	*nowPtr = nowPtr.Add(SpeciesCooldown - time.Second)
	require.True(t, c.HasRecentSpeciesTrade("bob", "alice", "SPECIES_PIKACHU"))

	// Exactly at the window boundary the entry has expired.
	*nowPtr = nowPtr.Add(time.Second)
	require.False(t, c.HasRecentSpeciesTrade("bob", "alice", "SPECIES_PIKACHU"))
	// The lookup pruned the stale entry for good.
	require.False(t, c.HasRecentSpeciesTrade("bob", "alice", "SPECIES_PIKACHU"))
}

func TestTryWipeSpeciesTable(t *testing.T) {
	c, _, nowPtr := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)
	c.ProcessMatch("c2", "bob", mon(t, "SPECIES_EEVEE"), "c1")

	// Before the window the table survives a wipe attempt.
	c.TryWipeSpeciesTable()
	require.True(t, c.HasRecentSpeciesTrade("bob", "alice", "SPECIES_PIKACHU"))

	*nowPtr = nowPtr.Add(SpeciesCooldown)
	c.TryWipeSpeciesTable()
	require.False(t, c.HasRecentSpeciesTrade("bob", "alice", "SPECIES_PIKACHU"))
}

func TestProcessTransactions_DeliversExactlyOnce(t *testing.T) {
	c, notifier, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_HAUNTER"), false)
	c.ProcessMatch("c2", "bob", mon(t, "SPECIES_EEVEE"), "c1")

	sender := &fakeSender{}
	require.True(t, c.ProcessTransactions("c1", sender))

	require.Len(t, sender.sent, 1)
	require.Equal(t, "bob", sender.from[0])
	received := sender.sent[0]
	// Non-friend mutation ran: Eevee's base friendship, valid checksum.
	require.Equal(t, float64(70), received["friendship"])
	require.True(t, pokemon.Validate(received, false, false))

	// Record is gone after delivery; a later tick is a no-op.
	require.Nil(t, c.ClientData("c1"))
	require.True(t, c.ProcessTransactions("c1", sender))
	require.Len(t, sender.sent, 1)

	last := notifier.calls[len(notifier.calls)-1]
	require.Contains(t, last.title, "were traded!")
	require.Equal(t, "msg-1", last.messageID)
}

func TestProcessTransactions_AppliesTradeEvolution(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_EEVEE"), false)
	// Bob offers a Haunter; Alice receives it evolved.
	c.ProcessMatch("c2", "bob", mon(t, "SPECIES_HAUNTER"), "c1")

	sender := &fakeSender{}
	require.True(t, c.ProcessTransactions("c1", sender))
	require.Equal(t, "SPECIES_GENGAR", sender.sent[0]["species"])
}

func TestProcessTransactions_UnmatchedIsNoop(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)

	sender := &fakeSender{}
	require.True(t, c.ProcessTransactions("c1", sender))
	require.Empty(t, sender.sent)
	require.NotNil(t, c.ClientData("c1"))
}

func TestProcessTransactions_TransportFailure(t *testing.T) {
	c, _, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)
	c.ProcessMatch("c2", "bob", mon(t, "SPECIES_EEVEE"), "c1")

	sender := &fakeSender{err: errors.New("connection reset")}
	require.False(t, c.ProcessTransactions("c1", sender))

	// No rollback: the session stays matched and is cleaned up on
	// disconnect.
	require.Equal(t, "c2", c.ClientData("c1").TradedWith)
}

func TestHandleDisconnect(t *testing.T) {
	c, notifier, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)

	c.HandleDisconnect("c1")
	require.Nil(t, c.ClientData("c1"))

	last := notifier.calls[len(notifier.calls)-1]
	require.Equal(t, "The Wonder Trade was cancelled...", last.title)
	require.Equal(t, "msg-1", last.messageID)

	// Unknown sessions are ignored.
	c.HandleDisconnect("ghost")
}

func TestHandleDisconnect_AfterMatchSkipsCancellation(t *testing.T) {
	c, notifier, _ := newTestCoordinator(nil)
	c.AddToQueue("c1", "alice", mon(t, "SPECIES_PIKACHU"), false)
	c.ProcessMatch("c2", "bob", mon(t, "SPECIES_EEVEE"), "c1")

	before := len(notifier.calls)
	c.HandleDisconnect("c1")
	require.Nil(t, c.ClientData("c1"))
	require.Len(t, notifier.calls, before)
}
