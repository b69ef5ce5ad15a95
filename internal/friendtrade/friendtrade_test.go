package friendtrade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pokecloud/trade-server/internal/pokemon"
)

type fakeEmitter struct {
	events []string
	args   [][]any
	err    error
}

func (f *fakeEmitter) Emit(event string, args ...any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.args = append(f.args, args)
	return nil
}

func mon(t *testing.T, species string) pokemon.Pokemon {
	t.Helper()
	p := pokemon.Pokemon{"species": species, "friendship": float64(100)}
	p["checksum"] = pokemon.CalculateChecksum(p)
	return p
}

func fixedCodes(codes ...string) func() string {
	i := 0
	return func() string {
		code := codes[i%len(codes)]
		i++
		return code
	}
}

// pair creates two cross-linked sessions and drives both through the
// friendFound notification into the resting state.
func pair(t *testing.T, c *Coordinator) (hostEmitter, guestEmitter *fakeEmitter) {
	t.Helper()
	hostEmitter = &fakeEmitter{}
	guestEmitter = &fakeEmitter{}

	code := c.CreateCode("host", "alice", false, hostEmitter)
	c.CheckCode("guest", "bob", code, false, guestEmitter)

	require.True(t, c.ProcessStates("host", hostEmitter))
	require.True(t, c.ProcessStates("guest", guestEmitter))
	require.Equal(t, []string{"createCode", "friendFound"}, hostEmitter.events)
	require.Equal(t, []string{"friendFound"}, guestEmitter.events)
	return hostEmitter, guestEmitter
}

func TestCreateCode_RegistersSession(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	emitter := &fakeEmitter{}

	code := c.CreateCode("host", "alice", true, emitter)

	require.Equal(t, "abcd1234", code)
	require.Equal(t, []string{"createCode"}, emitter.events)
	require.Equal(t, []any{"abcd1234"}, emitter.args[0])
	require.True(t, c.CodeInUse("abcd1234"))

	client := c.ClientData("host")
	require.NotNil(t, client)
	require.Equal(t, "alice", client.Username)
	require.True(t, client.Randomizer)
	require.Equal(t, StateInitial, client.State)
	require.Empty(t, client.Friend)
}

func TestCreateCode_RetriesOnCollision(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("aaaa0000", "aaaa0000", "bbbb1111")

	first := c.CreateCode("host", "alice", false, &fakeEmitter{})
	second := c.CreateCode("other", "bob", false, &fakeEmitter{})

	require.Equal(t, "aaaa0000", first)
	require.Equal(t, "bbbb1111", second)
}

func TestCheckCode_NotFound(t *testing.T) {
	c := NewCoordinator()
	emitter := &fakeEmitter{}

	c.CheckCode("guest", "bob", "nosuchcd", false, emitter)

	require.Equal(t, []string{"friendNotFound"}, emitter.events)
	require.Nil(t, c.ClientData("guest"))
}

func TestCheckCode_RejectsSelfTrade(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	c.CreateCode("host", "alice", false, &fakeEmitter{})

	emitter := &fakeEmitter{}
	c.CheckCode("tab2", "ALICE", "abcd1234", false, emitter)

	require.Equal(t, []string{"tradeWithSelf"}, emitter.events)
	require.Empty(t, c.ClientData("host").Friend)
	require.Nil(t, c.ClientData("tab2"))
}

func TestCheckCode_RejectsMismatchedRandomizer(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	c.CreateCode("host", "alice", true, &fakeEmitter{})

	emitter := &fakeEmitter{}
	c.CheckCode("guest", "bob", "abcd1234", false, emitter)

	require.Equal(t, []string{"mismatchedRandomizer"}, emitter.events)
	require.Empty(t, c.ClientData("host").Friend)
	require.Nil(t, c.ClientData("guest"))
}

func TestCheckCode_LinksBothSessions(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	c.CreateCode("host", "alice", false, &fakeEmitter{})

	c.CheckCode("guest", "bob", "abcd1234", false, &fakeEmitter{})

	host := c.ClientData("host")
	guest := c.ClientData("guest")
	require.Equal(t, "guest", host.Friend)
	require.Equal(t, "host", guest.Friend)
	require.Equal(t, StateConnected, host.State)
	require.Equal(t, StateConnected, guest.State)
	require.Equal(t, "abcd1234", guest.Code)
}

func TestProcessStates_NoFriendIsNoOp(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	c.CreateCode("host", "alice", false, &fakeEmitter{})

	emitter := &fakeEmitter{}
	require.True(t, c.ProcessStates("host", emitter))
	require.True(t, c.ProcessStates("missing", emitter))
	require.Empty(t, emitter.events)
}

func TestProcessStates_RelaysOfferOnce(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	hostEmitter, guestEmitter := pair(t, c)

	offered := mon(t, "SPECIES_PIKACHU")
	c.HandleOffer("host", offered, hostEmitter)

	require.True(t, c.ProcessStates("guest", guestEmitter))
	require.True(t, c.ProcessStates("guest", guestEmitter))

	require.Equal(t, []string{"friendFound", "tradeOffer"}, guestEmitter.events)
	require.Equal(t, []any{offered}, guestEmitter.args[1])
}

func TestProcessStates_RelaysOfferCancellation(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	hostEmitter, guestEmitter := pair(t, c)

	c.HandleOffer("host", mon(t, "SPECIES_PIKACHU"), hostEmitter)
	require.True(t, c.ProcessStates("guest", guestEmitter))

	c.HandleOffer("host", nil, hostEmitter)
	require.True(t, c.ProcessStates("guest", guestEmitter))

	require.Equal(t, []string{"friendFound", "tradeOffer", "tradeOffer"}, guestEmitter.events)
	require.Equal(t, []any{pokemon.Pokemon(nil)}, guestEmitter.args[2])
}

func TestHandleOffer_RejectsInvalidPokemon(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	hostEmitter, _ := pair(t, c)

	c.HandleOffer("host", pokemon.Pokemon{"levelCaught": float64(5)}, hostEmitter)

	require.Equal(t, "invalidPokemon", hostEmitter.events[len(hostEmitter.events)-1])
	require.False(t, c.ClientData("host").OfferSet)
}

func TestProcessStates_DeliversWhenBothAccept(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	hostEmitter, guestEmitter := pair(t, c)

	haunter := mon(t, "SPECIES_HAUNTER")
	eevee := mon(t, "SPECIES_EEVEE")
	c.HandleOffer("host", haunter, hostEmitter)
	c.HandleOffer("guest", eevee, guestEmitter)
	require.True(t, c.ProcessStates("host", hostEmitter))
	require.True(t, c.ProcessStates("guest", guestEmitter))

	c.Accept("host")
	require.True(t, c.ProcessStates("host", hostEmitter))
	require.Equal(t, StateNotifiedConnection, c.ClientData("host").State)

	c.Accept("guest")
	require.True(t, c.ProcessStates("guest", guestEmitter))
	require.Equal(t, StateAcceptedTrade, c.ClientData("host").State)
	require.Equal(t, StateAcceptedTrade, c.ClientData("guest").State)

	require.True(t, c.ProcessStates("host", hostEmitter))
	require.True(t, c.ProcessStates("guest", guestEmitter))
	require.Equal(t, StateEndingTrade, c.ClientData("host").State)
	require.Equal(t, StateEndingTrade, c.ClientData("guest").State)

	require.Equal(t, "acceptedTrade", hostEmitter.events[len(hostEmitter.events)-1])
	toHost := hostEmitter.args[len(hostEmitter.args)-1][0].(pokemon.Pokemon)
	require.Equal(t, "SPECIES_EEVEE", pokemon.GetSpecies(toHost))
	require.Equal(t, float64(70), toHost["friendship"])
	require.Equal(t, pokemon.CalculateChecksum(toHost), toHost["checksum"])

	// Haunter evolves on arrival, like any other trade.
	toGuest := guestEmitter.args[len(guestEmitter.args)-1][0].(pokemon.Pokemon)
	require.Equal(t, "SPECIES_GENGAR", pokemon.GetSpecies(toGuest))

	// Delivered copies leave the stored offers untouched.
	require.Equal(t, "SPECIES_HAUNTER", pokemon.GetSpecies(c.ClientData("host").OfferingPokemon))
}

func TestProcessStates_UnacceptHoldsTrade(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	hostEmitter, guestEmitter := pair(t, c)

	c.HandleOffer("host", mon(t, "SPECIES_PIKACHU"), hostEmitter)
	c.HandleOffer("guest", mon(t, "SPECIES_EEVEE"), guestEmitter)
	c.Accept("host")
	c.Unaccept("host")
	c.Accept("guest")

	require.True(t, c.ProcessStates("host", hostEmitter))
	require.True(t, c.ProcessStates("guest", guestEmitter))
	require.Equal(t, StateNotifiedConnection, c.ClientData("host").State)
	require.Equal(t, StateNotifiedConnection, c.ClientData("guest").State)
}

func TestTradeAgain_ResetsSession(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	hostEmitter, guestEmitter := pair(t, c)

	c.HandleOffer("host", mon(t, "SPECIES_PIKACHU"), hostEmitter)
	c.HandleOffer("guest", mon(t, "SPECIES_EEVEE"), guestEmitter)
	c.Accept("host")
	c.Accept("guest")
	require.True(t, c.ProcessStates("host", hostEmitter))
	require.True(t, c.ProcessStates("host", hostEmitter))
	require.Equal(t, StateEndingTrade, c.ClientData("host").State)

	c.TradeAgain("host")

	host := c.ClientData("host")
	require.Equal(t, StateNotifiedConnection, host.State)
	require.Nil(t, host.OfferingPokemon)
	require.False(t, host.OfferSet)
	require.False(t, host.AcceptedTrade)
	require.False(t, host.NotifiedFriendOfOffer)
	require.Equal(t, "guest", host.Friend)
}

func TestHandleDisconnect_PartnerIsNotified(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	_, guestEmitter := pair(t, c)

	c.HandleDisconnect("host")

	require.Nil(t, c.ClientData("host"))
	require.False(t, c.CodeInUse("abcd1234"))

	require.True(t, c.ProcessStates("guest", guestEmitter))
	require.Equal(t, "partnerDisconnected", guestEmitter.events[len(guestEmitter.events)-1])
}

func TestHandleDisconnect_UnknownClientIsNoOp(t *testing.T) {
	c := NewCoordinator()
	c.HandleDisconnect("missing")
}

func TestProcessStates_EmitFailureReportsInactive(t *testing.T) {
	c := NewCoordinator()
	c.genCode = fixedCodes("abcd1234")
	c.CreateCode("host", "alice", false, &fakeEmitter{})
	c.CheckCode("guest", "bob", "abcd1234", false, &fakeEmitter{})

	broken := &fakeEmitter{err: errors.New("socket closed")}
	require.False(t, c.ProcessStates("host", broken))
}
