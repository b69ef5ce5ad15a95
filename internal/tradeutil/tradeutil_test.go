package tradeutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	getSyncKey func(username string, randomizer bool) (string, error)
	isBanned   func(username string) bool
}

func (f fakeAccounts) GetCloudDataSyncKey(username string, randomizer bool) (string, error) {
	return f.getSyncKey(username, randomizer)
}

func (f fakeAccounts) IsUserBannedFromWonderTrade(username string) bool {
	if f.isBanned == nil {
		return false
	}
	return f.isBanned(username)
}

func TestIsSameClient(t *testing.T) {
	require.True(t, IsSameClient("c1", "c1", "", ""))
	require.True(t, IsSameClient("c1", "c2", "Alice", "alice"))
	require.False(t, IsSameClient("c1", "c2", "alice", "bob"))
	require.False(t, IsSameClient("", "", "", ""))
	require.False(t, IsSameClient("c1", "c2", "", ""))
}

func TestHasMatchingRandomizerSettings(t *testing.T) {
	require.True(t, HasMatchingRandomizerSettings(true, true))
	require.True(t, HasMatchingRandomizerSettings(false, false))
	require.False(t, HasMatchingRandomizerSettings(true, false))
}

func TestSyncKeyValidForTrade(t *testing.T) {
	accounts := fakeAccounts{
		getSyncKey: func(username string, randomizer bool) (string, error) {
			return "current-key", nil
		},
	}

	ok, _ := SyncKeyValidForTrade(accounts, "alice", "current-key", false, true)
	require.True(t, ok)

	ok, reason := SyncKeyValidForTrade(accounts, "alice", "old-key", false, true)
	require.False(t, ok)
	require.Equal(t, InvalidSyncKeyError, reason)

	ok, reason = SyncKeyValidForTrade(accounts, "alice", "", false, true)
	require.False(t, ok)
	require.Equal(t, MissingSyncKeyErr, reason)

	ok, reason = SyncKeyValidForTrade(accounts, "  ", "key", false, true)
	require.False(t, ok)
	require.Equal(t, MissingUsernameErr, reason)

	// Anonymous trading is allowed when usernames aren't enforced.
	ok, _ = SyncKeyValidForTrade(accounts, "", "", false, false)
	require.True(t, ok)

	failing := fakeAccounts{
		getSyncKey: func(string, bool) (string, error) {
			return "", errors.New("db closed")
		},
	}
	ok, reason = SyncKeyValidForTrade(failing, "alice", "key", false, true)
	require.False(t, ok)
	require.Equal(t, SyncKeyCheckFailErr, reason)
}
