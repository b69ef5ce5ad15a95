package tradeutil

import "strings"

// User-facing strings for sync key rejections. The stale-key message is the
// one shown when the same account opened its cloud data in another tab.
const (
	InvalidSyncKeyError = "The Cloud data has already been opened in another tab!\nPlease reload the page to avoid data corruption."
	MissingUsernameErr  = "A username must be provided to trade!"
	MissingSyncKeyErr   = "The cloud data sync key was missing!"
	SyncKeyCheckFailErr = "Error validating cloud data sync key!"
)

// AccountChecker is the slice of the account service the trade protocols
// consume.
type AccountChecker interface {
	// GetCloudDataSyncKey returns the account's current sync key for the
	// given save flavor, or "" when the account doesn't exist.
	GetCloudDataSyncKey(username string, randomizer bool) (string, error)
	// IsUserBannedFromWonderTrade reports whether the account has been
	// banned from Wonder Trading.
	IsUserBannedFromWonderTrade(username string) bool
}

// IsSameClient reports whether two sessions belong to the same identity:
// literally the same client id, or the same username ignoring case.
func IsSameClient(clientID, otherClientID, username, otherUsername string) bool {
	if clientID != "" && clientID == otherClientID {
		return true
	}
	return username != "" && strings.EqualFold(username, otherUsername)
}

// HasMatchingRandomizerSettings reports whether two clients may trade with
// each other: a randomized save never trades with a vanilla one.
func HasMatchingRandomizerSettings(randomizer, otherRandomizer bool) bool {
	return randomizer == otherRandomizer
}

// SyncKeyValidForTrade validates that the client's cloud data sync key is
// still current. A stale key means the account's cloud data was reopened in
// another tab, and trading from this one could corrupt the save.
//
// Returns ok=true when the trade may proceed; otherwise reason carries the
// user-facing rejection message.
func SyncKeyValidForTrade(accounts AccountChecker, username, syncKey string, randomizer, enforceUsernames bool) (ok bool, reason string) {
	if enforceUsernames && strings.TrimSpace(username) == "" {
		return false, MissingUsernameErr
	}

	if username == "" {
		return true, ""
	}

	userKey, err := accounts.GetCloudDataSyncKey(username, randomizer)
	if err != nil {
		return false, SyncKeyCheckFailErr
	}

	if syncKey == "" {
		return false, MissingSyncKeyErr
	}
	if syncKey != userKey {
		return false, InvalidSyncKeyError
	}

	return true, ""
}
