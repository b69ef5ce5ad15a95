package pokemon

import (
	"math/rand"
	"regexp"
	"strings"
)

// Post-trade mutation rules. Both trade flavors reset friendship and check
// trade evolutions; only non-friend trades sanitize names, so friends keep
// the nicknames they chose for each other.

var replacementOTNames = []string{
	"Red", "Blue", "Green", "Yellow", "Gold", "Silver", "Crystal",
	"Ruby", "Emerald", "Diamond", "Pearl", "Black", "White",
}

var nonNameCharacter = regexp.MustCompile(`[^A-Za-z0-9 .,'\-!?♀♂é]`)

// UpdateAfterNonFriendTrade mutates a Pokemon received through an anonymous
// trade: friendship reset, trade evolution, and name sanitization.
func UpdateAfterNonFriendTrade(p, tradedWith Pokemon) {
	SetFriendship(p, GetBaseFriendship(p))
	TryActivateTradeEvolution(p, GetSpecies(tradedWith))
	ReplaceNicknameIfNeeded(p)
	ReplaceOTNameIfNeeded(p)
}

// UpdateAfterFriendTrade mutates a Pokemon received through a friend trade.
// Names are left alone.
func UpdateAfterFriendTrade(p, tradedWith Pokemon) {
	SetFriendship(p, GetBaseFriendship(p))
	TryActivateTradeEvolution(p, GetSpecies(tradedWith))
}

// TryActivateTradeEvolution evolves a Pokemon if being traded triggers one
// of its evolution methods. Eggs and Everstone holders never evolve.
func TryActivateTradeEvolution(p Pokemon, tradedWithSpecies string) {
	if IsEgg(p) || GetItem(p) == "ITEM_EVERSTONE" {
		return
	}

	species := GetSpecies(p)
	newSpecies := ""
	removeItemPostEvo := false

	for _, method := range tradeEvolutions[species] {
		if method.Item != "" {
			if GetItem(p) != method.Item {
				continue
			}
			removeItemPostEvo = true
		} else if method.WithSpecies != "" {
			if tradedWithSpecies != method.WithSpecies {
				continue
			}
		}

		newSpecies = method.ToSpecies
		break
	}

	if newSpecies == "" {
		return
	}

	hadDefaultName := GetNickname(p) == GetSpeciesName(species)

	p["species"] = newSpecies
	p["checksum"] = CalculateChecksum(p)

	if hadDefaultName {
		GiveSpeciesName(p)
	}

	if removeItemPostEvo {
		p["item"] = "ITEM_NONE"
	}

	p["checksum"] = CalculateChecksum(p)
}

// ReplaceNicknameIfNeeded resets the nickname to the species' display name
// when it contains banned or unprintable content.
func ReplaceNicknameIfNeeded(p Pokemon) {
	nickname := GetNickname(p)
	if BadWordInText(nickname) || HasNonNameCharacter(nickname) {
		GiveSpeciesName(p)
	}
}

// ReplaceOTNameIfNeeded swaps the original trainer name for a generic one
// when it contains banned or unprintable content.
func ReplaceOTNameIfNeeded(p Pokemon) {
	otName := GetOTName(p)
	if BadWordInText(otName) || HasNonNameCharacter(otName) {
		SetOTName(p, replacementOTNames[rand.Intn(len(replacementOTNames))])
	}
}

// BadWordInText reports whether the text contains a banned word, either as
// a whole word or, for the stricter entries, anywhere in the text ignoring
// separators.
func BadWordInText(text string) bool {
	text = strings.ToUpper(text)
	words := strings.Split(text, " ")

	for banned, checkContaining := range bannedWords {
		if checkContaining {
			allLetters := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(text)
			if strings.Contains(allLetters, banned) {
				return true
			}
		} else {
			for _, word := range words {
				if word == banned {
					return true
				}
			}
		}
	}

	return false
}

// HasNonNameCharacter reports whether the text contains a character that
// can't appear in an in-game name.
func HasNonNameCharacter(text string) bool {
	return nonNameCharacter.MatchString(text)
}
