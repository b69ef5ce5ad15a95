package pokemon

// Pokemon is the traded entity: an opaque JSON object carrying a "checksum"
// integrity field. Field access goes through the helpers below so missing or
// tampered data degrades to safe defaults instead of panicking.
type Pokemon map[string]any

const (
	speciesNone = "SPECIES_NONE"
	itemNone    = "ITEM_NONE"

	maxFriendship     = 0xFF
	maxNicknameLen    = 10
	maxOTNameLen      = 7
	defaultFriendship = 50
)

// Clone returns a shallow copy. Mutation helpers operate in place, so
// callers that must keep the original intact copy first.
func (p Pokemon) Clone() Pokemon {
	if p == nil {
		return nil
	}
	c := make(Pokemon, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Validate reports whether a Pokemon's stored checksum matches its data.
//
// canBeNull treats a nil Pokemon as valid (a cancelled trade offer).
// canBeBlank treats a Pokemon whose every field is empty/zero/nil as valid
// (a placeholder box slot).
func Validate(p Pokemon, canBeNull, canBeBlank bool) bool {
	if p == nil {
		return canBeNull
	}

	if canBeBlank {
		allBlank := true
		for _, v := range p {
			if !isBlankValue(v) {
				allBlank = false
				break
			}
		}
		if allBlank {
			return true
		}
	}

	stored, ok := p["checksum"].(string)
	return ok && stored == CalculateChecksum(p)
}

func isBlankValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case int:
		return val == 0
	default:
		return false
	}
}

// GetSpecies returns the species id, or SPECIES_NONE for an invalid Pokemon.
func GetSpecies(p Pokemon) string {
	if Validate(p, false, false) {
		if species, ok := p["species"].(string); ok {
			return species
		}
	}
	return speciesNone
}

// GetItem returns the held item id, or ITEM_NONE.
func GetItem(p Pokemon) string {
	if Validate(p, false, false) {
		if item, ok := p["item"].(string); ok {
			return item
		}
	}
	return itemNone
}

// boolField reads a flag that save files store as either a boolean or a
// 0/1 number.
func boolField(p Pokemon, field string) (bool, bool) {
	v, present := p[field]
	if !present {
		return false, false
	}
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	}
	return false, false
}

// IsBadEgg reports whether the Pokemon is a corrupted egg.
func IsBadEgg(p Pokemon) bool {
	if Validate(p, false, false) {
		if v, ok := boolField(p, "isBadEgg"); ok {
			return v
		}
	}
	return false
}

// IsEgg reports whether the Pokemon is unhatched. Bad eggs count as eggs.
func IsEgg(p Pokemon) bool {
	if IsBadEgg(p) {
		return true
	}
	if Validate(p, false, false) {
		if v, ok := boolField(p, "isEgg"); ok {
			return v
		}
	}
	return false
}

// GetBaseFriendship returns the species' starting friendship value.
func GetBaseFriendship(p Pokemon) int {
	if base, ok := baseFriendship[GetSpecies(p)]; ok {
		return base
	}
	return defaultFriendship
}

// SetFriendship sets the friendship counter (capped at 255) and refreshes
// the checksum.
func SetFriendship(p Pokemon, friendship int) {
	if !Validate(p, false, false) {
		return
	}
	if friendship > maxFriendship {
		friendship = maxFriendship
	}
	p["friendship"] = float64(friendship)
	p["checksum"] = CalculateChecksum(p)
}

// GetNickname returns the Pokemon's nickname capped to its storable length,
// falling back to the species' display name.
func GetNickname(p Pokemon) string {
	if Validate(p, false, false) {
		if nickname, ok := p["nickname"].(string); ok {
			return truncate(nickname, maxNicknameLen)
		}
	}
	return GetSpeciesName(GetSpecies(p))
}

// SetNickname renames the Pokemon and refreshes the checksum.
func SetNickname(p Pokemon, nickname string) {
	if !Validate(p, false, false) {
		return
	}
	p["nickname"] = truncate(nickname, maxNicknameLen)
	p["checksum"] = CalculateChecksum(p)
}

// GiveSpeciesName resets the nickname to the species' display name.
func GiveSpeciesName(p Pokemon) {
	SetNickname(p, GetSpeciesName(GetSpecies(p)))
}

// GetOTName returns the original trainer's name, or "Unknown".
func GetOTName(p Pokemon) string {
	if Validate(p, false, false) {
		if otName, ok := p["otName"].(string); ok {
			return otName
		}
	}
	return "Unknown"
}

// SetOTName replaces the original trainer name and refreshes the checksum.
func SetOTName(p Pokemon, otName string) {
	if !Validate(p, false, false) {
		return
	}
	p["otName"] = truncate(otName, maxOTNameLen)
	p["checksum"] = CalculateChecksum(p)
}

// GetMonSpeciesName returns the display name of the Pokemon's species.
func GetMonSpeciesName(p Pokemon) string {
	return GetSpeciesName(GetSpecies(p))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
