package pokemon

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// checksumSecret is appended to the canonical serialization before hashing
// so clients can't recompute a checksum from the visible data alone.
var checksumSecret = ""

// SetChecksumSecret configures the checksum salt. Called once at startup.
func SetChecksumSecret(secret string) {
	checksumSecret = secret
}

// Volatile fields excluded from the checksum: they are edited client-side
// (markings), derived (checksum itself), or transient annotations.
var checksumExcludedFields = []string{"markings", "checksum", "wonderTradeTimestamp"}

// CalculateChecksum returns the integrity fingerprint for a Pokemon.
//
// The fingerprint is an md5 over the canonical serialization, so it is
// invariant under field reordering and under presence of the excluded
// volatile fields.
func CalculateChecksum(p Pokemon) string {
	clean := make(Pokemon, len(p))
	for k, v := range p {
		clean[k] = v
	}
	for _, field := range checksumExcludedFields {
		delete(clean, field)
	}

	sum := md5.Sum([]byte(canonicalJSON(clean) + checksumSecret))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON serializes a value the way Python's json.dumps does: object
// keys sorted, ", " between elements and ": " after keys. The saved cloud
// data was originally fingerprinted in that form, so the exact spacing is
// load-bearing.
func canonicalJSON(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case Pokemon:
		writeCanonicalMap(b, val)
	case map[string]any:
		writeCanonicalMap(b, val)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		// Scalars (string/float64/bool/nil) follow standard JSON encoding.
		raw, err := json.Marshal(val)
		if err != nil {
			b.WriteString("null")
			return
		}
		b.Write(raw)
	}
}

func writeCanonicalMap(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		raw, _ := json.Marshal(k)
		b.Write(raw)
		b.WriteString(": ")
		writeCanonical(b, m[k])
	}
	b.WriteByte('}')
}
