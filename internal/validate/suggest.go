package validate

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Candidate selection for "did you mean" hints runs in two stages:
//
//  1. Phonetic filtering: Double Metaphone codes are computed for every
//     underscore-separated part of the unknown identifier and of each
//     catalogue identifier. Identifiers sharing any code are phonetic
//     candidates.
//
//  2. Jaro-Winkler ranking: the phonetic candidate with the highest
//     similarity wins if it clears phoneticThreshold. Without a phonetic
//     candidate, the best plain Jaro-Winkler score must clear the stricter
//     fuzzyThreshold.
//
// Ties keep the lexically smallest identifier so hints are deterministic.
const (
	phoneticThreshold = 0.80
	fuzzyThreshold    = 0.90
)

type suggestEntry struct {
	id     string
	lower  string
	concat string
	codes  map[string]struct{}
}

// suggestIndex holds precomputed phonetic codes for one set of identifiers.
// It is read-only after construction.
type suggestIndex struct {
	entries []suggestEntry
}

// newSuggestIndex indexes ids, which must already be sorted.
func newSuggestIndex[T ~string](ids []T) *suggestIndex {
	ix := &suggestIndex{entries: make([]suggestEntry, 0, len(ids))}
	for _, id := range ids {
		lower := strings.ToLower(string(id))
		parts := identParts(lower)
		ix.entries = append(ix.entries, suggestEntry{
			id:     string(id),
			lower:  lower,
			concat: strings.Join(parts, ""),
			codes:  codesForParts(parts),
		})
	}
	return ix
}

// closest returns the identifier most similar to word.
func (ix *suggestIndex) closest(word string) (string, bool) {
	if ix == nil || len(ix.entries) == 0 || strings.TrimSpace(word) == "" {
		return "", false
	}

	lower := strings.ToLower(strings.TrimSpace(word))
	parts := identParts(lower)
	concat := strings.Join(parts, "")
	codes := codesForParts(parts)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, e := range ix.entries {
		score := matchr.JaroWinkler(lower, e.lower, false)
		if s := matchr.JaroWinkler(concat, e.concat, false); s > score {
			score = s
		}

		if codesOverlap(codes, e.codes) {
			if score >= phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = e.id, score, true
			}
		} else if !bestPhonetic && score >= fuzzyThreshold && score > bestScore {
			best, bestScore = e.id, score
		}
	}
	return best, best != ""
}

// identParts splits an identifier on underscores, hyphens and whitespace.
func identParts(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
}

// codesForParts returns the union of all Double Metaphone codes of parts.
// Empty codes are excluded.
func codesForParts(parts []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(parts)*2)
	for _, p := range parts {
		primary, secondary := matchr.DoubleMetaphone(p)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
