// Package shuffle derives a reproducible pseudo-random order over photo ids.
//
// The order is defined per item: every id gets the key md5(seed || id) and the
// collection is sorted by that key. Any subset sorted this way keeps the same
// relative order, so a page can be cut from the ordering with OFFSET/LIMIT in
// the store without ever materializing a shuffled copy of the collection. The
// PostgreSQL store evaluates the identical expression in SQL:
//
//	ORDER BY md5($seed || p.id) COLLATE "C", p.id
package shuffle

import (
	"cmp"
	"crypto/md5"
	"encoding/hex"
	"slices"
	"time"
)

// DailySeedPrefix prefixes seeds chosen by the server when the client asks
// for a shuffled order without supplying one.
const DailySeedPrefix = "daily-"

// OrderKey returns the sort key of itemID under seed as 32 lowercase hex digits.
// The seed is opaque text; numeric and arbitrary strings are both valid.
func OrderKey(itemID, seed string) string {
	sum := md5.Sum([]byte(seed + itemID))
	return hex.EncodeToString(sum[:])
}

// Compare orders two ids under seed. Equal keys fall back to the ids themselves
// so the order is total.
func Compare(a, b, seed string) int {
	if c := cmp.Compare(OrderKey(a, seed), OrderKey(b, seed)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// Sort orders ids in place under seed.
func Sort(ids []string, seed string) {
	keys := make(map[string]string, len(ids))
	for _, id := range ids {
		keys[id] = OrderKey(id, seed)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}

// SortFunc orders items in place under seed using id to extract each item's identity.
func SortFunc[T any](items []T, seed string, id func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return Compare(id(a), id(b), seed)
	})
}

// DailySeed returns the server-chosen seed for the UTC day of t.
func DailySeed(t time.Time) string {
	return DailySeedPrefix + t.UTC().Format(time.DateOnly)
}
