package common

import (
	"crypto/rand"
	"math/big"
)

// RandomInt returns a random integer in [0, max) using crypto/rand.
func RandomInt(max int) int {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}

// RandomChoice returns a random element of items, or the zero value when empty.
func RandomChoice[T any](items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[RandomInt(len(items))]
}
