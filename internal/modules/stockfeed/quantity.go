package stockfeed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedQuantity marks a units value that is not a non-negative integer.
var ErrMalformedQuantity = errors.New("malformed quantity")

// NormalizeQuantity turns a feed quantity into an integer floor.
// "" means zero and a trailing "+" ("at least") is dropped: "" -> 0, "5" -> 5, "3+" -> 3.
// Anything else yields 0 and ErrMalformedQuantity.
func NormalizeQuantity(q string) (int, error) {
	s := strings.TrimSpace(q)
	s = strings.TrimSuffix(s, "+")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedQuantity, q)
	}
	return n, nil
}
