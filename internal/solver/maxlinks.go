package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxLinks caps how many times a single person may be used as the link
// between two movies in one game.
type MaxLinks int

// Unlimited disables per-person throttling. It is never compared as a count.
const Unlimited MaxLinks = -1

// Allows reports whether a person already used count times may link again.
func (m MaxLinks) Allows(count int) bool {
	if m == Unlimited {
		return true
	}
	return count < int(m)
}

// String renders the cap the way ParseMaxLinks accepts it.
func (m MaxLinks) String() string {
	if m == Unlimited {
		return "infinity"
	}
	return strconv.Itoa(int(m))
}

// ParseMaxLinks accepts a positive integer or one of "infinity", "inf",
// "unlimited" and "none".
func ParseMaxLinks(s string) (MaxLinks, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infinity", "inf", "unlimited", "none", "∞":
		return Unlimited, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("max links %q: must be a positive integer or \"infinity\"", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("max links %d: must be greater than 0", n)
	}
	return MaxLinks(n), nil
}
