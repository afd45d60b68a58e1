package variant

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultSeparator joins the options chosen by a count group without a custom separator.
const DefaultSeparator = ", "

// ParseCount resolves a count token into an inclusive [min, max] range.
//
//	""      -> (1, 1)
//	"N"     -> (N, N)
//	"a-b"   -> (max(a, 1), b)
//
// A range whose upper bound is below its lower bound collapses to the lower bound.
func ParseCount(token string) (lo, hi int) {
	if token == "" {
		return 1, 1
	}
	if a, b, isRange := strings.Cut(token, "-"); isRange {
		lo, hi = parseCountInt(a), parseCountInt(b)
		if lo == 0 {
			lo = 1
		}
		if hi < lo {
			hi = lo
		}
		return lo, hi
	}
	n := parseCountInt(token)
	return n, n
}

func parseCountInt(s string) int {
	n, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt
		}
		return 0
	}
	return int(n)
}
