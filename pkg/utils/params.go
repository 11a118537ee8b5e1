package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseID converts a path segment into a record ID. The second return value
// is false when the segment is not an integral number; such a segment
// matches no record.
func ParseID(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if id, err := strconv.Atoi(s); err == nil {
		return id, true
	}

	// "5.0" and "5e0" still name record 5
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
