package domain

import (
	"fmt"
	"strconv"
	"strings"

	"seatengine/internal/domain/models"
)

// NormalizeSeats canonicalizes seat numbers ("07" -> "7") and checks each is
// within 1..capacity with no duplicates. Order of first appearance is kept.
func NormalizeSeats(raw []string, capacity int) ([]string, error) {
	if len(raw) == 0 {
		return nil, ValidationError{Field: "selectedSeats", Msg: "at least one seat is required"}
	}
	if capacity <= 0 {
		return nil, InternalError{Msg: "bus has no seating capacity"}
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	var dups []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > capacity {
			return nil, ValidationError{
				Field: "selectedSeats",
				Msg:   fmt.Sprintf("seat %q is not in 1..%d", s, capacity),
			}
		}
		seat := strconv.Itoa(n)
		if seen[seat] {
			dups = append(dups, seat)
			continue
		}
		seen[seat] = true
		out = append(out, seat)
	}
	if len(dups) > 0 {
		models.SortSeats(dups)
		return nil, ValidationError{
			Field: "selectedSeats",
			Msg:   "duplicate seats: " + strings.Join(dups, ", "),
		}
	}
	return out, nil
}
