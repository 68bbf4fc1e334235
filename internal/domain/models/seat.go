package models

import (
	"fmt"
	"sort"
	"strconv"
)

// SeatScope is the (bus, route) pairing that owns an occupancy map.
type SeatScope struct {
	BusID   int64 `json:"busId"`
	RouteID int64 `json:"routeId"`
}

func (s SeatScope) String() string {
	return fmt.Sprintf("bus=%d route=%d", s.BusID, s.RouteID)
}

// SeatStatus is an advisory snapshot of one scope.
type SeatStatus struct {
	Scope     SeatScope `json:"-"`
	Occupied  []string  `json:"occupiedSeats"`
	Available []string  `json:"availableSeats"`
	Total     int       `json:"totalSeats"`
}

// NewSeatStatus derives available = 1..total minus occupied. Occupied seats
// outside the alphabet are dropped.
func NewSeatStatus(scope SeatScope, total int, occupied []string) SeatStatus {
	taken := make(map[string]bool, len(occupied))
	for _, s := range occupied {
		taken[s] = true
	}
	out := SeatStatus{Scope: scope, Total: total, Occupied: []string{}, Available: []string{}}
	for i := 1; i <= total; i++ {
		seat := strconv.Itoa(i)
		if taken[seat] {
			out.Occupied = append(out.Occupied, seat)
		} else {
			out.Available = append(out.Available, seat)
		}
	}
	return out
}

// SortSeats orders seat numbers numerically, falling back to lexical order.
func SortSeats(seats []string) {
	sort.SliceStable(seats, func(i, j int) bool {
		a, errA := strconv.Atoi(seats[i])
		b, errB := strconv.Atoi(seats[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return seats[i] < seats[j]
	})
}
