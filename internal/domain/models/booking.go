package models

import "time"

type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusCompleted      BookingStatus = "COMPLETED"
)

// Datasets tag bookings that were not made by a passenger.
const (
	DatasetLive   = ""
	DatasetTest   = "test"
	DatasetSystem = "system"
)

// ParseBookingStatus accepts the canonical upper-case names.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled, StatusCompleted:
		return BookingStatus(s), true
	}
	return "", false
}

// Active bookings hold their seats.
func (s BookingStatus) Active() bool {
	return s == StatusPendingPayment || s == StatusConfirmed
}

// CanTransition reports whether from -> to is a legal status change.
// CANCELLED and COMPLETED are terminal.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	switch s {
	case StatusPendingPayment:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// OptionSelection holds one option id per type; zero means not selected.
type OptionSelection struct {
	MealOptionID      int64 `json:"mealOptionId,omitempty"`
	HotelOptionID     int64 `json:"hotelOptionId,omitempty"`
	TransportOptionID int64 `json:"transportOptionId,omitempty"`
}

// Booking is immutable once written except for Status/UpdatedAt.
type Booking struct {
	ID               int64           `json:"id"`
	Reference        string          `json:"reference"`
	UserID           int64           `json:"userId"`
	BusID            int64           `json:"busId"`
	RouteID          int64           `json:"routeId"`
	PassengerName    string          `json:"passengerName"`
	PassengerEmail   string          `json:"passengerEmail"`
	PassengerPhone   string          `json:"passengerPhone"`
	SelectedSeats    []string        `json:"selectedSeats"`
	NumberOfSeats    int             `json:"numberOfSeats"`
	PackageID        int64           `json:"packageId,omitempty"`
	Options          OptionSelection `json:"options"`
	StartDate        string          `json:"startDate,omitempty"`
	EndDate          string          `json:"endDate,omitempty"`
	NumberOfDays     int             `json:"numberOfDays,omitempty"`
	TotalPrice       int64           `json:"totalPrice"`
	ClientTotalPrice *int64          `json:"clientTotalPrice,omitempty"`
	Status           BookingStatus   `json:"bookingStatus"`
	Dataset          string          `json:"dataset,omitempty"`
	BookingDate      time.Time       `json:"bookingDate"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Scope returns the seat inventory the booking lives in.
func (b Booking) Scope() SeatScope {
	return SeatScope{BusID: b.BusID, RouteID: b.RouteID}
}
