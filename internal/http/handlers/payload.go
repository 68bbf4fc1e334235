package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/utils"
)

// Stringish tolerates string/number/bool and keeps it as a string.
type Stringish string

func (s *Stringish) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null" || len(b) == 0:
		*s = ""
		return nil
	case len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Stringish(str)
		return nil
	default:
		*s = Stringish(strings.Trim(string(b), `"`))
		return nil
	}
}

func (s Stringish) String() string { return strings.TrimSpace(string(s)) }

// Int64 returns 0 for an empty value.
func (s Stringish) Int64() (int64, error) {
	v := s.String()
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return n, nil
}

// Amount accepts "3000", 3000 and 3000.00. Nil when absent.
func (s Stringish) Amount() (*int64, error) {
	v := s.String()
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%q is not an amount", v)
	}
	n := int64(math.Round(f))
	return &n, nil
}

// seatList accepts ["1","2"], [1,2], "[\"1\",\"2\"]" and "1,2".
type seatList []string

func (l *seatList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []Stringish
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.String())
		}
		*l = out
		return nil
	}
	var s Stringish
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*l = utils.SplitSeatList(s.String())
	return nil
}

type bookingRequest struct {
	UserID         Stringish `json:"userId"`
	BusID          Stringish `json:"busId"`
	RouteID        Stringish `json:"routeId"`
	PassengerName  Stringish `json:"passengerName"`
	PassengerEmail Stringish `json:"passengerEmail"`
	PassengerPhone Stringish `json:"passengerPhone"`
	SelectedSeats  seatList  `json:"selectedSeats"`
	NumberOfSeats  Stringish `json:"numberOfSeats"`
	TotalPrice     Stringish `json:"totalPrice"`
	Dataset        Stringish `json:"dataset"`

	PackageID         Stringish `json:"packageId"`
	MealOptionID      Stringish `json:"mealOptionId"`
	HotelOptionID     Stringish `json:"hotelOptionId"`
	TransportOptionID Stringish `json:"transportOptionId"`
	StartDate         Stringish `json:"startDate"`
	EndDate           Stringish `json:"endDate"`
}

type quoteRequest struct {
	PackageID         Stringish `json:"packageId"`
	MealOptionID      Stringish `json:"mealOptionId"`
	HotelOptionID     Stringish `json:"hotelOptionId"`
	TransportOptionID Stringish `json:"transportOptionId"`
	StartDate         Stringish `json:"startDate"`
	EndDate           Stringish `json:"endDate"`
	RouteID           Stringish `json:"routeId"`
	Seats             Stringish `json:"seats"`
	NumberOfSeats     Stringish `json:"numberOfSeats"`
}

type statusRequest struct {
	Status        Stringish `json:"status"`
	BookingStatus Stringish `json:"bookingStatus"`
}

type seatStatusRequest struct {
	BusID       Stringish `json:"busId"`
	RouteID     Stringish `json:"routeId"`
	SeatNumbers seatList  `json:"seatNumbers"`
	Seats       seatList  `json:"seats"`
	Status      Stringish `json:"status"`
	Note        Stringish `json:"note"`
}

type scopeRequest struct {
	BusID   Stringish `json:"busId"`
	RouteID Stringish `json:"routeId"`
}

type clearTestRequest struct {
	Dataset Stringish `json:"dataset"`
}

type intReader struct {
	err error
}

func (r *intReader) int64(field string, s Stringish) int64 {
	if r.err != nil {
		return 0
	}
	n, err := s.Int64()
	if err != nil {
		r.err = domain.ValidationError{Field: field, Msg: err.Error()}
	}
	return n
}

func (r *intReader) options(meal, hotel, transport Stringish) models.OptionSelection {
	return models.OptionSelection{
		MealOptionID:      r.int64("mealOptionId", meal),
		HotelOptionID:     r.int64("hotelOptionId", hotel),
		TransportOptionID: r.int64("transportOptionId", transport),
	}
}
