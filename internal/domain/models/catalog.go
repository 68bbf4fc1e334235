package models

type OptionType string

const (
	OptionMeal      OptionType = "meal"
	OptionHotel     OptionType = "hotel"
	OptionTransport OptionType = "transport"
)

// OptionTypes lists every selectable option type in display order.
var OptionTypes = []OptionType{OptionMeal, OptionHotel, OptionTransport}

// Bus carries the size of its seat alphabet (seats "1".."SeatingCapacity").
type Bus struct {
	ID                 int64  `json:"id"`
	Name               string `json:"busName"`
	RegistrationNumber string `json:"registrationNumber"`
	SeatingCapacity    int    `json:"seatingCapacity"`
}

// Route prices bus-only bookings per seat, in minor currency units.
type Route struct {
	ID           int64  `json:"id"`
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	TicketPrice  int64  `json:"ticketPrice"`
}

type PackageOption struct {
	ID         int64      `json:"id"`
	PackageID  int64      `json:"packageId"`
	OptionType OptionType `json:"optionType"`
	Name       string     `json:"name"`
	Price      int64      `json:"price"`
}

// Package is admin configured and read-only to the engine. Prices are per day.
type Package struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BasePrice   int64           `json:"basePrice"`
	Options     []PackageOption `json:"options"`
}

// OptionsOf filters the options of one type.
func (p Package) OptionsOf(t OptionType) []PackageOption {
	out := []PackageOption{}
	for _, o := range p.Options {
		if o.OptionType == t {
			out = append(out, o)
		}
	}
	return out
}

// Option looks an option up by its stable id within one type.
func (p Package) Option(t OptionType, id int64) (PackageOption, bool) {
	for _, o := range p.Options {
		if o.OptionType == t && o.ID == id {
			return o, true
		}
	}
	return PackageOption{}, false
}

// Bookable requires at least one option of every type.
func (p Package) Bookable() bool {
	for _, t := range OptionTypes {
		if len(p.OptionsOf(t)) == 0 {
			return false
		}
	}
	return true
}

// Selected returns the id chosen for t.
func (s OptionSelection) Selected(t OptionType) int64 {
	switch t {
	case OptionMeal:
		return s.MealOptionID
	case OptionHotel:
		return s.HotelOptionID
	case OptionTransport:
		return s.TransportOptionID
	}
	return 0
}

// Quote is the server computed price breakdown.
type Quote struct {
	PackageID    int64       `json:"packageId,omitempty"`
	RouteID      int64       `json:"routeId,omitempty"`
	Seats        int         `json:"seats,omitempty"`
	Days         int         `json:"days"`
	PerDayTotal  int64       `json:"perDayTotal,omitempty"`
	PerSeatPrice int64       `json:"perSeatPrice,omitempty"`
	Lines        []QuoteLine `json:"lines"`
	Total        int64       `json:"totalPrice"`
}

type QuoteLine struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}
