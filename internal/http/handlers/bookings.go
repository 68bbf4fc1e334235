package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/http/middleware"
	"seatengine/internal/services"
)

// BookingHandler serves the /api/bookings surface.
type BookingHandler struct {
	Bookings  services.BookingService
	Query     services.QueryService
	Inventory services.InventoryService
	Docs      services.DocsService
}

func NewBookingHandler(bookings services.BookingService, query services.QueryService, inventory services.InventoryService, docs services.DocsService) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Query: query, Inventory: inventory, Docs: docs}
}

// GET /api/bookings/seat-status?busId=&routeId=
func (h *BookingHandler) SeatStatus(c *gin.Context) {
	if st, ok := h.scopeStatus(c); ok {
		c.JSON(http.StatusOK, seatStatusBody(st))
	}
}

// POST /api/bookings/refresh-seats {busId, routeId}
func (h *BookingHandler) RefreshSeats(c *gin.Context) {
	var req scopeRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	var r intReader
	busID := r.int64("busId", req.BusID)
	routeID := r.int64("routeId", req.RouteID)
	if r.err != nil {
		RespondDomainError(c, r.err)
		return
	}
	st, err := h.Inventory.GetStatus(c.Request.Context(), busID, routeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatStatusBody(st))
}

func seatStatusBody(st models.SeatStatus) gin.H {
	return gin.H{
		"busId":          st.Scope.BusID,
		"routeId":        st.Scope.RouteID,
		"occupiedSeats":  st.Occupied,
		"availableSeats": st.Available,
		"totalSeats":     st.Total,
		"occupiedCount":  len(st.Occupied),
		"availableCount": len(st.Available),
	}
}

func (h *BookingHandler) scopeStatus(c *gin.Context) (models.SeatStatus, bool) {
	busID, ok := queryID(c, "busId")
	if !ok {
		return models.SeatStatus{}, false
	}
	routeID, ok := queryID(c, "routeId")
	if !ok {
		return models.SeatStatus{}, false
	}
	st, err := h.Inventory.GetStatus(c.Request.Context(), busID, routeID)
	if err != nil {
		RespondDomainError(c, err)
		return models.SeatStatus{}, false
	}
	return st, true
}

// GET /api/bookings/occupied-seats?busId=&routeId=
func (h *BookingHandler) OccupiedSeats(c *gin.Context) {
	if st, ok := h.scopeStatus(c); ok {
		c.JSON(http.StatusOK, gin.H{"occupiedSeats": st.Occupied})
	}
}

// GET /api/bookings/available-seats?busId=&routeId=
func (h *BookingHandler) AvailableSeats(c *gin.Context) {
	if st, ok := h.scopeStatus(c); ok {
		c.JSON(http.StatusOK, gin.H{"availableSeats": len(st.Available)})
	}
}

// POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req bookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	b, err := h.Bookings.CreateBooking(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (req bookingRequest) input() (services.CreateBookingInput, error) {
	var r intReader
	in := services.CreateBookingInput{
		UserID:         r.int64("userId", req.UserID),
		BusID:          r.int64("busId", req.BusID),
		RouteID:        r.int64("routeId", req.RouteID),
		PassengerName:  req.PassengerName.String(),
		PassengerEmail: req.PassengerEmail.String(),
		PassengerPhone: req.PassengerPhone.String(),
		SelectedSeats:  []string(req.SelectedSeats),
		NumberOfSeats:  int(r.int64("numberOfSeats", req.NumberOfSeats)),
		PackageID:      r.int64("packageId", req.PackageID),
		Options:        r.options(req.MealOptionID, req.HotelOptionID, req.TransportOptionID),
		StartDate:      req.StartDate.String(),
		EndDate:        req.EndDate.String(),
		Dataset:        req.Dataset.String(),
	}
	if r.err != nil {
		return in, r.err
	}
	total, err := req.TotalPrice.Amount()
	if err != nil {
		return in, domain.ValidationError{Field: "totalPrice", Msg: err.Error()}
	}
	in.ClientTotalPrice = total
	return in, nil
}

// GET /api/bookings/user/:userId
func (h *BookingHandler) ListByUser(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	list, err := h.Query.ListBookings(c.Request.Context(), middleware.Caller(c), userID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.Query.GetBooking(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// PUT /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.CancelBooking(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled", "booking": b})
}

// PUT /api/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	raw := req.BookingStatus.String()
	if raw == "" {
		raw = req.Status.String()
	}
	status := models.BookingStatus(strings.ToUpper(raw))
	b, err := h.Bookings.UpdateStatus(c.Request.Context(), middleware.Caller(c), id, status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings/:id/e-ticket
func (h *BookingHandler) ETicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, name, err := h.Docs.GenerateETicket(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, pdf, name)
}

// GET /api/bookings/:id/invoice
func (h *BookingHandler) Invoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, name, err := h.Docs.GenerateInvoice(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, pdf, name)
}

func sendPDF(c *gin.Context, pdf []byte, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
