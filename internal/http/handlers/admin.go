package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/http/middleware"
	"seatengine/internal/services"
)

// DELETE /api/bookings/clear-occupied-seats?busId=&routeId=
func (h *BookingHandler) ClearOccupiedSeats(c *gin.Context) {
	busID, ok := queryID(c, "busId")
	if !ok {
		return
	}
	routeID, ok := queryID(c, "routeId")
	if !ok {
		return
	}
	res, err := h.Bookings.ClearOccupied(c.Request.Context(), middleware.Caller(c), busID, routeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           fmt.Sprintf("cleared %d seats from %d bookings", res.Seats, res.Bookings),
		"cancelledBookings": res.Bookings,
		"releasedSeats":     res.Seats,
	})
}

// DELETE /api/bookings/clear-all-test-bookings
// The dataset comes from ?dataset= or the body and defaults to "test".
func (h *BookingHandler) ClearAllTestBookings(c *gin.Context) {
	dataset := strings.TrimSpace(c.Query("dataset"))
	if dataset == "" && c.Request.ContentLength > 0 {
		var req clearTestRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		dataset = req.Dataset.String()
	}
	if dataset == "" {
		dataset = models.DatasetTest
	}
	res, err := h.Bookings.ClearAllTestBookings(c.Request.Context(), middleware.Caller(c), dataset)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           fmt.Sprintf("cleared %d %s bookings across %d scopes", res.Bookings, dataset, res.Scopes),
		"cancelledBookings": res.Bookings,
		"releasedSeats":     res.Seats,
		"scopes":            res.Scopes,
	})
}

// POST /api/bookings/update-seat-status
// Only OCCUPIED is accepted; freeing seats goes through cancel or clear.
func (h *BookingHandler) UpdateSeatStatus(c *gin.Context) {
	var req seatStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if st := strings.ToUpper(req.Status.String()); st != "" && st != "OCCUPIED" {
		RespondDomainError(c, domain.ValidationError{Field: "status", Msg: "only OCCUPIED is supported"})
		return
	}
	var r intReader
	in := services.BlockSeatsInput{
		BusID:   r.int64("busId", req.BusID),
		RouteID: r.int64("routeId", req.RouteID),
		Seats:   []string(req.SeatNumbers),
		Note:    req.Note.String(),
	}
	if len(in.Seats) == 0 {
		in.Seats = []string(req.Seats)
	}
	if r.err != nil {
		RespondDomainError(c, r.err)
		return
	}
	b, err := h.Bookings.BlockSeats(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seats marked occupied", "booking": b})
}

// GET /api/bookings and /api/bookings/all
func (h *BookingHandler) ListAll(c *gin.Context) {
	list, err := h.Query.ListAll(c.Request.Context(), middleware.Caller(c))
	respondList(c, list, err)
}

// GET /api/bookings/bus/:busId
func (h *BookingHandler) ListByBus(c *gin.Context) {
	busID, ok := paramID(c, "busId")
	if !ok {
		return
	}
	list, err := h.Query.ListByScope(c.Request.Context(), middleware.Caller(c), busID, 0)
	respondList(c, list, err)
}

// GET /api/bookings/route/:routeId
func (h *BookingHandler) ListByRoute(c *gin.Context) {
	routeID, ok := paramID(c, "routeId")
	if !ok {
		return
	}
	list, err := h.Query.ListByScope(c.Request.Context(), middleware.Caller(c), 0, routeID)
	respondList(c, list, err)
}

// GET /api/bookings/recent?limit=
func (h *BookingHandler) Recent(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}
	list, err := h.Query.Recent(c.Request.Context(), middleware.Caller(c), limit)
	respondList(c, list, err)
}

// GET /api/bookings/today
func (h *BookingHandler) Today(c *gin.Context) {
	list, err := h.Query.Today(c.Request.Context(), middleware.Caller(c))
	respondList(c, list, err)
}

func respondList(c *gin.Context, list []models.Booking, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
