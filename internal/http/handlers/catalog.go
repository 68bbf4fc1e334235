package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seatengine/internal/services"
)

type CatalogHandler struct {
	Pricing services.PricingService
}

func NewCatalogHandler(pricing services.PricingService) *CatalogHandler {
	return &CatalogHandler{Pricing: pricing}
}

// GET /api/packages
func (h *CatalogHandler) Packages(c *gin.Context) {
	list, err := h.Pricing.Packages(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/packages/:id
func (h *CatalogHandler) Package(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Pricing.Package(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/quotes
func (h *CatalogHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	var r intReader
	in := services.QuoteRequest{
		PackageID: r.int64("packageId", req.PackageID),
		Options:   r.options(req.MealOptionID, req.HotelOptionID, req.TransportOptionID),
		StartDate: req.StartDate.String(),
		EndDate:   req.EndDate.String(),
		RouteID:   r.int64("routeId", req.RouteID),
		Seats:     int(r.int64("seats", req.Seats)),
	}
	if in.Seats == 0 {
		in.Seats = int(r.int64("numberOfSeats", req.NumberOfSeats))
	}
	if r.err != nil {
		RespondDomainError(c, r.err)
		return
	}
	q, err := h.Pricing.Quote(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
