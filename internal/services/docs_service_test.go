package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
)

func TestDocsServiceGenerate(t *testing.T) {
	loader := func(ctx context.Context, caller domain.RequestContext, id int64) (ticketData, error) {
		return ticketData{
			Booking: models.Booking{
				ID:             id,
				Reference:      "BK-1A2B3C4D",
				PassengerName:  "Tester",
				PassengerPhone: "0771234567",
				SelectedSeats:  []string{"12", "14"},
				NumberOfSeats:  2,
				TotalPrice:     100500,
				Status:         models.StatusConfirmed,
				StartDate:      "2024-06-01",
				EndDate:        "2024-06-03",
				NumberOfDays:   3,
				BookingDate:    time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC),
			},
			BusName:     "Highway Express 01",
			RouteFrom:   "Colombo",
			RouteTo:     "Kandy",
			Package:     "Standard Package",
			OptionNames: []string{"meal: Western buffet"},
		}, nil
	}

	svc := DocsService{Loader: loader}

	pdf, filename, err := svc.GenerateETicket(context.Background(), domain.RequestContext{}, 1)
	if err != nil {
		t.Fatalf("GenerateETicket returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) || filename != "ETICKET_BK-1A2B3C4D_Tester.pdf" {
		t.Fatalf("GenerateETicket returned unexpected data: %q", filename)
	}

	invoice, invName, err := svc.GenerateInvoice(context.Background(), domain.RequestContext{}, 1)
	if err != nil {
		t.Fatalf("GenerateInvoice returned error: %v", err)
	}
	if len(invoice) == 0 || invName == "" {
		t.Fatalf("GenerateInvoice returned empty data")
	}
}

func TestDocsServiceRejectsCancelledTicket(t *testing.T) {
	svc := DocsService{Loader: func(ctx context.Context, caller domain.RequestContext, id int64) (ticketData, error) {
		return ticketData{Booking: models.Booking{ID: id, Status: models.StatusCancelled}}, nil
	}}
	if _, _, err := svc.GenerateETicket(context.Background(), domain.RequestContext{}, 1); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for cancelled booking, got %v", err)
	}
}
