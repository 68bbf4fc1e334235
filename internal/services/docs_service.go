package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/repositories"
	"seatengine/internal/utils"
)

// DocsService renders booking documents as PDF.
type DocsService struct {
	Query   QueryService
	Catalog repositories.CatalogStore
	Loader  func(ctx context.Context, caller domain.RequestContext, id int64) (ticketData, error)
}

type ticketData struct {
	Booking     models.Booking
	BusName     string
	RouteFrom   string
	RouteTo     string
	Package     string
	OptionNames []string
}

func (s DocsService) GenerateETicket(ctx context.Context, caller domain.RequestContext, bookingID int64) ([]byte, string, error) {
	data, err := s.load(ctx, caller, bookingID)
	if err != nil {
		return nil, "", err
	}
	if data.Booking.Status == models.StatusCancelled {
		return nil, "", domain.ConflictError{Resource: "booking", Msg: "cancelled bookings have no e-ticket"}
	}
	utils.LogEventCtx(ctx, "docs", "generate_eticket", "e-ticket rendered", zap.Int64("booking_id", bookingID))
	return buildETicketPDF(data)
}

func (s DocsService) GenerateInvoice(ctx context.Context, caller domain.RequestContext, bookingID int64) ([]byte, string, error) {
	data, err := s.load(ctx, caller, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEventCtx(ctx, "docs", "generate_invoice", "invoice rendered", zap.Int64("booking_id", bookingID))
	return buildInvoicePDF(data)
}

func (s DocsService) load(ctx context.Context, caller domain.RequestContext, id int64) (ticketData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, caller, id)
	}
	b, err := s.Query.GetBooking(ctx, caller, id)
	if err != nil {
		return ticketData{}, err
	}
	out := ticketData{Booking: b}
	if s.Catalog == nil {
		return out, nil
	}
	// Catalog lookups only decorate the document; a miss is not fatal.
	if bus, err := s.Catalog.Bus(ctx, b.BusID); err == nil {
		out.BusName = bus.Name
	}
	if r, err := s.Catalog.Route(ctx, b.RouteID); err == nil {
		out.RouteFrom, out.RouteTo = r.FromLocation, r.ToLocation
	}
	if b.PackageID > 0 {
		if pkg, err := s.Catalog.Package(ctx, b.PackageID); err == nil {
			out.Package = pkg.Title
			for _, t := range models.OptionTypes {
				if o, ok := pkg.Option(t, b.Options.Selected(t)); ok {
					out.OptionNames = append(out.OptionNames, fmt.Sprintf("%s: %s", t, o.Name))
				}
			}
		}
	}
	return out, nil
}

func buildETicketPDF(d ticketData) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.Reference, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference      : %s", safe(b.Reference, "-")),
		fmt.Sprintf("Passenger      : %s", safe(b.PassengerName, "-")),
		fmt.Sprintf("Phone          : %s", safe(b.PassengerPhone, "-")),
		fmt.Sprintf("Bus            : %s", safe(d.BusName, fmt.Sprintf("#%d", b.BusID))),
		fmt.Sprintf("Route          : %s -> %s", safe(d.RouteFrom, "-"), safe(d.RouteTo, "-")),
		fmt.Sprintf("Seats          : %s", safe(strings.Join(b.SelectedSeats, ", "), "-")),
		fmt.Sprintf("Status         : %s", b.Status),
	}
	if d.Package != "" {
		lines = append(lines,
			fmt.Sprintf("Package        : %s", d.Package),
			fmt.Sprintf("Dates          : %s to %s (%d days)", safe(b.StartDate, "-"), safe(b.EndDate, "-"), b.NumberOfDays),
		)
		for _, o := range d.OptionNames {
			lines = append(lines, "  "+o)
		}
	}
	lines = append(lines, fmt.Sprintf("Booked at      : %s UTC", utils.FormatDateTime(b.BookingDate)))
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, fmt.Sprintf("This e-ticket is valid for %d seat(s). Please show it when boarding.", b.NumberOfSeats), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", safeFilenamePart(b.Reference), safeFilenamePart(b.PassengerName))
	return buf.Bytes(), filename, nil
}

func buildInvoicePDF(d ticketData) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+b.Reference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice No : INV-"+safe(b.Reference, "NA"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date       : "+utils.FormatDate(b.BookingDate))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Name  : %s", safe(b.PassengerName, "-")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Email : %s", safe(b.PassengerEmail, "-")))
	pdf.Ln(10)

	desc := fmt.Sprintf("%s -> %s, seats %s", safe(d.RouteFrom, "-"), safe(d.RouteTo, "-"), strings.Join(b.SelectedSeats, ", "))
	if d.Package != "" {
		desc = fmt.Sprintf("%s, %s to %s, %s", d.Package, safe(b.StartDate, "-"), safe(b.EndDate, "-"), desc)
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, "1) "+desc, "", "", false)
	pdf.Ln(4)

	// Amounts are minor currency units; formatting is left to the client.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %d", b.TotalPrice))
	pdf.Ln(12)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("INVOICE_%s.pdf", safeFilenamePart(b.Reference))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
