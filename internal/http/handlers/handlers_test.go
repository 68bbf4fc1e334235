package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/http/middleware"
	"seatengine/internal/repositories"
	"seatengine/internal/services"
)

var (
	user7 = domain.RequestContext{UserID: 7, Role: domain.RoleUser}
	admin = domain.RequestContext{UserID: 1, Role: domain.RoleAdmin}
	anon  = domain.RequestContext{}
)

type testServer struct {
	store *repositories.MemoryStore
	r     *gin.Engine
}

func newTestServer(t *testing.T, caller domain.RequestContext) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	catalog := repositories.NewMemoryCatalog()
	repositories.SeedMemory(catalog, repositories.Demo())

	pricing := services.PricingService{Catalog: catalog, Timeout: time.Second}
	query := services.QueryService{Inventory: store, Catalog: catalog, Timeout: time.Second}
	bookings := services.BookingService{Inventory: store, Catalog: catalog, Pricing: pricing, Timeout: time.Second}
	inventory := services.InventoryService{Inventory: store, Catalog: catalog, Timeout: time.Second}
	docs := services.DocsService{Query: query, Catalog: catalog}

	bh := NewBookingHandler(bookings, query, inventory, docs)
	ch := NewCatalogHandler(pricing)

	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		if caller.Authenticated() {
			middleware.SetCaller(c, caller)
		}
		c.Next()
	})
	api := r.Group("/api")
	api.GET("/packages", ch.Packages)
	api.GET("/packages/:id", ch.Package)
	api.POST("/quotes", ch.Quote)
	b := api.Group("/bookings")
	b.GET("/seat-status", bh.SeatStatus)
	b.GET("/occupied-seats", bh.OccupiedSeats)
	b.GET("/available-seats", bh.AvailableSeats)
	b.POST("/refresh-seats", bh.RefreshSeats)
	b.POST("", bh.Create)
	b.GET("/user/:userId", bh.ListByUser)
	b.DELETE("/clear-occupied-seats", bh.ClearOccupiedSeats)
	b.DELETE("/clear-all-test-bookings", bh.ClearAllTestBookings)
	b.POST("/update-seat-status", bh.UpdateSeatStatus)
	b.GET("", bh.ListAll)
	b.GET("/all", bh.ListAll)
	b.GET("/recent", bh.Recent)
	b.GET("/today", bh.Today)
	b.GET("/bus/:busId", bh.ListByBus)
	b.GET("/route/:routeId", bh.ListByRoute)
	b.GET("/:id", bh.Get)
	b.GET("/:id/e-ticket", bh.ETicket)
	b.PUT("/:id/cancel", bh.Cancel)
	b.PUT("/:id/status", bh.UpdateStatus)

	return &testServer{store: store, r: r}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

const bookingBody = `{
	"userId": "7",
	"busId": 1,
	"routeId": 1,
	"passengerName": "Nimal Perera",
	"passengerEmail": "nimal@example.com",
	"passengerPhone": "0771234567",
	"selectedSeats": %s
}`

func bookingJSON(seats string) string {
	return strings.Replace(bookingBody, "%s", seats, 1)
}

func TestSeatStatusReportsCounts(t *testing.T) {
	s := newTestServer(t, user7)
	if w := s.do(http.MethodPost, "/api/bookings", bookingJSON(`["3","4"]`)); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w := s.do(http.MethodGet, "/api/bookings/seat-status?busId=1&routeId=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[struct {
		Occupied       []string `json:"occupiedSeats"`
		Total          int      `json:"totalSeats"`
		OccupiedCount  int      `json:"occupiedCount"`
		AvailableCount int      `json:"availableCount"`
	}](t, w)
	if got.Total != 40 || got.OccupiedCount != 2 || got.AvailableCount != 38 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if !reflect.DeepEqual(got.Occupied, []string{"3", "4"}) {
		t.Fatalf("unexpected occupied seats %v", got.Occupied)
	}
}

func TestAvailableAndRefreshSeats(t *testing.T) {
	s := newTestServer(t, user7)
	s.do(http.MethodPost, "/api/bookings", bookingJSON(`["1"]`))

	w := s.do(http.MethodGet, "/api/bookings/available-seats?busId=1&routeId=1", "")
	if got := decode[map[string]int](t, w)["availableSeats"]; got != 39 {
		t.Fatalf("expected 39 available, got %d", got)
	}
	w = s.do(http.MethodPost, "/api/bookings/refresh-seats", `{"busId":"1","routeId":"1"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"occupiedCount":1`) {
		t.Fatalf("unexpected refresh %d: %s", w.Code, w.Body.String())
	}
}

func TestSeatStatusRequiresScope(t *testing.T) {
	s := newTestServer(t, anon)
	if w := s.do(http.MethodGet, "/api/bookings/seat-status?busId=1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/bookings/occupied-seats?busId=99&routeId=1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown bus, got %d", w.Code)
	}
}

func TestCreateBookingAcceptsEncodedSeatList(t *testing.T) {
	s := newTestServer(t, user7)
	w := s.do(http.MethodPost, "/api/bookings", bookingJSON(`"[\"12\",\"13\"]"`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	b := decode[models.Booking](t, w)
	if !reflect.DeepEqual(b.SelectedSeats, []string{"12", "13"}) || b.TotalPrice != 3000 {
		t.Fatalf("unexpected booking %+v", b)
	}
	if !strings.HasPrefix(b.Reference, "BK-") {
		t.Fatalf("unexpected reference %q", b.Reference)
	}
}

func TestCreateBookingConflictNamesSeats(t *testing.T) {
	s := newTestServer(t, user7)
	if w := s.do(http.MethodPost, "/api/bookings", bookingJSON(`[12]`)); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w := s.do(http.MethodPost, "/api/bookings", bookingJSON(`[11,12]`))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Code != "seats_unavailable" || !reflect.DeepEqual(resp.Seats, []string{"12"}) {
		t.Fatalf("unexpected conflict payload %+v", resp)
	}
}

func TestCreateBookingErrorCodes(t *testing.T) {
	cases := map[string]struct {
		caller domain.RequestContext
		body   string
		status int
		code   string
	}{
		"empty body":     {user7, "", http.StatusBadRequest, "invalid_request"},
		"no seats":       {user7, bookingJSON(`[]`), http.StatusBadRequest, "invalid_request"},
		"seat too large": {user7, bookingJSON(`["41"]`), http.StatusBadRequest, "invalid_request"},
		"bad user id":    {user7, strings.Replace(bookingJSON(`["1"]`), `"7"`, `"seven"`, 1), http.StatusBadRequest, "invalid_request"},
		"reversed dates": {user7, strings.Replace(bookingJSON(`["1"]`), `"busId"`, `"packageId": 2, "startDate": "2024-06-03", "endDate": "2024-06-01", "busId"`, 1), http.StatusBadRequest, "invalid_date_range"},
		"unknown option": {user7, strings.Replace(bookingJSON(`["1"]`), `"busId"`, `"packageId": 2, "mealOptionId": 205, "startDate": "2024-06-01", "endDate": "2024-06-03", "busId"`, 1), http.StatusBadRequest, "unknown_option"},
		"unknown bus":    {user7, strings.Replace(bookingJSON(`["1"]`), `"busId": 1`, `"busId": 99`, 1), http.StatusBadRequest, "invalid_request"},
		"unknown route":  {user7, strings.Replace(bookingJSON(`["1"]`), `"routeId": 1`, `"routeId": 99`, 1), http.StatusBadRequest, "invalid_request"},
		"unknown pkg":    {user7, strings.Replace(bookingJSON(`["1"]`), `"busId"`, `"packageId": 999, "startDate": "2024-06-01", "endDate": "2024-06-03", "busId"`, 1), http.StatusBadRequest, "invalid_request"},
		"user dataset":   {user7, strings.Replace(bookingJSON(`["1"]`), `"busId"`, `"dataset": "test", "busId"`, 1), http.StatusForbidden, "unauthorized"},
		"other user":     {domain.RequestContext{UserID: 8, Role: domain.RoleUser}, bookingJSON(`["1"]`), http.StatusForbidden, "unauthorized"},
		"anonymous":      {anon, bookingJSON(`["1"]`), http.StatusUnauthorized, "unauthorized"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, tc.caller)
			w := s.do(http.MethodPost, "/api/bookings", tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if got := decode[ErrorResponse](t, w).Code; got != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, got)
			}
			occ, _ := s.store.OccupiedSeats(context.Background(), models.SeatScope{BusID: 1, RouteID: 1})
			if len(occ) != 0 {
				t.Fatalf("failed request occupied %v", occ)
			}
		})
	}
}

func TestQuoteMatchesBookingTotal(t *testing.T) {
	s := newTestServer(t, user7)
	quote := `{"packageId": "2", "mealOptionId": 202, "hotelOptionId": 205, "transportOptionId": 207, "startDate": "2024-06-01", "endDate": "2024-06-03"}`
	w := s.do(http.MethodPost, "/api/quotes", quote)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	q := decode[models.Quote](t, w)
	if q.Total != 100500 {
		t.Fatalf("expected 100500, got %d", q.Total)
	}

	body := strings.Replace(bookingJSON(`["1","2"]`), `"busId"`, `"packageId": 2, "mealOptionId": 202, "hotelOptionId": 205, "transportOptionId": 207, "startDate": "2024-06-01", "endDate": "2024-06-03", "totalPrice": "99.50", "busId"`, 1)
	w = s.do(http.MethodPost, "/api/bookings", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if b := decode[models.Booking](t, w); b.TotalPrice != q.Total {
		t.Fatalf("booking total %d differs from quote %d", b.TotalPrice, q.Total)
	}
}

func TestPackagesListed(t *testing.T) {
	s := newTestServer(t, anon)
	w := s.do(http.MethodGet, "/api/packages", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if list := decode[[]models.Package](t, w); len(list) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(list))
	}
	if w := s.do(http.MethodGet, "/api/packages/42", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCancelReleasesSeats(t *testing.T) {
	s := newTestServer(t, user7)
	w := s.do(http.MethodPost, "/api/bookings", bookingJSON(`["20"]`))
	b := decode[models.Booking](t, w)

	path := "/api/bookings/" + itoa(b.ID) + "/cancel"
	if w := s.do(http.MethodPut, path, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodPut, path, ""); w.Code != http.StatusConflict {
		t.Fatalf("second cancel should conflict, got %d", w.Code)
	}
	occ, _ := s.store.OccupiedSeats(context.Background(), models.SeatScope{BusID: 1, RouteID: 1})
	if len(occ) != 0 {
		t.Fatalf("seat still occupied: %v", occ)
	}
}

func TestListByUserOwnerOnly(t *testing.T) {
	s := newTestServer(t, user7)
	s.do(http.MethodPost, "/api/bookings", bookingJSON(`["1"]`))
	s.do(http.MethodPost, "/api/bookings", bookingJSON(`["2"]`))

	w := s.do(http.MethodGet, "/api/bookings/user/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decode[[]models.Booking](t, w)
	if len(list) != 2 || list[0].SelectedSeats[0] != "2" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if w := s.do(http.MethodGet, "/api/bookings/user/8", ""); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestUpdateSeatStatusOnlyOccupied(t *testing.T) {
	s := newTestServer(t, admin)
	w := s.do(http.MethodPost, "/api/bookings/update-seat-status", `{"busId":1,"routeId":1,"seatNumbers":["5"],"status":"AVAILABLE"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w = s.do(http.MethodPost, "/api/bookings/update-seat-status", `{"busId":1,"routeId":1,"seatNumbers":["5","6"],"status":"occupied","note":"driver"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	occ, _ := s.store.OccupiedSeats(context.Background(), models.SeatScope{BusID: 1, RouteID: 1})
	if !reflect.DeepEqual(occ, []string{"5", "6"}) {
		t.Fatalf("unexpected occupancy %v", occ)
	}
}

func TestClearAllTestBookingsDefaultsToTestDataset(t *testing.T) {
	s := newTestServer(t, admin)
	live := strings.Replace(bookingJSON(`["1"]`), `"7"`, `"1"`, 1)
	test := strings.Replace(bookingJSON(`["2"]`), `"busId"`, `"dataset": "test", "busId"`, 1)
	test = strings.Replace(test, `"7"`, `"1"`, 1)
	for _, body := range []string{live, test} {
		if w := s.do(http.MethodPost, "/api/bookings", body); w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := s.do(http.MethodDelete, "/api/bookings/clear-all-test-bookings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[struct {
		Message   string `json:"message"`
		Cancelled int    `json:"cancelledBookings"`
	}](t, w)
	if got.Cancelled != 1 || got.Message == "" {
		t.Fatalf("unexpected result %+v", got)
	}
	occ, _ := s.store.OccupiedSeats(context.Background(), models.SeatScope{BusID: 1, RouteID: 1})
	if !reflect.DeepEqual(occ, []string{"1"}) {
		t.Fatalf("live booking should keep seat 1, got %v", occ)
	}
}

func TestUnknownPackageQuoteIsBadRequest(t *testing.T) {
	s := newTestServer(t, user7)
	w := s.do(http.MethodPost, "/api/quotes", `{"packageId": 999, "startDate": "2024-06-01", "endDate": "2024-06-03"}`)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != "invalid_request" {
		t.Fatalf("expected 400 invalid_request, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/packages/999", ""); w.Code != http.StatusNotFound {
		t.Fatalf("package lookup should stay 404, got %d", w.Code)
	}
}

func TestAdminBookingListings(t *testing.T) {
	s := newTestServer(t, admin)
	onRoute2 := strings.Replace(bookingJSON(`["3"]`), `"routeId": 1`, `"routeId": 2`, 1)
	for _, body := range []string{bookingJSON(`["1"]`), bookingJSON(`["2"]`), onRoute2} {
		if w := s.do(http.MethodPost, "/api/bookings", body); w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	cases := map[string]struct {
		path string
		want int
	}{
		"root":     {"/api/bookings", 3},
		"all":      {"/api/bookings/all", 3},
		"bus":      {"/api/bookings/bus/1", 3},
		"route":    {"/api/bookings/route/1", 2},
		"recent":   {"/api/bookings/recent?limit=1", 1},
		"today":    {"/api/bookings/today", 3},
		"no match": {"/api/bookings/bus/2", 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodGet, tc.path, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			if got := decode[[]models.Booking](t, w); len(got) != tc.want {
				t.Fatalf("expected %d bookings, got %d", tc.want, len(got))
			}
		})
	}

	if w := s.do(http.MethodGet, "/api/bookings/route/99", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/bookings/recent?limit=zero", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}

	user := newTestServer(t, user7)
	if w := user.do(http.MethodGet, "/api/bookings/all", ""); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a user, got %d", w.Code)
	}
}

func TestClearOccupiedSeatsRequiresAdmin(t *testing.T) {
	s := newTestServer(t, user7)
	w := s.do(http.MethodDelete, "/api/bookings/clear-occupied-seats?busId=1&routeId=1", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestETicketServesPDF(t *testing.T) {
	s := newTestServer(t, user7)
	b := decode[models.Booking](t, s.do(http.MethodPost, "/api/bookings", bookingJSON(`["9"]`)))

	w := s.do(http.MethodGet, "/api/bookings/"+itoa(b.ID)+"/e-ticket", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a pdf")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "ETICKET_"+b.Reference) {
		t.Fatalf("unexpected disposition %q", cd)
	}
}

func TestSeatListDecoding(t *testing.T) {
	cases := map[string][]string{
		`["1","2"]`:       {"1", "2"},
		`[3, 4]`:          {"3", "4"},
		`"[\"5\",\"6\"]"`: {"5", "6"},
		`"7, 8"`:          {"7", "8"},
		`null`:            nil,
	}
	for in, want := range cases {
		var l seatList
		if err := json.Unmarshal([]byte(in), &l); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !reflect.DeepEqual([]string(l), want) {
			t.Fatalf("%s: expected %v, got %v", in, want, l)
		}
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
