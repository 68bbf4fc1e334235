package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
)

func occupyFn(userID int64, seats ...string) func(ctx context.Context, l SeatLedger) error {
	return func(ctx context.Context, l SeatLedger) error {
		b := models.Booking{UserID: userID, BusID: l.Scope().BusID, RouteID: l.Scope().RouteID, SelectedSeats: seats, Status: models.StatusConfirmed}
		if err := l.InsertBooking(ctx, &b); err != nil {
			return err
		}
		return l.MarkOccupied(ctx, b.ID, seats)
	}
}

func TestMemoryStoreCommitIsVisible(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Atomic(context.Background(), scope11, occupyFn(1, "2", "10")); err != nil {
		t.Fatalf("atomic: %v", err)
	}
	seats, _ := s.OccupiedSeats(context.Background(), scope11)
	if len(seats) != 2 || seats[0] != "2" || seats[1] != "10" {
		t.Fatalf("expected [2 10] in numeric order, got %v", seats)
	}
	other, _ := s.OccupiedSeats(context.Background(), models.SeatScope{BusID: 1, RouteID: 2})
	if len(other) != 0 {
		t.Fatalf("other scope must be empty, got %v", other)
	}
}

func TestMemoryStoreFailedUnitLeavesNoTrace(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("boom")
	err := s.Atomic(context.Background(), scope11, func(ctx context.Context, l SeatLedger) error {
		if err := occupyFn(1, "5")(ctx, l); err != nil {
			return err
		}
		return boom
	})
	if !domain.IsStorageUnavailable(err) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	seats, _ := s.OccupiedSeats(context.Background(), scope11)
	if len(seats) != 0 {
		t.Fatalf("expected no occupancy after failed unit, got %v", seats)
	}
	list, _ := s.BookingsByUser(context.Background(), 1)
	if len(list) != 0 {
		t.Fatalf("expected no bookings after failed unit, got %d", len(list))
	}
}

func TestMemoryStoreCommitHookFailureRollsBack(t *testing.T) {
	s := NewMemoryStore()
	s.BeforeCommit = func(models.SeatScope) error { return errors.New("disk full") }
	err := s.Atomic(context.Background(), scope11, occupyFn(1, "5"))
	if !domain.IsStorageUnavailable(err) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	seats, _ := s.OccupiedSeats(context.Background(), scope11)
	if len(seats) != 0 {
		t.Fatalf("expected rollback, got %v", seats)
	}
}

func TestMemoryStoreMarkAndReleaseIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Atomic(ctx, scope11, occupyFn(1, "7")); err != nil {
		t.Fatalf("atomic: %v", err)
	}
	err := s.Atomic(ctx, scope11, func(ctx context.Context, l SeatLedger) error {
		if err := l.MarkOccupied(ctx, 999, []string{"7"}); err != nil {
			return err
		}
		return l.Release(ctx, []string{"8"})
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	seats, _ := s.OccupiedSeats(ctx, scope11)
	if len(seats) != 1 || seats[0] != "7" {
		t.Fatalf("expected occupancy unchanged, got %v", seats)
	}
}

func TestMemoryStoreSerializesScope(t *testing.T) {
	s := NewMemoryStore()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(context.Background(), scope11, func(ctx context.Context, l SeatLedger) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected one unit at a time, saw %d", maxSeen)
	}
}

func TestMemoryStoreLockWaitHonorsContext(t *testing.T) {
	s := NewMemoryStore()
	hold := make(chan struct{})
	entered := make(chan struct{})
	go func() {
		_ = s.Atomic(context.Background(), scope11, func(ctx context.Context, l SeatLedger) error {
			close(entered)
			<-hold
			return nil
		})
	}()
	<-entered
	defer close(hold)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Atomic(ctx, scope11, occupyFn(2, "1"))
	if !domain.IsStorageUnavailable(err) {
		t.Fatalf("expected storage unavailable on lock timeout, got %v", err)
	}
}

func TestMemoryStoreDatasetScopes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, sc := range []models.SeatScope{{BusID: 2, RouteID: 1}, {BusID: 1, RouteID: 1}} {
		sc := sc
		err := s.Atomic(ctx, sc, func(ctx context.Context, l SeatLedger) error {
			b := models.Booking{BusID: sc.BusID, RouteID: sc.RouteID, SelectedSeats: []string{"1"}, Status: models.StatusConfirmed, Dataset: models.DatasetTest}
			return l.InsertBooking(ctx, &b)
		})
		if err != nil {
			t.Fatalf("atomic: %v", err)
		}
	}
	scopes, _ := s.DatasetScopes(ctx, models.DatasetTest)
	if len(scopes) != 2 || scopes[0].BusID != 1 || scopes[1].BusID != 2 {
		t.Fatalf("unexpected scopes %v", scopes)
	}
	live, _ := s.DatasetScopes(ctx, models.DatasetLive)
	if len(live) != 0 {
		t.Fatalf("expected no live scopes, got %v", live)
	}
}

func TestMemoryStoreBookingsFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	day := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		sc   models.SeatScope
		when time.Time
	}{
		{models.SeatScope{BusID: 1, RouteID: 1}, day.Add(-2 * time.Hour)},
		{models.SeatScope{BusID: 1, RouteID: 2}, day.Add(9 * time.Hour)},
		{models.SeatScope{BusID: 2, RouteID: 1}, day.Add(11 * time.Hour)},
		{models.SeatScope{BusID: 1, RouteID: 1}, day.Add(30 * time.Hour)},
	}
	for _, r := range rows {
		r := r
		err := s.Atomic(ctx, r.sc, func(ctx context.Context, l SeatLedger) error {
			b := models.Booking{BusID: r.sc.BusID, RouteID: r.sc.RouteID, SelectedSeats: []string{"1"}, Status: models.StatusConfirmed, BookingDate: r.when}
			return l.InsertBooking(ctx, &b)
		})
		if err != nil {
			t.Fatalf("atomic: %v", err)
		}
	}

	all, _ := s.Bookings(ctx, BookingFilter{})
	if len(all) != 4 || all[0].ID != 4 || all[3].ID != 1 {
		t.Fatalf("expected all four newest first, got %+v", all)
	}
	bus1, _ := s.Bookings(ctx, BookingFilter{BusID: 1})
	if len(bus1) != 3 {
		t.Fatalf("expected 3 bookings on bus 1, got %d", len(bus1))
	}
	route1, _ := s.Bookings(ctx, BookingFilter{RouteID: 1})
	if len(route1) != 3 || route1[1].ID != 3 {
		t.Fatalf("unexpected route 1 listing %+v", route1)
	}
	today, _ := s.Bookings(ctx, BookingFilter{From: day, To: day.Add(24 * time.Hour)})
	if len(today) != 2 || today[0].ID != 3 || today[1].ID != 2 {
		t.Fatalf("expected bookings 3 and 2 inside the day, got %+v", today)
	}
	recent, _ := s.Bookings(ctx, BookingFilter{Limit: 2})
	if len(recent) != 2 || recent[0].ID != 4 || recent[1].ID != 3 {
		t.Fatalf("expected the two newest, got %+v", recent)
	}
}

func TestSeedDemoPackagesAreBookable(t *testing.T) {
	c := NewMemoryCatalog()
	SeedMemory(c, Demo())
	pkgs, _ := c.Packages(context.Background())
	if len(pkgs) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(pkgs))
	}
	for _, p := range pkgs {
		if !p.Bookable() {
			t.Fatalf("package %s is not bookable", p.Code)
		}
	}
	std, _ := c.Package(context.Background(), 2)
	if o, ok := std.Option(models.OptionHotel, 205); !ok || o.Price != 3000 {
		t.Fatalf("expected hotel 205 at 3000, got %+v", o)
	}
}
