package repositories

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
)

// MemoryStore is an in-process InventoryStore. Each scope has a one-slot
// channel used as a mutex so lock acquisition can honor ctx. Writes made
// inside Atomic are staged on the ledger and applied only on commit.
type MemoryStore struct {
	// BeforeCommit, when set, runs after the callback succeeded and before
	// staged writes are applied. A non-nil error aborts the unit.
	BeforeCommit func(scope models.SeatScope) error

	mu        sync.RWMutex
	occupancy map[models.SeatScope]map[string]int64
	bookings  map[int64]models.Booking

	locksMu sync.Mutex
	locks   map[models.SeatScope]chan struct{}

	nextID atomic.Int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		occupancy: map[models.SeatScope]map[string]int64{},
		bookings:  map[int64]models.Booking{},
		locks:     map[models.SeatScope]chan struct{}{},
	}
}

func (s *MemoryStore) scopeLock(scope models.SeatScope) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[scope]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[scope] = ch
	}
	return ch
}

func (s *MemoryStore) OccupiedSeats(ctx context.Context, scope models.SeatScope) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StorageUnavailableError{Op: "occupied seats", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return seatKeys(s.occupancy[scope]), nil
}

func (s *MemoryStore) Atomic(ctx context.Context, scope models.SeatScope, fn func(ctx context.Context, l SeatLedger) error) error {
	lock := s.scopeLock(scope)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return domain.StorageUnavailableError{Op: "lock scope", Err: ctx.Err()}
	}
	defer func() { <-lock }()

	l := &memoryLedger{store: s, scope: scope, staged: map[int64]models.Booking{}}
	s.mu.RLock()
	l.occupied = make(map[string]int64, len(s.occupancy[scope]))
	for seat, id := range s.occupancy[scope] {
		l.occupied[seat] = id
	}
	s.mu.RUnlock()

	if err := fn(ctx, l); err != nil {
		return storageErr("atomic unit", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.StorageUnavailableError{Op: "commit", Err: err}
	}
	if s.BeforeCommit != nil {
		if err := s.BeforeCommit(scope); err != nil {
			return domain.StorageUnavailableError{Op: "commit", Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.occupancy[scope] = l.occupied
	for id, b := range l.staged {
		s.bookings[id] = b
	}
	return nil
}

func (s *MemoryStore) Booking(ctx context.Context, id int64) (models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) BookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	s.mu.RLock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, cloneBooking(b))
		}
	}
	s.mu.RUnlock()
	SortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	s.mu.RLock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if f.Match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	s.mu.RUnlock()
	SortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) DatasetScopes(ctx context.Context, dataset string) ([]models.SeatScope, error) {
	s.mu.RLock()
	seen := map[models.SeatScope]bool{}
	for _, b := range s.bookings {
		if b.Dataset == dataset && b.Status.Active() {
			seen[b.Scope()] = true
		}
	}
	s.mu.RUnlock()

	out := make([]models.SeatScope, 0, len(seen))
	for sc := range seen {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BusID != out[j].BusID {
			return out[i].BusID < out[j].BusID
		}
		return out[i].RouteID < out[j].RouteID
	})
	return out, nil
}

// SortNewestFirst orders by bookingDate DESC, id DESC.
func SortNewestFirst(list []models.Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].BookingDate.Equal(list[j].BookingDate) {
			return list[i].BookingDate.After(list[j].BookingDate)
		}
		return list[i].ID > list[j].ID
	})
}

type memoryLedger struct {
	store    *MemoryStore
	scope    models.SeatScope
	occupied map[string]int64
	staged   map[int64]models.Booking
}

func (l *memoryLedger) Scope() models.SeatScope { return l.scope }

func (l *memoryLedger) Occupied(ctx context.Context) ([]string, error) {
	return seatKeys(l.occupied), nil
}

func (l *memoryLedger) MarkOccupied(ctx context.Context, bookingID int64, seats []string) error {
	for _, seat := range seats {
		if _, ok := l.occupied[seat]; ok {
			continue
		}
		l.occupied[seat] = bookingID
	}
	return nil
}

func (l *memoryLedger) Release(ctx context.Context, seats []string) error {
	for _, seat := range seats {
		delete(l.occupied, seat)
	}
	return nil
}

func (l *memoryLedger) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.Scope() != l.scope {
		return domain.InternalError{Msg: "booking scope does not match the locked scope"}
	}
	b.ID = l.store.nextID.Add(1)
	l.staged[b.ID] = cloneBooking(*b)
	return nil
}

func (l *memoryLedger) lookup(id int64) (models.Booking, bool) {
	if b, ok := l.staged[id]; ok {
		return b, true
	}
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	b, ok := l.store.bookings[id]
	return b, ok
}

func (l *memoryLedger) BookingForUpdate(ctx context.Context, id int64) (models.Booking, error) {
	b, ok := l.lookup(id)
	if !ok || b.Scope() != l.scope {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return cloneBooking(b), nil
}

func (l *memoryLedger) SetStatus(ctx context.Context, id int64, status models.BookingStatus, at time.Time) error {
	b, ok := l.lookup(id)
	if !ok || b.Scope() != l.scope {
		return domain.NotFoundError{Resource: "booking"}
	}
	b = cloneBooking(b)
	b.Status = status
	b.UpdatedAt = at
	l.staged[id] = b
	return nil
}

func (l *memoryLedger) ActiveBookings(ctx context.Context) ([]models.Booking, error) {
	merged := map[int64]models.Booking{}
	l.store.mu.RLock()
	for id, b := range l.store.bookings {
		if b.Scope() == l.scope {
			merged[id] = b
		}
	}
	l.store.mu.RUnlock()
	for id, b := range l.staged {
		merged[id] = b
	}

	out := []models.Booking{}
	for _, b := range merged {
		if b.Status.Active() {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func seatKeys(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for seat := range m {
		out = append(out, seat)
	}
	models.SortSeats(out)
	return out
}

func cloneBooking(b models.Booking) models.Booking {
	b.SelectedSeats = append([]string(nil), b.SelectedSeats...)
	if b.ClientTotalPrice != nil {
		v := *b.ClientTotalPrice
		b.ClientTotalPrice = &v
	}
	return b
}

// MemoryCatalog is a CatalogStore backed by maps; it is safe for concurrent reads
// after seeding.
type MemoryCatalog struct {
	mu       sync.RWMutex
	buses    map[int64]models.Bus
	routes   map[int64]models.Route
	packages map[int64]models.Package
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		buses:    map[int64]models.Bus{},
		routes:   map[int64]models.Route{},
		packages: map[int64]models.Package{},
	}
}

func (c *MemoryCatalog) PutBus(b models.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buses[b.ID] = b
}

func (c *MemoryCatalog) PutRoute(r models.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[r.ID] = r
}

func (c *MemoryCatalog) PutPackage(p models.Package) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.Options = append([]models.PackageOption(nil), p.Options...)
	c.packages[p.ID] = p
}

func (c *MemoryCatalog) Bus(ctx context.Context, id int64) (models.Bus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.buses[id]
	if !ok {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	return b, nil
}

func (c *MemoryCatalog) Route(ctx context.Context, id int64) (models.Route, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.routes[id]
	if !ok {
		return models.Route{}, domain.NotFoundError{Resource: "route"}
	}
	return r, nil
}

func (c *MemoryCatalog) Package(ctx context.Context, id int64) (models.Package, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.packages[id]
	if !ok {
		return models.Package{}, domain.NotFoundError{Resource: "package"}
	}
	p.Options = append([]models.PackageOption(nil), p.Options...)
	return p, nil
}

func (c *MemoryCatalog) Packages(ctx context.Context) ([]models.Package, error) {
	c.mu.RLock()
	out := make([]models.Package, 0, len(c.packages))
	for _, p := range c.packages {
		p.Options = append([]models.PackageOption(nil), p.Options...)
		out = append(out, p)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
