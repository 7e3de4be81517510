package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/events"
	"hotelbooking/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) ListFreeRoomIDs(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]int64, error) {
	args := m.Called(ctx, start, end, roomTypeID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockInventory) ListFreeAvailabilityIDs(ctx context.Context, roomID, propertyID int64, start, end time.Time) ([]int64, error) {
	args := m.Called(ctx, roomID, propertyID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockInventory) CreateGuest(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInventory) CreateBooking(ctx context.Context, in models.RemoteBooking) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInventory) LinkAvailability(ctx context.Context, availabilityID, bookingID int64) error {
	return m.Called(ctx, availabilityID, bookingID).Error(0)
}

func (m *mockInventory) ResetBookingStatus(ctx context.Context, bookingID, statusID int64) error {
	return m.Called(ctx, bookingID, statusID).Error(0)
}

func (m *mockInventory) ListBookedAvailabilityIDs(ctx context.Context, bookingID int64) ([]int64, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// fakeStore is an in-memory stand-in for the sqlite store. Hold inserts
// enforce the same key uniqueness.
type fakeStore struct {
	mu        sync.Mutex
	holds     map[models.RoomHold]bool
	bookings  map[int64]*models.Booking
	guests    map[string]*models.Guest
	tenants   map[int64]*models.Tenant
	promos    map[string]models.Promotion
	holdErr   error
	createErr error
	upserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		holds:    map[models.RoomHold]bool{},
		bookings: map[int64]*models.Booking{},
		guests:   map[string]*models.Guest{},
		tenants:  map[int64]*models.Tenant{},
		promos:   map[string]models.Promotion{},
	}
}

func holdKey(h models.RoomHold) models.RoomHold {
	h.ExpiresAt = time.Time{}
	h.CreatedAt = time.Time{}
	return h
}

func (f *fakeStore) InsertHold(_ context.Context, h *models.RoomHold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holdErr != nil {
		return f.holdErr
	}
	k := holdKey(*h)
	if f.holds[k] {
		return database.ErrHoldConflict
	}
	f.holds[k] = true
	return nil
}

func (f *fakeStore) DeleteHold(_ context.Context, h models.RoomHold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holds, holdKey(h))
	return nil
}

func (f *fakeStore) DeleteExpiredHolds(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeStore) holdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.holds)
}

func (f *fakeStore) GetGuestByEmail(_ context.Context, email string) (*models.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guests[email]
	if !ok {
		return nil, database.ErrGuestNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeStore) UpsertGuest(_ context.Context, g *models.Guest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if existing, ok := f.guests[g.EmailID]; ok {
		existing.Token = g.Token
		existing.HasSubscribed = g.HasSubscribed
		return nil
	}
	cp := *g
	f.guests[g.EmailID] = &cp
	return nil
}

func (f *fakeStore) UpdateGuestToken(_ context.Context, email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guests[email]
	if !ok {
		return database.ErrGuestNotFound
	}
	g.Token = token
	return nil
}

func (f *fakeStore) CreateBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *b
	f.bookings[b.BookingID] = &cp
	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, database.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) SetBookingActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return database.ErrBookingNotFound
	}
	b.Active = active
	return nil
}

func (f *fakeStore) SetBookingOTP(_ context.Context, id int64, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return database.ErrBookingNotFound
	}
	b.OTP = otp
	return nil
}

func (f *fakeStore) ConsumeBookingOTP(_ context.Context, id int64, otp string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || otp == "" || b.OTP != otp {
		return false, nil
	}
	b.OTP = ""
	return true, nil
}

func (f *fakeStore) ListBookingsByEmail(_ context.Context, email string) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Booking
	for _, b := range f.bookings {
		if b.GuestInfo.EmailID == email {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeStore) CountUpcomingByEmail(_ context.Context, email string, today time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.GuestInfo.EmailID == email && b.Active && !b.StartDate.Before(today) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListBookingsByTenant(_ context.Context, tenantID int64) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Booking
	for _, b := range f.bookings {
		if b.TenantID == tenantID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out, nil
}

func (f *fakeStore) DeleteBookingsByTenant(_ context.Context, tenantID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, b := range f.bookings {
		if b.TenantID == tenantID {
			delete(f.bookings, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetTenant(_ context.Context, id int64) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, database.ErrTenantNotFound
	}
	return t, nil
}

func (f *fakeStore) ListActivePromotions(context.Context) ([]models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Promotion{}
	for _, p := range f.promos {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeStore) UpsertPromotion(_ context.Context, p *models.Promotion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promos[p.Title] = *p
	return nil
}

// recordingBus collects published events.
type recordingBus struct {
	mu     sync.Mutex
	events []string
	otps   []events.OTPPayload
}

func (r *recordingBus) PublishJSON(eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	if p, ok := payload.(events.OTPPayload); ok {
		r.otps = append(r.otps, p)
	}
	return nil
}
