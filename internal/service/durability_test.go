package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/models"
	"hotelbooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "bookings.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCommitMirrorsAfterCallerCancels(t *testing.T) {
	db := newTestDB(t)
	inv := new(mockInventory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inv.On("ListFreeAvailabilityIDs", mock.Anything, int64(5), int64(11), stayStart, stayEnd).
		Return([]int64{501, 502, 503}, nil)
	inv.On("CreateBooking", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(int64(4242), nil)
	inv.On("LinkAvailability", mock.Anything, int64(502), int64(4242)).Return(nil).Once()
	inv.On("LinkAvailability", mock.Anything, int64(503), int64(4242)).Return(nil).Once()

	c := NewBookingCommitter(inv, db, &recordingBus{}, 1, nil)
	id, err := c.Commit(ctx, []int64{5}, validBookingRequest(1), 77)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), id)
	inv.AssertExpectations(t)

	mirror, err := db.GetBooking(context.Background(), 4242)
	require.NoError(t, err)
	assert.True(t, mirror.Active)
	assert.Equal(t, int64(77), mirror.GuestID)
}

func TestCancelDeactivatesMirrorAfterCallerCancels(t *testing.T) {
	db := newTestDB(t)
	inv := new(mockInventory)
	bg := context.Background()
	require.NoError(t, db.CreateBooking(bg, &models.Booking{
		BookingID: 300,
		Active:    true,
		TenantID:  1,
		StartDate: stayStart,
		EndDate:   stayEnd,
		GuestInfo: models.GuestInfo{FirstName: "Ada", EmailID: "ada@example.com"},
	}))

	ctx, cancel := context.WithCancel(bg)
	defer cancel()
	inv.On("ResetBookingStatus", mock.Anything, int64(300), int64(2)).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil).Once()
	inv.On("ListBookedAvailabilityIDs", mock.Anything, int64(300)).Return([]int64{9}, nil).Once()
	inv.On("LinkAvailability", mock.Anything, int64(9), int64(0)).Return(nil).Once()

	cfg := config.BookingConfig{CancelledStatusID: 2}
	svc := NewCancellationService(inv, db, db, db, repository.NewMemoryStore(), &recordingBus{}, cfg, nil)
	require.NoError(t, svc.CancelAdmin(ctx, 300))
	inv.AssertExpectations(t)

	mirror, err := db.GetBooking(bg, 300)
	require.NoError(t, err)
	assert.False(t, mirror.Active)
}

func TestGuestResolverConcurrentFirstSighting(t *testing.T) {
	db := newTestDB(t)
	inv := new(mockInventory)
	inv.On("CreateGuest", mock.Anything, "Ada").
		After(50*time.Millisecond).
		Return(int64(101), nil).Once()
	inv.On("CreateGuest", mock.Anything, "Ada").Return(int64(102), nil).Once()

	r := NewGuestResolver(db, inv, nil)
	info := models.GuestInfo{FirstName: "Ada", EmailID: "ada@example.com"}

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		ids   [2]int64
		errs  [2]error
	)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = r.Resolve(context.Background(), info, "t")
		}(i)
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, ids[0], ids[1])

	stored, err := db.GetGuestByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, stored.GuestID, ids[0])
	inv.AssertNumberOfCalls(t, "CreateGuest", 1)
}

func TestGuestResolverReturnsStoredID(t *testing.T) {
	db := newTestDB(t)
	inv := new(mockInventory)
	ctx := context.Background()

	// Another writer stored the guest between our lookup and the upsert.
	inv.On("CreateGuest", mock.Anything, "Ada").
		Run(func(mock.Arguments) {
			require.NoError(t, db.UpsertGuest(ctx, &models.Guest{GuestID: 55, EmailID: "ada@example.com", Token: "other"}))
		}).
		Return(int64(101), nil).Once()

	r := NewGuestResolver(db, inv, nil)
	id, err := r.Resolve(ctx, models.GuestInfo{FirstName: "Ada", EmailID: "ada@example.com"}, "mine")
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
}

func TestVerifyOTPKeepsCodeWhenRemoteFails(t *testing.T) {
	f := newCancellationFixture(t)
	f.store.bookings[100].OTP = "123456"
	f.inv.On("ResetBookingStatus", mock.Anything, int64(100), int64(2)).
		Return(domain.NewError(domain.ErrFetchFailed, "Failed to fetch data")).Once()

	ok, err := f.svc.VerifyOTP(context.Background(), 100, "123456")
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.False(t, ok)
	assert.True(t, f.store.bookings[100].Active)
	assert.Equal(t, "123456", f.store.bookings[100].OTP)

	f.expectRemoteCancel(100)
	ok, err = f.svc.VerifyOTP(context.Background(), 100, "123456")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.store.bookings[100].Active)
}
