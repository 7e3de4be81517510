package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/models"
	"hotelbooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type cancellationFixture struct {
	inv   *mockInventory
	store *fakeStore
	bus   *recordingBus
	svc   *CancellationService
}

func newCancellationFixture(t *testing.T) *cancellationFixture {
	t.Helper()
	inv := new(mockInventory)
	store := newFakeStore()
	bus := &recordingBus{}
	cfg := config.BookingConfig{CancelledStatusID: 2, OTPSendLimit: 3, OTPSendWindow: time.Minute}
	svc := NewCancellationService(inv, store, store, store, repository.NewMemoryStore(), bus, cfg, nil)

	store.bookings[100] = &models.Booking{
		BookingID: 100,
		Active:    true,
		TenantID:  1,
		StartDate: stayStart,
		EndDate:   stayEnd,
		GuestInfo: models.GuestInfo{FirstName: "Ada", EmailID: "ada@example.com"},
	}
	store.guests["ada@example.com"] = &models.Guest{GuestID: 77, EmailID: "ada@example.com", Token: "secret-token"}
	return &cancellationFixture{inv: inv, store: store, bus: bus, svc: svc}
}

func (f *cancellationFixture) expectRemoteCancel(bookingID int64, linked ...int64) {
	f.inv.On("ResetBookingStatus", mock.Anything, bookingID, int64(2)).Return(nil).Once()
	f.inv.On("ListBookedAvailabilityIDs", mock.Anything, bookingID).Return(linked, nil).Once()
	for _, id := range linked {
		f.inv.On("LinkAvailability", mock.Anything, id, int64(0)).Return(nil).Once()
	}
}

func TestCancelAdmin(t *testing.T) {
	f := newCancellationFixture(t)
	f.expectRemoteCancel(100, 1, 2, 3)

	require.NoError(t, f.svc.CancelAdmin(context.Background(), 100))

	f.inv.AssertExpectations(t)
	assert.False(t, f.store.bookings[100].Active)
	assert.Equal(t, []string{events.EventBookingCancelled}, f.bus.events)
}

func TestCancelAdminNotFoundMakesNoRemoteCalls(t *testing.T) {
	f := newCancellationFixture(t)

	err := f.svc.CancelAdmin(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.inv.Calls)
}

func TestCancelAdminAlreadyCancelled(t *testing.T) {
	f := newCancellationFixture(t)
	f.store.bookings[100].Active = false

	err := f.svc.CancelAdmin(context.Background(), 100)
	require.ErrorIs(t, err, domain.ErrCustom)
	assert.EqualError(t, err, "Booking already cancelled")
	assert.Empty(t, f.inv.Calls)
}

func TestCancelAdminStatusResetFailureAborts(t *testing.T) {
	f := newCancellationFixture(t)
	f.inv.On("ResetBookingStatus", mock.Anything, int64(100), int64(2)).
		Return(domain.Wrap(domain.ErrFetchFailed, "Failed to fetch data from inventory service", errors.New("down")))

	err := f.svc.CancelAdmin(context.Background(), 100)
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.True(t, f.store.bookings[100].Active)
	f.inv.AssertNotCalled(t, "ListBookedAvailabilityIDs", mock.Anything, mock.Anything)
}

func TestCancelAdminUnlinkFailuresAreLogged(t *testing.T) {
	f := newCancellationFixture(t)
	f.inv.On("ResetBookingStatus", mock.Anything, int64(100), int64(2)).Return(nil)
	f.inv.On("ListBookedAvailabilityIDs", mock.Anything, int64(100)).Return([]int64{1, 2}, nil)
	f.inv.On("LinkAvailability", mock.Anything, int64(1), int64(0)).Return(errors.New("timeout"))
	f.inv.On("LinkAvailability", mock.Anything, int64(2), int64(0)).Return(nil)

	require.NoError(t, f.svc.CancelAdmin(context.Background(), 100))
	f.inv.AssertNumberOfCalls(t, "LinkAvailability", 2)
	assert.False(t, f.store.bookings[100].Active)
}

func TestCancelWithToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "matching token", token: "secret-token"},
		{name: "stale token", token: "old-token", wantErr: domain.ErrUnauthorized},
		{name: "empty token", token: "", wantErr: domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCancellationFixture(t)
			if tt.wantErr == nil {
				f.expectRemoteCancel(100)
			}

			err := f.svc.CancelWithToken(context.Background(), 100, tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.inv.Calls)
				assert.True(t, f.store.bookings[100].Active)
				return
			}
			require.NoError(t, err)
			assert.False(t, f.store.bookings[100].Active)
		})
	}
}

func TestSendOTP(t *testing.T) {
	f := newCancellationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, 100, "ada@example.com"))

	otp := f.store.bookings[100].OTP
	assert.Len(t, otp, 6)
	require.Len(t, f.bus.otps, 1)
	assert.Equal(t, otp, f.bus.otps[0].OTP)
	assert.Equal(t, "ada@example.com", f.bus.otps[0].Email)

	err := f.svc.SendOTP(ctx, 999, "ada@example.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendOTPThrottled(t *testing.T) {
	f := newCancellationFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.SendOTP(ctx, 100, "ada@example.com"))
	}
	err := f.svc.SendOTP(ctx, 100, "ada@example.com")
	require.ErrorIs(t, err, domain.ErrCustom)
	assert.Len(t, f.bus.otps, 3)
}

func TestVerifyOTPMismatchChangesNothing(t *testing.T) {
	f := newCancellationFixture(t)
	f.store.bookings[100].OTP = "123456"

	ok, err := f.svc.VerifyOTP(context.Background(), 100, "654321")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.store.bookings[100].Active)
	assert.Equal(t, "123456", f.store.bookings[100].OTP)
	assert.Empty(t, f.inv.Calls)
}

func TestVerifyOTPWithoutIssuedCode(t *testing.T) {
	f := newCancellationFixture(t)

	ok, err := f.svc.VerifyOTP(context.Background(), 100, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.store.bookings[100].Active)
}

func TestVerifyOTPMatchCancels(t *testing.T) {
	f := newCancellationFixture(t)
	f.store.bookings[100].OTP = "123456"
	f.expectRemoteCancel(100, 7)

	ok, err := f.svc.VerifyOTP(context.Background(), 100, "123456")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.store.bookings[100].Active)
	assert.Empty(t, f.store.bookings[100].OTP)

	// the code is single use
	ok, err = f.svc.VerifyOTP(context.Background(), 100, "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAll(t *testing.T) {
	f := newCancellationFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("tenant-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	f.store.tenants[1] = &models.Tenant{ID: 1, Name: "Grand", SecretHash: string(hash)}
	f.store.bookings[101] = &models.Booking{BookingID: 101, Active: false, TenantID: 1}
	f.store.bookings[200] = &models.Booking{BookingID: 200, Active: true, TenantID: 2}
	ctx := context.Background()

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := f.svc.DeleteAll(ctx, 9, "tenant-secret")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := f.svc.DeleteAll(ctx, 1, "guess")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Empty(t, f.inv.Calls)
	})

	t.Run("deletes tenant bookings", func(t *testing.T) {
		f.expectRemoteCancel(100, 1)
		f.inv.On("ResetBookingStatus", mock.Anything, int64(101), int64(2)).Return(errors.New("gone")).Once()
		f.inv.On("ListBookedAvailabilityIDs", mock.Anything, int64(101)).Return([]int64{}, nil).Once()

		n, err := f.svc.DeleteAll(ctx, 1, "tenant-secret")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Len(t, f.store.bookings, 1)
		f.inv.AssertExpectations(t)
	})
}
