package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func newBookingService() (*market.BookingService, *memStore, *recordingPublisher) {
	st := newMemStore()
	st.addService(market.Service{ID: 1, Name: "Hedge trimming", Price: dec("1500"), IsActive: true})
	st.addService(market.Service{ID: 2, Name: "Tree felling", Price: dec("8000"), IsActive: false})
	pub := &recordingPublisher{}
	return &market.BookingService{Store: st, Events: pub, Log: zerolog.Nop()}, st, pub
}

func TestCreateBooking(t *testing.T) {
	svc, st, pub := newBookingService()

	got, err := svc.CreateBooking(context.Background(), market.CreateBookingInput{
		UserID:      3,
		ServiceID:   1,
		BookingDate: mustTime(t, "2026-11-05T08:30:00+03:00"),
		Notes:       ptr("Gate code 1234"),
		Address:     ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, market.BookingPending, got.Status)

	b := st.state.bookings[got.ID]
	assert.True(t, mustTime(t, "2026-11-05T05:30:00Z").Equal(b.BookingDate))
	require.NotNil(t, b.Notes)
	assert.Nil(t, b.Address)
	assert.Equal(t, []string{market.EventBookingCreated}, pub.types())
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		in      market.CreateBookingInput
		wantErr error
	}{
		{"inactive service", market.CreateBookingInput{UserID: 3, ServiceID: 2, BookingDate: time.Now()}, market.ErrServiceNotFound},
		{"unknown service", market.CreateBookingInput{UserID: 3, ServiceID: 99, BookingDate: time.Now()}, market.ErrNotFound},
		{"missing date", market.CreateBookingInput{UserID: 3, ServiceID: 1}, market.ErrValidation},
		{"missing user", market.CreateBookingInput{ServiceID: 1, BookingDate: time.Now()}, market.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, st, pub := newBookingService()
			_, err := svc.CreateBooking(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, st.state.bookings)
			assert.Empty(t, pub.types())
		})
	}
}

func TestBookingUpdateStatus(t *testing.T) {
	svc, st, pub := newBookingService()
	ctx := context.Background()

	got, err := svc.CreateBooking(ctx, market.CreateBookingInput{UserID: 3, ServiceID: 1, BookingDate: time.Now()})
	require.NoError(t, err)

	n, err := svc.UpdateStatus(ctx, got.ID, "confirmed")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, market.BookingConfirmed, st.state.bookings[got.ID].Status)

	_, err = svc.UpdateStatus(ctx, got.ID, "postponed")
	assert.ErrorIs(t, err, market.ErrInvalidStatus)

	n, err = svc.UpdateStatus(ctx, 5555, "cancelled")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, []string{market.EventBookingCreated, market.EventBookingStatusChanged}, pub.types())
}
