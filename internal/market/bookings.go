package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type CreateBookingInput struct {
	UserID      int64     `json:"user_id" validate:"gt=0"`
	ServiceID   int64     `json:"service_id" validate:"gt=0"`
	BookingDate time.Time `json:"booking_date" validate:"required"`
	Notes       *string   `json:"notes" validate:"omitempty,max=2000"`
	Address     *string   `json:"address" validate:"omitempty,max=500"`
}

type CreatedBooking struct {
	ID     int64         `json:"id"`
	Status BookingStatus `json:"status"`
}

type BookingService struct {
	Store     Store
	Events    Publisher
	Log       zerolog.Logger
	TxTimeout time.Duration
}

// CreateBooking records a pending booking for an active service.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (CreatedBooking, error) {
	if err := check(in); err != nil {
		return CreatedBooking{}, err
	}
	txCtx, cancel := withTimeout(ctx, s.TxTimeout)
	defer cancel()

	var id int64
	err := s.Store.WithinTx(txCtx, func(tx Tx) error {
		svc, err := tx.Catalog().GetService(txCtx, in.ServiceID)
		if err != nil {
			return err
		}
		if !svc.IsActive {
			return fmt.Errorf("%w: service %d is inactive", ErrServiceNotFound, svc.ID)
		}
		id, err = tx.Ledger().CreateBooking(txCtx, Booking{
			UserID:      in.UserID,
			ServiceID:   in.ServiceID,
			BookingDate: in.BookingDate.UTC(),
			Status:      BookingPending,
			Notes:       optional(in.Notes),
			Address:     optional(in.Address),
		})
		return err
	})
	if err != nil {
		failure(s.Log, err).Int64("user_id", in.UserID).Int64("service_id", in.ServiceID).Msg("create booking")
		return CreatedBooking{}, err
	}

	s.Log.Info().Int64("booking_id", id).Int64("service_id", in.ServiceID).Msg("booking created")
	publish(ctx, s.Log, s.Events, TopicBookings, EventBookingCreated, id, BookingCreatedPayload{
		BookingID:   id,
		UserID:      in.UserID,
		ServiceID:   in.ServiceID,
		BookingDate: in.BookingDate.UTC(),
	})
	return CreatedBooking{ID: id, Status: BookingPending}, nil
}

func (s *BookingService) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error) {
	if f.Status != "" {
		if _, err := ParseBookingStatus(f.Status); err != nil {
			return nil, err
		}
	}
	return s.Store.Ledger().ListBookings(ctx, f)
}

// UpdateStatus accepts any enumerated booking status; it reports rows updated.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	st, err := ParseBookingStatus(status)
	if err != nil {
		return 0, err
	}
	n, err := s.Store.Ledger().UpdateBookingStatus(ctx, id, st)
	if err != nil {
		failure(s.Log, err).Int64("booking_id", id).Msg("update booking status")
		return 0, err
	}
	if n > 0 {
		s.Log.Info().Int64("booking_id", id).Str("status", string(st)).Msg("booking status updated")
		publish(ctx, s.Log, s.Events, TopicBookings, EventBookingStatusChanged, id, BookingStatusChangedPayload{BookingID: id, Status: st})
	}
	return n, nil
}
