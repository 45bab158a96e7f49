package reconcile

import (
	"context"

	kafkax "github.com/ariefcatur/greengrove-market/internal/kafka"
	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, in market.PaymentStatusInput) (int64, error)
}

type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Service applies provider payment confirmations to the ledger.
type Service struct {
	Payments StatusUpdater
	Dedup    Dedup
	Log      zerolog.Logger
}

// HandlePaymentConfirmed is installed as the consumer handler. It returns an
// error only for storage faults, so only those messages are retried.
func (s *Service) HandlePaymentConfirmed(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		s.Log.Warn().Err(err).Int64("offset", m.Offset).Msg("dropping undecodable message")
		return nil
	}
	if env.EventType != market.EventPaymentConfirmed {
		return nil
	}
	log := s.Log.With().Str("event_id", env.EventID).Str("trace_id", env.TraceID).Logger()

	if s.Dedup != nil {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		switch {
		case err != nil:
			// the status update is idempotent, so a dedup outage only costs a write
			log.Warn().Err(err).Msg("dedup lookup failed")
		case seen:
			log.Debug().Msg("duplicate event skipped")
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[market.PaymentConfirmedPayload](env.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("dropping event with bad payload")
		return nil
	}

	n, err := s.Payments.UpdateStatus(ctx, p.PaymentID, market.PaymentStatusInput{Status: p.Status, ProviderRef: p.ProviderRef})
	switch {
	case err == nil && n == 0:
		log.Info().Int64("payment_id", p.PaymentID).Str("status", p.Status).Msg("confirmation changed nothing")
	case err == nil:
		log.Info().Int64("payment_id", p.PaymentID).Str("status", p.Status).Msg("payment reconciled")
	case market.IsBusiness(err):
		log.Warn().Err(err).Int64("payment_id", p.PaymentID).Msg("confirmation rejected")
	default:
		return err
	}

	if s.Dedup != nil {
		if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			log.Warn().Err(err).Msg("dedup mark failed")
		}
	}
	return nil
}
