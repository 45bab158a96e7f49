package market

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTxTimeout = 5 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTxTimeout
	}
	return context.WithTimeout(ctx, d)
}

// publish is best effort: the write it describes is already committed.
func publish(ctx context.Context, log zerolog.Logger, p Publisher, topic, eventType string, id int64, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, eventType, PartitionKey(id), payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Int64("id", id).Msg("publish event")
	}
}

// failure logs business rejections at warn and storage faults at error.
func failure(log zerolog.Logger, err error) *zerolog.Event {
	if IsBusiness(err) {
		return log.Warn().Err(err)
	}
	return log.Error().Err(err)
}

// optional trims s and maps blank strings to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
