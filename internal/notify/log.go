package notify

import (
	"context"

	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

// LogNotifier records notifications in the log instead of delivering them.
// Used when no broker is configured.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logging.Component(logger, "notify")}
}

func (n *LogNotifier) Notify(_ context.Context, msg models.Notification) error {
	// the body may hold a one-time code, so it is not logged
	n.logger.Info().
		Str("kind", msg.Kind).
		Int64("booking_id", msg.BookingID).
		Str("recipient", msg.Recipient).
		Str("subject", msg.Subject).
		Msg("Notification not delivered: no broker configured")
	return nil
}
