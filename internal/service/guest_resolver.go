package service

import (
	"context"
	"errors"
	"strings"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type guestCreator interface {
	CreateGuest(ctx context.Context, name string) (int64, error)
}

// GuestResolver maps a contact email to a guest id, creating the remote guest
// on first sight. Every call stores the caller's token as the guest's latest.
type GuestResolver struct {
	guests    domain.GuestStore
	inventory guestCreator
	logger    *zerolog.Logger

	// creating collapses concurrent first sightings of one email.
	creating singleflight.Group
}

func NewGuestResolver(guests domain.GuestStore, inventory guestCreator, logger *zerolog.Logger) *GuestResolver {
	return &GuestResolver{
		guests:    guests,
		inventory: inventory,
		logger:    logging.Component(logger, "guest_resolver"),
	}
}

func (r *GuestResolver) Resolve(ctx context.Context, info models.GuestInfo, token string) (int64, error) {
	email := strings.TrimSpace(info.EmailID)
	if email == "" {
		return 0, domain.NewError(domain.ErrValidation, "Guest email is required")
	}

	var guestID int64
	created := false
	existing, err := r.guests.GetGuestByEmail(ctx, email)
	switch {
	case err == nil:
		guestID = existing.GuestID
	case errors.Is(err, database.ErrGuestNotFound):
		// The remote guest record only takes a display name.
		v, err, shared := r.creating.Do(email, func() (any, error) {
			return r.inventory.CreateGuest(context.WithoutCancel(ctx), info.FirstName)
		})
		if err != nil {
			return 0, err
		}
		guestID, created = v.(int64), true
		if !shared {
			r.logger.Info().Int64("guest_id", guestID).Msg("Remote guest created")
		}
	default:
		return 0, domain.Wrap(domain.ErrUnprocessable, "Failed to look up guest", err)
	}

	guest := &models.Guest{
		GuestID:       guestID,
		EmailID:       email,
		Token:         token,
		HasSubscribed: info.HasSubscribed,
	}
	if err := r.guests.UpsertGuest(ctx, guest); err != nil {
		r.logger.Error().Err(err).Int64("guest_id", guestID).Msg("Failed to store guest")
		return 0, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	if !created {
		return guestID, nil
	}

	// The upsert keeps the first stored guest_id; a racing creator on another
	// path may have won.
	stored, err := r.guests.GetGuestByEmail(ctx, email)
	if err != nil {
		return 0, domain.Wrap(domain.ErrUnprocessable, "Failed to look up guest", err)
	}
	if stored.GuestID != guestID {
		r.logger.Warn().Int64("guest_id", stored.GuestID).Int64("orphan_guest_id", guestID).Msg("Remote guest created twice for one email")
	}
	return stored.GuestID, nil
}

// UpdateToken replaces the stored token of a known guest.
func (r *GuestResolver) UpdateToken(ctx context.Context, email, token string) error {
	if strings.TrimSpace(email) == "" || token == "" {
		return domain.NewError(domain.ErrValidation, "emailId and token are required")
	}
	err := r.guests.UpdateGuestToken(ctx, strings.TrimSpace(email), token)
	if errors.Is(err, database.ErrGuestNotFound) {
		return domain.NewError(domain.ErrNotFound, "Guest not found")
	}
	if err != nil {
		return domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	return nil
}
