package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type reservations interface {
	CreateBooking(ctx context.Context, req *models.BookingRequest) (int64, error)
	AvailableRooms(ctx context.Context, search models.RoomSearch) ([]int64, error)
}

type cancellations interface {
	CancelWithToken(ctx context.Context, bookingID int64, token string) error
	SendOTP(ctx context.Context, bookingID int64, email string) error
	VerifyOTP(ctx context.Context, bookingID int64, otp string) (bool, error)
	DeleteAll(ctx context.Context, tenantID int64, secret string) (int64, error)
}

type bookingQueries interface {
	Get(ctx context.Context, id int64) (*models.Booking, error)
	MyBookings(ctx context.Context, email, token string) ([]models.BookingSummary, error)
	Review(ctx context.Context, id int64) (*models.BookingReview, error)
	SuccessfulCount(ctx context.Context, email, token string) (int64, error)
	Check(ctx context.Context, id int64) error
}

type pricing interface {
	RoomTypeSummary(ctx context.Context, start, end time.Time, propertyID int64) (*models.RoomTypeSummary, error)
	NightlyRates(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]models.NightlyRate, error)
}

type guestTokens interface {
	UpdateToken(ctx context.Context, email, token string) error
}

type promotions interface {
	List(ctx context.Context) ([]models.Promotion, error)
	Add(ctx context.Context, promo models.Promotion) (*models.Promotion, error)
}

type tenantStats interface {
	TenantStats(ctx context.Context, tenantID int64) (*models.TenantStats, error)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups everything the HTTP routes call into.
type Services struct {
	Reservations  reservations
	Cancellations cancellations
	Queries       bookingQueries
	Pricing       pricing
	Guests        guestTokens
	Promotions    promotions
	Stats         tenantStats
	Store         pinger
}

type handlers struct {
	svc    Services
	logger *zerolog.Logger
}

func (h *handlers) register(mux *http.ServeMux, auth *Authenticator) {
	const p = "/api/v1"

	mux.HandleFunc("POST "+p+"/create-booking", h.createBooking)
	mux.HandleFunc("DELETE "+p+"/cancel-booking/{id}", h.cancelBooking)
	mux.HandleFunc("GET "+p+"/booking/{id}", h.getBooking)
	mux.HandleFunc("GET "+p+"/my-bookings", h.myBookings)
	mux.HandleFunc("GET "+p+"/review-booking/{id}", h.reviewBooking)
	mux.HandleFunc("GET "+p+"/successful-bookings/{email}", h.successfulBookings)
	mux.HandleFunc("DELETE "+p+"/delete-all-bookings/{tenantId}", h.deleteAllBookings)
	mux.HandleFunc("GET "+p+"/check-booking/{id}", h.checkBooking)
	mux.HandleFunc("POST "+p+"/send-otp", h.sendOTP)
	mux.HandleFunc("POST "+p+"/verify-otp", h.verifyOTP)
	mux.HandleFunc("POST "+p+"/room-ids", h.roomIDs)
	mux.HandleFunc("POST "+p+"/room-rates", h.roomRates)
	mux.HandleFunc("POST "+p+"/room-type-rates", h.roomTypeRates)
	mux.HandleFunc("PUT "+p+"/update-user", h.updateUser)
	mux.HandleFunc("GET "+p+"/promotions", h.listPromotions)
	mux.HandleFunc("POST "+p+"/add-promotion", auth.RequireAPIKey(permWritePromotions, h.addPromotion))
	mux.HandleFunc("GET "+p+"/stats/{tenantId}", auth.RequireAPIKey(permReadStats, h.stats))
	mux.HandleFunc("GET /healthz", h.healthz)
}

func (h *handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.Reservations.CreateBooking(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"booking_id": id})
}

func (h *handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancellations.CancelWithToken(r.Context(), id, r.Header.Get("token")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "Booking cancelled successfully")
}

func (h *handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.Queries.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	list, err := h.svc.Queries.MyBookings(r.Context(), email, r.Header.Get("token"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.BookingSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) reviewBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	review, err := h.svc.Queries.Review(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *handlers) successfulBookings(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Queries.SuccessfulCount(r.Context(), r.PathValue("email"), r.Header.Get("token"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *handlers) deleteAllBookings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantId")
	if !ok {
		return
	}
	n, err := h.svc.Cancellations.DeleteAll(r.Context(), tenantID, r.Header.Get("secretKey"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *handlers) checkBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Queries.Check(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "Booking is cancelled")
}

func (h *handlers) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Cancellations.SendOTP(r.Context(), req.BookingID, req.EmailID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "OTP sent successfully")
}

func (h *handlers) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok, err := h.svc.Cancellations.VerifyOTP(r.Context(), req.BookingID, req.OTP)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	writeMessage(w, "Booking cancelled successfully")
}

func (h *handlers) roomIDs(w http.ResponseWriter, r *http.Request) {
	var search models.RoomSearch
	if !decodeJSON(w, r, &search) {
		return
	}
	ids, err := h.svc.Reservations.AvailableRooms(r.Context(), search)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"roomIds": ids})
}

func (h *handlers) roomRates(w http.ResponseWriter, r *http.Request) {
	search, start, end, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.Pricing.RoomTypeSummary(r.Context(), start, end, search.PropertyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handlers) roomTypeRates(w http.ResponseWriter, r *http.Request) {
	search, start, end, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	rates, err := h.svc.Pricing.NightlyRates(r.Context(), start, end, search.RoomTypeID, search.PropertyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if rates == nil {
		rates = []models.NightlyRate{}
	}
	writeJSON(w, http.StatusOK, rates)
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var req models.GuestTokenUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Guests.UpdateToken(r.Context(), req.EmailID, req.Token); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "User updated successfully")
}

func (h *handlers) listPromotions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Promotions.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Promotion{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) addPromotion(w http.ResponseWriter, r *http.Request) {
	var promo models.Promotion
	if !decodeJSON(w, r, &promo) {
		return
	}
	saved, err := h.svc.Promotions.Add(r.Context(), promo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantId")
	if !ok {
		return
	}
	st, err := h.svc.Stats.TenantStats(r.Context(), tenantID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.svc.Store.PingContext(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps a service error onto its HTTP status class.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrFetchFailed:
		return http.StatusBadGateway
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrUnprocessable:
		return http.StatusUnprocessableEntity
	case domain.ErrCustom, domain.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}

	evt := h.logger.Warn()
	if code >= http.StatusInternalServerError {
		evt = h.logger.Error()
	}
	evt.Err(err).
		Str("request_id", RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Int("status", code).
		Msg("request failed")

	writeError(w, code, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (models.RoomSearch, time.Time, time.Time, bool) {
	var search models.RoomSearch
	if !decodeJSON(w, r, &search) {
		return search, time.Time{}, time.Time{}, false
	}
	start, end, err := models.ParseStay(search.StartDate, search.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return search, time.Time{}, time.Time{}, false
	}
	return search, start, end, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
