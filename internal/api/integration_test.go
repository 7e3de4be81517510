package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/events"
	"hotelbooking/internal/inventory"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/service"
)

// graphQLStub answers with the first canned body whose match occurs in the query.
type graphQLStub struct {
	mu      sync.Mutex
	routes  [][2]string
	queries []string
}

func (g *graphQLStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var req struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(raw, &req)

	g.mu.Lock()
	g.queries = append(g.queries, req.Query)
	g.mu.Unlock()

	for _, rt := range g.routes {
		if strings.Contains(req.Query, rt[0]) {
			_, _ = io.WriteString(w, rt[1])
			return
		}
	}
	w.WriteHeader(http.StatusBadRequest)
}

func (g *graphQLStub) count(match string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, q := range g.queries {
		if strings.Contains(q, match) {
			n++
		}
	}
	return n
}

func newIntegrationServer(t *testing.T) (*httptest.Server, *graphQLStub) {
	t.Helper()

	stub := &graphQLStub{routes: [][2]string{
		{"createGuest", `{"data":{"createGuest":{"guest_id":77}}}`},
		{"createBooking", `{"data":{"createBooking":{"booking_id":900}}}`},
		{"updateRoomAvailability", `{"data":{"updateRoomAvailability":{"booking_id":900}}}`},
		{"updateBooking", `{"data":{"updateBooking":{"booking_id":900}}}`},
		{"booking_id: {equals: 900}", `{"data":{"listRoomAvailabilities":[{"availability_id":501},{"availability_id":502}]}}`},
		{"room_id: {equals: 5}", `{"data":{"listRoomAvailabilities":[{"availability_id":501},{"availability_id":502}]}}`},
		{"{ room_id }", `{"data":{"listRoomAvailabilities":[{"room_id":5},{"room_id":5},{"room_id":8}]}}`},
	}}
	invSrv := httptest.NewServer(stub)
	t.Cleanup(invSrv.Close)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "bookings.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bookingCfg := config.BookingConfig{
		HoldTTL:           time.Minute,
		InitialStatusID:   1,
		CancelledStatusID: 2,
		OTPSendLimit:      3,
		OTPSendWindow:     time.Minute,
	}
	client := inventory.NewClient(config.InventoryConfig{URL: invSrv.URL, APIKey: "k", Timeout: 2 * time.Second}, nil)
	cache := repository.NewMemoryStore()
	bus := events.NewEventBus()

	guests := service.NewGuestResolver(db, client, nil)
	reservations := service.NewReservationService(
		inventory.NewResolver(client, nil),
		service.NewHoldManager(db, bookingCfg.HoldTTL, nil),
		guests,
		service.NewBookingCommitter(client, db, bus, bookingCfg.InitialStatusID, nil),
		nil,
	)

	cfg := testAPIConfig()
	srv := NewHTTPServer(cfg, Services{
		Reservations:  reservations,
		Cancellations: service.NewCancellationService(client, db, db, db, cache, bus, bookingCfg, nil),
		Queries:       service.NewBookingQueryService(db, db, nil),
		Pricing:       inventory.NewPricing(client, cache, time.Minute, 2, nil),
		Guests:        guests,
		Promotions:    service.NewPromotionService(db, nil),
		Stats:         service.NewStatsService(db, 2, nil),
		Store:         db,
	}, NewAuthenticator(&cfg), nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, stub
}

func send(t *testing.T, method, url, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

const integrationBooking = `{
	"startDate": "2024-06-01", "endDate": "2024-06-03", "roomCount": 1, "adultCount": 2,
	"token": "tok-1", "tenantId": 1, "propertyId": 11, "roomTypeId": 7, "roomName": "Deluxe",
	"costInfo": {"totalCost": 300, "amountDueAtResort": 0},
	"guestInfo": {"firstName": "Ada", "lastName": "Lovelace", "phone": "0123456789", "emailId": "ada@example.com"},
	"billingInfo": {"firstName": "Ada", "address1": "1 Main St", "city": "London", "zipcode": "N1",
		"state": "LDN", "country": "UK", "phone": "0123456789", "emailId": "ada@example.com"},
	"paymentInfo": {"cardNumber": "4111111111111111", "expiryMonth": "12", "expiryYear": "2030"}
}`

func TestIntegrationBookAndCancel(t *testing.T) {
	ts, stub := newIntegrationServer(t)
	base := ts.URL + "/api/v1"

	code, body := send(t, http.MethodPost, base+"/create-booking", integrationBooking, nil)
	if code != http.StatusCreated {
		t.Fatalf("create booking: status %d body %v", code, body)
	}
	if body["booking_id"] != float64(900) {
		t.Fatalf("expected booking 900, got %v", body["booking_id"])
	}

	code, body = send(t, http.MethodGet, base+"/booking/900", "", nil)
	if code != http.StatusOK || body["active"] != true {
		t.Fatalf("get booking: status %d body %v", code, body)
	}

	code, _ = send(t, http.MethodGet, base+"/check-booking/900", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("check active booking: expected 400, got %d", code)
	}

	code, _ = send(t, http.MethodDelete, base+"/cancel-booking/900", "", map[string]string{"token": "wrong"})
	if code != http.StatusUnauthorized {
		t.Fatalf("cancel with wrong token: expected 401, got %d", code)
	}

	code, body = send(t, http.MethodDelete, base+"/cancel-booking/900", "", map[string]string{"token": "tok-1"})
	if code != http.StatusOK {
		t.Fatalf("cancel: status %d body %v", code, body)
	}

	code, _ = send(t, http.MethodGet, base+"/check-booking/900", "", nil)
	if code != http.StatusOK {
		t.Fatalf("check cancelled booking: expected 200, got %d", code)
	}

	code, body = send(t, http.MethodDelete, base+"/cancel-booking/900", "", map[string]string{"token": "tok-1"})
	if code != http.StatusBadRequest || body["error"] != "Booking already cancelled" {
		t.Fatalf("second cancel: status %d body %v", code, body)
	}

	// one link for the second night, two unlinks on cancel
	if n := stub.count("updateRoomAvailability"); n != 3 {
		t.Fatalf("expected 3 availability updates, got %d", n)
	}
}

func TestIntegrationNotEnoughRooms(t *testing.T) {
	ts, stub := newIntegrationServer(t)

	req := strings.Replace(integrationBooking, `"roomCount": 1`, `"roomCount": 2`, 1)
	code, body := send(t, http.MethodPost, ts.URL+"/api/v1/create-booking", req, nil)
	if code != http.StatusBadRequest || body["error"] != "Booking failed due to non-availability" {
		t.Fatalf("expected non-availability, got %d %v", code, body)
	}
	if n := stub.count("createBooking"); n != 0 {
		t.Fatalf("expected no remote booking, got %d", n)
	}
}

func TestIntegrationHealthz(t *testing.T) {
	ts, _ := newIntegrationServer(t)

	code, body := send(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", code, body)
	}
}
