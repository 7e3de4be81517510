package worker

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/events"
	"hotelbooking/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	worker := NewNotificationWorker(db, notifier, nil, RetryPolicy{}, 0, nil)

	ctx := context.Background()
	n := models.Notification{Kind: models.NotificationOTP, BookingID: 1, Recipient: "a@example.com", Subject: models.OTPSubject}
	if err := worker.Enqueue(ctx, n); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != models.TaskStatusCompleted {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if got := notifier.sent(); len(got) != 1 || got[0].Subject != models.OTPSubject {
		t.Fatalf("expected one OTP notification, got %+v", got)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	worker := NewNotificationWorker(db, &fakeNotifier{err: errors.New("broker down")}, nil,
		RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, 0, nil)

	ctx := context.Background()
	if err := worker.Enqueue(ctx, models.Notification{Kind: models.NotificationBookingConfirmed, BookingID: 2, Recipient: "a@example.com"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != models.TaskStatusRetry {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFailDeadLetters(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	worker := NewNotificationWorker(db, &fakeNotifier{err: errors.New("fatal")}, client, RetryPolicy{MaxRetries: 1}, 0, nil)

	ctx := context.Background()
	if err := worker.Enqueue(ctx, models.Notification{Kind: models.NotificationBookingCancelled, BookingID: 3, Recipient: "a@example.com"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryRedis(ctx)
	if !ok {
		t.Fatalf("expected task in redis queue")
	}
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != models.TaskStatusFailed {
		t.Fatalf("expected status=failed, got %s", status)
	}
	dead, err := mr.List(deadLetterKey)
	if err != nil || len(dead) != 1 {
		t.Fatalf("expected one dead-lettered task, got %v (%v)", dead, err)
	}
}

func TestProcessTaskBadPayload(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	worker := NewNotificationWorker(db, notifier, nil, RetryPolicy{}, 0, nil)

	ctx := context.Background()
	task := models.NotificationTask{Kind: models.NotificationOTP, Payload: "invalid json"}
	if err := db.CreateNotificationTask(ctx, &task); err != nil {
		t.Fatalf("create: %v", err)
	}
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != models.TaskStatusFailed {
		t.Fatalf("expected status=failed, got %s", status)
	}
	if len(notifier.sent()) != 0 {
		t.Fatalf("notifier must not be called for undecodable tasks")
	}
}

func TestEnqueueValidation(t *testing.T) {
	worker := NewNotificationWorker(newTestDB(t), &fakeNotifier{}, nil, RetryPolicy{}, 0, nil)
	ctx := context.Background()

	if err := worker.Enqueue(ctx, models.Notification{Recipient: "a@example.com"}); err == nil {
		t.Fatalf("expected error for empty kind")
	}
	if err := worker.Enqueue(ctx, models.Notification{Kind: models.NotificationOTP}); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}

func TestSubscribeDeliversEvents(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	worker := NewNotificationWorker(db, notifier, nil, RetryPolicy{}, 0, nil)
	bus := events.NewEventBus()
	worker.Subscribe(bus)

	if err := bus.PublishJSON(events.EventOTPIssued, events.OTPPayload{BookingID: 9, Email: "a@example.com", OTP: "123456"}); err != nil {
		t.Fatalf("publish otp: %v", err)
	}
	if err := bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: 9, GuestEmail: "a@example.com", StartDate: "2024-06-01", EndDate: "2024-06-04",
	}); err != nil {
		t.Fatalf("publish created: %v", err)
	}
	// no recipient: skipped, not an error
	if err := bus.PublishJSON(events.EventBookingCancelled, events.BookingEventPayload{BookingID: 9}); err != nil {
		t.Fatalf("publish cancelled: %v", err)
	}

	ctx := context.Background()
	for worker.RunOnce(ctx) {
	}

	sent := notifier.sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sent))
	}
	if sent[0].Kind != models.NotificationOTP || sent[0].Subject != models.OTPSubject {
		t.Fatalf("unexpected otp notification %+v", sent[0])
	}
	if sent[1].Kind != models.NotificationBookingConfirmed || sent[1].Data["booking_id"] != "9" {
		t.Fatalf("unexpected booking notification %+v", sent[1])
	}
}

func TestRunOncePollsStaleOutboxRows(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	worker := NewNotificationWorker(db, notifier, nil, RetryPolicy{}, 0, nil)
	worker.pollInterval = time.Millisecond

	ctx := context.Background()
	task := models.NotificationTask{
		Kind:    models.NotificationOTP,
		Payload: `{"kind":"otp","recipient":"a@example.com"}`,
	}
	if err := db.CreateNotificationTask(ctx, &task); err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if !worker.RunOnce(ctx) {
		t.Fatalf("expected the outbox row to be processed")
	}
	if len(notifier.sent()) != 1 {
		t.Fatalf("expected one delivery")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2}.withDefaults()
	if p.MaxRetries != 2 || p.InitialDelay != 2*time.Second || p.BackoffFactor != 2 {
		t.Fatalf("unexpected policy %+v", p)
	}
	if p.Exhausted(1) || !p.Exhausted(2) {
		t.Fatalf("expected exhaustion at attempt 2")
	}
}

func TestHoldSweeper(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	scope := models.HoldScope{TenantID: 1, PropertyID: 2, RoomTypeID: 3, StartDate: start, EndDate: start.AddDate(0, 0, 1)}
	for roomID, ttl := range map[int64]time.Duration{1: -time.Minute, 2: time.Hour} {
		h := scope.Hold(roomID)
		h.ExpiresAt = time.Now().Add(ttl)
		if err := db.InsertHold(ctx, &h); err != nil {
			t.Fatalf("insert hold: %v", err)
		}
	}

	logger := zerolog.New(io.Discard)
	n, err := NewHoldSweeper(db, time.Minute, &logger).SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept hold, got %d", n)
	}
}

// Helpers

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls []models.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, n)
	return f.err
}

func (f *fakeNotifier) sent() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.calls...)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.db")
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(path, &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM notification_queue WHERE id = ?`, id)
	if err := row.Scan(&status, &retryCount, &nextRetry); err != nil {
		t.Fatalf("scan task: %v", err)
	}
	return status, retryCount, nextRetry
}
