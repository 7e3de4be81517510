package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisQueueKey = "notifications:queue"
	deadLetterKey = "notifications:deadletter"
)

// NotificationStore is the outbox the worker persists every notification to.
type NotificationStore interface {
	CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error
	GetPendingNotificationTasks(ctx context.Context, createdBefore time.Time, limit int) ([]models.NotificationTask, error)
	UpdateNotificationTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// NotificationWorker delivers booking and OTP notifications. Tasks go to the
// outbox table first, then to Redis (or an in-memory channel) for prompt pickup.
// Anything the queues miss is found again by polling the outbox.
type NotificationWorker struct {
	store        NotificationStore
	notifier     domain.Notifier
	redis        *redis.Client
	retryPolicy  RetryPolicy
	queue        chan models.NotificationTask
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

func NewNotificationWorker(
	store NotificationStore,
	notifier domain.Notifier,
	redisClient *redis.Client,
	retry RetryPolicy,
	queueSize int,
	logger *zerolog.Logger,
) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &NotificationWorker{
		store:        store,
		notifier:     notifier,
		redis:        redisClient,
		retryPolicy:  retry.withDefaults(),
		queue:        make(chan models.NotificationTask, queueSize),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		logger:       logging.Component(logger, "notification_worker"),
	}
}

// Subscribe turns bus events into queued notifications.
func (w *NotificationWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, w.handleBookingEvent(models.NotificationBookingConfirmed, "Booking confirmed"))
	bus.Subscribe(events.EventBookingCancelled, w.handleBookingEvent(models.NotificationBookingCancelled, "Booking cancelled"))
	bus.Subscribe(events.EventOTPIssued, w.handleOTPIssued)
}

func (w *NotificationWorker) handleBookingEvent(kind, title string) events.EventHandler {
	return func(ev *events.Event) error {
		var p events.BookingEventPayload
		if err := ev.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		if p.GuestEmail == "" {
			w.logger.Warn().Int64("booking_id", p.BookingID).Str("event", ev.Type).Msg("No recipient, notification skipped")
			return nil
		}
		return w.Enqueue(context.Background(), models.Notification{
			Kind:      kind,
			BookingID: p.BookingID,
			Recipient: p.GuestEmail,
			Subject:   fmt.Sprintf("%s: #%d", title, p.BookingID),
			Body: fmt.Sprintf("%s for %s, %s to %s.",
				title, p.RoomName, p.StartDate, p.EndDate),
			Data: map[string]string{
				"booking_id": fmt.Sprint(p.BookingID),
				"start_date": p.StartDate,
				"end_date":   p.EndDate,
			},
		})
	}
}

func (w *NotificationWorker) handleOTPIssued(ev *events.Event) error {
	var p events.OTPPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Type, err)
	}
	return w.Enqueue(context.Background(), models.Notification{
		Kind:      models.NotificationOTP,
		BookingID: p.BookingID,
		Recipient: p.Email,
		Subject:   models.OTPSubject,
		Body:      fmt.Sprintf("Your one-time password to cancel booking #%d is %s.", p.BookingID, p.OTP),
	})
}

// Enqueue persists n to the outbox and schedules it via redis or the in-memory queue.
func (w *NotificationWorker) Enqueue(ctx context.Context, n models.Notification) error {
	if n.Kind == "" {
		return errors.New("notification kind is required")
	}
	if n.Recipient == "" {
		return errors.New("notification recipient is required")
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.NotificationTask{
		Kind:      n.Kind,
		BookingID: n.BookingID,
		Payload:   string(payload),
		Status:    models.TaskStatusPending,
	}
	if err := w.store.CreateNotificationTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notification task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("Redis push failed, using memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("Memory queue full, task left to polling")
	}
	return nil
}

// Start runs the delivery loop until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		if !w.RunOnce(ctx) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// RunOnce processes whatever is immediately available and reports whether
// any task was handled.
func (w *NotificationWorker) RunOnce(ctx context.Context) bool {
	if t, ok := w.tryLocalQueue(); ok {
		w.processTask(ctx, &t)
		return true
	}
	if t, ok := w.tryRedis(ctx); ok {
		w.processTask(ctx, &t)
		return true
	}

	// Rows younger than one poll interval are still on their way through a queue.
	tasks, err := w.store.GetPendingNotificationTasks(ctx, time.Now().Add(-w.pollInterval), w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to fetch pending notifications")
		return false
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks) > 0
}

func (w *NotificationWorker) tryLocalQueue() (models.NotificationTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotificationTask{}, false
	}
}

func (w *NotificationWorker) tryRedis(ctx context.Context) (models.NotificationTask, bool) {
	if w.redis == nil {
		return models.NotificationTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("Redis BRPOP failed")
		}
		return models.NotificationTask{}, false
	}
	if len(res) != 2 {
		return models.NotificationTask{}, false
	}
	var task models.NotificationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode queued notification")
		return models.NotificationTask{}, false
	}
	return task, true
}

func (w *NotificationWorker) processTask(ctx context.Context, task *models.NotificationTask) {
	var n models.Notification
	if err := json.Unmarshal([]byte(task.Payload), &n); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.notifier.Notify(ctx, n); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark notification completed")
	}
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, task *models.NotificationTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", next).Msg("Notification delivery failed")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskStatusRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark notification for retry")
	}
}

func (w *NotificationWorker) failTask(ctx context.Context, task *models.NotificationTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("kind", task.Kind).Msg("Notification dead-lettered")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark notification failed")
	}
	if w.redis != nil {
		if err := w.pushRedis(ctx, deadLetterKey, *task); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Dead-letter push failed")
		}
	}
}

func (w *NotificationWorker) pushRedis(ctx context.Context, key string, task models.NotificationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
