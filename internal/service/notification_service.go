package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/pkg/config"
	"github.com/orkestre/orkestre-api/pkg/jobs"
)

// Notification event types dispatched through the background queue.
const (
	NotificationBookingCreated = "booking.created"
	NotificationStatusChanged  = "booking.status_changed"
)

// BookingNotification is the payload queued for delivery after a booking
// event. It carries a snapshot of the appointment so delivery does not read
// the database again.
type BookingNotification struct {
	AppointmentID   int64                    `json:"appointment_id"`
	EstablishmentID int64                    `json:"establishment_id"`
	ServiceName     string                   `json:"service_name"`
	StartTime       string                   `json:"start_time"`
	Status          models.AppointmentStatus `json:"status"`
	CustomerName    string                   `json:"customer_name"`
	CustomerPhone   string                   `json:"customer_phone"`
	CustomerEmail   string                   `json:"customer_email,omitempty"`
}

// Notifier delivers a single notification. The default implementation logs
// the event; SMS and email providers plug in behind this interface.
type Notifier interface {
	Notify(ctx context.Context, event string, payload BookingNotification) error
}

// LogNotifier writes notifications to the application log. It stands in
// until a real messaging provider is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier backed by the application log.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification event.
func (n *LogNotifier) Notify(_ context.Context, event string, payload BookingNotification) error {
	n.logger.Info("notification dispatched",
		zap.String("event", event),
		zap.Int64("appointment_id", payload.AppointmentID),
		zap.Int64("establishment_id", payload.EstablishmentID),
		zap.String("status", string(payload.Status)),
		zap.String("customer", payload.CustomerName),
	)
	return nil
}

// NotificationService queues booking notifications for asynchronous delivery
// so the booking response never waits on a provider round trip.
type NotificationService struct {
	queue    *jobs.Queue
	notifier Notifier
	logger   *zap.Logger
	enabled  bool
}

// NewNotificationService wires the notifier behind a worker queue.
func NewNotificationService(notifier Notifier, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	s := &NotificationService{notifier: notifier, logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// Dispatch queues a notification. Failures are logged, never surfaced to the
// booking flow.
func (s *NotificationService) Dispatch(event string, payload BookingNotification) {
	if s == nil || !s.enabled {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    event,
		Payload: payload,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification enqueue failed",
			zap.String("event", event),
			zap.Int64("appointment_id", payload.AppointmentID),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(BookingNotification)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	return s.notifier.Notify(ctx, job.Type, payload)
}
