package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"assetwatch/internal/logger"
	"assetwatch/internal/metrics"
	"assetwatch/internal/models"
)

// EmailNotifier sends a formatted message for one alert. Failures are
// caught and logged by the dispatcher, never propagated.
type EmailNotifier interface {
	SendAlertEmail(ctx context.Context, alert *models.Alert, recipient string) error
}

// EventSink receives a copy of every broadcast event. Optional; used to
// mirror the event stream into Kafka.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber is one ephemeral live connection. It has no identity beyond
// its channel; it is created on Subscribe and destroyed on Unsubscribe or
// on a failed send.
type Subscriber struct {
	events chan Event
}

// Events returns the subscriber's receive channel. The channel is closed
// when the subscriber is dropped.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Config holds dispatcher configuration
type Config struct {
	Email          EmailNotifier
	EmailRecipient string
	Sink           EventSink
	BufferSize     int
}

// Dispatcher owns the set of live subscribers and fans events out to them.
// Delivery is best-effort: a subscriber that cannot keep up is pruned, a
// failed email is logged, and Broadcast never fails the caller.
type Dispatcher struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}

	email     EmailNotifier
	recipient string
	breaker   *gobreaker.CircuitBreaker
	sink      EventSink

	bufferSize int
}

// NewDispatcher creates a dispatcher with no subscribers
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alert-email",
		Timeout: 30 * time.Second,
	})

	return &Dispatcher{
		subs:       make(map[*Subscriber]struct{}),
		email:      cfg.Email,
		recipient:  cfg.EmailRecipient,
		breaker:    breaker,
		sink:       cfg.Sink,
		bufferSize: cfg.BufferSize,
	}
}

// Subscribe registers a new live subscriber
func (d *Dispatcher) Subscribe() *Subscriber {
	sub := &Subscriber{events: make(chan Event, d.bufferSize)}

	d.mu.Lock()
	d.subs[sub] = struct{}{}
	count := len(d.subs)
	d.mu.Unlock()

	metrics.SubscribersConnected.Set(float64(count))
	log := logger.WithComponent("dispatcher")
	log.Debug().Int("subscribers", count).Msg("subscriber connected")
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call
// for a subscriber that was already dropped.
func (d *Dispatcher) Unsubscribe(sub *Subscriber) {
	d.mu.Lock()
	if _, ok := d.subs[sub]; ok {
		delete(d.subs, sub)
		close(sub.events)
	}
	count := len(d.subs)
	d.mu.Unlock()

	metrics.SubscribersConnected.Set(float64(count))
}

// SubscriberCount returns the number of live subscribers
func (d *Dispatcher) SubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Broadcast fans an event out to every live subscriber. A subscriber whose
// buffer is full is dropped as a side effect of the failed send; delivery
// to the remaining subscribers continues. Never returns an error.
func (d *Dispatcher) Broadcast(event Event) {
	log := logger.WithComponent("dispatcher")

	d.mu.Lock()
	for sub := range d.subs {
		select {
		case sub.events <- event:
		default:
			// Subscriber is blocked or gone; prune instead of queueing
			delete(d.subs, sub)
			close(sub.events)
			metrics.SubscribersDroppedTotal.Inc()
			log.Warn().Str("event_type", string(event.Type)).Msg("subscriber send failed, dropping")
		}
	}
	count := len(d.subs)
	d.mu.Unlock()

	metrics.SubscribersConnected.Set(float64(count))
	metrics.EventsBroadcastTotal.WithLabelValues(string(event.Type)).Inc()

	if d.sink != nil {
		go d.publishToSink(event)
	}
}

// NotifyAlert broadcasts an alert event and routes high and critical
// alerts to the email notifier. Email delivery is detached and
// best-effort; a failure is logged, never raised.
func (d *Dispatcher) NotifyAlert(alert *models.Alert, assetName string) {
	d.Broadcast(AlertCreated(alert, assetName))

	if d.email == nil || !alert.Severity.AtLeast(models.SeverityHigh) {
		return
	}

	go d.sendEmail(alert)
}

func (d *Dispatcher) sendEmail(alert *models.Alert) {
	log := logger.WithComponent("dispatcher")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.email.SendAlertEmail(ctx, alert, d.recipient)
	})
	if err != nil {
		metrics.EmailsSentTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to send alert email")
		return
	}

	metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
	log.Info().Str("alert_id", alert.ID).Str("severity", string(alert.Severity)).Msg("alert email sent")
}

func (d *Dispatcher) publishToSink(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.sink.Publish(ctx, event); err != nil {
		metrics.KafkaPublishTotal.WithLabelValues("failed").Inc()
		log := logger.WithComponent("dispatcher")
		log.Error().Err(err).Msg("failed to publish event to sink")
		return
	}
	metrics.KafkaPublishTotal.WithLabelValues("success").Inc()
}

// Shutdown drops all subscribers. Outstanding deliveries are abandoned.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	for sub := range d.subs {
		delete(d.subs, sub)
		close(sub.events)
	}
	d.mu.Unlock()

	metrics.SubscribersConnected.Set(0)
}
