package notify_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"assetwatch/internal/models"
	"assetwatch/internal/notify"
)

// MockEmailNotifier records sends and can simulate failures
type MockEmailNotifier struct {
	sent       atomic.Uint64
	shouldFail bool
}

func (m *MockEmailNotifier) SendAlertEmail(ctx context.Context, alert *models.Alert, recipient string) error {
	m.sent.Add(1)
	if m.shouldFail {
		return errors.New("smtp unreachable")
	}
	return nil
}

// MockSink records published events
type MockSink struct {
	published atomic.Uint64
}

func (m *MockSink) Publish(ctx context.Context, event notify.Event) error {
	m.published.Add(1)
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	d := notify.NewDispatcher(notify.Config{})
	defer d.Shutdown()

	sub1 := d.Subscribe()
	sub2 := d.Subscribe()

	if d.SubscriberCount() != 2 {
		t.Fatalf("subscriber count = %d, want 2", d.SubscriberCount())
	}

	d.Broadcast(notify.BatchUpdate("test", 1))

	for i, sub := range []*notify.Subscriber{sub1, sub2} {
		select {
		case event := <-sub.Events():
			if event.Type != notify.EventBatchUpdate {
				t.Errorf("subscriber %d got event type %s, want %s", i, event.Type, notify.EventBatchUpdate)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestBroadcastPrunesSlowSubscriber(t *testing.T) {
	d := notify.NewDispatcher(notify.Config{BufferSize: 1})
	defer d.Shutdown()

	fast1 := d.Subscribe()
	fast2 := d.Subscribe()
	slow := d.Subscribe()

	// First broadcast fills every buffer; the fast subscribers drain
	// theirs, the slow one never reads.
	d.Broadcast(notify.BatchUpdate("first", 1))
	<-fast1.Events()
	<-fast2.Events()

	d.Broadcast(notify.BatchUpdate("second", 2))

	if got := d.SubscriberCount(); got != 2 {
		t.Errorf("subscriber count = %d, want 2 after pruning", got)
	}

	for i, sub := range []*notify.Subscriber{fast1, fast2} {
		select {
		case <-sub.Events():
		case <-time.After(time.Second):
			t.Fatalf("fast subscriber %d did not receive the second event", i)
		}
	}

	// The slow subscriber keeps its buffered event, then sees the
	// channel closed.
	<-slow.Events()
	if _, ok := <-slow.Events(); ok {
		t.Error("slow subscriber channel should be closed after pruning")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	d := notify.NewDispatcher(notify.Config{})
	sub := d.Subscribe()

	d.Unsubscribe(sub)
	d.Unsubscribe(sub)

	if d.SubscriberCount() != 0 {
		t.Errorf("subscriber count = %d, want 0", d.SubscriberCount())
	}
}

func TestNotifyAlertEmailRouting(t *testing.T) {
	tests := []struct {
		name      string
		severity  models.Severity
		wantEmail bool
	}{
		{"critical routes to email", models.SeverityCritical, true},
		{"high routes to email", models.SeverityHigh, true},
		{"medium does not route", models.SeverityMedium, false},
		{"low does not route", models.SeverityLow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &MockEmailNotifier{}
			d := notify.NewDispatcher(notify.Config{Email: email, EmailRecipient: "ops@example.com"})
			defer d.Shutdown()

			alert := &models.Alert{
				ID:       "a-1",
				AssetID:  "press-01",
				Title:    "Test alert",
				Severity: tt.severity,
				Status:   models.AlertOpen,
			}
			d.NotifyAlert(alert, "Hydraulic Press")

			if tt.wantEmail {
				if !waitFor(t, 2*time.Second, func() bool { return email.sent.Load() == 1 }) {
					t.Errorf("email sends = %d, want 1", email.sent.Load())
				}
			} else {
				time.Sleep(50 * time.Millisecond)
				if email.sent.Load() != 0 {
					t.Errorf("email sends = %d, want 0", email.sent.Load())
				}
			}
		})
	}
}

func TestNotifyAlertSurvivesEmailFailure(t *testing.T) {
	email := &MockEmailNotifier{shouldFail: true}
	d := notify.NewDispatcher(notify.Config{Email: email, EmailRecipient: "ops@example.com"})
	defer d.Shutdown()

	sub := d.Subscribe()

	alert := &models.Alert{ID: "a-2", Severity: models.SeverityCritical, Status: models.AlertOpen}
	d.NotifyAlert(alert, "Hydraulic Press")

	// Broadcast delivery must not depend on email delivery
	select {
	case event := <-sub.Events():
		if event.Type != notify.EventAlert {
			t.Errorf("event type = %s, want %s", event.Type, notify.EventAlert)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the alert event")
	}

	if !waitFor(t, 2*time.Second, func() bool { return email.sent.Load() == 1 }) {
		t.Errorf("email attempts = %d, want 1", email.sent.Load())
	}
}

func TestBroadcastMirrorsToSink(t *testing.T) {
	sink := &MockSink{}
	d := notify.NewDispatcher(notify.Config{Sink: sink})
	defer d.Shutdown()

	d.Broadcast(notify.BatchUpdate("test", 1))
	d.Broadcast(notify.BatchUpdate("test", 2))

	if !waitFor(t, 2*time.Second, func() bool { return sink.published.Load() == 2 }) {
		t.Errorf("sink publishes = %d, want 2", sink.published.Load())
	}
}

func TestShutdownClosesSubscribers(t *testing.T) {
	d := notify.NewDispatcher(notify.Config{})
	sub := d.Subscribe()

	d.Shutdown()

	if _, ok := <-sub.Events(); ok {
		t.Error("subscriber channel should be closed after shutdown")
	}
	if d.SubscriberCount() != 0 {
		t.Errorf("subscriber count = %d, want 0", d.SubscriberCount())
	}
}
