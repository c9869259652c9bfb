package webhook

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/circuitbreaker"
	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/google/uuid"
)

// Registry resolves which subscriptions receive an event and records
// subscriptions whose deliveries have been exhausted.
type Registry interface {
	FindActive(ctx context.Context, workspaceID, event string) ([]models.WebhookSubscription, error)
	MarkNeedsAttention(ctx context.Context, id uuid.UUID, reason string) error
}

// DeliveryLog appends one immutable record per delivery attempt.
type DeliveryLog interface {
	Append(ctx context.Context, attempt *models.DeliveryAttempt) error
}

type Options struct {
	MaxInFlight int
	Timeout     time.Duration
	Retry       RetryConfig
	Breaker     circuitbreaker.Config
}

// Dispatcher delivers signed event payloads to subscribers. Dispatch is
// fire-and-forget: deliveries run on background goroutines, bounded by an
// in-flight semaphore so one slow subscriber cannot starve the rest.
// Delivery is at-least-once per matching subscription; receivers must
// dedupe on the event id.
type Dispatcher struct {
	registry Registry
	log      DeliveryLog
	breakers *circuitbreaker.Set
	client   *http.Client
	retry    RetryConfig
	sem      chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(registry Registry, deliveryLog DeliveryLog, opts Options) *Dispatcher {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		registry: registry,
		log:      deliveryLog,
		breakers: circuitbreaker.NewSet(opts.Breaker),
		client:   &http.Client{Timeout: opts.Timeout},
		retry:    opts.Retry.normalized(),
		sem:      make(chan struct{}, opts.MaxInFlight),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch hands the event off for delivery and returns immediately.
// The subscription lookup, signing, and deliveries all run on background
// goroutines; failures are retried and logged there and never reach the
// caller.
func (d *Dispatcher) Dispatch(workspaceID, event string, data interface{}) {
	d.wg.Add(1)
	go d.fanOut(workspaceID, event, data)
}

func (d *Dispatcher) fanOut(workspaceID, event string, data interface{}) {
	defer d.wg.Done()

	_, payload, err := NewEnvelope(event, data)
	if err != nil {
		log.Printf("Webhook dispatch dropped: cannot marshal %q event: %v", event, err)
		return
	}

	eventID := uuid.NewString()

	ctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
	defer cancel()

	subs, err := d.registry.FindActive(ctx, workspaceID, event)
	if err != nil {
		log.Printf("Webhook dispatch dropped: subscription lookup for %q failed: %v", event, err)
		return
	}

	for _, sub := range subs {
		d.wg.Add(1)
		go d.deliver(sub, event, eventID, payload)
	}
}

// Close stops background deliveries and waits for goroutines to exit.
// In-flight backoff sleeps are interrupted.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) deliver(sub models.WebhookSubscription, event, eventID string, payload []byte) {
	defer d.wg.Done()

	select {
	case d.sem <- struct{}{}:
	case <-d.ctx.Done():
		return
	}
	defer func() { <-d.sem }()

	signature := Sign(sub.Secret, payload)
	breaker := d.breakers.Get(sub.URL)

	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		status, err := d.attempt(breaker, sub, event, eventID, payload, signature)

		d.appendAttempt(sub.ID, event, eventID, attempt, status, err)

		if err == nil {
			return
		}

		if attempt == d.retry.MaxAttempts {
			d.exhaust(sub, event, err)
			return
		}

		select {
		case <-time.After(d.retry.NextDelay(attempt)):
		case <-d.ctx.Done():
			return
		}
	}
}

// attempt performs one POST. A tripped breaker fails the attempt without
// touching the endpoint; a timeout counts as a failure even if the request
// landed downstream, which is where duplicate deliveries come from.
func (d *Dispatcher) attempt(breaker *circuitbreaker.Breaker, sub models.WebhookSubscription, event, eventID string, payload []byte, signature string) (int, error) {
	if !breaker.Allow() {
		return 0, circuitbreaker.ErrOpen
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(payload))
	if err != nil {
		breaker.RecordFailure()
		return 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Event-ID", eventID)
	req.Header.Set("X-Webhook-Signature", signature)

	resp, err := d.client.Do(req)
	if err != nil {
		breaker.RecordFailure()
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		breaker.RecordFailure()
		return resp.StatusCode, fmt.Errorf("subscriber returned status %d", resp.StatusCode)
	}

	breaker.RecordSuccess()
	return resp.StatusCode, nil
}

func (d *Dispatcher) appendAttempt(subID uuid.UUID, event, eventID string, attempt, status int, attemptErr error) {
	record := &models.DeliveryAttempt{
		SubscriptionID: subID,
		EventID:        eventID,
		EventName:      event,
		AttemptNumber:  attempt,
		StatusCode:     status,
		Success:        attemptErr == nil,
		Timestamp:      time.Now(),
	}
	if attemptErr != nil {
		record.FailureReason = attemptErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.log.Append(ctx, record); err != nil {
		log.Printf("Failed to append delivery attempt for subscription %s: %v", subID, err)
	}
}

// exhaust records terminal failure after the last attempt. The
// subscription is flagged for an operator, never auto-disabled.
func (d *Dispatcher) exhaust(sub models.WebhookSubscription, event string, lastErr error) {
	reason := fmt.Sprintf("delivery of %q exhausted after %d attempts: %v", event, d.retry.MaxAttempts, lastErr)
	log.Printf("Webhook subscription %s needs attention: %s", sub.ID, reason)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.registry.MarkNeedsAttention(ctx, sub.ID, reason); err != nil {
		log.Printf("Failed to flag subscription %s: %v", sub.ID, err)
	}
}
