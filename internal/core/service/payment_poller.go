package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starva/storefront/internal/core/domain"
	"github.com/starva/storefront/internal/port"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 120 * time.Second
)

var (
	ErrInvalidPhone    = errors.New("phone number must contain exactly 9 digits")
	ErrPaymentInFlight = errors.New("a payment attempt is already in progress")
)

// NormalizePhone strips every non-digit character, requires exactly 9 digits
// to remain, and prefixes a single leading zero. Anything else is rejected
// before a request is wasted on it.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 9 {
		return "", ErrInvalidPhone
	}
	return "0" + digits.String(), nil
}

type PaymentEventKind string

const (
	PaymentEventPending PaymentEventKind = "pending"
	PaymentEventPolling PaymentEventKind = "polling"
	PaymentEventSuccess PaymentEventKind = "success"
	PaymentEventFailed  PaymentEventKind = "failed"
	PaymentEventTimeout PaymentEventKind = "timeout"
)

// PaymentEvent is one observable transition of a payment attempt. Timeout is
// informational, not a failure: the charge is approved out-of-band and may
// still complete server-side.
type PaymentEvent struct {
	Kind    PaymentEventKind
	Message string
}

// PaymentPoller drives one mobile-money payment attempt at a time:
// initiate the charge, then poll the status endpoint at a fixed interval
// until the gateway reports a terminal status or the hard timeout elapses.
//
// Exactly one poll loop and one timeout clock run per attempt; both are torn
// down together on every exit path (terminal status, timeout, Stop). A status
// response that arrives after Stop is dropped.
type PaymentPoller struct {
	gateway  port.Gateway
	journal  port.PaymentJournal
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	status domain.PaymentStatus
	stop   chan struct{}
}

// NewPaymentPoller builds a poller. Non-positive interval or timeout fall
// back to the defaults (3s / 120s).
func NewPaymentPoller(gateway port.Gateway, journal port.PaymentJournal, interval, timeout time.Duration) *PaymentPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	return &PaymentPoller{
		gateway:  gateway,
		journal:  journal,
		interval: interval,
		timeout:  timeout,
		status:   domain.PaymentIdle,
	}
}

// Status returns the current state of the attempt in flight (or the terminal
// state of the last one).
func (p *PaymentPoller) Status() domain.PaymentStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Start normalizes the phone number, initiates the charge and begins polling.
// The returned channel reports every transition and is closed once the
// attempt reaches a terminal state, times out, or is stopped. A failed
// attempt may be retried by calling Start again.
func (p *PaymentPoller) Start(ctx context.Context, orderID, rawPhone string) (<-chan PaymentEvent, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.status == domain.PaymentPending || p.status == domain.PaymentPolling {
		p.mu.Unlock()
		return nil, ErrPaymentInFlight
	}
	p.status = domain.PaymentPending
	p.stop = make(chan struct{})
	stop := p.stop
	events := make(chan PaymentEvent, 8)
	p.mu.Unlock()

	events <- PaymentEvent{Kind: PaymentEventPending}
	go p.run(ctx, orderID, phone, stop, events)
	return events, nil
}

// Stop cancels the attempt in flight, releasing the poll loop and the
// timeout clock together. Safe to call twice and safe to call when nothing
// is running; no event is emitted after Stop returns.
func (p *PaymentPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	select {
	case <-p.stop:
		// already closed
	default:
		close(p.stop)
	}
	if p.status == domain.PaymentPending || p.status == domain.PaymentPolling {
		p.status = domain.PaymentIdle
	}
}

func (p *PaymentPoller) run(ctx context.Context, orderID, phone string, stop chan struct{}, events chan PaymentEvent) {
	defer close(events)

	initiation, err := p.gateway.InitiatePayment(ctx, orderID, phone)
	if err != nil {
		p.transition(stop, events, domain.PaymentFailed, PaymentEvent{Kind: PaymentEventFailed, Message: err.Error()})
		return
	}
	if initiation.Reference == "" {
		p.transition(stop, events, domain.PaymentFailed, PaymentEvent{Kind: PaymentEventFailed, Message: "payment gateway returned no reference"})
		return
	}

	attempt := domain.PaymentAttempt{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		PhoneNumber: phone,
		Reference:   initiation.Reference,
		Amount:      initiation.Amount,
		Status:      domain.PaymentPolling,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if p.journal != nil {
		// journal failures must not stop the charge from being tracked
		_ = p.journal.Record(ctx, attempt)
	}

	if !p.transition(stop, events, domain.PaymentPolling, PaymentEvent{Kind: PaymentEventPolling}) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			p.mu.Lock()
			if p.status == domain.PaymentPolling {
				p.status = domain.PaymentIdle
			}
			p.mu.Unlock()
			return
		case <-deadline.C:
			// not a failure: the approval happens on the payer's handset and
			// may still land server-side after we give up waiting
			p.transition(stop, events, domain.PaymentIdle, PaymentEvent{
				Kind:    PaymentEventTimeout,
				Message: "if you approved the payment, it will be processed shortly",
			})
			return
		case <-ticker.C:
			status, err := p.gateway.PaymentStatus(ctx, orderID, attempt.Reference)
			if err != nil {
				continue // transient; next tick retries
			}
			switch status {
			case domain.GatewayStatusSuccessful:
				// refresh the order first so the paid flag is visible the
				// moment the success event lands
				_, _ = p.gateway.GetOrder(ctx, orderID)
				if p.transition(stop, events, domain.PaymentSuccess, PaymentEvent{Kind: PaymentEventSuccess}) && p.journal != nil {
					_ = p.journal.UpdateStatus(ctx, attempt.ID, domain.PaymentSuccess)
				}
				return
			case domain.GatewayStatusFailed:
				if p.transition(stop, events, domain.PaymentFailed, PaymentEvent{Kind: PaymentEventFailed, Message: "payment failed"}) && p.journal != nil {
					_ = p.journal.UpdateStatus(ctx, attempt.ID, domain.PaymentFailed)
				}
				return
			}
			// any other status: still waiting for the payer, keep polling
		}
	}
}

// transition applies a state change and emits its event unless the attempt
// was stopped in the meantime. Reports whether the change was applied.
func (p *PaymentPoller) transition(stop chan struct{}, events chan PaymentEvent, status domain.PaymentStatus, event PaymentEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-stop:
		return false
	default:
	}
	p.status = status
	events <- event
	return true
}

