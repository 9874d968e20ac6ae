// Package notify implements the notification gateway: one-way, best-effort
// email dispatch for verification codes and product lifecycle events.
//
// Delivery is strictly off the critical path of the triggering request. The
// Dispatcher owns a bounded queue drained by a fixed worker pool; callers
// enqueue after their transaction commits, and a failed or dropped delivery
// is logged, never propagated back to the caller.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/univmarket/go-market-backend/internal/domain"
)

// Sender performs the actual delivery of one notification. Implementations
// must be safe for concurrent use; the pool invokes them from several
// workers at once.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendReservationNotice(ctx context.Context, p *domain.Product, seller, buyer *domain.User) error
	SendTransactionCompleteNotice(ctx context.Context, p *domain.Product, seller, buyer *domain.User) error
}

// task is one queued delivery. The closure carries everything the worker
// needs; no shared state.
type task func(ctx context.Context)

// Dispatcher fans queued notifications out to a fixed pool of workers.
// At-most-once: a full queue drops the notification with a warning log.
type Dispatcher struct {
	sender  Sender
	queue   chan task
	timeout time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewDispatcher builds a Dispatcher with the given queue capacity and worker
// count and starts its workers. Callers own the returned value and should
// Close it on shutdown to drain in-flight deliveries.
func NewDispatcher(sender Sender, queueSize, workers int, perSendTimeout time.Duration) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}
	if workers < 1 {
		workers = 2
	}
	if perSendTimeout <= 0 {
		perSendTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan task, queueSize),
		timeout: perSendTimeout,
		cancel:  cancel,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker(ctx)
	}
	return d
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-d.queue:
			if !ok {
				return
			}
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			t(sendCtx)
			cancel()
		}
	}
}

// enqueue hands a task to the pool without blocking. Dropped tasks are
// logged; notification loss is accepted by design of the error model.
// The lock orders enqueue against Close so the queue is never written
// after it has been closed.
func (d *Dispatcher) enqueue(kind string, t task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Warn().Str("kind", kind).Msg("dispatcher closed, dropping notification")
		return
	}
	select {
	case d.queue <- t:
	default:
		log.Warn().Str("kind", kind).Msg("notification queue full, dropping")
	}
}

// VerificationCode queues a verification-code email for email/code.
func (d *Dispatcher) VerificationCode(email, code string) {
	d.enqueue("verification_code", func(ctx context.Context) {
		if err := d.sender.SendVerificationCode(ctx, email, code); err != nil {
			log.Error().Err(err).Str("kind", "verification_code").Msg("notification delivery failed")
		}
	})
}

// ReservationNotice queues the reserved-product email to the seller.
func (d *Dispatcher) ReservationNotice(p *domain.Product, seller, buyer *domain.User) {
	d.enqueue("reservation", func(ctx context.Context) {
		if err := d.sender.SendReservationNotice(ctx, p, seller, buyer); err != nil {
			log.Error().Err(err).Str("kind", "reservation").Uint("product_id", p.ID).Msg("notification delivery failed")
		}
	})
}

// TransactionCompleteNotice queues the completed-transaction emails to both
// participants.
func (d *Dispatcher) TransactionCompleteNotice(p *domain.Product, seller, buyer *domain.User) {
	d.enqueue("transaction_complete", func(ctx context.Context) {
		if err := d.sender.SendTransactionCompleteNotice(ctx, p, seller, buyer); err != nil {
			log.Error().Err(err).Str("kind", "transaction_complete").Uint("product_id", p.ID).Msg("notification delivery failed")
		}
	})
}

// Close stops accepting work and waits for workers to finish their current
// delivery. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}
