package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/univmarket/go-market-backend/internal/domain"
)

type recordingSender struct {
	mu    sync.Mutex
	codes []string
	res   int
	done  int
	err   error
	block chan struct{}
}

func (r *recordingSender) SendVerificationCode(_ context.Context, _, code string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return r.err
}

func (r *recordingSender) SendReservationNotice(context.Context, *domain.Product, *domain.User, *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res++
	return r.err
}

func (r *recordingSender) SendTransactionCompleteNotice(context.Context, *domain.Product, *domain.User, *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	return r.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDispatcherDeliversQueuedNotifications(t *testing.T) {
	s := &recordingSender{}
	d := NewDispatcher(s, 8, 2, time.Second)
	defer d.Close()

	d.VerificationCode("a@snu.ac.kr", "123456")
	p := &domain.Product{Title: "t"}
	u := &domain.User{Email: "x@snu.ac.kr"}
	d.ReservationNotice(p, u, u)
	d.TransactionCompleteNotice(p, u, u)

	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.codes) == 1 && s.res == 1 && s.done == 1
	})
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	blocked := make(chan struct{})
	s := &recordingSender{block: blocked}
	d := NewDispatcher(s, 1, 1, time.Second)

	// First fills the worker, second fills the queue, third must be dropped
	// without blocking the caller.
	d.VerificationCode("a@snu.ac.kr", "1")
	d.VerificationCode("a@snu.ac.kr", "2")

	sent := make(chan struct{})
	go func() {
		d.VerificationCode("a@snu.ac.kr", "3")
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(blocked)
	d.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) > 2 {
		t.Fatalf("expected at most 2 deliveries, got %d", len(s.codes))
	}
}

func TestDispatcherSenderErrorDoesNotPanic(t *testing.T) {
	s := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(s, 4, 1, time.Second)

	d.VerificationCode("a@snu.ac.kr", "123456")
	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.codes) == 1
	})
	d.Close()
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, 4, 1, time.Second)
	d.Close()
	d.Close()
}

func TestDispatcherEnqueueDuringCloseDoesNotPanic(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, 4, 1, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.VerificationCode("a@snu.ac.kr", "123456")
			}
		}()
	}
	d.Close()
	wg.Wait()

	// Notifications after shutdown are silently dropped.
	d.VerificationCode("a@snu.ac.kr", "123456")
}

func TestReservationMailBodyUsesBuyerNickname(t *testing.T) {
	m := NewMailer("localhost", 2525, "", "", "noreply@market.example.com", "https://market.example.com")
	buyer := &domain.User{Nickname: "북러버"}
	p := &domain.Product{Title: "경제학 교과서"}

	var body bytes.Buffer
	data := struct {
		Buyer, Title, Link string
	}{Buyer: buyer.Nickname, Title: p.Title, Link: m.productLink(p)}
	if err := reservationTmpl.Execute(&body, data); err != nil {
		t.Fatalf("render reservation body: %v", err)
	}
	for _, want := range []string{"북러버", "경제학 교과서", "/products/0"} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("reservation body missing %q:\n%s", want, body.String())
		}
	}

	// The full path renders before dialing; an unreachable SMTP host must
	// surface a send error, never a render error.
	bad := NewMailer("127.0.0.1", 1, "", "", "noreply@market.example.com", "https://market.example.com")
	err := bad.SendReservationNotice(context.Background(), p, &domain.User{Email: "seller@snu.ac.kr"}, buyer)
	if err == nil || strings.Contains(err.Error(), "render mail body") {
		t.Fatalf("expected smtp send failure, got %v", err)
	}
}

func TestMailerProductLink(t *testing.T) {
	m := NewMailer("localhost", 2525, "", "", "noreply@market.example.com", "https://market.example.com")
	got := m.productLink(&domain.Product{ID: 42})
	if got != "https://market.example.com/products/42" {
		t.Fatalf("unexpected link %q", got)
	}
}
