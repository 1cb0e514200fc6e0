// Package jobs runs the two periodic sweeps that keep stale payments and
// their orders consistent: pending payments expire after five minutes, and
// orders whose payment has been expired for two more minutes are cancelled.
// The gap between the two stages is deliberate — it leaves a window in
// which a late successful gateway callback can still settle the order.
package jobs

import (
	"context"
	"log"
	"time"

	"table-order-api/lifecycle"
	"table-order-api/models"
	"table-order-api/payments"

	"github.com/robfig/cron/v3"
)

const (
	DefaultPaymentTimeout = 5 * time.Minute
	DefaultCancelDelay    = 2 * time.Minute
)

type Sweeper struct {
	repo   *payments.Repository
	orders *lifecycle.Service
	now    func() time.Time
}

func NewSweeper(repo *payments.Repository, orders *lifecycle.Service) *Sweeper {
	return &Sweeper{repo: repo, orders: orders, now: time.Now}
}

// WithClock overrides the sweeper's clock; tests use it to advance time.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Result reports what one sweep touched.
type Result struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// HandlePaymentTimeout expires payments that have sat pending longer than
// the threshold. Each candidate is re-read before writing so a callback
// that settled it between the listing and this iteration is respected.
// Per-record failures are logged and skipped; the next run catches them.
func (s *Sweeper) HandlePaymentTimeout(ctx context.Context, threshold time.Duration) Result {
	var res Result
	stale, err := s.repo.FindPendingOlderThan(ctx, s.now().Add(-threshold))
	if err != nil {
		log.Printf("payment timeout sweep: listing failed: %v", err)
		return res
	}
	for _, p := range stale {
		current, err := s.repo.FindByID(ctx, p.ID)
		if err != nil {
			log.Printf("payment timeout sweep: re-read %s: %v", p.ID, err)
			continue
		}
		if current.Status != models.PaymentPending {
			continue
		}
		expiredAt := s.now()
		if err := s.repo.UpdateStatus(ctx, p.ID, models.PaymentExpired, payments.StatusUpdate{
			ExpiredAt: &expiredAt,
		}); err != nil {
			log.Printf("payment timeout sweep: expire %s: %v", p.ID, err)
			continue
		}
		res.Count++
		res.IDs = append(res.IDs, p.ID)
	}
	if res.Count > 0 {
		log.Printf("payment timeout sweep: expired %d payment(s)", res.Count)
	}
	return res
}

// CancelOrdersWithExpiredPayments cancels orders whose payment expired
// longer ago than the threshold and that are still PENDING. A payment that
// became success since expiring is skipped — a very late callback landed
// and the order was already settled.
func (s *Sweeper) CancelOrdersWithExpiredPayments(ctx context.Context, threshold time.Duration) Result {
	var res Result
	stale, err := s.repo.FindExpiredOlderThan(ctx, s.now().Add(-threshold))
	if err != nil {
		log.Printf("order cancel sweep: listing failed: %v", err)
		return res
	}
	for _, p := range stale {
		current, err := s.repo.FindByID(ctx, p.ID)
		if err != nil {
			log.Printf("order cancel sweep: re-read %s: %v", p.ID, err)
			continue
		}
		if current.Status == models.PaymentSuccess {
			continue
		}
		order, err := s.orders.Get(ctx, p.OrderID)
		if err != nil {
			log.Printf("order cancel sweep: order %s: %v", p.OrderID, err)
			continue
		}
		// A waiter may have accepted the order anyway (e.g. guest paid
		// cash); anything past PENDING is left alone.
		if order.Status != models.StatusPending {
			continue
		}
		if _, err := s.orders.UpdateStatus(ctx, p.OrderID, models.StatusCancelled, "Payment expired, order auto-cancelled"); err != nil {
			log.Printf("order cancel sweep: cancel %s: %v", p.OrderID, err)
			continue
		}
		res.Count++
		res.IDs = append(res.IDs, p.OrderID)
	}
	if res.Count > 0 {
		log.Printf("order cancel sweep: cancelled %d order(s)", res.Count)
	}
	return res
}

// Schedule registers both sweeps on a minute cadence. The returned cron is
// not yet started.
func Schedule(s *Sweeper) *cron.Cron {
	c := cron.New()
	c.AddFunc("@every 1m", func() {
		s.HandlePaymentTimeout(context.Background(), DefaultPaymentTimeout)
	})
	c.AddFunc("@every 1m", func() {
		s.CancelOrdersWithExpiredPayments(context.Background(), DefaultCancelDelay)
	})
	return c
}
