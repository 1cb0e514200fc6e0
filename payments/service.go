// Package payments reconciles asynchronous gateway signals onto Payment
// rows and fans settlement out to the order lifecycle. Three writers touch
// a payment — the guest's intent request, the gateway's IPN callback, and
// the cleanup jobs — and every merge point here moves status strictly
// forward.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"table-order-api/lifecycle"
	"table-order-api/models"
	"table-order-api/momo"
	"table-order-api/notify"

	"github.com/google/uuid"
)

var ErrCreatePayment = errors.New("failed to create payment")

// Gateway is the slice of the wallet adapter the service depends on.
type Gateway interface {
	CreatePayment(orderID, requestID string, amount int64) (*momo.CreateResponse, error)
	VerifyCallback(p *momo.CallbackPayload) error
	QueryPayment(orderID, requestID string) (*momo.QueryResponse, error)
}

type Service struct {
	repo     *Repository
	orders   *lifecycle.Service
	gateway  Gateway
	notifier notify.Notifier
}

func NewService(repo *Repository, orders *lifecycle.Service, gateway Gateway, notifier notify.Notifier) *Service {
	return &Service{repo: repo, orders: orders, gateway: gateway, notifier: notifier}
}

// CreateResult is returned to the caller, who redirects the guest to the
// gateway's PayURL.
type CreateResult struct {
	PaymentID string               `json:"payment_id"`
	OrderID   string               `json:"order_id"`
	RequestID string               `json:"request_id"`
	Gateway   *momo.CreateResponse `json:"gateway"`
}

// CreateMomoPayment opens a pending Payment for an existing order and asks
// the gateway for a pay URL. The order id doubles as the gateway's
// idempotent requestId. If the gateway call fails after the row was
// created, the row stays pending and the timeout job reconciles it; no
// compensating delete.
func (s *Service) CreateMomoPayment(ctx context.Context, orderID string, amount float64) (*CreateResult, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:      uuid.NewString(),
		OrderID: orderID,
		Amount:  amount,
		Method:  models.MethodMomo,
		Status:  models.PaymentPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreatePayment, err)
	}

	requestID := orderID
	resp, err := s.gateway.CreatePayment(orderID, requestID, int64(amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreatePayment, err)
	}

	return &CreateResult{
		PaymentID: payment.ID,
		OrderID:   orderID,
		RequestID: requestID,
		Gateway:   resp,
	}, nil
}

// HandleCallback applies an IPN callback to the payment it references.
// Returns the payment's resulting status. The guard sequence keeps
// duplicated and out-of-order callbacks from re-applying settled state:
//
//  1. reject on bad signature, before any read or write
//  2. unknown order is an error, never a silent success
//  3. success is absorbing — a settled payment is returned untouched
//  4. any other non-pending, non-expired status (i.e. failed) is a no-op;
//     a stray duplicate cannot resurrect a failed payment
//  5. resultCode 0 settles as success, anything else as failed
//
// An expired payment is still allowed to settle: the gateway retries
// callbacks after network hiccups, and honoring a genuinely-paid order
// beats promptness of cleanup.
func (s *Service) HandleCallback(ctx context.Context, p *momo.CallbackPayload) (models.PaymentStatus, error) {
	if err := s.gateway.VerifyCallback(p); err != nil {
		return "", err
	}

	payment, err := s.repo.FindByOrderID(ctx, p.OrderID)
	if err != nil {
		return "", err
	}

	if payment.Status == models.PaymentSuccess {
		return models.PaymentSuccess, nil
	}
	if payment.Status != models.PaymentPending && payment.Status != models.PaymentExpired {
		log.Printf("payment %s: callback ignored, status already %s", payment.ID, payment.Status)
		return payment.Status, nil
	}

	newStatus := models.PaymentFailed
	if p.ResultCode == 0 {
		newStatus = models.PaymentSuccess
	}
	errCode := p.ResultCode
	if err := s.repo.UpdateStatus(ctx, payment.ID, newStatus, StatusUpdate{
		TransID:   p.TransID,
		ErrorCode: &errCode,
		Message:   p.Message,
	}); err != nil {
		return "", err
	}

	if newStatus == models.PaymentSuccess {
		s.settleOrder(ctx, payment.OrderID)
	}
	return newStatus, nil
}

// settleOrder advances the order after a successful payment and announces
// the settlement. The payment write already committed and the gateway must
// see HTTP success or it will retry the callback forever, so failures here
// are logged and swallowed.
func (s *Service) settleOrder(ctx context.Context, orderID string) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		log.Printf("payment settled but order %s lookup failed: %v", orderID, err)
		return
	}
	// Never rewind an order a waiter already moved forward.
	if order.Status == models.StatusPending {
		if _, err := s.orders.UpdateStatus(ctx, orderID, models.StatusAccepted, "Payment settled via MoMo"); err != nil {
			log.Printf("payment settled but order %s update failed: %v", orderID, err)
		}
	}
	s.notifier.Publish(ctx, notify.OrderChannel(orderID), notify.Payload{
		Event:   notify.EventPaymentStatusUpdate,
		OrderID: orderID,
		Status:  string(models.PaymentSuccess),
	})
}

// RecordDirectPayment settles a cash or bank payment in one step; these
// methods have no gateway leg, staff confirm them at the table.
func (s *Service) RecordDirectPayment(ctx context.Context, orderID string, amount float64, method models.PaymentMethod) (*models.Payment, error) {
	if method != models.MethodCash && method != models.MethodBank {
		return nil, fmt.Errorf("%w: method %s has a gateway flow", ErrCreatePayment, method)
	}
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	payment := &models.Payment{
		ID:      uuid.NewString(),
		OrderID: orderID,
		Amount:  amount,
		Method:  method,
		Status:  models.PaymentSuccess,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreatePayment, err)
	}
	s.settleOrder(ctx, orderID)
	return payment, nil
}

// QueryMomoPayment is a passthrough to the gateway's query endpoint, used
// for manual reconciliation and support tooling.
func (s *Service) QueryMomoPayment(orderID, requestID string) (*momo.QueryResponse, error) {
	return s.gateway.QueryPayment(orderID, requestID)
}

// GetByOrderID exposes the active payment for an order.
func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}
