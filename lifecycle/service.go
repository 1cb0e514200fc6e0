// Package lifecycle owns order creation and the order status state machine.
// Payment reconciliation and the cleanup jobs drive status changes through
// UpdateStatus; staff actions go through Transition, which enforces the
// transition table.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"table-order-api/models"
	"table-order-api/notify"
	"table-order-api/statemachine"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderExists       = errors.New("order id already exists")
	ErrInvalidOrderID    = errors.New("order id must be a UUID")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrInvalidTransition = errors.New("order is not in the expected state")
)

type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewService(db *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

type CreateOrderItem struct {
	MenuItemID uint    `json:"menu_item_id" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required,min=1"`
	Price      float64 `json:"price" binding:"required,gt=0"`
	Notes      string  `json:"notes"`
}

type CreateOrderInput struct {
	// ID may be supplied by the client so the payment flow can correlate
	// before the create round-trip completes. It must be a fresh UUID.
	ID      string            `json:"id"`
	TableID int               `json:"table_id" binding:"required"`
	Items   []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

// Create persists a new PENDING order with its items in one transaction.
// The total is always computed here from the submitted lines; a client-sent
// total is never trusted. Broadcasts new_order to the admin and waiter
// channels on success.
func (s *Service) Create(ctx context.Context, in CreateOrderInput, userID *uint) (*models.Order, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidOrderID
	}

	var existing models.Order
	if err := s.db.WithContext(ctx).Select("id").First(&existing, "id = ?", id).Error; err == nil {
		return nil, ErrOrderExists
	}

	var items []models.OrderItem
	var total float64
	for _, line := range in.Items {
		var menuItem models.MenuItem
		if err := s.db.WithContext(ctx).First(&menuItem, line.MenuItemID).Error; err != nil {
			return nil, fmt.Errorf("%w: id %d", ErrMenuItemNotFound, line.MenuItemID)
		}
		total += line.Price * float64(line.Quantity)
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Quantity:   line.Quantity,
			Price:      line.Price,
			Name:       menuItem.Name,
			Notes:      line.Notes,
		})
	}

	order := models.Order{
		ID:          id,
		TableID:     in.TableID,
		UserID:      userID,
		Status:      models.StatusPending,
		TotalAmount: total,
		Items:       items,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		history := models.OrderStatusHistory{
			OrderID:  order.ID,
			ToStatus: models.StatusPending,
			Note:     "Order placed by guest",
		}
		if userID != nil {
			history.ChangedBy = *userID
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.ChannelAdmin, notify.Payload{
		Event: notify.EventNewOrder, OrderID: order.ID, Status: string(order.Status),
	})
	s.notifier.Publish(ctx, notify.ChannelWaiter, notify.Payload{
		Event: notify.EventNewOrder, OrderID: order.ID, Status: string(order.Status),
	})
	return &order, nil
}

// Get loads an order with its items and payment history.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Payments").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserID returns an authenticated guest's order history, newest first.
func (s *Service) FindByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// ListByStatus returns orders filtered by status (all orders when empty),
// newest first. Used by the waiter/kitchen dashboards.
func (s *Service) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	q := s.db.WithContext(ctx).Preload("Items.MenuItem")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// Transition moves an order along the state machine on behalf of an actor.
// The order's current status must equal the transition's predecessor; on
// mismatch nothing is mutated and ErrInvalidTransition is returned, so an
// out-of-order double-click cannot corrupt state.
func (s *Service) Transition(ctx context.Context, orderID string, to models.OrderStatus, actor string, actedBy uint, note string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := statemachine.CanTransition(order.Status, to, actor); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, err.Error())
	}

	prev := order.Status
	if err := s.applyStatus(ctx, &order, to, actedBy, note); err != nil {
		return nil, err
	}
	log.Printf("order %s: %s → %s by %s", order.ID, prev, to, actor)
	return &order, nil
}

// UpdateStatus sets an order's status directly, without a precondition
// check. This is the escape hatch for payment reconciliation, the cleanup
// jobs, and the admin override; staff actions must use Transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to models.OrderStatus, note string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := s.applyStatus(ctx, &order, to, 0, note); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) applyStatus(ctx context.Context, order *models.Order, to models.OrderStatus, actedBy uint, note string) error {
	prev := order.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", to).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prev,
			ToStatus:   to,
			ChangedBy:  actedBy,
			Note:       note,
		}).Error
	})
	if err != nil {
		return err
	}
	order.Status = to
	s.broadcastStatus(ctx, order.ID, to)
	return nil
}

// broadcastStatus fans the change out to the kitchen and waiter displays
// and the order's guest channel. Best-effort: the status update already
// committed, a lost event is not an error.
func (s *Service) broadcastStatus(ctx context.Context, orderID string, status models.OrderStatus) {
	p := notify.Payload{
		Event:   notify.EventOrderStatusUpdate,
		OrderID: orderID,
		Status:  string(status),
	}
	s.notifier.Publish(ctx, notify.ChannelWaiter, p)
	s.notifier.Publish(ctx, notify.ChannelKitchen, p)
	s.notifier.Publish(ctx, notify.OrderChannel(orderID), p)
}
