package payments

import (
	"context"
	"errors"
	"time"

	"table-order-api/models"

	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment not found")

// Repository is the narrow persistence layer for Payment rows. It holds no
// business logic; only the reconciliation service and the cleanup jobs
// consume it.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByOrderID returns the most recent payment for an order — the active
// attempt in normal operation, since at most one non-terminal payment
// exists per order.
func (r *Repository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// StatusUpdate carries the optional gateway correlation fields written
// together with a status change.
type StatusUpdate struct {
	TransID   string
	ErrorCode *int
	Message   string
	ExpiredAt *time.Time
}

// UpdateStatus writes a new status plus any gateway fields. UpdatedAt is
// stamped on every call.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, extra StatusUpdate) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if extra.TransID != "" {
		updates["momo_trans_id"] = extra.TransID
	}
	if extra.ErrorCode != nil {
		updates["momo_error_code"] = *extra.ErrorCode
	}
	if extra.Message != "" {
		updates["momo_message"] = extra.Message
	}
	if extra.ExpiredAt != nil {
		updates["expired_at"] = *extra.ExpiredAt
	}
	return r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error
}

// FindPendingOlderThan returns pending payments created before the cutoff.
func (r *Repository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var out []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Find(&out).Error
	return out, err
}

// FindExpiredOlderThan returns expired payments whose expiry predates the cutoff.
func (r *Repository) FindExpiredOlderThan(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var out []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND expired_at < ?", models.PaymentExpired, cutoff).
		Find(&out).Error
	return out, err
}

func (r *Repository) Remove(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id).Error
}
