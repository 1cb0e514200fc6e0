package models

import "time"

// PaymentMethod is how a guest settles an order. Only MoMo has a gateway leg.
type PaymentMethod string

const (
	MethodMomo PaymentMethod = "momo"
	MethodBank PaymentMethod = "bank"
	MethodCash PaymentMethod = "cash"
)

// PaymentStatus moves strictly forward: pending -> success | failed | expired.
// An expired payment may still become success via a late gateway callback;
// success is absorbing.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

type Payment struct {
	ID            string        `json:"id" gorm:"primaryKey;size:36"`
	OrderID       string        `json:"order_id" gorm:"not null;size:36;index"`
	Amount        float64       `json:"amount" gorm:"not null"`
	Method        PaymentMethod `json:"method" gorm:"size:10;not null;default:'momo'"`
	Status        PaymentStatus `json:"status" gorm:"size:10;not null;default:'pending';index"`
	MomoTransID   string        `json:"momo_trans_id"`
	MomoErrorCode *int          `json:"momo_error_code"`
	MomoMessage   string        `json:"momo_message"`
	ExpiredAt     *time.Time    `json:"expired_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
