package models

import "time"

// OrderStatus represents all possible states of a table order
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusServed    OrderStatus = "SERVED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition can leave the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	TableID     int         `json:"table_id" gorm:"not null;index"`
	UserID      *uint       `json:"user_id" gorm:"index"`
	User        *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status      OrderStatus `json:"status" gorm:"not null;default:'PENDING';index"`
	TotalAmount float64     `json:"total_amount" gorm:"not null"`
	Items       []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments    []Payment   `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	OrderID    string   `json:"order_id" gorm:"not null;size:36;index"`
	MenuItemID uint     `json:"menu_item_id" gorm:"not null"`
	MenuItem   MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int      `json:"quantity" gorm:"not null"`
	Price      float64  `json:"price" gorm:"not null"` // snapshot price at time of order
	Name       string   `json:"name"`                  // snapshot name
	Notes      string   `json:"notes"`
}

// OrderStatusHistory tracks every status change for the audit trail
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"order_id" gorm:"not null;size:36;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition, 0 for system
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
