package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleGuest   UserRole = "guest"
	RoleWaiter  UserRole = "waiter"
	RoleKitchen UserRole = "kitchen"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'guest'"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
