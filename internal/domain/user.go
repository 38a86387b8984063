package domain

import "time"

// User is the authenticated principal. It is re-derived from the user
// store on every login and refresh, never mutated in place for the
// lifetime of a token.
//
// StaffID and CustomerID link the account to a staff or customer record
// in the clinic registry. At most one of them is set, decided when the
// account is linked.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"size:16;index;not null"`
	Name         string    `json:"name,omitempty"`
	StaffID      *int64    `json:"staff_id,omitempty" gorm:"index"`
	CustomerID   *int64    `json:"customer_id,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
