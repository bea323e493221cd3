package models

import "time"

const (
	RoleClient   = "CLIENT"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

type Account struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FirstName    string    `gorm:"not null"                 json:"firstName"`
	LastName     string    `gorm:"not null"                 json:"lastName"`
	Role         string    `gorm:"not null"                 json:"role"`
	Enabled      bool      `gorm:"not null"                 json:"enabled"`
	Active       bool      `gorm:"not null"                 json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Usable reports whether the account may hold an authenticated session.
func (a *Account) Usable() bool {
	return a.Enabled && a.Active
}
