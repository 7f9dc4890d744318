package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Group struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Currency  string    `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Members []GroupMember `db:"-" json:"members,omitempty"`
}

// GroupSummary is a group as seen by one of its members.
type GroupSummary struct {
	Group
	Role string `db:"role" json:"role"`
}

type GroupMember struct {
	GroupID   string              `db:"group_id" json:"group_id"`
	UserID    string              `db:"user_id" json:"user_id"`
	Role      string              `db:"role" json:"role"`
	SpendCap  decimal.NullDecimal `db:"spend_cap" json:"spend_cap"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`

	// joined from users
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}
