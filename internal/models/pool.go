package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Pool struct {
	ID              string          `db:"id" json:"id"`
	GroupID         string          `db:"group_id" json:"group_id"`
	Name            string          `db:"name" json:"name"`
	TargetAmount    decimal.Decimal `db:"target_amount" json:"target_amount"`
	Status          string          `db:"status" json:"status"`
	DesignatedPayer sql.NullString  `db:"designated_payer" json:"-"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	ClosedAt        sql.NullTime    `db:"closed_at" json:"-"`
}

// PoolView is the response shape of a pool with its derived balance.
type PoolView struct {
	*Pool
	DesignatedPayer *string         `json:"designated_payer"`
	ClosedAt        *time.Time      `json:"closed_at"`
	Balance         decimal.Decimal `json:"balance"`
	Remaining       decimal.Decimal `json:"remaining"`
	Funded          bool            `json:"funded"`
}

type Contribution struct {
	ID                string          `db:"id" json:"id"`
	PoolID            string          `db:"pool_id" json:"pool_id"`
	UserID            string          `db:"user_id" json:"user_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Method            string          `db:"method" json:"method"`
	Status            string          `db:"status" json:"status"`
	ProviderReference sql.NullString  `db:"provider_reference" json:"-"`
	FailureReason     sql.NullString  `db:"failure_reason" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         sql.NullTime    `db:"updated_at" json:"-"`
}
