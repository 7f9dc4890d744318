package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type VirtualCard struct {
	ID                string          `db:"id" json:"id"`
	PoolID            string          `db:"pool_id" json:"pool_id"`
	ProviderCardID    string          `db:"provider_card_id" json:"provider_card_id"`
	Network           string          `db:"network" json:"network"`
	Last4             string          `db:"last4" json:"last4"`
	Status            string          `db:"status" json:"status"`
	ApplePayTokenized bool            `db:"apple_pay_tokenized" json:"apple_pay_tokenized"`
	SpendingLimit     decimal.Decimal `db:"spending_limit" json:"spending_limit"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID                string          `db:"id" json:"id"`
	PoolID            string          `db:"pool_id" json:"pool_id"`
	CardID            sql.NullString  `db:"card_id" json:"-"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Type              string          `db:"type" json:"type"`
	Status            string          `db:"status" json:"status"`
	MerchantName      string          `db:"merchant_name" json:"merchant_name"`
	ProviderReference string          `db:"provider_reference" json:"provider_reference"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
