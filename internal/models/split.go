package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Split struct {
	ID          string          `db:"id" json:"id"`
	CreatorID   string          `db:"creator_id" json:"creator_id"`
	Title       string          `db:"title" json:"title"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency    string          `db:"currency" json:"currency"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`

	Participants []SplitParticipant `db:"-" json:"participants,omitempty"`
}

type SplitParticipant struct {
	ID          string          `db:"id" json:"id"`
	SplitID     string          `db:"split_id" json:"split_id"`
	Name        string          `db:"name" json:"name"`
	PhoneNumber string          `db:"phone_number" json:"phone_number"`
	AmountDue   decimal.Decimal `db:"amount_due" json:"amount_due"`
	Status      string          `db:"status" json:"status"`
	PayTokenID  string          `db:"pay_token_id" json:"-"`
	NotifiedAt  sql.NullTime    `db:"notified_at" json:"-"`
}

type SplitPayment struct {
	ID                string          `db:"id" json:"id"`
	ParticipantID     string          `db:"participant_id" json:"participant_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	ProviderReference string          `db:"provider_reference" json:"provider_reference"`
	Status            string          `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
