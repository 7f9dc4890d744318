// Package payment talks to the card-acquiring and card-issuing provider.
package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ChargeStatusSucceeded = "succeeded"
	ChargeStatusPending   = "pending"
	ChargeStatusFailed    = "failed"
)

const (
	EventPaymentSucceeded   = "payment_intent.succeeded"
	EventPaymentFailed      = "payment_intent.payment_failed"
	EventIssuingTransaction = "issuing_transaction.created"
)

var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

type Provider interface {
	Charge(req *ChargeRequest) (*ChargeResult, error)
	CreateCardholder(holder *Cardholder) (string, error)
	IssueCard(req *CardRequest) (*IssuedCard, error)
	UpdateCardStatus(providerCardID, status string) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type ChargeRequest struct {
	Amount          decimal.Decimal
	Currency        string
	PaymentMethodID string
	Description     string
	// IdempotencyKey makes retries of the same charge safe.
	IdempotencyKey string
	Metadata       map[string]string
}

// ChargeResult describes a charge the provider accepted or declined.
// Declines are results, not errors; errors mean the outcome is unknown.
type ChargeResult struct {
	Reference     string
	Status        string
	FailureReason string
}

type Cardholder struct {
	Name        string
	Email       string
	PhoneNumber string
	DateOfBirth time.Time
	Line1       string
	City        string
	State       string
	PostalCode  string
	Country     string
}

type CardRequest struct {
	CardholderID  string
	Currency      string
	SpendingLimit decimal.Decimal
	Metadata      map[string]string
}

type IssuedCard struct {
	ProviderCardID string
	Network        string
	Last4          string
}

type WebhookEvent struct {
	Type string

	// set for payment events
	PaymentReference string
	FailureReason    string
	Metadata         map[string]string

	// set for issuing transaction events
	Transaction *CardTransaction
}

type CardTransaction struct {
	Reference      string
	ProviderCardID string
	// Amount is always positive; Type says which way the money moved.
	Amount       decimal.Decimal
	Type         string
	MerchantName string
}
