package stream

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	// ContributionChargeTopic carries pending contributions that still need to be charged.
	ContributionChargeTopic = "contribution.charge"

	// PoolFundedTopic is published once a pool's balance reaches its target.
	PoolFundedTopic = "pool.funded"

	// SplitNotifyTopic carries participants whose pay link must be sent by SMS.
	SplitNotifyTopic = "split.notify"
)

type ContributionChargeEvent struct {
	ContributionID  string          `json:"contribution_id"`
	PoolID          string          `json:"pool_id"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Method          string          `json:"method"`
	PaymentMethodID string          `json:"payment_method_id"`
}

type PoolFundedEvent struct {
	PoolID  string          `json:"pool_id"`
	Balance decimal.Decimal `json:"balance"`
}

type SplitNotifyEvent struct {
	SplitID       string `json:"split_id"`
	ParticipantID string `json:"participant_id"`
	PhoneNumber   string `json:"phone_number"`
	Message       string `json:"message"`
}

// Publish encodes event as JSON and produces it to topic.
func Publish(p Producer, topic string, event any) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.ProduceMessage(topic, string(b))
}
