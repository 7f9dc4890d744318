package stream

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type capturingProducer struct {
	topic   string
	message string
}

func (c *capturingProducer) ProduceMessage(topic, message string) error {
	c.topic = topic
	c.message = message
	return nil
}

func TestPublishEncodesEvent(t *testing.T) {
	p := &capturingProducer{}

	err := Publish(p, ContributionChargeTopic, ContributionChargeEvent{
		ContributionID:  "c-1",
		PoolID:          "p-1",
		Amount:          decimal.RequireFromString("25.50"),
		Currency:        "USD",
		Method:          "card",
		PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)
	require.Equal(t, ContributionChargeTopic, p.topic)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(p.message), &decoded))
	require.Equal(t, "25.5", decoded["amount"])
	require.Equal(t, "pm_card_visa", decoded["payment_method_id"])
}
