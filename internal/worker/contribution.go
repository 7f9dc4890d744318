package worker

import (
	"fmt"

	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/stream"
)

// handleContributionCharge confirms a pending contribution's payment. The
// contribution id is the idempotency key, so a redelivered event never
// charges twice.
func (wk *Worker) handleContributionCharge(message []byte) error {
	event, err := decode[stream.ContributionChargeEvent](message)
	if err != nil {
		return err
	}

	contribution, found, err := wk.ContributionRepo.GetOne(event.ContributionID)
	if err != nil {
		return err
	}
	if !found {
		wk.Logger.Warn("charge event for unknown contribution", "contribution_id", event.ContributionID)
		return nil
	}

	// already settled, or charged and waiting on the provider's webhook
	if contribution.Status != repository.ContributionStatusPending || contribution.ProviderReference.Valid {
		return nil
	}

	result, err := wk.Payments.Charge(&payment.ChargeRequest{
		Amount:          contribution.Amount,
		Currency:        event.Currency,
		PaymentMethodID: event.PaymentMethodID,
		Description:     "Splitsy pool contribution",
		IdempotencyKey:  contribution.ID,
		Metadata: map[string]string{
			"contribution_id": contribution.ID,
			"pool_id":         contribution.PoolID,
		},
	})
	if err != nil {
		// The outcome is unknown. The contribution stays pending so the
		// provider's webhook can still settle it by contribution id.
		wk.Logger.Warn("charge outcome unknown", "contribution_id", contribution.ID, "error", err)
		return fmt.Errorf("charge contribution %s: %w", contribution.ID, err)
	}

	status := repository.ContributionStatusPending
	switch result.Status {
	case payment.ChargeStatusSucceeded:
		status = repository.ContributionStatusSucceeded
	case payment.ChargeStatusFailed:
		status = repository.ContributionStatusFailed
	}

	funded, err := wk.Settler.Settle(contribution, status, result.Reference, result.FailureReason)
	if err != nil {
		return err
	}

	wk.Metrics.ContributionProcessed(status)

	wk.Logger.Info("contribution charged",
		"contribution_id", contribution.ID,
		"pool_id", contribution.PoolID,
		"status", status,
		"pool_funded", funded,
	)

	return nil
}
