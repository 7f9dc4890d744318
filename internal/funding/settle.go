// Package funding moves contributions to a final status and announces pools
// that reach their target. The charge worker and the provider webhook share it.
package funding

import (
	"fmt"

	"github.com/cradoe/splitsy/internal/calculator"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/stream"
	"github.com/shopspring/decimal"
)

type BalanceReader interface {
	Balance(poolID string) (decimal.Decimal, error)
	Invalidate(poolID string)
}

type Settler struct {
	Contributions repository.ContributionRepository
	Pools         repository.PoolRepository
	Balances      BalanceReader
	Producer      stream.Producer
}

// Settle records the outcome of a charge. Contributions that already left
// pending are not touched again, so redelivered events and a worker racing the
// webhook settle it once.
// It reports whether the pool crossed its target because of this contribution.
func (s *Settler) Settle(c *models.Contribution, status, reference, failureReason string) (bool, error) {
	if c.Status != repository.ContributionStatusPending {
		return false, nil
	}

	updated, err := s.Contributions.UpdateStatus(c.ID, status, reference, failureReason)
	if err != nil {
		return false, fmt.Errorf("update contribution %s: %w", c.ID, err)
	}
	if !updated {
		return false, nil
	}
	c.Status = status

	if status == repository.ContributionStatusPending {
		return false, nil
	}

	s.Balances.Invalidate(c.PoolID)

	if status != repository.ContributionStatusSucceeded {
		return false, nil
	}

	pool, found, err := s.Pools.GetOne(c.PoolID)
	if err != nil || !found {
		return false, err
	}

	balance, err := s.Balances.Balance(c.PoolID)
	if err != nil {
		return false, err
	}

	before := balance.Sub(c.Amount)
	if calculator.Funded(before, pool.TargetAmount) || !calculator.Funded(balance, pool.TargetAmount) {
		return false, nil
	}

	err = stream.Publish(s.Producer, stream.PoolFundedTopic, stream.PoolFundedEvent{
		PoolID:  pool.ID,
		Balance: balance,
	})
	if err != nil {
		return true, fmt.Errorf("publish pool funded: %w", err)
	}

	return true, nil
}
