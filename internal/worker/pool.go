package worker

import (
	"fmt"

	"github.com/cradoe/splitsy/internal/stream"
)

// handlePoolFunded tells the group owner that a pool reached its target.
func (wk *Worker) handlePoolFunded(message []byte) error {
	event, err := decode[stream.PoolFundedEvent](message)
	if err != nil {
		return err
	}

	pool, found, err := wk.PoolRepo.GetOne(event.PoolID)
	if err != nil || !found {
		return err
	}

	group, found, err := wk.GroupRepo.GetOne(pool.GroupID)
	if err != nil || !found {
		return err
	}

	owner, found, err := wk.UserRepo.GetOne(group.OwnerID)
	if err != nil || !found {
		return err
	}

	emailData := wk.Helper.NewEmailData()
	emailData["Name"] = owner.Name
	emailData["PoolName"] = pool.Name
	emailData["GroupName"] = group.Name
	emailData["Target"] = pool.TargetAmount
	emailData["Balance"] = event.Balance
	emailData["Currency"] = group.Currency

	err = wk.Mailer.Send(owner.Email, emailData, "pool-funded.tmpl")
	if err != nil {
		return fmt.Errorf("send pool funded email for %s: %w", pool.ID, err)
	}

	return nil
}
