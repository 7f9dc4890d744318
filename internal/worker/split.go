package worker

import (
	"fmt"

	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/stream"
)

// handleSplitNotify texts a participant their pay link. Paid participants are
// skipped so a late reminder never reaches someone who already settled.
func (wk *Worker) handleSplitNotify(message []byte) error {
	event, err := decode[stream.SplitNotifyEvent](message)
	if err != nil {
		return err
	}

	participant, found, err := wk.SplitRepo.GetParticipant(event.ParticipantID)
	if err != nil || !found {
		return err
	}

	if participant.Status == repository.ParticipantStatusPaid {
		return nil
	}

	sid, err := wk.Sms.Send(event.PhoneNumber, event.Message)
	if err != nil {
		return fmt.Errorf("text pay link to participant %s: %w", participant.ID, err)
	}

	err = wk.SplitRepo.MarkParticipantNotified(participant.ID)
	if err != nil {
		return err
	}

	wk.Logger.Info("pay link sent", "participant_id", participant.ID, "sid", sid)

	return nil
}
