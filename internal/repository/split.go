package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type SplitRepository interface {
	Create(split *models.Split) (*models.Split, error)
	GetOne(id string) (*models.Split, bool, error)
	GetAllByCreator(creatorID string) ([]models.Split, error)
	GetParticipant(id string) (*models.SplitParticipant, bool, error)
	MarkParticipantNotified(id string) error
	InsertPayment(payment *models.SplitPayment) error
	HasPendingPayment(participantID string) (bool, error)
	GetPaymentByProviderReference(reference string) (*models.SplitPayment, bool, error)
	UpdatePaymentStatus(id, status string) error
	MarkParticipantPaid(id string) error
	SettleIfComplete(splitID string) (bool, error)
}

const (
	SplitStatusOpen    = "open"
	SplitStatusSettled = "settled"
)

const (
	ParticipantStatusUnpaid = "unpaid"
	ParticipantStatusPaid   = "paid"
)

const (
	SplitPaymentStatusPending   = "pending"
	SplitPaymentStatusSucceeded = "succeeded"
	SplitPaymentStatusFailed    = "failed"
)

type SplitRepositoryImpl struct {
	db DBTX
}

func NewSplitRepository(db DBTX) SplitRepository {
	return &SplitRepositoryImpl{db: db}
}

// Create inserts the split and its participants in one transaction.
// Participants must carry their PayTokenID.
func (repo *SplitRepositoryImpl) Create(split *models.Split) (*models.Split, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created models.Split

	query := `
		INSERT INTO splits (creator_id, title, total_amount, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err = tx.GetContext(ctx, &created, query, split.CreatorID, split.Title, split.TotalAmount, split.Currency)
	if err != nil {
		return nil, err
	}

	participantQuery := `
		INSERT INTO split_participants (split_id, name, phone_number, amount_due, pay_token_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	created.Participants = make([]models.SplitParticipant, 0, len(split.Participants))
	for _, p := range split.Participants {
		var participant models.SplitParticipant

		err = tx.GetContext(ctx, &participant, participantQuery, created.ID, p.Name, p.PhoneNumber, p.AmountDue, p.PayTokenID)
		if err != nil {
			return nil, err
		}

		created.Participants = append(created.Participants, participant)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *SplitRepositoryImpl) GetOne(id string) (*models.Split, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var split models.Split

	err := repo.db.GetContext(ctx, &split, `SELECT * FROM splits WHERE id = $1`, id)
	if notFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	split.Participants = []models.SplitParticipant{}
	query := `SELECT * FROM split_participants WHERE split_id = $1 ORDER BY name`

	err = repo.db.SelectContext(ctx, &split.Participants, query, id)
	if err != nil {
		return nil, false, err
	}

	return &split, true, nil
}

func (repo *SplitRepositoryImpl) GetAllByCreator(creatorID string) ([]models.Split, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	splits := []models.Split{}

	query := `SELECT * FROM splits WHERE creator_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &splits, query, creatorID)
	return splits, err
}

func (repo *SplitRepositoryImpl) GetParticipant(id string) (*models.SplitParticipant, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var participant models.SplitParticipant

	query := `SELECT * FROM split_participants WHERE id = $1`

	err := repo.db.GetContext(ctx, &participant, query, id)
	if notFound(err) {
		return nil, false, nil
	}

	return &participant, true, err
}

func (repo *SplitRepositoryImpl) MarkParticipantNotified(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE split_participants SET notified_at = NOW() WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}

func (repo *SplitRepositoryImpl) InsertPayment(payment *models.SplitPayment) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	// A repeated charge returns the same provider reference; keep the first row.
	query := `
		INSERT INTO split_payments (participant_id, amount, provider_reference, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider_reference) WHERE provider_reference <> '' DO NOTHING`

	_, err := repo.db.ExecContext(ctx, query,
		payment.ParticipantID,
		payment.Amount,
		payment.ProviderReference,
		payment.Status,
	)
	return err
}

// HasPendingPayment reports whether a charge for the participant is still
// waiting on the provider.
func (repo *SplitRepositoryImpl) HasPendingPayment(participantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var pending bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM split_payments
			WHERE participant_id = $1 AND status = $2
		)`

	err := repo.db.GetContext(ctx, &pending, query, participantID, SplitPaymentStatusPending)
	return pending, err
}

func (repo *SplitRepositoryImpl) GetPaymentByProviderReference(reference string) (*models.SplitPayment, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var payment models.SplitPayment

	query := `SELECT * FROM split_payments WHERE provider_reference = $1 AND provider_reference <> ''`

	err := repo.db.GetContext(ctx, &payment, query, reference)
	if notFound(err) {
		return nil, false, nil
	}

	return &payment, true, err
}

func (repo *SplitRepositoryImpl) UpdatePaymentStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE split_payments SET status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}

func (repo *SplitRepositoryImpl) MarkParticipantPaid(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE split_participants SET status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, ParticipantStatusPaid, id)
	return err
}

// SettleIfComplete marks the split settled once no participant is unpaid and
// reports whether this call settled it.
func (repo *SplitRepositoryImpl) SettleIfComplete(splitID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE splits SET status = $1
		WHERE id = $2 AND status = $3
		AND NOT EXISTS (
			SELECT 1 FROM split_participants
			WHERE split_id = $2 AND status = $4
		)`

	res, err := repo.db.ExecContext(ctx, query, SplitStatusSettled, splitID, SplitStatusOpen, ParticipantStatusUnpaid)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}
