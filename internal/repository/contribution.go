package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type ContributionRepository interface {
	Insert(contribution *models.Contribution) (*models.Contribution, error)
	GetOne(id string) (*models.Contribution, bool, error)
	GetAllByPoolId(poolID string) ([]models.Contribution, error)
	GetByProviderReference(reference string) (*models.Contribution, bool, error)
	UpdateStatus(id, status, providerReference, failureReason string) (bool, error)
}

const (
	ContributionStatusPending   = "pending"
	ContributionStatusSucceeded = "succeeded"
	ContributionStatusFailed    = "failed"
)

const (
	ContributionMethodCard     = "card"
	ContributionMethodACH      = "ach"
	ContributionMethodApplePay = "apple_pay"
)

type ContributionRepositoryImpl struct {
	db DBTX
}

func NewContributionRepository(db DBTX) ContributionRepository {
	return &ContributionRepositoryImpl{db: db}
}

func (repo *ContributionRepositoryImpl) Insert(contribution *models.Contribution) (*models.Contribution, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.Contribution

	query := `
		INSERT INTO contributions (pool_id, user_id, amount, method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	err := repo.db.GetContext(ctx, &created, query,
		contribution.PoolID,
		contribution.UserID,
		contribution.Amount,
		contribution.Method,
		ContributionStatusPending,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *ContributionRepositoryImpl) GetOne(id string) (*models.Contribution, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var contribution models.Contribution

	query := `SELECT * FROM contributions WHERE id = $1`

	err := repo.db.GetContext(ctx, &contribution, query, id)
	if notFound(err) {
		return nil, false, nil
	}

	return &contribution, true, err
}

func (repo *ContributionRepositoryImpl) GetAllByPoolId(poolID string) ([]models.Contribution, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	contributions := []models.Contribution{}

	query := `SELECT * FROM contributions WHERE pool_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &contributions, query, poolID)
	return contributions, err
}

func (repo *ContributionRepositoryImpl) GetByProviderReference(reference string) (*models.Contribution, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var contribution models.Contribution

	query := `SELECT * FROM contributions WHERE provider_reference = $1`

	err := repo.db.GetContext(ctx, &contribution, query, reference)
	if notFound(err) {
		return nil, false, nil
	}

	return &contribution, true, err
}

// UpdateStatus moves a pending contribution and reports whether this call did
// it; a contribution that already left pending is never rewritten. An empty
// provider reference keeps the existing one.
func (repo *ContributionRepositoryImpl) UpdateStatus(id, status, providerReference, failureReason string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE contributions
		SET status = $1,
			provider_reference = COALESCE(NULLIF($2, ''), provider_reference),
			failure_reason = NULLIF($3, ''),
			updated_at = NOW()
		WHERE id = $4 AND status = $5`

	res, err := repo.db.ExecContext(ctx, query, status, providerReference, failureReason, id, ContributionStatusPending)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}
