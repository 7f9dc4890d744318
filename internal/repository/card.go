package repository

import (
	"context"

	"github.com/cradoe/splitsy/internal/models"
)

type CardRepository interface {
	Insert(card *models.VirtualCard) (*models.VirtualCard, error)
	GetOne(id string) (*models.VirtualCard, bool, error)
	GetAllByPoolId(poolID string) ([]models.VirtualCard, error)
	GetByProviderCardId(providerCardID string) (*models.VirtualCard, bool, error)
	UpdateStatus(id, status string) error
	MarkApplePayTokenized(id string) error
}

const (
	CardStatusActive    = "active"
	CardStatusSuspended = "suspended"
	CardStatusClosed    = "closed"
)

type CardRepositoryImpl struct {
	db DBTX
}

func NewCardRepository(db DBTX) CardRepository {
	return &CardRepositoryImpl{db: db}
}

func (repo *CardRepositoryImpl) Insert(card *models.VirtualCard) (*models.VirtualCard, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.VirtualCard

	query := `
		INSERT INTO virtual_cards (pool_id, provider_card_id, network, last4, status, spending_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	err := repo.db.GetContext(ctx, &created, query,
		card.PoolID,
		card.ProviderCardID,
		card.Network,
		card.Last4,
		CardStatusActive,
		card.SpendingLimit,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *CardRepositoryImpl) GetOne(id string) (*models.VirtualCard, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var card models.VirtualCard

	query := `SELECT * FROM virtual_cards WHERE id = $1`

	err := repo.db.GetContext(ctx, &card, query, id)
	if notFound(err) {
		return nil, false, nil
	}

	return &card, true, err
}

func (repo *CardRepositoryImpl) GetAllByPoolId(poolID string) ([]models.VirtualCard, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cards := []models.VirtualCard{}

	query := `SELECT * FROM virtual_cards WHERE pool_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &cards, query, poolID)
	return cards, err
}

func (repo *CardRepositoryImpl) GetByProviderCardId(providerCardID string) (*models.VirtualCard, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var card models.VirtualCard

	query := `SELECT * FROM virtual_cards WHERE provider_card_id = $1`

	err := repo.db.GetContext(ctx, &card, query, providerCardID)
	if notFound(err) {
		return nil, false, nil
	}

	return &card, true, err
}

func (repo *CardRepositoryImpl) UpdateStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE virtual_cards SET status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}

func (repo *CardRepositoryImpl) MarkApplePayTokenized(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE virtual_cards SET apple_pay_tokenized = TRUE WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}
