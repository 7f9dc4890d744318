package mocks

import (
	"github.com/cradoe/splitsy/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockCardRepo struct {
	mock.Mock
}

func (m *MockCardRepo) Insert(card *models.VirtualCard) (*models.VirtualCard, error) {
	args := m.Called(card)
	created, _ := args.Get(0).(*models.VirtualCard)
	return created, args.Error(1)
}

func (m *MockCardRepo) GetOne(id string) (*models.VirtualCard, bool, error) {
	args := m.Called(id)
	card, _ := args.Get(0).(*models.VirtualCard)
	return card, args.Bool(1), args.Error(2)
}

func (m *MockCardRepo) GetAllByPoolId(poolID string) ([]models.VirtualCard, error) {
	args := m.Called(poolID)
	cards, _ := args.Get(0).([]models.VirtualCard)
	return cards, args.Error(1)
}

func (m *MockCardRepo) GetByProviderCardId(providerCardID string) (*models.VirtualCard, bool, error) {
	args := m.Called(providerCardID)
	card, _ := args.Get(0).(*models.VirtualCard)
	return card, args.Bool(1), args.Error(2)
}

func (m *MockCardRepo) UpdateStatus(id, status string) error {
	return m.Called(id, status).Error(0)
}

func (m *MockCardRepo) MarkApplePayTokenized(id string) error {
	return m.Called(id).Error(0)
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Insert(trx *models.Transaction) (bool, error) {
	args := m.Called(trx)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepo) GetAllByPoolId(poolID string) ([]models.Transaction, error) {
	args := m.Called(poolID)
	transactions, _ := args.Get(0).([]models.Transaction)
	return transactions, args.Error(1)
}
