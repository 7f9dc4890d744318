package mocks

import (
	"github.com/cradoe/splitsy/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockPoolRepo struct {
	mock.Mock
}

func (m *MockPoolRepo) Insert(pool *models.Pool) (*models.Pool, error) {
	args := m.Called(pool)
	created, _ := args.Get(0).(*models.Pool)
	return created, args.Error(1)
}

func (m *MockPoolRepo) GetOne(id string) (*models.Pool, bool, error) {
	args := m.Called(id)
	pool, _ := args.Get(0).(*models.Pool)
	return pool, args.Bool(1), args.Error(2)
}

func (m *MockPoolRepo) GetAllByGroupId(groupID string) ([]models.Pool, error) {
	args := m.Called(groupID)
	pools, _ := args.Get(0).([]models.Pool)
	return pools, args.Error(1)
}

func (m *MockPoolRepo) Balance(id string) (decimal.Decimal, error) {
	args := m.Called(id)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPoolRepo) Close(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

type MockContributionRepo struct {
	mock.Mock
}

func (m *MockContributionRepo) Insert(contribution *models.Contribution) (*models.Contribution, error) {
	args := m.Called(contribution)
	created, _ := args.Get(0).(*models.Contribution)
	return created, args.Error(1)
}

func (m *MockContributionRepo) GetOne(id string) (*models.Contribution, bool, error) {
	args := m.Called(id)
	contribution, _ := args.Get(0).(*models.Contribution)
	return contribution, args.Bool(1), args.Error(2)
}

func (m *MockContributionRepo) GetAllByPoolId(poolID string) ([]models.Contribution, error) {
	args := m.Called(poolID)
	contributions, _ := args.Get(0).([]models.Contribution)
	return contributions, args.Error(1)
}

func (m *MockContributionRepo) GetByProviderReference(reference string) (*models.Contribution, bool, error) {
	args := m.Called(reference)
	contribution, _ := args.Get(0).(*models.Contribution)
	return contribution, args.Bool(1), args.Error(2)
}

func (m *MockContributionRepo) UpdateStatus(id, status, providerReference, failureReason string) (bool, error) {
	args := m.Called(id, status, providerReference, failureReason)
	return args.Bool(0), args.Error(1)
}
