package mocks

import (
	"github.com/cradoe/splitsy/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	args := m.Called(phoneNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) Insert(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, bool, error) {
	args := m.Called(email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) UpdateKycStatus(id, status string) error {
	return m.Called(id, status).Error(0)
}

func (m *MockUserRepo) PromoteToPlatformAdmin(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) Lock(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockUserRepo) Unlock(id string) error {
	return m.Called(id).Error(0)
}
