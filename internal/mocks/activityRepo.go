package mocks

import (
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	return m.Called(userID, actionDesc).Int(0)
}

func (m *MockActivityRepo) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	args := m.Called(log)
	inserted, _ := args.Get(0).(*models.ActivityLog)
	return inserted, args.Error(1)
}

func (m *MockActivityRepo) List(filter repository.ListFilter) ([]models.ActivityLog, error) {
	args := m.Called(filter)
	logs, _ := args.Get(0).([]models.ActivityLog)
	return logs, args.Error(1)
}

type MockAdminActionRepo struct {
	mock.Mock
}

func (m *MockAdminActionRepo) Insert(action *models.AdminAction) error {
	return m.Called(action).Error(0)
}

func (m *MockAdminActionRepo) List(filter repository.ListFilter) ([]models.AdminAction, error) {
	args := m.Called(filter)
	actions, _ := args.Get(0).([]models.AdminAction)
	return actions, args.Error(1)
}

type MockSettingRepo struct {
	mock.Mock
}

func (m *MockSettingRepo) Get(key string) (*models.SystemSetting, bool, error) {
	args := m.Called(key)
	setting, _ := args.Get(0).(*models.SystemSetting)
	return setting, args.Bool(1), args.Error(2)
}

func (m *MockSettingRepo) Set(key, value, updatedBy string) error {
	return m.Called(key, value, updatedBy).Error(0)
}
