package mocks

import (
	"github.com/cradoe/splitsy/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockGroupRepo struct {
	mock.Mock
}

func (m *MockGroupRepo) CreateWithOwner(group *models.Group) (*models.Group, error) {
	args := m.Called(group)
	created, _ := args.Get(0).(*models.Group)
	return created, args.Error(1)
}

func (m *MockGroupRepo) GetOne(id string) (*models.Group, bool, error) {
	args := m.Called(id)
	group, _ := args.Get(0).(*models.Group)
	return group, args.Bool(1), args.Error(2)
}

func (m *MockGroupRepo) GetAllByUserId(userID string) ([]models.GroupSummary, error) {
	args := m.Called(userID)
	groups, _ := args.Get(0).([]models.GroupSummary)
	return groups, args.Error(1)
}

func (m *MockGroupRepo) GetMember(groupID, userID string) (*models.GroupMember, bool, error) {
	args := m.Called(groupID, userID)
	member, _ := args.Get(0).(*models.GroupMember)
	return member, args.Bool(1), args.Error(2)
}

func (m *MockGroupRepo) GetMembers(groupID string) ([]models.GroupMember, error) {
	args := m.Called(groupID)
	members, _ := args.Get(0).([]models.GroupMember)
	return members, args.Error(1)
}

func (m *MockGroupRepo) AddMember(member *models.GroupMember) error {
	return m.Called(member).Error(0)
}

func (m *MockGroupRepo) UpdateMember(groupID, userID, role string, spendCap decimal.NullDecimal) error {
	return m.Called(groupID, userID, role, spendCap).Error(0)
}

func (m *MockGroupRepo) RemoveMember(groupID, userID string) error {
	return m.Called(groupID, userID).Error(0)
}
