package mocks

import (
	"github.com/cradoe/splitsy/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockSplitRepo struct {
	mock.Mock
}

func (m *MockSplitRepo) Create(split *models.Split) (*models.Split, error) {
	args := m.Called(split)
	if fn, ok := args.Get(0).(func(*models.Split) *models.Split); ok {
		return fn(split), args.Error(1)
	}
	created, _ := args.Get(0).(*models.Split)
	return created, args.Error(1)
}

func (m *MockSplitRepo) GetOne(id string) (*models.Split, bool, error) {
	args := m.Called(id)
	split, _ := args.Get(0).(*models.Split)
	return split, args.Bool(1), args.Error(2)
}

func (m *MockSplitRepo) GetAllByCreator(creatorID string) ([]models.Split, error) {
	args := m.Called(creatorID)
	splits, _ := args.Get(0).([]models.Split)
	return splits, args.Error(1)
}

func (m *MockSplitRepo) GetParticipant(id string) (*models.SplitParticipant, bool, error) {
	args := m.Called(id)
	participant, _ := args.Get(0).(*models.SplitParticipant)
	return participant, args.Bool(1), args.Error(2)
}

func (m *MockSplitRepo) MarkParticipantNotified(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockSplitRepo) InsertPayment(payment *models.SplitPayment) error {
	return m.Called(payment).Error(0)
}

func (m *MockSplitRepo) HasPendingPayment(participantID string) (bool, error) {
	args := m.Called(participantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSplitRepo) GetPaymentByProviderReference(reference string) (*models.SplitPayment, bool, error) {
	args := m.Called(reference)
	payment, _ := args.Get(0).(*models.SplitPayment)
	return payment, args.Bool(1), args.Error(2)
}

func (m *MockSplitRepo) UpdatePaymentStatus(id, status string) error {
	return m.Called(id, status).Error(0)
}

func (m *MockSplitRepo) MarkParticipantPaid(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockSplitRepo) SettleIfComplete(splitID string) (bool, error) {
	args := m.Called(splitID)
	return args.Bool(0), args.Error(1)
}

type MockVerificationRepo struct {
	mock.Mock
}

func (m *MockVerificationRepo) Upsert(v *models.UserVerification) error {
	return m.Called(v).Error(0)
}

func (m *MockVerificationRepo) GetByUserId(userID string) (*models.UserVerification, bool, error) {
	args := m.Called(userID)
	v, _ := args.Get(0).(*models.UserVerification)
	return v, args.Bool(1), args.Error(2)
}

func (m *MockVerificationRepo) SetDocument(userID, documentURL string) error {
	return m.Called(userID, documentURL).Error(0)
}

func (m *MockVerificationRepo) SetCardholderId(userID, cardholderID string) error {
	return m.Called(userID, cardholderID).Error(0)
}

func (m *MockVerificationRepo) Review(userID, reviewerID, status, rejectionReason string) error {
	return m.Called(userID, reviewerID, status, rejectionReason).Error(0)
}

func (m *MockVerificationRepo) GetAllByStatus(status string) ([]models.UserVerification, error) {
	args := m.Called(status)
	verifications, _ := args.Get(0).([]models.UserVerification)
	return verifications, args.Error(1)
}
