package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reframe/models"
)

// MockQuotaRepository is a mock type for the QuotaRepository interface
type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) GetQuota(ownerID string) (*models.UsageQuota, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageQuota), args.Error(1)
}

func (m *MockQuotaRepository) SaveQuota(quota *models.UsageQuota) error {
	args := m.Called(quota)
	return args.Error(0)
}

// MockChatRepository is a mock type for the ChatRepository interface
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) AppendTurns(turns ...*models.ConversationTurn) error {
	args := m.Called(turns)
	return args.Error(0)
}

func (m *MockChatRepository) GetTurns(conversationID string) ([]models.ConversationTurn, error) {
	args := m.Called(conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationTurn), args.Error(1)
}

// MockModelClient is a mock type for the ModelClient interface
type MockModelClient struct {
	mock.Mock
}

func (m *MockModelClient) Complete(ctx context.Context, credential string, payload *RequestPayload) (string, error) {
	args := m.Called(ctx, credential, payload)
	return args.String(0), args.Error(1)
}
