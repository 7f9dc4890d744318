package mocks

import (
	"io"
	"sync"
	"time"

	"github.com/cradoe/splitsy/internal/cache"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) ProduceMessage(topic, message string) error {
	return m.Called(topic, message).Error(0)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) Charge(req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*payment.ChargeResult)
	return result, args.Error(1)
}

func (m *MockPaymentProvider) CreateCardholder(holder *payment.Cardholder) (string, error) {
	args := m.Called(holder)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) IssueCard(req *payment.CardRequest) (*payment.IssuedCard, error) {
	args := m.Called(req)
	card, _ := args.Get(0).(*payment.IssuedCard)
	return card, args.Error(1)
}

func (m *MockPaymentProvider) UpdateCardStatus(providerCardID, status string) error {
	return m.Called(providerCardID, status).Error(0)
}

func (m *MockPaymentProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	event, _ := args.Get(0).(*payment.WebhookEvent)
	return event, args.Error(1)
}

type MockSmsSender struct {
	mock.Mock
}

func (m *MockSmsSender) Send(to, body string) (string, error) {
	args := m.Called(to, body)
	return args.String(0), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadFile(r io.Reader, folder, publicID string) (string, error) {
	args := m.Called(r, folder, publicID)
	return args.String(0), args.Error(1)
}

// MemoryCache is an in-process cache.Cacher for tests.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]string{}}
}

func (c *MemoryCache) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *MemoryCache) Set(key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}
