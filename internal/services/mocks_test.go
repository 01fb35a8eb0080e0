package services_test

import (
	"context"

	"cybertronic/internal/mailer"
	"cybertronic/internal/models"
	"cybertronic/internal/payments"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ApplyStockMovement(ctx context.Context, mv models.StockMovement) (int, bool, error) {
	args := m.Called(mv)
	return args.Int(0), args.Bool(1), args.Error(2)
}

// MockGateway is a mock implementation of services.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req payments.SessionRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) ExpandedSession(ctx context.Context, sessionID string) (*models.CompletedSession, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompletedSession), args.Error(1)
}

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

// MockJobs is a mock implementation of services.FulfillmentJobs
type MockJobs struct {
	mock.Mock
}

func (m *MockJobs) Publish(ctx context.Context, sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

// MockOrderRecorder is a mock implementation of services.OrderRecorder
type MockOrderRecorder struct {
	mock.Mock
}

func (m *MockOrderRecorder) RecordPaidOrder(ctx context.Context, cs models.CompletedSession, lines []models.CartLine) (*models.Order, bool, error) {
	args := m.Called(cs.ID, lines)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

// MockStockReconciler is a mock implementation of services.StockReconciler
type MockStockReconciler struct {
	mock.Mock
}

func (m *MockStockReconciler) Resume(ctx context.Context, sessionID string, lines []models.CartLine, prev models.StockReport) (models.StockReport, error) {
	args := m.Called(sessionID, lines)
	return args.Get(0).(models.StockReport), args.Error(1)
}

// MockReceiptSender is a mock implementation of services.ReceiptSender
type MockReceiptSender struct {
	mock.Mock
}

func (m *MockReceiptSender) Send(ctx context.Context, sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

// MockOrderEvents is a mock implementation of services.OrderEvents
type MockOrderEvents struct {
	mock.Mock
}

func (m *MockOrderEvents) OrderPaid(ctx context.Context, order *models.Order) error {
	args := m.Called(order.SessionID)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.MessagePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error {
	args := m.Called(key, value, headers)
	return args.Error(0)
}
