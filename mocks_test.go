package membership_test

import (
	"context"
	"encoding/base64"

	"github.com/goliatone/go-membership"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// testSigningSecret is the base64 encoded key every test token is signed with.
var testSigningSecret = base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

// MockAccountStore implements membership.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindByUsername(ctx context.Context, username string) (*membership.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Account), args.Error(1)
}

func (m *MockAccountStore) FindByID(ctx context.Context, id uuid.UUID) (*membership.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Account), args.Error(1)
}

func (m *MockAccountStore) Insert(ctx context.Context, account *membership.Account) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountStore) UpdatePasswordFields(ctx context.Context, id uuid.UUID, hash, salt []byte) (int64, error) {
	args := m.Called(ctx, id, hash, salt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountStore) UpdateActivationFields(ctx context.Context, id uuid.UUID, activation membership.Activation) (int64, error) {
	args := m.Called(ctx, id, activation)
	return args.Get(0).(int64), args.Error(1)
}

// MockConfig implements membership.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningSecret() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenLifetime() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningSecret").Return(testSigningSecret)
	mockConfig.On("GetTokenLifetime").Return(3600)
	mockConfig.On("GetIssuer").Return("Membership")
	mockConfig.On("GetContextKey").Return("identity")
	mockConfig.On("GetAuthScheme").Return("Bearer")
	return mockConfig
}
