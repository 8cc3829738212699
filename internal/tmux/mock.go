package tmux

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client for testing.
//
// Example usage:
//
//	mockClient := new(MockClient)
//	mockClient.On("GetOption", mock.Anything, "@localnotify_badge").Return("3", true, nil)
//
//	v, ok, err := mockClient.GetOption(ctx, "@localnotify_badge")
//	mockClient.AssertCalled(t, "GetOption", mock.Anything, "@localnotify_badge")
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) HasSession(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) DisplayMessage(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockClient) SetOption(ctx context.Context, name, value string) error {
	args := m.Called(ctx, name, value)
	return args.Error(0)
}

func (m *MockClient) GetOption(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockClient) UnsetOption(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockClient) AppendOption(ctx context.Context, name, value string) error {
	args := m.Called(ctx, name, value)
	return args.Error(0)
}

func (m *MockClient) SetOptionFormat(ctx context.Context, name, format string) error {
	args := m.Called(ctx, name, format)
	return args.Error(0)
}

// Run returns mocked stdout, stderr and error.
func (m *MockClient) Run(ctx context.Context, args ...string) (string, string, error) {
	called := m.Called(ctx, args)
	return called.String(0), called.String(1), called.Error(2)
}
