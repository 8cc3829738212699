package platform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockRegistrar is a testify mock of Registrar and ArmedLister.
//
//	reg := new(MockRegistrar)
//	reg.On("Arm", mock.Anything, int32(1), at, mock.Anything).Return(nil)
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Arm(ctx context.Context, id int32, at time.Time, r Receiver) error {
	args := m.Called(ctx, id, at, r)
	return args.Error(0)
}

func (m *MockRegistrar) Disarm(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Armed returns the configured map, or nil when no expectation is set.
func (m *MockRegistrar) Armed() map[int32]time.Time {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.(map[int32]time.Time)
	}
	return nil
}

// MockRenderer is a testify mock of Renderer and VisibleLister.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Show(ctx context.Context, id int32, content json.RawMessage) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockRenderer) Dismiss(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRenderer) DismissAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRenderer) Visible(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]int32), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockBadgePainter is a testify mock of BadgePainter.
type MockBadgePainter struct {
	mock.Mock
}

func (m *MockBadgePainter) Paint(ctx context.Context, n int) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockBadgePainter) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockChannelProvider is a testify mock of ChannelProvider.
type MockChannelProvider struct {
	mock.Mock
}

func (m *MockChannelProvider) EnsureChannel(ctx context.Context, id, name string) (bool, error) {
	args := m.Called(ctx, id, name)
	return args.Bool(0), args.Error(1)
}

// MockReceiver is a testify mock of Receiver.
type MockReceiver struct {
	mock.Mock
}

func (m *MockReceiver) Fire(ctx context.Context, id int32) {
	m.Called(ctx, id)
}
