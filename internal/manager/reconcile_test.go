package manager

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestReconcileArmsDueAndCleansOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)

	// 1 is a pending one-shot missed while nothing was running, 2 already
	// fired, 3 is armed at its stored instant and 4 is exhausted.
	for _, raw := range []string{
		`{"id":1,"at":1000}`,
		`{"id":2,"trigger":{"at":1000,"occurrence":1}}`,
		`{"id":3,"trigger":{"at":5000,"every":"day"}}`,
		`{"id":4,"trigger":{"at":1000,"every":"day","count":1,"occurrence":1}}`,
	} {
		require.NoError(t, f.store.Put(ctx, parse(t, raw)))
	}

	f.reg.On("Armed").Return(map[int32]time.Time{
		3:  time.UnixMilli(5000),
		99: time.UnixMilli(1),
	})
	f.reg.On("Arm", mock.Anything, int32(1), mock.Anything, m).Return(nil).Once()
	f.reg.On("Disarm", mock.Anything, int32(99)).Return(nil).Once()
	f.renderer.On("Visible", mock.Anything).Return([]int32{2, 50}, nil)
	f.renderer.On("Dismiss", mock.Anything, int32(50)).Return(nil).Once()

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, report.Armed)
	assert.Equal(t, []int32{99}, report.Disarmed)
	assert.Equal(t, []int32{50}, report.Dismissed)
	f.reg.AssertExpectations(t)
	f.renderer.AssertExpectations(t)
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)
	require.NoError(t, f.store.Put(ctx, parse(t, `{"id":5,"at":7000}`)))

	f.reg.On("Armed").Return(map[int32]time.Time{}).Once()
	f.reg.On("Arm", mock.Anything, int32(5), mock.Anything, mock.Anything).Return(nil).Once()
	f.renderer.On("Visible", mock.Anything).Return(nil, nil)

	first, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{5}, first.Armed)

	f.reg.On("Armed").Return(map[int32]time.Time{5: time.UnixMilli(7000)}).Once()
	second, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Armed)
	f.reg.AssertNumberOfCalls(t, "Arm", 1)
}

func TestReconcileAbsorbsPlatformFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)
	require.NoError(t, f.store.Put(ctx, parse(t, `{"id":6,"at":1000}`)))

	f.reg.On("Armed").Return(nil)
	f.reg.On("Arm", mock.Anything, int32(6), mock.Anything, mock.Anything).Return(errors.New("busy"))
	f.renderer.On("Visible", mock.Anything).Return(nil, errors.New("no server"))

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Armed)
}

type plainRegistrar struct{ platform.Registrar }

func TestReconcileWithoutListers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inner := new(platform.MockRegistrar)
	inner.On("Arm", mock.Anything, int32(7), mock.Anything, mock.Anything).Return(nil).Once()
	f.deps.Registrar = plainRegistrar{inner}
	f.deps.Renderer = struct{ platform.Renderer }{f.renderer}
	m := f.manager(t)
	require.NoError(t, f.store.Put(ctx, parse(t, `{"id":7,"at":1000}`)))

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{7}, report.Armed)
	inner.AssertNotCalled(t, "Armed")
}
