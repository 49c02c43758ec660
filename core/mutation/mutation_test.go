package mutation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invalidatorMock struct {
	mu        sync.Mutex
	resources []string
}

func (m *invalidatorMock) Invalidate(resource string) {
	m.mu.Lock()
	m.resources = append(m.resources, resource)
	m.mu.Unlock()
}

func record(c *Coordinator) *[]State {
	var (
		mu     sync.Mutex
		states []State
	)
	c.OnChange(func(tr Transition) {
		mu.Lock()
		states = append(states, tr.To)
		mu.Unlock()
	})
	return &states
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "une opération identique est déjà en cours", ErrInFlight.Error())
	assert.Equal(t, "opération annulée : non confirmée", ErrNotConfirmed.Error())
}

func TestRunSuccess(t *testing.T) {
	inv := &invalidatorMock{}
	c := NewCoordinator(inv)
	states := record(c)

	var refreshed []string
	c.OnRefresh(func(ctx context.Context, resources []string) { refreshed = resources })

	err := c.Run(context.Background(), Mutation{
		Key:       "seminaristes|1",
		Kind:      KindUpdate,
		Resources: []string{"seminaristes", "bulletins"},
		Do:        func(ctx context.Context) error { return nil },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"seminaristes", "bulletins"}, inv.resources)
	assert.Equal(t, []string{"seminaristes", "bulletins"}, refreshed)
	assert.Equal(t, []State{StateInFlight, StateSuccess, StateCacheInvalidated, StateIdle}, *states)
	assert.False(t, c.InFlight("seminaristes|1"))
}

func TestRunFailure(t *testing.T) {
	inv := &invalidatorMock{}
	c := NewCoordinator(inv)
	states := record(c)
	refreshed := false
	c.OnRefresh(func(ctx context.Context, resources []string) { refreshed = true })

	errRemote := errors.New("POST /notes: HTTP 500: boom")
	err := c.Run(context.Background(), Mutation{
		Key:       "notes|KIAM-2026-0001|conduite",
		Kind:      KindCreate,
		Resources: []string{"notes"},
		Do:        func(ctx context.Context) error { return errRemote },
	})
	assert.Equal(t, errRemote, err, "the error propagates untouched")
	assert.Empty(t, inv.resources)
	assert.False(t, refreshed)
	assert.Equal(t, []State{StateInFlight, StateFailure, StateIdle}, *states)
}

func TestRunDeleteRequiresConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		confirm func() bool
		wantErr error
		wantDo  bool
	}{
		{name: "no confirm func", wantErr: ErrNotConfirmed},
		{name: "declined", confirm: func() bool { return false }, wantErr: ErrNotConfirmed},
		{name: "confirmed", confirm: Confirmed, wantDo: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoordinator(nil)
			called := false
			err := c.Run(context.Background(), Mutation{
				Kind:    KindDelete,
				Confirm: tt.confirm,
				Do:      func(ctx context.Context) error { called = true; return nil },
			})
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantDo, called)
		})
	}
}

func TestRunSkipsRefreshWhenCancelled(t *testing.T) {
	c := NewCoordinator(&invalidatorMock{})
	refreshed := false
	c.OnRefresh(func(ctx context.Context, resources []string) { refreshed = true })

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Run(ctx, Mutation{
		Kind: KindToggle,
		Do: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
	require.NoError(t, err)
	assert.False(t, refreshed)
}

func TestRunSameKeyConcurrently(t *testing.T) {
	c := NewCoordinator(&invalidatorMock{})
	inDo := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	m := Mutation{
		Key:  "notes|KIAM-2026-0001|conduite",
		Kind: KindCreate,
		Do: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(inDo)
			}
			<-release
			return nil
		},
	}

	first := make(chan error)
	go func() { first <- c.Run(context.Background(), m) }()
	<-inDo

	assert.True(t, c.InFlight(m.Key))
	assert.Equal(t, ErrInFlight, c.Run(context.Background(), m))

	other := m
	other.Key = "notes|KIAM-2026-0002|conduite"
	other.Do = func(ctx context.Context) error { return nil }
	assert.NoError(t, c.Run(context.Background(), other), "other keys are not blocked")

	close(release)
	assert.NoError(t, <-first)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.False(t, c.InFlight(m.Key))
}
