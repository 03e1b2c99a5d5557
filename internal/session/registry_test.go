package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/al3xb0/mindpal-task/internal/auth"
	"github.com/al3xb0/mindpal-task/internal/favorites"
	"github.com/al3xb0/mindpal-task/internal/mocks"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type gauge struct {
	mu   sync.Mutex
	last int
}

func (g *gauge) SetActiveSessions(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func (g *gauge) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func newTestRegistry(t *testing.T, s *mocks.MockStore) (*Registry, *testClock, *gauge) {
	t.Helper()

	clock := &testClock{now: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)}
	g := &gauge{}
	r := NewRegistry(s, auth.ContextIdentity{}, Config{
		IdleTTL:       30 * time.Minute,
		SweepInterval: time.Hour,
		Gauge:         g,
		Now:           clock.Now,
	}, zap.NewNop())
	t.Cleanup(r.Close)
	return r, clock, g
}

func mustEngine(t *testing.T, r *Registry, userID string) *favorites.Engine {
	t.Helper()
	engine, err := r.Engine(context.Background(), userID)
	require.NoError(t, err)
	return engine
}

func TestRegistry_BootstrapsOncePerUser(t *testing.T) {
	s := &mocks.MockStore{}
	s.On("List", mock.Anything, "user-1").Return([]model.FavoriteEntry{
		{ID: "a", UserID: "user-1", CharacterID: 1, CharacterName: "Rick Sanchez"},
	}, nil).Once()

	r, _, g := newTestRegistry(t, s)

	first := mustEngine(t, r, "user-1")
	second := mustEngine(t, r, "user-1")

	assert.Same(t, first, second)
	assert.True(t, first.IsFavorite(1))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, g.value())
	s.AssertNumberOfCalls(t, "List", 1)
}

func TestRegistry_BootstrapFailureStillReturnsEngine(t *testing.T) {
	s := &mocks.MockStore{}
	s.On("List", mock.Anything, "user-1").Return(nil, errors.New("down")).Once()

	r, _, _ := newTestRegistry(t, s)

	engine := mustEngine(t, r, "user-1")

	require.NotNil(t, engine)
	assert.Error(t, engine.Err())
	assert.Empty(t, engine.Favorites())
}

func TestRegistry_AnonymousEngine(t *testing.T) {
	s := &mocks.MockStore{}
	r, _, _ := newTestRegistry(t, s)

	engine := mustEngine(t, r, "")
	res := engine.ToggleFavorite(context.Background(), model.Character{ID: "1", Name: "Rick Sanchez"})

	assert.Equal(t, favorites.OutcomeAuthRequired, res.Outcome)
	assert.Equal(t, 0, r.Len())
	s.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	s := &mocks.MockStore{}
	s.On("List", mock.Anything, mock.Anything).Return([]model.FavoriteEntry{}, nil)

	r, clock, g := newTestRegistry(t, s)

	idle := mustEngine(t, r, "user-1")
	clock.Advance(20 * time.Minute)
	active := mustEngine(t, r, "user-2")
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, r.EvictIdle())
	assert.True(t, idle.Closed())
	assert.False(t, active.Closed())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, g.value())

	fresh := mustEngine(t, r, "user-1")
	assert.NotSame(t, idle, fresh)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CloseRetiresEngines(t *testing.T) {
	s := &mocks.MockStore{}
	s.On("List", mock.Anything, mock.Anything).Return([]model.FavoriteEntry{}, nil)

	r, _, g := newTestRegistry(t, s)
	engine := mustEngine(t, r, "user-1")

	r.Close()
	r.Close()

	assert.True(t, engine.Closed())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, g.value())
}

func TestRegistry_ConcurrentCallerWaitsForBootstrap(t *testing.T) {
	s := &mocks.MockStore{}
	listing := make(chan struct{})
	finishList := make(chan struct{})
	s.On("List", mock.Anything, "user-1").Run(func(mock.Arguments) {
		close(listing)
		<-finishList
	}).Return([]model.FavoriteEntry{
		{ID: "a", UserID: "user-1", CharacterID: 1, CharacterName: "Rick Sanchez"},
	}, nil).Once()

	r, _, _ := newTestRegistry(t, s)

	go r.Engine(context.Background(), "user-1")
	<-listing

	waiter := make(chan *favorites.Engine, 1)
	go func() {
		engine, err := r.Engine(context.Background(), "user-1")
		if err == nil {
			waiter <- engine
		}
		close(waiter)
	}()

	select {
	case <-waiter:
		t.Fatal("engine handed out before its bootstrap finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(finishList)
	engine, ok := <-waiter
	require.True(t, ok)
	require.NotNil(t, engine)
	assert.True(t, engine.IsFavorite(1))
	s.AssertNumberOfCalls(t, "List", 1)
}

func TestRegistry_WaiterGivesUpWithContext(t *testing.T) {
	s := &mocks.MockStore{}
	listing := make(chan struct{})
	finishList := make(chan struct{})
	s.On("List", mock.Anything, "user-1").Run(func(mock.Arguments) {
		close(listing)
		<-finishList
	}).Return([]model.FavoriteEntry{}, nil).Once()

	r, _, _ := newTestRegistry(t, s)
	defer close(finishList)

	go r.Engine(context.Background(), "user-1")
	<-listing

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	engine, err := r.Engine(ctx, "user-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, engine)
}
