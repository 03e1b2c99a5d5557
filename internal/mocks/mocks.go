// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/al3xb0/mindpal-task/internal/directory"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of directory.DataSource.
type MockDataSource struct {
	mock.Mock
}

// Characters mocks the directory query.
func (m *MockDataSource) Characters(ctx context.Context, page int, filter *model.FilterCriteria) (*directory.Response, error) {
	args := m.Called(ctx, page, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Response), args.Error(1)
}

// MockStore is a mock implementation of store.Store.
type MockStore struct {
	mock.Mock
}

// List mocks reading a user's favorites.
func (m *MockStore) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FavoriteEntry), args.Error(1)
}

// Insert mocks writing a favorite.
func (m *MockStore) Insert(ctx context.Context, fav model.NewFavorite) (string, error) {
	args := m.Called(ctx, fav)
	return args.String(0), args.Error(1)
}

// Delete mocks removing a favorite.
func (m *MockStore) Delete(ctx context.Context, userID string, characterID int) error {
	args := m.Called(ctx, userID, characterID)
	return args.Error(0)
}

// Ping mocks the store health check.
func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the store.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockIdentity is a mock implementation of auth.Identity.
type MockIdentity struct {
	mock.Mock
}

// CurrentUser mocks the identity lookup.
func (m *MockIdentity) CurrentUser(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
