package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a mock implementation of TokenStore for testing.
type mockStore struct {
	getValue CachedToken
	getFound bool
	getError error
	putError error
	closeErr error
	getCalls int
	putCalls int
}

func (m *mockStore) Get(ctx context.Context, userID string) (CachedToken, bool, error) {
	m.getCalls++
	return m.getValue, m.getFound, m.getError
}

func (m *mockStore) Put(ctx context.Context, token CachedToken) error {
	m.putCalls++
	return m.putError
}

func (m *mockStore) Close() error {
	return m.closeErr
}

func TestInstrumented_Get_Hit(t *testing.T) {
	mock := &mockStore{
		getValue: CachedToken{UserID: "user-1", AccessToken: "T1"},
		getFound: true,
	}
	s := NewInstrumented(mock, "test")

	token, found, err := s.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "T1", token.AccessToken)
	assert.Equal(t, 1, mock.getCalls)
}

func TestInstrumented_Get_Miss(t *testing.T) {
	mock := &mockStore{}
	s := NewInstrumented(mock, "test")

	_, found, err := s.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, mock.getCalls)
}

func TestInstrumented_Get_Error(t *testing.T) {
	expectedErr := errors.New("get failed")
	mock := &mockStore{getError: expectedErr}
	s := NewInstrumented(mock, "test")

	_, _, err := s.Get(context.Background(), "user-1")

	assert.ErrorIs(t, err, expectedErr)
}

func TestInstrumented_Put(t *testing.T) {
	mock := &mockStore{}
	s := NewInstrumented(mock, "test")

	err := s.Put(context.Background(), CachedToken{UserID: "user-1"})

	assert.NoError(t, err)
	assert.Equal(t, 1, mock.putCalls)
}

func TestInstrumented_Put_Error(t *testing.T) {
	expectedErr := errors.New("put failed")
	mock := &mockStore{putError: expectedErr}
	s := NewInstrumented(mock, "test")

	err := s.Put(context.Background(), CachedToken{UserID: "user-1"})

	assert.ErrorIs(t, err, expectedErr)
}

func TestInstrumented_Close(t *testing.T) {
	expectedErr := errors.New("close failed")
	s := NewInstrumented(&mockStore{closeErr: expectedErr}, "test")

	assert.ErrorIs(t, s.Close(), expectedErr)
}
