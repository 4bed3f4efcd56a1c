package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/storage"
)

func seeded(t *testing.T, entries map[string]string) (*Store, *fakeAuth, *storage.MemoryStore) {
	t.Helper()
	logger.Discard()

	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Apply(context.Background(), storage.Batch{Set: entries}))
	auth := newFakeAuth()
	return New(kv, auth), auth, kv
}

const storedUser = `{"id":"u1","name":"Asha","email":"asha@example.com"}`

func TestRestoreCompleteSession(t *testing.T) {
	s, auth, _ := seeded(t, map[string]string{
		storage.KeyToken: "tok-1",
		storage.KeyUser:  storedUser,
	})

	require.NoError(t, s.Restore(context.Background()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Asha", s.User().Name)
	assert.Zero(t, auth.total())
}

func TestRestoreEmptyStorage(t *testing.T) {
	s, _, _ := seeded(t, nil)

	require.NoError(t, s.Restore(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, StepNone, s.Reset().Step)
}

func TestRestoreDiscardsIncompleteSession(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
	}{
		{"token only", map[string]string{storage.KeyToken: "tok-1"}},
		{"user only", map[string]string{storage.KeyUser: storedUser}},
		{"malformed user", map[string]string{storage.KeyToken: "tok-1", storage.KeyUser: "{not json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, kv := seeded(t, tt.entries)

			require.NoError(t, s.Restore(context.Background()))

			assert.False(t, s.IsAuthenticated())
			assert.Empty(t, kv.Snapshot())
		})
	}
}

func TestRestoreResetFlow(t *testing.T) {
	s, _, _ := seeded(t, map[string]string{
		storage.KeyResetFlow: `{"step":"awaiting_otp","mobile":"9999999999"}`,
	})

	require.NoError(t, s.Restore(context.Background()))

	assert.Equal(t, ResetFlow{Step: StepAwaitingOTP, Mobile: "9999999999"}, s.Reset())
}

func TestRestoreDropsMalformedResetFlow(t *testing.T) {
	s, _, kv := seeded(t, map[string]string{storage.KeyResetFlow: `{"step":"bogus"}`})

	require.NoError(t, s.Restore(context.Background()))

	assert.Equal(t, StepNone, s.Reset().Step)
	assert.NotContains(t, kv.Snapshot(), storage.KeyResetFlow)
}

func restored(t *testing.T) (*Store, *fakeAuth, *storage.MemoryStore) {
	t.Helper()
	s, auth, kv := seeded(t, map[string]string{
		storage.KeyToken: "tok-1",
		storage.KeyUser:  storedUser,
	})
	require.NoError(t, s.Restore(context.Background()))
	return s, auth, kv
}

func TestValidateKeepsAcceptedSession(t *testing.T) {
	s, auth, kv := restored(t)
	auth.profile = &models.User{ID: "u1", Name: "Asha Rao", Email: "asha@example.com"}

	require.NoError(t, s.Validate(context.Background()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Asha Rao", s.User().Name)
	assert.Contains(t, kv.Snapshot()[storage.KeyUser], "Asha Rao")
}

func TestValidateSkipsSaveForUnchangedProfile(t *testing.T) {
	logger.Discard()
	ctx := context.Background()
	kv := &flakyKV{MemoryStore: storage.NewMemoryStore()}
	require.NoError(t, kv.Apply(ctx, storage.Batch{Set: map[string]string{
		storage.KeyToken: "tok-1",
		storage.KeyUser:  `{"id":"u1","name":"Asha","email":"asha@example.com","createdAt":"2024-05-01T10:00:00Z"}`,
	}}))
	auth := newFakeAuth()
	s := New(kv, auth)
	require.NoError(t, s.Restore(ctx))

	ist := time.FixedZone("IST", 5*60*60+30*60)
	auth.profile = &models.User{
		ID:        "u1",
		Name:      "Asha",
		Email:     "asha@example.com",
		CreatedAt: time.Date(2024, 5, 1, 15, 30, 0, 0, ist),
	}
	kv.failing = true

	require.NoError(t, s.Validate(ctx))
	assert.True(t, s.IsAuthenticated())
}

func TestValidateDropsRejectedSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", &api.StatusError{Status: http.StatusUnauthorized, Message: "Token expired"}},
		{"unreachable", &api.NetworkError{Op: "GET /profile", Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, auth, kv := restored(t)
			auth.profileErr = tt.err

			require.NoError(t, s.Validate(context.Background()))

			assert.False(t, s.IsAuthenticated())
			assert.NotContains(t, kv.Snapshot(), storage.KeyToken)
			assert.NotContains(t, kv.Snapshot(), storage.KeyUser)
		})
	}
}

func TestValidateWithoutSessionSkipsCollaborator(t *testing.T) {
	s, auth, _ := seeded(t, nil)
	require.NoError(t, s.Restore(context.Background()))

	require.NoError(t, s.Validate(context.Background()))

	assert.Zero(t, auth.total())
}

func TestValidateReturnsCancellation(t *testing.T) {
	s, auth, kv := restored(t)
	auth.profileErr = &api.NetworkError{Op: "GET /profile", Err: context.Canceled}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Validate(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, s.IsAuthenticated())
	assert.Contains(t, kv.Snapshot(), storage.KeyToken)
}
