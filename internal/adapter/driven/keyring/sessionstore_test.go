package keyring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	gokeyring.MockInit()
	store := NewSessionStore("")
	ctx := context.Background()

	want := model.Session{
		ID:        "cli",
		User:      model.User{ID: 1, Username: "octo"},
		Token:     "tok",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx, "cli")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.User, got.User)
	assert.Equal(t, want.Token, got.Token)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestSessionStore_LoadMissing(t *testing.T) {
	gokeyring.MockInit()
	store := NewSessionStore("codeguardian-test")

	got, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	gokeyring.MockInit()
	store := NewSessionStore("")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.Session{ID: "cli", Token: "tok"}))
	require.NoError(t, store.Delete(ctx, "cli"))
	require.NoError(t, store.Delete(ctx, "cli"))

	got, err := store.Load(ctx, "cli")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_KeyringUnavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no secret service"))
	store := NewSessionStore("")

	err := store.Save(context.Background(), model.Session{ID: "cli", Token: "tok"})
	assert.Error(t, err)
	_, err = store.Load(context.Background(), "cli")
	assert.Error(t, err)
}

func TestSessionStore_CorruptSecret(t *testing.T) {
	gokeyring.MockInit()
	require.NoError(t, gokeyring.Set(DefaultService, "cli", "{not json"))

	_, err := NewSessionStore("").Load(context.Background(), "cli")
	assert.Error(t, err)
}
