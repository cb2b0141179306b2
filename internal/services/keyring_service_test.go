package services

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringService_StoreGetDelete(t *testing.T) {
	svc := NewKeyringService(keyring.NewArrayKeyring(nil))

	require.NoError(t, svc.StoreApiKey("openai", []byte("sk-test")))
	key, err := svc.GetApiKey(" openai ")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	require.NoError(t, svc.DeleteApiKey("openai"))
	_, err = svc.GetApiKey("openai")
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
}

func TestKeyringService_Validation(t *testing.T) {
	svc := NewKeyringService(keyring.NewArrayKeyring(nil))

	assert.Error(t, svc.StoreApiKey("openai", nil))
	assert.Error(t, svc.StoreApiKey("  ", []byte("x")))
	_, err := svc.GetApiKey("")
	assert.Error(t, err)
}

func TestKeyringService_ListApiKeys(t *testing.T) {
	svc := NewKeyringService(keyring.NewArrayKeyring([]keyring.Item{
		{Key: "openai", Data: []byte("a")},
		{Key: "anthropic", Data: []byte("b")},
	}))

	list, err := svc.ListApiKeys()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anthropic", list[0]["provider"])
	assert.Equal(t, "openai", list[1]["provider"])
	assert.NotContains(t, list[0], "key")
}
