package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompter/internal/models"
)

func TestAppSettingsRepository_DefaultsThenSave(t *testing.T) {
	repo := NewAppSettingsRepository(newTestDB(t))
	ctx := context.Background()

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppSettings(), settings)

	settings.Theme = "dark"
	settings.Backend = models.BackendCLI
	settings.ID = 42
	require.NoError(t, repo.Update(ctx, settings))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ID)
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, models.BackendCLI, got.Backend)
}

func TestModelSettingRepository_Upsert(t *testing.T) {
	repo := NewModelSettingRepository(newTestDB(t))
	ctx := context.Background()

	missing, err := repo.GetByKey(ctx, "openai|gpt-5")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.Upsert(ctx, "openai|gpt-5", "openai", true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "anthropic|claude", "anthropic", true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "openai|gpt-5", "openai", false)
	require.NoError(t, err)

	got, err := repo.GetByKey(ctx, "openai|gpt-5")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Enabled)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anthropic", list[0].Provider)

	require.NoError(t, repo.SetProviderEnabled(ctx, "openai", true))
	got, err = repo.GetByKey(ctx, "openai|gpt-5")
	require.NoError(t, err)
	assert.True(t, got.Enabled)

	_, err = repo.Upsert(ctx, "", "openai", true)
	assert.Error(t, err)
	_, err = repo.Upsert(ctx, "k", "", true)
	assert.Error(t, err)
	assert.Error(t, repo.SetProviderEnabled(ctx, "", true))
	_, err = repo.GetByKey(ctx, "")
	assert.Error(t, err)
}
