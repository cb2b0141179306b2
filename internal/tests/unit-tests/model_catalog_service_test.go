package unit_tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompter/internal/llm/client"
	"prompter/internal/models"
	"prompter/internal/services"
	"prompter/internal/tests/mocks"
)

func newCatalog(t *testing.T, stored []models.ModelSetting) (services.ModelCatalogService, map[string]bool) {
	t.Helper()
	seeded := map[string]bool{}
	repo := &mocks.ModelSettingRepositoryMock{
		ListFunc: func(ctx context.Context) ([]models.ModelSetting, error) { return stored, nil },
		UpsertFunc: func(ctx context.Context, modelKey, provider string, enabled bool) (*models.ModelSetting, error) {
			seeded[modelKey] = enabled
			return &models.ModelSetting{ModelKey: modelKey, Provider: provider, Enabled: enabled}, nil
		},
	}
	svc := services.NewModelCatalogService(repo)
	require.NoError(t, svc.Startup(context.Background()))
	return svc, seeded
}

func TestModelCatalog_StartupKeepsCatalogOrderAndSeeds(t *testing.T) {
	svc, seeded := newCatalog(t, []models.ModelSetting{
		{ModelKey: "anthropic|claude-sonnet-4-5", Provider: "anthropic", Enabled: false},
		{ModelKey: "anthropic|claude-3-opus", Provider: "anthropic", Enabled: true},
	})

	assert.NotContains(t, seeded, "anthropic|claude-sonnet-4-5")
	assert.True(t, seeded["openai|gpt-5|reasoning=medium"])
	assert.True(t, seeded["anthropic|claude-sonnet-4-5|thinking=true"])
	assert.True(t, seeded["gemini|gemini-2.5-pro|thinking=true"])

	providers := svc.Providers()
	require.Len(t, providers, 3)
	assert.Equal(t, "anthropic", providers[0].Provider)
	assert.Equal(t, "Anthropic", providers[0].Name)
	require.Len(t, providers[0].Models, 3)
	assert.Equal(t, "Claude Sonnet 4.5", providers[0].Models[0].Label)
	assert.False(t, providers[0].Models[0].Enabled)
	assert.True(t, providers[0].Models[1].Thinking)
	assert.Equal(t, "Claude Haiku 4.5", providers[0].Models[2].Label)
}

func TestModelCatalog_ChooseDefault(t *testing.T) {
	svc, _ := newCatalog(t, nil)

	got, err := svc.Choose("  ")
	require.NoError(t, err)
	assert.Equal(t, "anthropic|claude-sonnet-4-5", got.Key)

	require.NoError(t, svc.SetProviderEnabled("anthropic", false))
	got, err = svc.Choose("")
	require.NoError(t, err)
	assert.Equal(t, "openai|gpt-5-mini|reasoning=low", got.Key)

	require.NoError(t, svc.SetProviderEnabled("openai", false))
	require.NoError(t, svc.SetProviderEnabled("gemini", false))
	_, err = svc.Choose("")
	assert.ErrorIs(t, err, services.ErrNoModelEnabled)
	kind, ok := client.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, client.ErrorNotFound, kind)
}

func TestModelCatalog_ChoosePreferred(t *testing.T) {
	svc, _ := newCatalog(t, nil)

	got, err := svc.Choose("openai|gpt-5|reasoning=medium")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", got.APIName)
	assert.Equal(t, "medium", got.ReasoningEffort)

	require.NoError(t, svc.SetEnabled("openai|gpt-5|reasoning=medium", false))
	_, err = svc.Choose("openai|gpt-5|reasoning=medium")
	assert.ErrorIs(t, err, services.ErrModelDisabled)
	assert.Equal(t, "Model GPT-5 is disabled.", client.UserMessage(err))

	_, err = svc.Choose("openai|retired")
	assert.ErrorIs(t, err, services.ErrModelNotFound)
	kind, _ := client.KindOf(err)
	assert.Equal(t, client.ErrorNotFound, kind)
}

func TestModelCatalog_Toggles(t *testing.T) {
	svc, seeded := newCatalog(t, nil)

	require.NoError(t, svc.SetEnabled("openai|gpt-4.1", false))
	assert.False(t, seeded["openai|gpt-4.1"])
	assert.Equal(t, "openai|gpt-5-mini|reasoning=low", svc.FirstEnabled("openai").Key)

	assert.ErrorIs(t, svc.SetEnabled("nope|x", true), services.ErrModelNotFound)
	assert.Error(t, svc.SetEnabled(" ", true))
	assert.Error(t, svc.SetProviderEnabled("", true))

	require.NoError(t, svc.SetProviderEnabled("gemini", false))
	assert.Nil(t, svc.FirstEnabled("gemini"))
	assert.Nil(t, svc.FirstEnabled("mistral"))
}

func TestModelCatalog_StartupErrors(t *testing.T) {
	repo := &mocks.ModelSettingRepositoryMock{
		ListFunc: func(ctx context.Context) ([]models.ModelSetting, error) { return nil, errors.New("locked") },
	}
	assert.ErrorContains(t, services.NewModelCatalogService(repo).Startup(context.Background()), "locked")
}
