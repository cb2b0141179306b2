package unit_tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompter/internal/models"
	"prompter/internal/services"
	"prompter/internal/tests/mocks"
)

func TestTemplateService_StartupSeedsWhenEmpty(t *testing.T) {
	var created []*models.Template
	repo := &mocks.TemplateRepositoryMock{
		CreateFunc: func(ctx context.Context, template *models.Template) error {
			template.ID = uint(len(created) + 1)
			created = append(created, template)
			return nil
		},
	}
	svc := services.NewTemplateService(repo)
	require.NoError(t, svc.Startup(context.Background()))

	require.Len(t, created, 4)
	assert.Equal(t, "Improve", created[0].Name)
	assert.True(t, created[0].IsDefault)
	for i, tmpl := range created {
		assert.Equal(t, i, tmpl.SortOrder)
		assert.Contains(t, tmpl.Content, services.InputPlaceholder)
		assert.NotEqual(t, '\n', tmpl.Content[len(tmpl.Content)-1])
	}
}

func TestTemplateService_StartupSkipsSeedWhenPopulated(t *testing.T) {
	repo := &mocks.TemplateRepositoryMock{
		CountFunc: func(ctx context.Context) (int64, error) { return 2, nil },
		CreateFunc: func(ctx context.Context, template *models.Template) error {
			t.Fatal("unexpected seed")
			return nil
		},
	}
	require.NoError(t, services.NewTemplateService(repo).Startup(context.Background()))

	failing := &mocks.TemplateRepositoryMock{
		CountFunc: func(ctx context.Context) (int64, error) { return 0, errors.New("db gone") },
	}
	assert.ErrorContains(t, services.NewTemplateService(failing).Startup(context.Background()), "db gone")
}

func TestTemplateService_CreateTemplate(t *testing.T) {
	var defaultID uint
	repo := &mocks.TemplateRepositoryMock{
		NextSortOrderFunc: func(ctx context.Context) (int, error) { return 7, nil },
		CreateFunc: func(ctx context.Context, template *models.Template) error {
			assert.False(t, template.IsDefault, "default is applied through SetDefault")
			template.ID = 11
			return nil
		},
		SetDefaultFunc: func(ctx context.Context, id uint) error {
			defaultID = id
			return nil
		},
	}
	svc := services.NewTemplateService(repo)

	got, err := svc.CreateTemplate(&models.Template{ID: 99, Name: "  Mine ", Content: "x {{input}}", IsDefault: true})
	require.NoError(t, err)
	assert.EqualValues(t, 11, got.ID)
	assert.Equal(t, "Mine", got.Name)
	assert.Equal(t, 7, got.SortOrder)
	assert.True(t, got.IsDefault)
	assert.EqualValues(t, 11, defaultID)

	_, err = svc.CreateTemplate(&models.Template{Name: " ", Content: "x"})
	assert.Error(t, err)
	_, err = svc.CreateTemplate(&models.Template{Name: "x", Content: "\n"})
	assert.Error(t, err)
	_, err = svc.CreateTemplate(nil)
	assert.Error(t, err)
}

func TestTemplateService_UpdateTemplate(t *testing.T) {
	stored := &models.Template{ID: 3, Name: "Old", Content: "old", SortOrder: 2}
	var saved *models.Template
	repo := &mocks.TemplateRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Template, error) {
			if id != 3 {
				return nil, errors.New("not found")
			}
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, template *models.Template) error {
			saved = template
			return nil
		},
	}
	svc := services.NewTemplateService(repo)

	got, err := svc.UpdateTemplate(&models.Template{ID: 3, Name: "New", Content: "new {{input}}", SortOrder: 50})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, 2, got.SortOrder, "order only changes through Reorder")
	assert.Same(t, stored, saved)

	_, err = svc.UpdateTemplate(&models.Template{ID: 4, Name: "x", Content: "y"})
	assert.ErrorContains(t, err, "not found")
}

func TestTemplateService_Reorder(t *testing.T) {
	var got []models.TemplateOrderUpdate
	repo := &mocks.TemplateRepositoryMock{
		UpdateOrderFunc: func(ctx context.Context, updates []models.TemplateOrderUpdate) error {
			got = updates
			return nil
		},
	}
	svc := services.NewTemplateService(repo)

	require.NoError(t, svc.Reorder([]uint{5, 2, 9}))
	assert.Equal(t, []models.TemplateOrderUpdate{
		{ID: 5, SortOrder: 0},
		{ID: 2, SortOrder: 1},
		{ID: 9, SortOrder: 2},
	}, got)

	assert.ErrorContains(t, svc.Reorder([]uint{1, 1}), "duplicate")
}

func TestTemplateService_DefaultAndRender(t *testing.T) {
	templates := []*models.Template{
		{ID: 1, Name: "A", Content: "Improve: {{input}}"},
		{ID: 2, Name: "B", Content: "No placeholder\n", IsDefault: true},
	}
	repo := &mocks.TemplateRepositoryMock{
		GetAllFunc: func(ctx context.Context) ([]*models.Template, error) { return templates, nil },
		GetFunc: func(ctx context.Context, id uint) (*models.Template, error) {
			for _, tmpl := range templates {
				if tmpl.ID == id {
					return tmpl, nil
				}
			}
			return nil, errors.New("not found")
		},
	}
	svc := services.NewTemplateService(repo)

	def, err := svc.DefaultTemplate()
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.EqualValues(t, 2, def.ID)

	out, err := svc.Render(1, "  write tests ")
	require.NoError(t, err)
	assert.Equal(t, "Improve: write tests", out)

	out, err = svc.Render(2, "write tests")
	require.NoError(t, err)
	assert.Equal(t, "No placeholder\n\nwrite tests", out)

	_, err = svc.Render(3, "x")
	assert.Error(t, err)
}

func TestRenderTemplate(t *testing.T) {
	assert.Equal(t, "a x b x", services.RenderTemplate("a {{input}} b {{input}}", "x"))
	assert.Equal(t, "x", services.RenderTemplate("  ", "x"))
}
