package services

import (
	context "context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"prompter/internal/assets"
	"prompter/internal/models"
	"prompter/internal/repositories"
)

// InputPlaceholder marks where the user's text goes in a template.
const InputPlaceholder = "{{input}}"

type TemplateService interface {
	GetTemplate(id uint) (*models.Template, error)
	ListTemplates() ([]*models.Template, error)
	CreateTemplate(t *models.Template) (*models.Template, error)
	UpdateTemplate(t *models.Template) (*models.Template, error)
	DeleteTemplate(id uint) error
	Reorder(ids []uint) error
	SetDefault(id uint) error
	DefaultTemplate() (*models.Template, error)
	Render(id uint, input string) (string, error)
	Startup(ctx context.Context) error
}

type templateService struct {
	repo repositories.TemplateRepository
	ctx  context.Context
}

type templateSeedFile struct {
	Templates []struct {
		Name    string `yaml:"name"`
		Content string `yaml:"content"`
		Default bool   `yaml:"default"`
	} `yaml:"templates"`
}

// Startup seeds the built-in templates when the table is empty.
func (s *templateService) Startup(ctx context.Context) error {
	s.ctx = ctx

	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("service: count templates: %w", err)
	}
	if n > 0 {
		return nil
	}

	seeds, err := parseTemplateSeeds(assets.DefaultTemplatesData)
	if err != nil {
		return err
	}
	for _, t := range seeds {
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("service: seed template %q: %w", t.Name, err)
		}
	}
	return nil
}

func parseTemplateSeeds(data []byte) ([]*models.Template, error) {
	var file templateSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("service: parse default templates: %w", err)
	}
	out := make([]*models.Template, 0, len(file.Templates))
	for i, raw := range file.Templates {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		out = append(out, &models.Template{
			Name:      name,
			Content:   strings.TrimRight(raw.Content, "\n"),
			IsDefault: raw.Default,
			SortOrder: i,
		})
	}
	return out, nil
}

func NewTemplateService(repo repositories.TemplateRepository) TemplateService {
	return &templateService{repo: repo, ctx: context.Background()}
}

func (s *templateService) GetTemplate(id uint) (*models.Template, error) {
	tmpl, err := s.repo.Get(s.ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get template %d: %w", id, err)
	}
	return tmpl, nil
}

func (s *templateService) ListTemplates() ([]*models.Template, error) {
	list, err := s.repo.GetAll(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list templates: %w", err)
	}
	return list, nil
}

func (s *templateService) CreateTemplate(t *models.Template) (*models.Template, error) {
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	order, err := s.repo.NextSortOrder(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("service: create template: %w", err)
	}
	t.ID = 0
	t.Name = strings.TrimSpace(t.Name)
	t.SortOrder = order
	makeDefault := t.IsDefault
	t.IsDefault = false
	if err := s.repo.Create(s.ctx, t); err != nil {
		return nil, fmt.Errorf("service: create template: %w", err)
	}
	if makeDefault {
		if err := s.SetDefault(t.ID); err != nil {
			return nil, err
		}
		t.IsDefault = true
	}
	return t, nil
}

func (s *templateService) UpdateTemplate(t *models.Template) (*models.Template, error) {
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(s.ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("service: update template %d: %w", t.ID, err)
	}
	current.Name = strings.TrimSpace(t.Name)
	current.Content = t.Content
	if err := s.repo.Update(s.ctx, current); err != nil {
		return nil, fmt.Errorf("service: update template %d: %w", t.ID, err)
	}
	if t.IsDefault && !current.IsDefault {
		if err := s.SetDefault(current.ID); err != nil {
			return nil, err
		}
		current.IsDefault = true
	}
	return current, nil
}

func (s *templateService) DeleteTemplate(id uint) error {
	if err := s.repo.Delete(s.ctx, id); err != nil {
		return fmt.Errorf("service: delete template %d: %w", id, err)
	}
	return nil
}

// Reorder assigns sort positions following the order of ids.
func (s *templateService) Reorder(ids []uint) error {
	updates := make([]models.TemplateOrderUpdate, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for i, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("service: reorder templates: duplicate id %d", id)
		}
		seen[id] = struct{}{}
		updates = append(updates, models.TemplateOrderUpdate{ID: id, SortOrder: i})
	}
	if err := s.repo.UpdateOrder(s.ctx, updates); err != nil {
		return fmt.Errorf("service: reorder templates: %w", err)
	}
	return nil
}

func (s *templateService) SetDefault(id uint) error {
	if err := s.repo.SetDefault(s.ctx, id); err != nil {
		return fmt.Errorf("service: set default template %d: %w", id, err)
	}
	return nil
}

// DefaultTemplate returns the template marked default, or nil.
func (s *templateService) DefaultTemplate() (*models.Template, error) {
	list, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.IsDefault {
			return t, nil
		}
	}
	return nil, nil
}

// Render fills the template with input. Templates without a placeholder get
// the input appended after a blank line.
func (s *templateService) Render(id uint, input string) (string, error) {
	tmpl, err := s.GetTemplate(id)
	if err != nil {
		return "", err
	}
	return RenderTemplate(tmpl.Content, input), nil
}

func RenderTemplate(content, input string) string {
	input = strings.TrimSpace(input)
	if strings.Contains(content, InputPlaceholder) {
		return strings.ReplaceAll(content, InputPlaceholder, input)
	}
	content = strings.TrimRight(content, " \t\n")
	if content == "" {
		return input
	}
	return content + "\n\n" + input
}

func validateTemplate(t *models.Template) error {
	if t == nil {
		return errors.New("template is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("template name is required")
	}
	if strings.TrimSpace(t.Content) == "" {
		return errors.New("template content is required")
	}
	return nil
}
