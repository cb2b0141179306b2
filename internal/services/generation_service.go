package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"prompter/internal/events"
	"prompter/internal/llm/client"
	"prompter/internal/logging"
	"prompter/internal/models"
	"prompter/internal/repositories"
)

var (
	ErrNotStarted           = errors.New("generation service not started")
	ErrRecordNotFound       = errors.New("history record not found")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrEmptyPrompt          = errors.New("prompt text is empty")
	ErrPromptImmutable      = errors.New("prompt text can only be set on an empty draft")
	ErrTemplatesUnavailable = errors.New("template service not configured")
)

// GeneratorResolver picks the backend for a new attempt and reports the
// model key recorded on the resulting version.
type GeneratorResolver interface {
	Resolve(ctx context.Context) (client.Generator, string, error)
}

// ResolverFunc adapts a function to GeneratorResolver.
type ResolverFunc func(ctx context.Context) (client.Generator, string, error)

func (f ResolverFunc) Resolve(ctx context.Context) (client.Generator, string, error) {
	return f(ctx)
}

// GenerationService owns the lifecycle of every history record: submission,
// dedup, cancellation, retry and the result callbacks. Its in-memory state is
// authoritative for the session; the repository is written best-effort.
type GenerationService interface {
	Startup(ctx context.Context) error
	Shutdown()

	Submit(promptText, systemInstruction string) (string, error)
	SubmitWithTemplate(templateID uint, input, systemInstruction string) (string, error)
	CreateDraft() (string, error)
	SubmitDraft(id, promptText, systemInstruction string) error
	Cancel(id string) bool
	Retry(id string) error
	HandleSuccess(id string, attempt uint64, output string) bool
	HandleFailure(id string, attempt uint64, err error) bool

	Get(id string) (*models.HistoryRecord, error)
	List(includeArchived bool) []*models.HistoryRecord
	ActiveIDs() []string
	IsActive(id string) bool
	LivePreview(id string) (string, bool)
	Await(ctx context.Context, id string) (*models.HistoryRecord, error)

	SetArchived(id string, archived bool) error
	SetFavorite(id string, favorite bool) error
	SelectVersion(id string, index int) error
	Delete(id string) error
	Reload() (int, error)
}

// attempt is one in-flight generation. token distinguishes it from earlier
// attempts on the same record so their late results can be dropped.
type attempt struct {
	token    uint64
	cancel   context.CancelFunc
	done     chan struct{}
	preview  string
	modelKey string
}

type generationService struct {
	repo      repositories.HistoryRepository
	resolver  GeneratorResolver
	templates TemplateService
	logger    *slog.Logger
	emit      events.EmitFunc
	now       func() time.Time
	streaming bool

	ctx context.Context
	wg  sync.WaitGroup

	mu        sync.Mutex
	started   bool
	records   map[string]*models.HistoryRecord
	active    map[string]*attempt
	nextToken uint64
}

type GenerationOption func(*generationService)

func WithGenerationLogger(logger *slog.Logger) GenerationOption {
	return func(s *generationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEmitter(emit events.EmitFunc) GenerationOption {
	return func(s *generationService) {
		if emit != nil {
			s.emit = emit
		}
	}
}

func WithClock(now func() time.Time) GenerationOption {
	return func(s *generationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStreaming selects the streaming client call, which feeds LivePreview.
func WithStreaming(enabled bool) GenerationOption {
	return func(s *generationService) {
		s.streaming = enabled
	}
}

func WithTemplates(templates TemplateService) GenerationOption {
	return func(s *generationService) {
		s.templates = templates
	}
}

func NewGenerationService(repo repositories.HistoryRepository, resolver GeneratorResolver, opts ...GenerationOption) GenerationService {
	s := &generationService{
		repo:      repo,
		resolver:  resolver,
		logger:    logging.Default(),
		emit:      events.EmitGeneration,
		now:       time.Now,
		streaming: true,
		ctx:       context.Background(),
		records:   make(map[string]*models.HistoryRecord),
		active:    make(map[string]*attempt),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Startup loads the persisted history. Records left generating by a previous
// process are put back to pending with no error.
func (s *generationService) Startup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if migrated, err := s.repo.MigrateLegacyOutputs(ctx); err != nil {
		s.logger.Error("failed to migrate legacy history outputs", "error", err)
	} else if migrated > 0 {
		s.logger.Info("migrated legacy history outputs", "count", migrated)
	}

	records, err := s.repo.List(ctx, repositories.ListOptions{IncludeArchived: true})
	if err != nil {
		return fmt.Errorf("service: load history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = ctx
	s.records = make(map[string]*models.HistoryRecord, len(records))
	s.active = make(map[string]*attempt)
	for _, rec := range records {
		s.adoptLocked(rec)
	}
	s.started = true
	s.logger.Info("history loaded", "records", len(s.records))
	return nil
}

// adoptLocked takes ownership of a record loaded from storage.
func (s *generationService) adoptLocked(rec *models.HistoryRecord) {
	changed := false
	switch rec.Status {
	case models.StatusGenerating:
		rec.Status = models.StatusPending
		rec.ErrorMessage = ""
		changed = true
	case models.StatusCompleted:
		if len(rec.Versions) == 0 {
			rec.Status = models.StatusPending
			changed = true
		}
	case models.StatusPending, models.StatusFailed, models.StatusCancelled:
	default:
		s.logger.Warn("unknown status on stored record", "id", rec.ID, "status", rec.Status)
		rec.Status = models.StatusPending
		changed = true
	}
	if rec.Versions == nil {
		rec.Versions = []models.GenerationVersion{}
	}
	rec.NormalizeSelection()
	s.records[rec.ID] = rec
	if changed {
		s.persistLocked(rec, false)
	}
}

// Shutdown cancels every in-flight attempt and waits for the workers to
// return. Records stay generating in storage; Startup recovers them.
func (s *generationService) Shutdown() {
	s.mu.Lock()
	for id, att := range s.active {
		s.finishLocked(id, att)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *generationService) Submit(promptText, systemInstruction string) (string, error) {
	text := models.NormalizePromptText(promptText)
	if text == "" {
		return "", nil
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return "", ErrNotStarted
	}

	rec := s.findByPromptLocked(text)
	isNew := false
	if rec == nil {
		rec = models.NewHistoryRecord(text, s.now())
		s.records[rec.ID] = rec
		isNew = true
	} else if _, busy := s.active[rec.ID]; busy {
		s.mu.Unlock()
		return rec.ID, ErrGenerationInProgress
	}

	rec.SystemPrompt = systemInstruction
	s.startLocked(rec)
	s.persistLocked(rec, isNew)
	evt := events.NewStatusEvent(rec, s.now())
	s.mu.Unlock()

	s.publish(evt)
	return rec.ID, nil
}

func (s *generationService) SubmitWithTemplate(templateID uint, input, systemInstruction string) (string, error) {
	if s.templates == nil {
		return "", ErrTemplatesUnavailable
	}
	if models.NormalizePromptText(input) == "" {
		return "", nil
	}
	rendered, err := s.templates.Render(templateID, input)
	if err != nil {
		return "", err
	}
	return s.Submit(rendered, systemInstruction)
}

// findByPromptLocked returns the newest non-archived record with exactly this
// prompt text. The store is consulted for records this process has not seen.
func (s *generationService) findByPromptLocked(text string) *models.HistoryRecord {
	var match *models.HistoryRecord
	for _, rec := range s.records {
		if rec.IsArchived || rec.PromptText != text {
			continue
		}
		if match == nil || rec.CreatedAt.After(match.CreatedAt) {
			match = rec
		}
	}
	if match != nil {
		return match
	}

	stored, err := s.repo.FindByPromptText(s.persistCtx(), text)
	if err != nil {
		s.logger.Warn("history lookup by prompt failed", "error", err)
		return nil
	}
	if stored == nil {
		return nil
	}
	if _, known := s.records[stored.ID]; known {
		// Memory already decided this record does not match.
		return nil
	}
	s.adoptLocked(stored)
	return stored
}

// startLocked moves rec to generating and launches a worker for it.
func (s *generationService) startLocked(rec *models.HistoryRecord) {
	s.nextToken++
	ctx, cancel := context.WithCancel(s.ctx)
	att := &attempt{
		token:  s.nextToken,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.active[rec.ID] = att

	rec.Status = models.StatusGenerating
	rec.ErrorMessage = ""
	rec.UpdatedAt = s.now()

	s.wg.Add(1)
	go s.run(ctx, rec.ID, att.token, rec.PromptText, rec.SystemPrompt)
}

func (s *generationService) run(ctx context.Context, id string, token uint64, prompt, systemInstruction string) {
	defer s.wg.Done()
	logger := s.logger.With("id", id, "attempt", token)
	ctx = logging.With(ctx, logger)

	gen, modelKey, err := s.resolver.Resolve(ctx)
	if err != nil {
		logger.Warn("no generation backend available", "error", err)
		s.HandleFailure(id, token, err)
		return
	}
	s.setAttemptModel(id, token, modelKey)

	var output string
	if s.streaming {
		output, err = gen.Stream(ctx, prompt, systemInstruction, func(chunk string) {
			s.appendPreview(id, token, chunk)
		})
	} else {
		output, err = gen.Generate(ctx, prompt, systemInstruction)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.Debug("generation cancelled")
			return
		}
		logger.Warn("generation failed", "error", err)
		s.HandleFailure(id, token, err)
		return
	}
	s.HandleSuccess(id, token, output)
}

func (s *generationService) setAttemptModel(id string, token uint64, modelKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if att, ok := s.active[id]; ok && att.token == token {
		att.modelKey = modelKey
	}
}

func (s *generationService) appendPreview(id string, token uint64, chunk string) {
	s.mu.Lock()
	att, ok := s.active[id]
	if !ok || att.token != token {
		s.mu.Unlock()
		return
	}
	att.preview += chunk
	evt := events.NewChunkEvent(id, chunk, s.now())
	s.mu.Unlock()

	s.publish(evt)
}

// HandleSuccess commits output as a new version. Results for an attempt that
// is no longer active are dropped and false is returned.
func (s *generationService) HandleSuccess(id string, token uint64, output string) bool {
	s.mu.Lock()
	att, rec, ok := s.currentAttemptLocked(id, token)
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("dropping late generation result", "id", id, "attempt", token)
		return false
	}
	s.finishLocked(id, att)

	now := s.now()
	rec.AppendVersion(output, att.modelKey, now)
	if att.modelKey != "" {
		rec.ModelKey = att.modelKey
	}
	rec.Status = models.StatusCompleted
	rec.ErrorMessage = ""
	rec.UpdatedAt = now
	s.persistLocked(rec, false)
	evt := events.NewStatusEvent(rec, now)
	s.mu.Unlock()

	s.publish(evt)
	return true
}

// HandleFailure records err on the record. The same late-result guard as
// HandleSuccess applies.
func (s *generationService) HandleFailure(id string, token uint64, err error) bool {
	s.mu.Lock()
	att, rec, ok := s.currentAttemptLocked(id, token)
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("dropping late generation failure", "id", id, "attempt", token, "error", err)
		return false
	}
	s.finishLocked(id, att)

	msg := client.UserMessage(err)
	if msg == "" {
		msg = "Generation failed."
	}
	now := s.now()
	rec.Status = models.StatusFailed
	rec.ErrorMessage = msg
	rec.UpdatedAt = now
	s.persistLocked(rec, false)
	evt := events.NewStatusEvent(rec, now)
	s.mu.Unlock()

	s.publish(evt)
	return true
}

func (s *generationService) currentAttemptLocked(id string, token uint64) (*attempt, *models.HistoryRecord, bool) {
	att, ok := s.active[id]
	if !ok || att.token != token {
		return nil, nil, false
	}
	rec, ok := s.records[id]
	if !ok {
		s.finishLocked(id, att)
		return nil, nil, false
	}
	return att, rec, true
}

// finishLocked removes an attempt from the active set and releases waiters.
func (s *generationService) finishLocked(id string, att *attempt) {
	delete(s.active, id)
	att.cancel()
	close(att.done)
}

// Cancel stops the generation for id. It reports whether anything changed;
// records already in a terminal state are left alone.
func (s *generationService) Cancel(id string) bool {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if att, active := s.active[id]; active {
		s.finishLocked(id, att)
	} else if !rec.Status.IsActive() {
		s.mu.Unlock()
		return false
	}

	now := s.now()
	rec.Status = models.StatusCancelled
	rec.ErrorMessage = ""
	rec.UpdatedAt = now
	s.persistLocked(rec, false)
	evt := events.NewStatusEvent(rec, now)
	s.mu.Unlock()

	s.publish(evt)
	return true
}

// Retry runs the stored prompt again on the same record. Any record that is
// not currently generating can be retried.
func (s *generationService) Retry(id string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("service: retry %s: %w", id, ErrRecordNotFound)
	}
	if _, busy := s.active[id]; busy {
		s.mu.Unlock()
		return fmt.Errorf("service: retry %s: %w", id, ErrGenerationInProgress)
	}
	if rec.PromptText == "" {
		s.mu.Unlock()
		return fmt.Errorf("service: retry %s: %w", id, ErrEmptyPrompt)
	}

	s.startLocked(rec)
	s.persistLocked(rec, false)
	evt := events.NewStatusEvent(rec, s.now())
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

// CreateDraft adds an empty pending record whose prompt can be filled in once
// with SubmitDraft.
func (s *generationService) CreateDraft() (string, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return "", ErrNotStarted
	}
	rec := models.NewHistoryRecord("", s.now())
	s.records[rec.ID] = rec
	s.persistLocked(rec, true)
	evt := events.NewStatusEvent(rec, s.now())
	s.mu.Unlock()

	s.publish(evt)
	return rec.ID, nil
}

func (s *generationService) SubmitDraft(id, promptText, systemInstruction string) error {
	text := models.NormalizePromptText(promptText)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("service: submit draft %s: %w", id, ErrRecordNotFound)
	}
	if !rec.IsPlaceholder() {
		s.mu.Unlock()
		return fmt.Errorf("service: submit draft %s: %w", id, ErrPromptImmutable)
	}
	if _, busy := s.active[id]; busy {
		s.mu.Unlock()
		return fmt.Errorf("service: submit draft %s: %w", id, ErrGenerationInProgress)
	}

	rec.PromptText = text
	rec.SystemPrompt = systemInstruction
	s.startLocked(rec)
	s.persistLocked(rec, false)
	evt := events.NewStatusEvent(rec, s.now())
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

func (s *generationService) Get(id string) (*models.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("service: get %s: %w", id, ErrRecordNotFound)
	}
	return rec.Clone(), nil
}

// List returns copies of the records, newest first.
func (s *generationService) List(includeArchived bool) []*models.HistoryRecord {
	s.mu.Lock()
	out := make([]*models.HistoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.IsArchived && !includeArchived {
			continue
		}
		out = append(out, rec.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *generationService) ActiveIDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (s *generationService) IsActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// LivePreview returns the text streamed so far by the active attempt.
func (s *generationService) LivePreview(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.active[id]
	if !ok {
		return "", false
	}
	return att.preview, true
}

// Await blocks until id has no active attempt, then returns its record.
func (s *generationService) Await(ctx context.Context, id string) (*models.HistoryRecord, error) {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("service: await %s: %w", id, ErrRecordNotFound)
	}
	att, active := s.active[id]
	s.mu.Unlock()

	if active {
		select {
		case <-att.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Get(id)
}

func (s *generationService) SetArchived(id string, archived bool) error {
	return s.mutate(id, func(rec *models.HistoryRecord) error {
		rec.IsArchived = archived
		return nil
	})
}

func (s *generationService) SetFavorite(id string, favorite bool) error {
	return s.mutate(id, func(rec *models.HistoryRecord) error {
		rec.IsFavorite = favorite
		return nil
	})
}

func (s *generationService) SelectVersion(id string, index int) error {
	return s.mutate(id, func(rec *models.HistoryRecord) error {
		return rec.SelectVersion(index)
	})
}

func (s *generationService) mutate(id string, apply func(*models.HistoryRecord) error) error {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("service: update %s: %w", id, ErrRecordNotFound)
	}
	if err := apply(rec); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("service: update %s: %w", id, err)
	}
	rec.UpdatedAt = s.now()
	s.persistLocked(rec, false)
	evt := events.NewStatusEvent(rec, s.now())
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

// Delete removes the record, cancelling its generation first.
func (s *generationService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("service: delete %s: %w", id, ErrRecordNotFound)
	}
	if att, active := s.active[id]; active {
		s.finishLocked(id, att)
	}
	delete(s.records, id)
	if err := s.repo.Delete(s.persistCtx(), id); err != nil && !errors.Is(err, repositories.ErrHistoryRecordNotFound) {
		s.logger.Error("failed to delete history record", "id", id, "error", err)
	}
	return nil
}

// Reload picks up records written to the store by someone else, such as an
// import. Records already in memory are kept as they are.
func (s *generationService) Reload() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0, ErrNotStarted
	}

	records, err := s.repo.List(s.persistCtx(), repositories.ListOptions{IncludeArchived: true})
	if err != nil {
		return 0, fmt.Errorf("service: reload history: %w", err)
	}
	added := 0
	for _, rec := range records {
		if _, known := s.records[rec.ID]; known {
			continue
		}
		s.adoptLocked(rec)
		added++
	}
	return added, nil
}

// persistLocked writes a copy of rec. Failures are logged; memory stays
// authoritative.
func (s *generationService) persistLocked(rec *models.HistoryRecord, insert bool) {
	snapshot := rec.Clone()
	var err error
	if insert {
		err = s.repo.Insert(s.persistCtx(), snapshot)
	} else {
		err = s.repo.Update(s.persistCtx(), snapshot)
	}
	if err != nil {
		s.logger.Error("failed to persist history record", "id", rec.ID, "status", rec.Status, "error", err)
	}
}

// persistCtx outlives cancellation of the app context so the final writes
// made during shutdown still land.
func (s *generationService) persistCtx() context.Context {
	return context.WithoutCancel(s.ctx)
}

func (s *generationService) publish(evts ...events.GenerationEvent) {
	for _, evt := range evts {
		s.emit(s.ctx, evt)
	}
}
