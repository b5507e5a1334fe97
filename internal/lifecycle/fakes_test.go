package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"componentlab/internal/domain"
	"componentlab/internal/providers/generation"
)

// memoryStore is an in-memory domain.PromptRepository.
type memoryStore struct {
	mu      sync.Mutex
	prompts map[string]*domain.Prompt
	clock   time.Time
	failOn  map[string]error
	calls   []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		prompts: map[string]*domain.Prompt{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		failOn:  map[string]error{},
	}
}

func (s *memoryStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memoryStore) record(op, id string) error {
	s.calls = append(s.calls, op+":"+id)
	if err, ok := s.failOn[op+":"+id]; ok {
		return &domain.StoreError{Op: op, Err: err}
	}
	if err, ok := s.failOn[op]; ok {
		return &domain.StoreError{Op: op, Err: err}
	}
	return nil
}

func (s *memoryStore) add(id, text string) *domain.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	p := &domain.Prompt{
		ID:         id,
		OwnerID:    "user-1",
		PromptText: text,
		Title:      text,
		Status:     domain.PromptStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.prompts[id] = p
	return p
}

func (s *memoryStore) get(id string) domain.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.prompts[id]
}

func (s *memoryStore) Create(ctx context.Context, np domain.NewPrompt) (*domain.Prompt, bool, error) {
	return nil, false, errors.New("not used")
}

func (s *memoryStore) ListForOwner(ctx context.Context, ownerID string) ([]domain.Prompt, error) {
	return nil, errors.New("not used")
}

func (s *memoryStore) FindForOwner(ctx context.Context, id, ownerID string) (*domain.Prompt, error) {
	return nil, errors.New("not used")
}

func (s *memoryStore) FindBySlugForOwner(ctx context.Context, slug, ownerID string) (*domain.Prompt, error) {
	return nil, errors.New("not used")
}

func (s *memoryStore) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.Prompt, error) {
	return nil, errors.New("not used")
}

func (s *memoryStore) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	return 0, errors.New("not used")
}

func (s *memoryStore) ListEligibleForBuild(ctx context.Context, limit, maxAttempts int) ([]domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("list", ""); err != nil {
		return nil, err
	}
	var out []domain.Prompt
	for _, p := range s.prompts {
		switch p.Status {
		case domain.PromptStatusPending, domain.PromptStatusBuilding:
			out = append(out, *p)
		case domain.PromptStatusFailed:
			if maxAttempts <= 0 || p.AttemptCount < maxAttempts {
				out = append(out, *p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) MarkBuilding(ctx context.Context, id string, handle *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("mark_building", id); err != nil {
		return err
	}
	p := s.prompts[id]
	p.Status = domain.PromptStatusBuilding
	p.AttemptCount++
	if handle != nil {
		h := *handle
		p.GenerationHandle = &h
	}
	p.UpdatedAt = s.tick()
	return nil
}

func (s *memoryStore) SaveGeneration(ctx context.Context, id string, handle *string, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("save_generation", id); err != nil {
		return err
	}
	p := s.prompts[id]
	p.GenerationHandle = nil
	if handle != nil {
		h := *handle
		p.GenerationHandle = &h
	}
	p.GeneratedSource = &source
	p.UpdatedAt = s.tick()
	return nil
}

func (s *memoryStore) MarkFailed(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("mark_failed", id); err != nil {
		return err
	}
	p := s.prompts[id]
	p.Status = domain.PromptStatusFailed
	r := domain.TruncateReason(reason)
	p.FailureReason = &r
	p.UpdatedAt = s.tick()
	return nil
}

func (s *memoryStore) SaveBuildResult(ctx context.Context, id string, result domain.BuildResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("save_build_result", id); err != nil {
		return err
	}
	p := s.prompts[id]
	p.Status = domain.PromptStatusReady
	src, artifact := result.Source, result.CompiledArtifact
	p.GeneratedSource = &src
	p.CompiledArtifact = &artifact
	if p.PreviewSlug == nil {
		slug := result.PreviewSlug
		p.PreviewSlug = &slug
	}
	cfg := result.SandboxConfig
	p.SandboxConfig = &cfg
	p.FailureReason = nil
	p.UpdatedAt = s.tick()
	return nil
}

type recordedEvent struct {
	promptID string
	level    domain.EventLevel
	message  string
	fields   map[string]any
}

type memoryEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *memoryEvents) Record(ctx context.Context, promptID string, level domain.EventLevel, message string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{promptID: promptID, level: level, message: message, fields: fields})
}

func (m *memoryEvents) ListRecent(ctx context.Context, promptID string, limit int) ([]domain.PromptEvent, error) {
	return nil, nil
}

func (m *memoryEvents) ListRecentForMany(ctx context.Context, ids []string, limit int) (map[string][]domain.PromptEvent, error) {
	return nil, nil
}

func (m *memoryEvents) forPrompt(id string) []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedEvent
	for _, e := range m.events {
		if e.promptID == id {
			out = append(out, e)
		}
	}
	return out
}

func (m *memoryEvents) messages(id string) []string {
	var out []string
	for _, e := range m.forPrompt(id) {
		out = append(out, e.message)
	}
	return out
}

// fakeGenerator answers per prompt text.
type fakeGenerator struct {
	configured bool
	configErr  error
	results    map[string]*generation.Result
	errs       map[string]error
	panics     map[string]bool
	handles    []*string
	calls      int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		configured: true,
		results:    map[string]*generation.Result{},
		errs:       map[string]error{},
		panics:     map[string]bool{},
	}
}

func (g *fakeGenerator) Configured(context.Context) (bool, error) {
	if g.configErr != nil {
		return false, g.configErr
	}
	return g.configured, nil
}

func (g *fakeGenerator) Generate(ctx context.Context, text string, handle *string) (*generation.Result, error) {
	g.calls++
	g.handles = append(g.handles, handle)
	if g.panics[text] {
		panic("generator exploded")
	}
	if err, ok := g.errs[text]; ok {
		return nil, err
	}
	if res, ok := g.results[text]; ok {
		return res, nil
	}
	return &generation.Result{Handle: "resp_" + text, Source: "export default function App(){return null;}"}, nil
}

type fakeCompiler struct {
	err   error
	calls int
}

func (c *fakeCompiler) Compile(ctx context.Context, source string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "module.exports = " + `"` + source + `";`, nil
}

type fakeMirror struct {
	written map[string]string
	err     error
}

func (m *fakeMirror) WritePreview(ctx context.Context, slug, artifact string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.written == nil {
		m.written = map[string]string{}
	}
	m.written[slug] = artifact
	return "previews/" + slug + ".js", nil
}
