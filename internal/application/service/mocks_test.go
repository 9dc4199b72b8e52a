package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
)

// mockEngagementRepo keeps engagements in memory with the same version rules as the sqlite repository
type mockEngagementRepo struct {
	mu     sync.Mutex
	byRef  map[string]*entity.Engagement
	nextID int64

	createFunc          func(ctx context.Context, e *entity.Engagement) error
	applyTransitionFunc func(ctx context.Context, id, expectedVersion int64, status, remarks string) error
}

func newMockEngagementRepo(seed ...*entity.Engagement) *mockEngagementRepo {
	r := &mockEngagementRepo{byRef: make(map[string]*entity.Engagement)}
	for _, e := range seed {
		r.nextID++
		stored := e.Clone()
		stored.ID = r.nextID
		if stored.Version == 0 {
			stored.Version = 1
		}
		r.byRef[stored.Reference] = &stored
	}
	return r
}

func (m *mockEngagementRepo) Create(ctx context.Context, e *entity.Engagement) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRef[e.Reference]; ok {
		return fmt.Errorf("%w: %s", port.ErrDuplicateReference, e.Reference)
	}
	m.nextID++
	e.ID = m.nextID
	e.Version = 1
	stored := e.Clone()
	m.byRef[e.Reference] = &stored
	return nil
}

func (m *mockEngagementRepo) GetByReference(ctx context.Context, reference string) (*entity.Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byRef[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", port.ErrEngagementNotFound, reference)
	}
	out := e.Clone()
	return &out, nil
}

func (m *mockEngagementRepo) List(ctx context.Context, filter port.EngagementFilter) ([]*entity.Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Engagement
	for _, e := range m.byRef {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		c := e.Clone()
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockEngagementRepo) UpdateDetails(ctx context.Context, e *entity.Engagement, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byRef[e.Reference]
	if !ok {
		return port.ErrEngagementNotFound
	}
	if stored.Version != expectedVersion {
		return port.ErrVersionConflict
	}
	next := e.Clone()
	next.Status = stored.Status
	next.Remarks = stored.Remarks
	next.Version = expectedVersion + 1
	m.byRef[e.Reference] = &next
	e.Version = next.Version
	return nil
}

func (m *mockEngagementRepo) ApplyTransition(ctx context.Context, id, expectedVersion int64, status, remarks string) error {
	if m.applyTransitionFunc != nil {
		return m.applyTransitionFunc(ctx, id, expectedVersion, status, remarks)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byRef {
		if e.ID != id {
			continue
		}
		if e.Version != expectedVersion {
			return port.ErrVersionConflict
		}
		e.Status = status
		e.Remarks = remarks
		e.Version++
		return nil
	}
	return port.ErrEngagementNotFound
}

func (m *mockEngagementRepo) ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*entity.Engagement, error) {
	return nil, nil
}

type mockHistoryRepo struct {
	mu         sync.Mutex
	records    []*entity.TransitionHistory
	createFunc func(ctx context.Context, history *entity.TransitionHistory) error
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.TransitionHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, history)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	history.ID = int64(len(m.records) + 1)
	m.records = append(m.records, history)
	return nil
}

func (m *mockHistoryRepo) GetByEngagementID(ctx context.Context, engagementID int64) ([]*entity.TransitionHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TransitionHistory
	for _, h := range m.records {
		if h.EngagementID == engagementID {
			out = append(out, h)
		}
	}
	return out, nil
}

type mockTemplateRepo struct {
	templates  map[string]*entity.DocumentTemplate
	upsertFunc func(ctx context.Context, t *entity.DocumentTemplate) error
}

func newMockTemplateRepo(templates ...*entity.DocumentTemplate) *mockTemplateRepo {
	r := &mockTemplateRepo{templates: make(map[string]*entity.DocumentTemplate)}
	for _, t := range templates {
		r.templates[t.Name] = t
	}
	return r
}

func (m *mockTemplateRepo) Upsert(ctx context.Context, t *entity.DocumentTemplate) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, t)
	}
	stored := *t
	m.templates[t.Name] = &stored
	return nil
}

func (m *mockTemplateRepo) GetByName(ctx context.Context, name string) (*entity.DocumentTemplate, error) {
	t, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", port.ErrTemplateNotFound, name)
	}
	out := *t
	return &out, nil
}

func (m *mockTemplateRepo) List(ctx context.Context) ([]*entity.DocumentTemplate, error) {
	var out []*entity.DocumentTemplate
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// mockTxManager runs fn directly, without rollback
type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls               int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (p *recordingPublisher) Dispatch(ctx context.Context, evt *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingMetrics struct {
	transitions   map[string]int
	renders       int
	unresolved    int
	overdue       int
	notifications map[bool]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{transitions: make(map[string]int), notifications: make(map[bool]int)}
}

func (m *recordingMetrics) RecordTransition(action, outcome string) {
	m.transitions[action+"/"+outcome]++
}

func (m *recordingMetrics) RecordRender(template string, unresolved int) {
	m.renders++
	m.unresolved += unresolved
}

func (m *recordingMetrics) RecordOverdue() { m.overdue++ }

func (m *recordingMetrics) RecordNotification(sent bool) { m.notifications[sent]++ }

type mockArchive struct {
	saved map[string][]byte
}

func (m *mockArchive) Save(ctx context.Context, reference, fileName string, content []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	path := reference + "/" + fileName
	m.saved[path] = content
	return path, nil
}

func (m *mockArchive) List(ctx context.Context, reference string) ([]string, error) {
	var names []string
	for path := range m.saved {
		names = append(names, path)
	}
	sort.Strings(names)
	return names, nil
}
