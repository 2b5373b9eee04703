package services_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

// memorySceneRepository is an in-memory SceneRepository
type memorySceneRepository struct {
	mu     sync.Mutex
	scenes map[int64]*entities.Scene
	nextID int64
	// malformed IDs are reported as skipped by ListAfter
	malformed map[int64]bool
}

func newMemorySceneRepository(scenes ...*entities.Scene) *memorySceneRepository {
	repo := &memorySceneRepository{scenes: make(map[int64]*entities.Scene), malformed: make(map[int64]bool)}
	for _, s := range scenes {
		_ = repo.Save(context.Background(), s)
	}
	return repo
}

func (r *memorySceneRepository) Save(ctx context.Context, scene *entities.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.scenes {
		if existing.Title == scene.Title && id != scene.ID {
			return apperrors.NewConflictError("duplicate title", nil)
		}
	}
	if scene.ID == 0 {
		r.nextID++
		scene.ID = r.nextID
	} else if _, ok := r.scenes[scene.ID]; !ok {
		return apperrors.NewNotFoundError("scene not found")
	}
	copied := *scene
	r.scenes[scene.ID] = &copied
	return nil
}

func (r *memorySceneRepository) GetByID(ctx context.Context, id int64) (*entities.Scene, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scene, ok := r.scenes[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("scene not found")
	}
	copied := *scene
	return &copied, nil
}

func (r *memorySceneRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenes[id]; !ok {
		return apperrors.NewNotFoundError("scene not found")
	}
	delete(r.scenes, id)
	return nil
}

func (r *memorySceneRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.scenes))
	for id := range r.scenes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *memorySceneRepository) ListAfter(ctx context.Context, afterID int64, limit int) (*repositories.ScenePage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page := &repositories.ScenePage{LastID: afterID, Scenes: []*entities.Scene{}}
	for _, id := range r.sortedIDs() {
		if id <= afterID {
			continue
		}
		if page.Scanned == limit {
			break
		}
		page.Scanned++
		page.LastID = id
		if r.malformed[id] {
			page.Skipped++
			continue
		}
		copied := *r.scenes[id]
		page.Scenes = append(page.Scenes, &copied)
	}
	return page, nil
}

func (r *memorySceneRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.scenes)), nil
}

func (r *memorySceneRepository) MatchFieldValues(ctx context.Context, field, query string, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	values := []string{}
	for _, id := range r.sortedIDs() {
		v := r.scenes[id].FieldValue(field)
		if v == "" || seen[v] || !strings.Contains(strings.ToLower(v), strings.ToLower(query)) {
			continue
		}
		seen[v] = true
		values = append(values, v)
		if len(values) == limit {
			break
		}
	}
	return values, nil
}

func (r *memorySceneRepository) Search(ctx context.Context, query string, limit, offset int) ([]*entities.Scene, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	var matches []*entities.Scene
	for _, id := range r.sortedIDs() {
		s := r.scenes[id]
		text := strings.ToLower(strings.Join([]string{s.Title, s.Country, s.Setting, s.Emotion, s.FullText}, " "))
		if strings.Contains(text, q) {
			matches = append(matches, s)
		}
	}
	total := len(matches)
	if offset >= total {
		return []*entities.Scene{}, total, nil
	}
	end := min(offset+limit, total)
	return matches[offset:end], total, nil
}

// memorySuggestionRepository is an in-memory SuggestionRepository that keeps
// (term, category) unique the way the database constraint does
type memorySuggestionRepository struct {
	mu     sync.Mutex
	rows   map[entities.SuggestionKey]*entities.Suggestion
	nextID int64
	clock  time.Time
	// incrementCalls counts Increment round trips
	incrementCalls int
}

func newMemorySuggestionRepository() *memorySuggestionRepository {
	return &memorySuggestionRepository{
		rows:  make(map[entities.SuggestionKey]*entities.Suggestion),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memorySuggestionRepository) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memorySuggestionRepository) add(term string, category entities.Category, by int) *entities.Suggestion {
	key := entities.SuggestionKey{Term: term, Category: category}
	now := r.tick()
	row, ok := r.rows[key]
	if !ok {
		r.nextID++
		row = &entities.Suggestion{ID: r.nextID, Term: term, Category: category, CreatedAt: now}
		r.rows[key] = row
	}
	row.Frequency += by
	row.LastUsed = now
	return row
}

// seed inserts a row with explicit values
func (r *memorySuggestionRepository) seed(term string, category entities.Category, frequency int, lastUsed time.Time) *entities.Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.add(term, category, frequency)
	row.LastUsed = lastUsed
	return row
}

func (r *memorySuggestionRepository) get(term string, category entities.Category) *entities.Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[entities.SuggestionKey{Term: term, Category: category}]
	if !ok {
		return nil
	}
	copied := *row
	return &copied
}

func (r *memorySuggestionRepository) frequencies() map[entities.SuggestionKey]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[entities.SuggestionKey]int, len(r.rows))
	for key, row := range r.rows {
		out[key] = row.Frequency
	}
	return out
}

func (r *memorySuggestionRepository) Increment(ctx context.Context, term string, category entities.Category, by int) (*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incrementCalls++
	copied := *r.add(term, category, by)
	return &copied, nil
}

func (r *memorySuggestionRepository) BulkInsert(ctx context.Context, rows []repositories.SuggestionDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range rows {
		r.add(d.Term, d.Category, d.Amount)
	}
	return nil
}

func (r *memorySuggestionRepository) byID(id int64) *entities.Suggestion {
	for _, row := range r.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (r *memorySuggestionRepository) BulkIncrement(ctx context.Context, updates []repositories.FrequencyUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		if row := r.byID(u.ID); row != nil {
			row.Frequency += u.Value
			row.LastUsed = r.tick()
		}
	}
	return nil
}

func (r *memorySuggestionRepository) BulkSetFrequency(ctx context.Context, updates []repositories.FrequencyUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		if row := r.byID(u.ID); row != nil {
			row.Frequency = u.Value
			row.LastUsed = r.tick()
		}
	}
	return nil
}

func (r *memorySuggestionRepository) Keys(ctx context.Context) (map[entities.SuggestionKey]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make(map[entities.SuggestionKey]int64, len(r.rows))
	for key, row := range r.rows {
		keys[key] = row.ID
	}
	return keys, nil
}

func (r *memorySuggestionRepository) sorted() []*entities.Suggestion {
	all := make([]*entities.Suggestion, 0, len(r.rows))
	for _, row := range r.rows {
		copied := *row
		all = append(all, &copied)
	}
	return all
}

func (r *memorySuggestionRepository) Search(ctx context.Context, filter repositories.SuggestionFilter) ([]*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Suggestion
	for _, row := range r.sorted() {
		if !strings.Contains(row.Term, strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Category != nil && row.Category != *filter.Category {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if !out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].LastUsed.After(out[j].LastUsed)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	if out == nil {
		out = []*entities.Suggestion{}
	}
	return out, nil
}

func (r *memorySuggestionRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := []*entities.Suggestion{}
	for _, row := range all {
		if row.ID > afterID {
			out = append(out, row)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memorySuggestionRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if row := r.byID(id); row != nil {
			delete(r.rows, row.Key())
			deleted++
		}
	}
	return deleted, nil
}

func (r *memorySuggestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.rows))
	r.rows = make(map[entities.SuggestionKey]*entities.Suggestion)
	return n, nil
}

func (r *memorySuggestionRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *memorySuggestionRepository) CategoryStats(ctx context.Context) ([]entities.CategoryStat, error) {
	return []entities.CategoryStat{}, nil
}

// MockSuggestionRepository is a testify mock for failure paths
type MockSuggestionRepository struct {
	mock.Mock
}

func (m *MockSuggestionRepository) Increment(ctx context.Context, term string, category entities.Category, by int) (*entities.Suggestion, error) {
	args := m.Called(ctx, term, category, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Suggestion), args.Error(1)
}

func (m *MockSuggestionRepository) BulkInsert(ctx context.Context, rows []repositories.SuggestionDelta) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *MockSuggestionRepository) BulkIncrement(ctx context.Context, updates []repositories.FrequencyUpdate) error {
	return m.Called(ctx, updates).Error(0)
}

func (m *MockSuggestionRepository) BulkSetFrequency(ctx context.Context, updates []repositories.FrequencyUpdate) error {
	return m.Called(ctx, updates).Error(0)
}

func (m *MockSuggestionRepository) Keys(ctx context.Context) (map[entities.SuggestionKey]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entities.SuggestionKey]int64), args.Error(1)
}

func (m *MockSuggestionRepository) Search(ctx context.Context, filter repositories.SuggestionFilter) ([]*entities.Suggestion, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Suggestion), args.Error(1)
}

func (m *MockSuggestionRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.Suggestion, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Suggestion), args.Error(1)
}

func (m *MockSuggestionRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSuggestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSuggestionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSuggestionRepository) CategoryStats(ctx context.Context) ([]entities.CategoryStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.CategoryStat), args.Error(1)
}

var errStoreDown = errors.New("connection refused")

// MockCacheProvider is a map-backed cache with glob deletes
type MockCacheProvider struct {
	mu       sync.RWMutex
	data     map[string][]byte
	deleted  []string
	patterns []string
	failGet  bool
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failGet {
		return nil, fmt.Errorf("cache unavailable")
	}
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, fmt.Errorf("cache miss: %s", key)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	for key := range m.data {
		if globMatch(pattern, key) {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockCacheProvider) DeletedKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

func (m *MockCacheProvider) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.patterns...)
}

// MockEventBus delivers published events to local subscribers
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.SceneEvent
	published   []*entities.SceneEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{subscribers: make(map[string][]chan *entities.SceneEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.SceneEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SceneEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.SceneEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) Published() []*entities.SceneEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.SceneEvent(nil), m.published...)
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

// globMatch matches redis-style patterns where * spans any characters
func globMatch(pattern, key string) bool {
	re := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	return regexp.MustCompile(re).MatchString(key)
}
