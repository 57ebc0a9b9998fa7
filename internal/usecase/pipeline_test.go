package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAgent/internal/analysis"
	"ResearchAgent/internal/apperr"
	"ResearchAgent/internal/config"
	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/infrastructure/extractor"
	"ResearchAgent/internal/infrastructure/storage"
)

type staticSettings struct {
	settings domain.UserSettings
	err      error
}

func (s staticSettings) GetSettings(context.Context) (domain.UserSettings, error) {
	return s.settings, s.err
}

type fakeExtractor struct {
	calls      int
	extraction domain.Extraction
}

func (f *fakeExtractor) Extract(context.Context, string) domain.Extraction {
	f.calls++
	return f.extraction
}

type fakeAnalyzer struct {
	content string
	apiKey  string
	result  domain.Analysis
	panics  bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, content, apiKey string) domain.Analysis {
	if f.panics {
		panic("boom")
	}
	f.content = content
	f.apiKey = apiKey
	return f.result
}

type memoryRepo struct {
	mu         sync.Mutex
	results    map[int64]domain.ResearchResult
	nextID     int64
	appendErr  error
	completeEr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{results: map[int64]domain.ResearchResult{}}
}

func (m *memoryRepo) Append(_ context.Context, r domain.ResearchResult) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.nextID++
	r.ID = m.nextID
	m.results[r.ID] = r
	return r.ID, nil
}

func (m *memoryRepo) Complete(_ context.Context, id int64, e domain.Extraction, a domain.Analysis, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeEr != nil {
		return m.completeEr
	}
	r, ok := m.results[id]
	if !ok {
		return domain.ErrResultNotFound
	}
	r.Title, r.ContentType = e.Title, e.ContentType
	r.Summary, r.KeyInsights, r.ActionableItems = a.Summary, a.KeyInsights, a.ActionableItems
	r.Status, r.ProcessedAt = domain.StatusCompleted, &at
	m.results[id] = r
	return nil
}

func (m *memoryRepo) List(context.Context, int) ([]domain.ResearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ResearchResult, 0, len(m.results))
	for id := m.nextID; id > 0; id-- {
		if r, ok := m.results[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (domain.ResearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return domain.ResearchResult{}, domain.ErrResultNotFound
	}
	return r, nil
}

type recordingNotifier struct {
	published []domain.ResearchResult
	err       error
}

func (n *recordingNotifier) PublishResult(_ context.Context, r domain.ResearchResult) error {
	n.published = append(n.published, r)
	return n.err
}

var withKey = staticSettings{settings: domain.UserSettings{APIKey: "sk-test"}}

func TestSubmitRequiresURL(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{Settings: withKey, Repository: newMemoryRepo()})
	_, err := pipeline.Submit(context.Background(), "   ")
	assert.True(t, apperr.Is(err, apperr.ErrInvalidRequest))
}

func TestSubmitMissingCredential(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	ext := &fakeExtractor{}
	pipeline := NewPipeline(PipelineDeps{
		Extractor:  ext,
		Analyzer:   &fakeAnalyzer{},
		Repository: repo,
		Settings:   staticSettings{},
	})

	_, err := pipeline.Submit(context.Background(), "https://example.com")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrMissingCredential))
	assert.Empty(t, repo.results)
	assert.Zero(t, ext.calls)
}

func TestSubmitCompletesRecord(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	ext := &fakeExtractor{extraction: domain.Extraction{Title: "T", Content: "body", ContentType: domain.ContentWebpage}}
	an := &fakeAnalyzer{result: domain.Analysis{Summary: "S", KeyInsights: []string{"i"}, ActionableItems: []string{"a"}}}
	notifier := &recordingNotifier{}
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	pipeline := NewPipeline(PipelineDeps{
		Extractor:  ext,
		Analyzer:   an,
		Repository: repo,
		Settings:   withKey,
		Notifier:   notifier,
		Clock:      func() time.Time { return now },
	})

	out, err := pipeline.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, SubmitOutput{ID: 1, Status: domain.StatusCompleted}, out)

	assert.Equal(t, "body", an.content)
	assert.Equal(t, "sk-test", an.apiKey)

	stored, err := pipeline.GetResult(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, "T", stored.Title)
	assert.Equal(t, "S", stored.Summary)
	require.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, now, *stored.ProcessedAt)

	require.Len(t, notifier.published, 1)
	assert.Equal(t, "S", notifier.published[0].Summary)
}

func TestSubmitNotifierErrorIsIgnored(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{
		Extractor:  &fakeExtractor{extraction: domain.Extraction{Title: "T", ContentType: domain.ContentWebpage}},
		Analyzer:   &fakeAnalyzer{result: domain.Analysis{Summary: "S"}},
		Repository: newMemoryRepo(),
		Settings:   withKey,
		Notifier:   &recordingNotifier{err: errors.New("telegram down")},
	})

	out, err := pipeline.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, out.Status)
}

func TestSubmitPersistenceFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		repo     *memoryRepo
		settings staticSettings
	}{
		{"append", &memoryRepo{results: map[int64]domain.ResearchResult{}, appendErr: errors.New("disk full")}, withKey},
		{"complete", &memoryRepo{results: map[int64]domain.ResearchResult{}, completeEr: errors.New("locked")}, withKey},
		{"settings", newMemoryRepo(), staticSettings{err: errors.New("no table")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pipeline := NewPipeline(PipelineDeps{
				Extractor:  &fakeExtractor{},
				Analyzer:   &fakeAnalyzer{},
				Repository: tt.repo,
				Settings:   tt.settings,
			})
			_, err := pipeline.Submit(context.Background(), "https://example.com")
			assert.True(t, apperr.Is(err, apperr.ErrPersistenceFailure), "got %v", err)
		})
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{
		Extractor:  &fakeExtractor{},
		Analyzer:   &fakeAnalyzer{panics: true},
		Repository: newMemoryRepo(),
		Settings:   withKey,
	})

	_, err := pipeline.Submit(context.Background(), "https://example.com")
	assert.True(t, apperr.Is(err, apperr.ErrSubmissionFailed))
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := NewPipeline(PipelineDeps{
		Extractor:  &fakeExtractor{extraction: domain.Extraction{Title: "T", ContentType: domain.ContentWebpage}},
		Analyzer:   &fakeAnalyzer{result: domain.Analysis{Summary: "S"}},
		Repository: newMemoryRepo(),
		Settings:   withKey,
	})

	out, err := pipeline.Submit(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, out.Status)
}

func TestGetResultNotFound(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(PipelineDeps{Repository: newMemoryRepo()})
	_, err := pipeline.GetResult(context.Background(), 7)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

type replyCompleter string

func (r replyCompleter) Complete(context.Context, string, string) (string, error) {
	return string(r), nil
}

func newSQLitePipeline(t *testing.T, reply string) (*Pipeline, *storage.Store) {
	t.Helper()

	store, err := storage.Open(context.Background(), config.DriverSQLite, filepath.Join(t.TempDir(), "research.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.SaveSettings(context.Background(), domain.UserSettings{APIKey: "sk-test"}))

	pipeline := NewPipeline(PipelineDeps{
		Extractor:  extractor.New(nil, extractor.Options{Timeout: 2 * time.Second}, nil),
		Analyzer:   analysis.New(replyCompleter(reply), analysis.Options{}, nil),
		Repository: store,
		Settings:   store,
	})
	return pipeline, store
}

func TestSubmitExamplePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Example Domain</title></head><body>This domain is for examples.</body></html>"))
	}))
	defer server.Close()

	pipeline, _ := newSQLitePipeline(t, `{"summary":"S","key_insights":["i1","i2","i3"],"actionable_items":["a1","a2"]}`)

	out, err := pipeline.Submit(context.Background(), server.URL)
	require.NoError(t, err)

	got, err := pipeline.GetResult(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", got.Title)
	assert.Equal(t, domain.ContentWebpage, got.ContentType)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "S", got.Summary)
	assert.Equal(t, []string{"i1", "i2", "i3"}, got.KeyInsights)
	assert.Equal(t, []string{"a1", "a2"}, got.ActionableItems)
	assert.NotNil(t, got.ProcessedAt)
}

func TestSubmitUnreachableStillCompletes(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	pipeline, _ := newSQLitePipeline(t, "not json")

	out, err := pipeline.Submit(context.Background(), url)
	require.NoError(t, err)

	got, err := pipeline.GetResult(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentError, got.ContentType)
	assert.Equal(t, domain.ExtractionErrorTitle, got.Title)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "not json", got.Summary)
	assert.Equal(t, []string{"Analysis completed"}, got.KeyInsights)
	assert.Equal(t, []string{"Review the content"}, got.ActionableItems)

	listed, err := pipeline.ListResults(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, out.ID, listed[0].ID)
}
