package extraction

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/persistence/memory"
	"cookclip/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscripts struct {
	calls int32
	text  string
	err   error
}

func (f *fakeTranscripts) Fetch(_ context.Context, url, _ string) (*Transcript, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	platform, err := DetectPlatform(url)
	if err != nil {
		return nil, err
	}
	return &Transcript{Text: f.text, Platform: platform}, nil
}

type fakeThumbnails struct {
	calls int32
}

func (f *fakeThumbnails) Resolve(_ context.Context, _ string, category recipe.Category, _ string) string {
	atomic.AddInt32(&f.calls, 1)
	return FallbackThumbnail(category)
}

const pastaJSON = `{"title":"Pasta","servings":2,"category":"Pasta",
	"ingredients":[{"name":"spaghetti","quantity":"200","unit":"g"},{"name":"garlic","quantity":"2","unit":"cloves"}],
	"steps":[{"order":1,"description":"Boil the spaghetti.","highlightedWords":["spaghetti"]}]}`

func staticProvider(content string, calls *int32) provider.Provider {
	return provider.Func(func(_ context.Context, _ *provider.Request) (*provider.Response, error) {
		atomic.AddInt32(calls, 1)
		return &provider.Response{Content: content}, nil
	})
}

func TestAnalyzeMissThenHit(t *testing.T) {
	store := memory.NewRecipeStore()
	transcripts := &fakeTranscripts{text: "boil the spaghetti, add garlic"}
	thumbs := &fakeThumbnails{}
	var aiCalls int32
	p := NewPipeline(store, transcripts, NewParser(staticProvider(pastaJSON, &aiCalls)), thumbs)

	first, err := p.Analyze(context.Background(), "https://youtube.com/watch?v=ABC", "")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "Pasta", first.Recipe.Title)
	assert.Equal(t, recipe.PlatformYouTube, first.Recipe.Platform)
	assert.Equal(t, FallbackThumbnail(recipe.CategoryPasta), first.Recipe.ThumbnailURL)
	assert.Equal(t, Fingerprint("https://youtube.com/watch?v=ABC"), first.Recipe.Fingerprint)
	assert.NotEmpty(t, first.Recipe.ID)

	second, err := p.Analyze(context.Background(), "https://youtube.com/watch?v=ABC/", "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Recipe.ID, second.Recipe.ID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&transcripts.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&aiCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&thumbs.calls))
}

func TestAnalyzePassesLanguageToParser(t *testing.T) {
	var seen string
	prov := provider.Func(func(_ context.Context, req *provider.Request) (*provider.Response, error) {
		seen = req.Messages[len(req.Messages)-1].Content
		assert.True(t, req.JSONMode)
		return &provider.Response{Content: pastaJSON}, nil
	})
	p := NewPipeline(memory.NewRecipeStore(), &fakeTranscripts{text: "hola"}, NewParser(prov), &fakeThumbnails{})

	_, err := p.Analyze(context.Background(), "https://tiktok.com/@x/video/1", "es")
	require.NoError(t, err)
	assert.True(t, strings.Contains(seen, `"es"`))
	assert.True(t, strings.Contains(seen, "hola"))
}

func TestAnalyzeUnsupportedPlatformMakesNoCalls(t *testing.T) {
	transcripts := &fakeTranscripts{text: "x"}
	thumbs := &fakeThumbnails{}
	var aiCalls int32
	p := NewPipeline(memory.NewRecipeStore(), transcripts, NewParser(staticProvider(pastaJSON, &aiCalls)), thumbs)

	_, err := p.Analyze(context.Background(), "https://vimeo.com/123", "en")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeUnsupportedPlatform))
	assert.Zero(t, atomic.LoadInt32(&transcripts.calls))
	assert.Zero(t, atomic.LoadInt32(&aiCalls))
	assert.Zero(t, atomic.LoadInt32(&thumbs.calls))
}

func TestAnalyzeTranscriptFailureIsFatal(t *testing.T) {
	store := memory.NewRecipeStore()
	var aiCalls int32
	p := NewPipeline(store,
		&fakeTranscripts{err: common.UpstreamFetch("no transcript found in video", nil)},
		NewParser(staticProvider(pastaJSON, &aiCalls)),
		&fakeThumbnails{},
	)

	_, err := p.Analyze(context.Background(), "https://youtu.be/abc", "en")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeUpstreamFetch))
	assert.Zero(t, atomic.LoadInt32(&aiCalls))

	_, err = store.GetByFingerprint(context.Background(), Fingerprint("https://youtu.be/abc"))
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestAnalyzeParseFailurePersistsNothing(t *testing.T) {
	store := memory.NewRecipeStore()
	thumbs := &fakeThumbnails{}
	var aiCalls int32
	p := NewPipeline(store, &fakeTranscripts{text: "x"}, NewParser(staticProvider(`{"title":"no steps"}`, &aiCalls)), thumbs)

	_, err := p.Analyze(context.Background(), "https://youtu.be/abc", "en")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeExtractionParse))
	assert.Zero(t, atomic.LoadInt32(&thumbs.calls))

	_, err = store.GetByFingerprint(context.Background(), Fingerprint("https://youtu.be/abc"))
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestAnalyzeProviderErrorIsParseError(t *testing.T) {
	prov := provider.Func(func(context.Context, *provider.Request) (*provider.Response, error) {
		return nil, errors.New("rate limited")
	})
	p := NewPipeline(memory.NewRecipeStore(), &fakeTranscripts{text: "x"}, NewParser(prov), &fakeThumbnails{})

	_, err := p.Analyze(context.Background(), "https://youtu.be/abc", "en")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeExtractionParse))
}

// racingStore 模擬另一個請求在 PERSIST 之前搶先寫入同一指紋
type racingStore struct {
	*memory.RecipeStore
	winnerID string
}

func (s *racingStore) Put(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	winner := *r
	winner.Title = "winner"
	saved, err := s.RecipeStore.Put(ctx, &winner)
	if err != nil {
		return nil, err
	}
	s.winnerID = saved.ID
	return s.RecipeStore.Put(ctx, r)
}

func TestAnalyzeConflictReturnsCanonicalRow(t *testing.T) {
	store := &racingStore{RecipeStore: memory.NewRecipeStore()}
	var aiCalls int32
	p := NewPipeline(store, &fakeTranscripts{text: "x"}, NewParser(staticProvider(pastaJSON, &aiCalls)), &fakeThumbnails{})

	res, err := p.Analyze(context.Background(), "https://instagram.com/reel/abc", "en")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, store.winnerID, res.Recipe.ID)
	assert.Equal(t, "winner", res.Recipe.Title)
}

func TestAnalyzeRequiresURL(t *testing.T) {
	p := NewPipeline(memory.NewRecipeStore(), &fakeTranscripts{}, NewParser(provider.Func(nil)), &fakeThumbnails{})
	_, err := p.Analyze(context.Background(), "  ", "en")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeValidation))
}
