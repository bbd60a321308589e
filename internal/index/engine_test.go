package index

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mojitote/docsearch/internal/storage"
	"github.com/mojitote/docsearch/pkg/config"
	apperrors "github.com/mojitote/docsearch/pkg/errors"
)

func testConfig() config.IndexConfig {
	return config.IndexConfig{
		DefaultLimit:  10,
		MaxResults:    100,
		SnippetLength: 200,
		CacheSize:     64,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testConfig(), nil)
}

func TestAddDocumentValidation(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.AddDocument("", "some content", "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = e.AddDocument("d1", "", "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = e.AddDocument("d1", "   ", "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = e.AddDocument("d1", "!!! ...", "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Equal(t, 0, e.Stats().DocumentCount)
}

func TestAddDocumentTokenCount(t *testing.T) {
	e := newTestEngine(t)

	doc, err := e.AddDocument("d1", "python python fastapi", "Title", "Author")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
	assert.Equal(t, 3, doc.TokenCount)
	assert.Equal(t, "Title", doc.Title)
	assert.Equal(t, "Author", doc.Author)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

// Every term of an indexed document must be findable (recall property).
func TestSearchRecall(t *testing.T) {
	e := newTestEngine(t)
	content := "the quick brown fox jumps over the lazy dog"
	_, err := e.AddDocument("d1", content, "", "")
	require.NoError(t, err)

	for _, term := range strings.Fields(content) {
		results, err := e.Search(term, 0)
		require.NoError(t, err)
		require.Len(t, results, 1, "term %q", term)
		assert.Equal(t, "d1", results[0].DocID)
	}
}

func TestSearchScoreNormalizedTermFrequency(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "python python fastapi", "", "")
	require.NoError(t, err)

	results, err := e.Search("python", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
	assert.InDelta(t, 2.0/3.0, results[0].Score, 0.0001)
}

func TestSearchRankingDescending(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "python python fastapi", "", "")
	require.NoError(t, err)
	_, err = e.AddDocument("d2", "fastapi framework", "", "")
	require.NoError(t, err)

	results, err := e.Search("fastapi", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d2", results[0].DocID)
	assert.InDelta(t, 0.5, results[0].Score, 0.0001)
	assert.Equal(t, "d1", results[1].DocID)
	assert.InDelta(t, 1.0/3.0, results[1].Score, 0.0001)
}

func TestSearchTieBreakByDocID(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		_, err := e.AddDocument(id, "shared term", "", "")
		require.NoError(t, err)
	}

	results, err := e.Search("shared", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "alpha", results[0].DocID)
	assert.Equal(t, "mid", results[1].DocID)
	assert.Equal(t, "zeta", results[2].DocID)
}

func TestSearchMultiTermAccumulates(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "go concurrency patterns go", "", "")
	require.NoError(t, err)

	results, err := e.Search("go patterns", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	// (2 + 1) / 4 tokens
	assert.InDelta(t, 0.75, results[0].Score, 0.0001)
}

func TestSearchDuplicateQueryTermsCountOnce(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "python python fastapi", "", "")
	require.NoError(t, err)

	once, err := e.Search("python", 0)
	require.NoError(t, err)
	twice, err := e.Search("python python", 0)
	require.NoError(t, err)
	assert.Equal(t, once[0].Score, twice[0].Score)
}

func TestSearchNoMatch(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "some indexed content", "", "")
	require.NoError(t, err)

	results, err := e.Search("nonexistent", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmptyQueryAndEmptyIndex(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.Search("", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = e.Search("anything", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimit(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 20; i++ {
		_, err := e.AddDocument(fmt.Sprintf("d%02d", i), "common term", "", "")
		require.NoError(t, err)
	}

	results, err := e.Search("common", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// limit 0 falls back to the configured default
	results, err = e.Search("common", 0)
	require.NoError(t, err)
	assert.Len(t, results, 10)

	_, err = e.Search("common", -1)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSearchLimitClampedToMaxResults(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResults = 3
	cfg.DefaultLimit = 2
	e := NewEngine(cfg, nil)
	for i := 0; i < 10; i++ {
		_, err := e.AddDocument(fmt.Sprintf("d%d", i), "common term", "", "")
		require.NoError(t, err)
	}

	results, err := e.Search("common", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchQueryNormalizationMatchesIndexing(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "Inverted-Index Search!", "", "")
	require.NoError(t, err)

	results, err := e.Search("INVERTED index", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
}

func TestSearchSnippet(t *testing.T) {
	cfg := testConfig()
	cfg.SnippetLength = 10
	e := NewEngine(cfg, nil)

	_, err := e.AddDocument("short", "tiny text", "", "")
	require.NoError(t, err)
	_, err = e.AddDocument("long", "this content is much longer than ten runes", "", "")
	require.NoError(t, err)

	results, err := e.Search("tiny", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tiny text", results[0].Snippet)

	results, err = e.Search("longer", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "this conte...", results[0].Snippet)
}

func TestReAddReplacesPostings(t *testing.T) {
	e := newTestEngine(t)
	first, err := e.AddDocument("d1", "oldterm exclusive", "", "")
	require.NoError(t, err)

	second, err := e.AddDocument("d1", "newterm fresh", "New Title", "")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	// old-only terms must no longer match
	results, err := e.Search("oldterm", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = e.Search("newterm", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)

	// frequencies replaced, never merged
	stats := e.Stats()
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, 2, stats.TermCount)
	assert.Equal(t, 2, stats.TotalPostings)
}

func TestRemoveDocument(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "exclusive singular", "", "")
	require.NoError(t, err)
	_, err = e.AddDocument("d2", "shared exclusive2", "", "")
	require.NoError(t, err)

	assert.True(t, e.RemoveDocument("d1"))
	assert.False(t, e.RemoveDocument("d1"))
	assert.False(t, e.RemoveDocument("never-existed"))

	results, err := e.Search("singular", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	// terms left without documents disappear from stats
	stats := e.Stats()
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, 2, stats.TermCount)
}

func TestGetDocument(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "some content", "Title", "Author")
	require.NoError(t, err)

	doc, err := e.GetDocument("d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
	assert.Equal(t, "some content", doc.Content)

	_, err = e.GetDocument("absent")
	require.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestStatsIsACopy(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "alpha beta", "", "")
	require.NoError(t, err)

	before := e.Stats()
	_, err = e.AddDocument("d2", "gamma", "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, before.DocumentCount)
	assert.Equal(t, 2, e.Stats().DocumentCount)
}

func TestSampleTerms(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "alpha alpha beta", "", "")
	require.NoError(t, err)

	sample := e.SampleTerms(10)
	assert.Len(t, sample, 2)
	assert.Equal(t, map[string]int{"d1": 2}, sample["alpha"])

	// mutating the sample must not leak into the index
	sample["alpha"]["d1"] = 99
	results, err := e.Search("alpha", 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, results[0].Score, 0.0001)
}

func TestClear(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "some content", "", "")
	require.NoError(t, err)

	e.Clear()
	stats := e.Stats()
	assert.Equal(t, 0, stats.DocumentCount)
	assert.Equal(t, 0, stats.TermCount)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "python python fastapi", "T1", "A1")
	require.NoError(t, err)
	_, err = e.AddDocument("d2", "fastapi framework", "T2", "")
	require.NoError(t, err)

	restored := newTestEngine(t)
	require.NoError(t, restored.Restore(e.Snapshot()))

	assert.Equal(t, e.Stats(), restored.Stats())
	for _, query := range []string{"python", "fastapi", "framework", "missing"} {
		want, err := e.Search(query, 0)
		require.NoError(t, err)
		got, err := restored.Search(query, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %q", query)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddDocument("d1", "alpha beta", "", "")
	require.NoError(t, err)

	snap := e.Snapshot()
	snap.Postings["alpha"]["d1"] = 99
	delete(snap.Documents, "d1")

	results, err := e.Search("alpha", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results[0].Score, 0.0001)
}

func TestRestoreDropsInvalidPostings(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Snapshot()
	snap.Documents["d1"] = storage.Document{ID: "d1", Content: "alpha", TokenCount: 1}
	snap.Postings["ghost"] = map[string]int{"unknown-doc": 3}
	snap.Postings["zero"] = map[string]int{"d1": 0}

	require.NoError(t, e.Restore(snap))
	stats := e.Stats()
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, 0, stats.TermCount)
	assert.Equal(t, 0, stats.TotalPostings)
}

func TestConcurrentAddAndSearch(t *testing.T) {
	e := newTestEngine(t)
	const docs = 200

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < docs; i++ {
			_, err := e.AddDocument(fmt.Sprintf("d%03d", i), "alpha beta gamma", "", "")
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < docs; i++ {
			results, err := e.Search("alpha beta", docs)
			assert.NoError(t, err)
			// a document is visible with all its postings or not at all:
			// both query terms have frequency 1 in a 3-token doc, so every
			// visible doc scores exactly 2/3
			for _, r := range results {
				assert.InDelta(t, 2.0/3.0, r.Score, 0.0001)
			}
		}
	}()
	wg.Wait()

	stats := e.Stats()
	assert.Equal(t, docs, stats.DocumentCount)
	assert.Equal(t, 3, stats.TermCount)
}
