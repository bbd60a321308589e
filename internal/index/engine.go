// Package index implements the in-memory inverted index: document storage,
// term postings, normalized term-frequency ranking, and the query cache.
package index

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mojitote/docsearch/internal/storage"
	"github.com/mojitote/docsearch/internal/tokenizer"
	"github.com/mojitote/docsearch/pkg/config"
	apperrors "github.com/mojitote/docsearch/pkg/errors"
	"github.com/mojitote/docsearch/pkg/metrics"
)

// Engine owns the document map and the term -> doc id -> frequency postings.
// It is a synchronous structure guarded by a single RWMutex; it performs no
// internal concurrency and never exposes its maps directly.
type Engine struct {
	mu       sync.RWMutex
	postings map[string]map[string]int
	docs     map[string]*Document

	cfg     config.IndexConfig
	cache   *queryCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an empty engine. Metrics may be nil. A non-positive
// cache size disables the query cache.
func NewEngine(cfg config.IndexConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		postings: make(map[string]map[string]int),
		docs:     make(map[string]*Document),
		cfg:      cfg,
		cache:    newQueryCache(cfg.CacheSize, m),
		logger:   slog.Default().With("component", "index"),
		metrics:  m,
	}
}

// AddDocument indexes content under docID. If the id already exists, the old
// document's postings are fully removed before re-indexing: replace, never
// merge. CreatedAt survives replacement, UpdatedAt does not.
func (e *Engine) AddDocument(docID, content, title, author string) (Document, error) {
	if strings.TrimSpace(docID) == "" {
		return Document{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "doc id must not be empty")
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "content must not be empty")
	}
	freqs, tokenCount := tokenizer.TermFrequencies(content)
	if tokenCount == 0 {
		return Document{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"content of document %q produced no index terms", docID)
	}

	now := time.Now().UTC()
	doc := &Document{
		ID:         docID,
		Title:      title,
		Author:     author,
		Content:    content,
		TokenCount: tokenCount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if old, exists := e.docs[docID]; exists {
		e.removePostingsLocked(old)
		doc.CreatedAt = old.CreatedAt
	}
	for term, freq := range freqs {
		docFreqs, ok := e.postings[term]
		if !ok {
			docFreqs = make(map[string]int)
			e.postings[term] = docFreqs
		}
		docFreqs[docID] = freq
	}
	e.docs[docID] = doc
	e.cache.purge()
	e.updateGaugesLocked()
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.logger.Debug("document indexed",
		"doc_id", docID,
		"token_count", tokenCount,
		"unique_terms", len(freqs),
	)
	return *doc, nil
}

// RemoveDocument deletes the document and all its postings, dropping any
// term left without documents. It returns false when the id is absent.
func (e *Engine) RemoveDocument(docID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, exists := e.docs[docID]
	if !exists {
		return false
	}
	e.removePostingsLocked(doc)
	delete(e.docs, docID)
	e.cache.purge()
	e.updateGaugesLocked()
	if e.metrics != nil {
		e.metrics.DocsRemovedTotal.Inc()
	}
	e.logger.Debug("document removed", "doc_id", docID)
	return true
}

// Search runs a ranked keyword query. Per document, the score is the sum of
// matched-term frequencies divided by the document's token count; results
// sort by score descending, ties by doc id ascending, truncated to limit.
// An empty query or an absent term yields an empty result, not an error.
// limit < 0 is invalid, limit == 0 means the configured default.
func (e *Engine) Search(query string, limit int) ([]SearchResult, error) {
	if limit < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must not be negative, got %d", limit)
	}
	if limit == 0 {
		limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxResults > 0 && limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}

	start := time.Now()
	key := cacheKey(query, limit)
	results, cached := e.cache.getOrCompute(key, func() []SearchResult {
		e.mu.RLock()
		defer e.mu.RUnlock()
		results := e.searchLocked(query, limit)
		// Stored while the read lock is held: a concurrent mutation's purge
		// runs under the write lock and therefore after this insert, so the
		// cache can never retain results from a superseded index state.
		e.cache.add(key, results)
		return results
	})
	if e.metrics != nil {
		e.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(results)))
		resultType := "hit"
		if len(results) == 0 {
			resultType = "zero_result"
		}
		e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
	e.logger.Debug("search completed",
		"query", query,
		"results", len(results),
		"cached", cached,
		"duration", time.Since(start),
	)
	// Callers get their own slice; cached entries stay immutable.
	out := make([]SearchResult, len(results))
	copy(out, results)
	return out, nil
}

// searchLocked scores and ranks the query. Caller holds at least the read
// lock.
func (e *Engine) searchLocked(query string, limit int) []SearchResult {
	scores := make(map[string]float64)
	seen := make(map[string]struct{})
	for _, term := range tokenizer.Tokenize(query) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		for docID, freq := range e.postings[term] {
			scores[docID] += float64(freq) / float64(e.docs[docID].TokenCount)
		}
	}

	results := make([]SearchResult, 0, len(scores))
	for docID, score := range scores {
		doc := e.docs[docID]
		results = append(results, SearchResult{
			DocID:   docID,
			Score:   math.Round(score*10000) / 10000,
			Title:   doc.Title,
			Author:  doc.Author,
			Snippet: snippet(doc.Content, e.cfg.SnippetLength),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// GetDocument returns a copy of the document, or ErrDocumentNotFound.
func (e *Engine) GetDocument(docID string) (Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, exists := e.docs[docID]
	if !exists {
		return Document{}, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "doc id %q", docID)
	}
	return *doc, nil
}

// Stats returns a point-in-time copy of the index counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := 0
	for _, docFreqs := range e.postings {
		total += len(docFreqs)
	}
	return Stats{
		DocumentCount: len(e.docs),
		TermCount:     len(e.postings),
		TotalPostings: total,
	}
}

// CacheStats reports query cache hit and miss counts since startup.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.cache.stats()
}

// SampleTerms returns up to limit terms with their doc id -> frequency maps,
// copied for safe inspection.
func (e *Engine) SampleTerms(limit int) map[string]map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sample := make(map[string]map[string]int, limit)
	for term, docFreqs := range e.postings {
		if len(sample) >= limit {
			break
		}
		entry := make(map[string]int, len(docFreqs))
		for docID, freq := range docFreqs {
			entry[docID] = freq
		}
		sample[term] = entry
	}
	return sample
}

// Clear drops every document and posting.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.postings = make(map[string]map[string]int)
	e.docs = make(map[string]*Document)
	e.cache.purge()
	e.updateGaugesLocked()
	e.logger.Info("index cleared")
}

// Snapshot deep-copies the full index state for the persistence layer.
func (e *Engine) Snapshot() storage.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := storage.Snapshot{
		Documents: make(map[string]storage.Document, len(e.docs)),
		Postings:  make(map[string]map[string]int, len(e.postings)),
	}
	for docID, doc := range e.docs {
		snap.Documents[docID] = storage.Document{
			ID:         doc.ID,
			Title:      doc.Title,
			Author:     doc.Author,
			Content:    doc.Content,
			TokenCount: doc.TokenCount,
			CreatedAt:  doc.CreatedAt,
			UpdatedAt:  doc.UpdatedAt,
		}
	}
	for term, docFreqs := range e.postings {
		entry := make(map[string]int, len(docFreqs))
		for docID, freq := range docFreqs {
			entry[docID] = freq
		}
		snap.Postings[term] = entry
	}
	return snap
}

// Restore replaces the engine state with the snapshot's. Postings referring
// to unknown documents or carrying non-positive frequencies are dropped so
// the no-zero-count invariant holds even for snapshots written by older
// builds.
func (e *Engine) Restore(snap storage.Snapshot) error {
	docs := make(map[string]*Document, len(snap.Documents))
	for docID, sd := range snap.Documents {
		if docID == "" {
			return fmt.Errorf("%w: snapshot contains a document with empty id", apperrors.ErrInvalidInput)
		}
		docs[docID] = &Document{
			ID:         sd.ID,
			Title:      sd.Title,
			Author:     sd.Author,
			Content:    sd.Content,
			TokenCount: sd.TokenCount,
			CreatedAt:  sd.CreatedAt,
			UpdatedAt:  sd.UpdatedAt,
		}
	}
	postings := make(map[string]map[string]int, len(snap.Postings))
	for term, docFreqs := range snap.Postings {
		entry := make(map[string]int, len(docFreqs))
		for docID, freq := range docFreqs {
			if freq <= 0 {
				continue
			}
			if _, ok := docs[docID]; !ok {
				continue
			}
			entry[docID] = freq
		}
		if len(entry) > 0 {
			postings[term] = entry
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = docs
	e.postings = postings
	e.cache.purge()
	e.updateGaugesLocked()
	e.logger.Info("index restored from snapshot",
		"documents", len(docs),
		"terms", len(postings),
	)
	return nil
}

// removePostingsLocked strips every posting of doc, deleting terms whose
// posting list becomes empty. Caller holds the write lock.
func (e *Engine) removePostingsLocked(doc *Document) {
	freqs, _ := tokenizer.TermFrequencies(doc.Content)
	for term := range freqs {
		docFreqs, ok := e.postings[term]
		if !ok {
			continue
		}
		delete(docFreqs, doc.ID)
		if len(docFreqs) == 0 {
			delete(e.postings, term)
		}
	}
}

func (e *Engine) updateGaugesLocked() {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexedDocuments.Set(float64(len(e.docs)))
	e.metrics.IndexedTerms.Set(float64(len(e.postings)))
}

// snippet returns the first n runes of content, with an ellipsis when
// truncated.
func snippet(content string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
