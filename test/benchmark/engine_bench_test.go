// Package benchmark contains Go benchmarks for the index engine and the
// snapshot codec, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/mojitote/docsearch/internal/index"
	"github.com/mojitote/docsearch/internal/storage"
	"github.com/mojitote/docsearch/pkg/config"
)

func benchConfig() config.IndexConfig {
	return config.IndexConfig{
		DefaultLimit:  10,
		MaxResults:    100,
		SnippetLength: 200,
		CacheSize:     256,
	}
}

func seededEngine(n int) *index.Engine {
	e := index.NewEngine(benchConfig(), nil)
	for i := 0; i < n; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		_, _ = e.AddDocument(docID,
			"search engine with inverted indexing and ranked query processing",
			"benchmark title", "")
	}
	return e
}

// BenchmarkEngineAdd measures per-document insert throughput.
func BenchmarkEngineAdd(b *testing.B) {
	e := index.NewEngine(benchConfig(), nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		_, _ = e.AddDocument(docID, "this is a benchmark document with several terms for testing indexing performance", "", "")
	}
}

// BenchmarkEngineSearch measures ranked query latency over 10 000 documents
// with the query cache disabled, so every iteration pays the full cost.
func BenchmarkEngineSearch(b *testing.B) {
	cfg := benchConfig()
	cfg.CacheSize = 0
	e := index.NewEngine(cfg, nil)
	for i := 0; i < 10000; i++ {
		_, _ = e.AddDocument(fmt.Sprintf("doc-%d", i),
			"search engine with inverted indexing and ranked query processing", "", "")
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, _ := e.Search("search indexing", 10)
		_ = results
	}
}

// BenchmarkEngineSearchCached measures repeated-query latency with the
// query cache enabled.
func BenchmarkEngineSearchCached(b *testing.B) {
	e := seededEngine(10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, _ := e.Search("search indexing", 10)
		_ = results
	}
}

// BenchmarkEngineSearchParallel measures concurrent read throughput.
func BenchmarkEngineSearchParallel(b *testing.B) {
	e := seededEngine(10000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results, _ := e.Search("ranked query", 10)
			_ = results
		}
	})
}

// BenchmarkSnapshotEncode measures the cost of serializing 5 000 documents.
func BenchmarkSnapshotEncode(b *testing.B) {
	e := seededEngine(5000)
	snap := e.Snapshot()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := storage.Encode(snap, true)
		if err != nil {
			b.Fatal(err)
		}
		_ = data
	}
}

// BenchmarkSnapshotDecode measures deserialization of 5 000 documents.
func BenchmarkSnapshotDecode(b *testing.B) {
	e := seededEngine(5000)
	data, err := storage.Encode(e.Snapshot(), true)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snap, err := storage.Decode(data)
		if err != nil {
			b.Fatal(err)
		}
		_ = snap
	}
}
