package index

import "time"

// Document is the indexed unit. The engine owns exactly one Document per id;
// re-adding an id replaces the old document wholesale.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Author     string    `json:"author,omitempty"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SearchResult is one ranked entry returned by Engine.Search.
type SearchResult struct {
	DocID   string  `json:"doc_id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title,omitempty"`
	Author  string  `json:"author,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
}

// Stats is a point-in-time summary of the index. It is a copy, never a live
// view of internal state.
type Stats struct {
	DocumentCount int `json:"document_count"`
	TermCount     int `json:"term_count"`
	TotalPostings int `json:"total_postings"`
}
