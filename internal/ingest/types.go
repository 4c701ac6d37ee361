// Package ingest builds the engine's corpus from external sources:
// line-oriented JSON input, a Postgres table, or a Kafka topic. The
// engine itself never does I/O; these loaders sit outside it and feed
// AddDocument.
package ingest

import "github.com/vpetrenko/ranksearch/internal/engine"

// Document is the wire form of a document to be indexed.
type Document struct {
	ID      int           `json:"id"`
	Text    string        `json:"text"`
	Status  engine.Status `json:"status"`
	Ratings []int         `json:"ratings"`
}

// Adder accepts documents for indexing. *engine.Engine satisfies it
// directly; the HTTP layer's serialized index wrapper does too.
type Adder interface {
	AddDocument(id int, text string, status engine.Status, ratings []int) error
}
