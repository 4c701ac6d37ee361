// Package server exposes the search engine over HTTP. The engine does
// no internal locking, so this layer serializes every call through one
// mutex, per the engine's concurrency contract.
package server

import (
	"sync"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/internal/requests"
)

// Index is the concurrency boundary around the engine and its request
// log. All handler and consumer traffic goes through it.
type Index struct {
	mu    sync.Mutex
	eng   *engine.Engine
	queue *requests.Queue
}

// NewIndex wraps eng and its request log.
func NewIndex(eng *engine.Engine, queue *requests.Queue) *Index {
	return &Index{eng: eng, queue: queue}
}

// AddDocument indexes one document. Satisfies ingest.Adder.
func (ix *Index) AddDocument(id int, text string, status engine.Status, ratings []int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.eng.AddDocument(id, text, status, ratings)
}

// Search runs a status-filtered ranked query through the request log.
func (ix *Index) Search(rawQuery string, st engine.Status) ([]engine.Document, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.queue.AddFindRequestWithStatus(rawQuery, st)
}

// RecordServed logs a query answered from the cache, so the rolling
// zero-result window sees every query, not just engine executions.
func (ix *Index) RecordServed(results int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.queue.Record(results)
}

// Match reports which query terms match the given document.
func (ix *Index) Match(rawQuery string, id int) ([]string, engine.Status, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.eng.MatchDocument(rawQuery, id)
}

// DocumentCount returns the number of indexed documents.
func (ix *Index) DocumentCount() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.eng.DocumentCount()
}

// DocumentIDs snapshots the id sequence in insertion order.
func (ix *Index) DocumentIDs() []int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ids := make([]int, ix.eng.DocumentCount())
	for i := range ids {
		id, err := ix.eng.DocumentID(i)
		if err != nil {
			break
		}
		ids[i] = id
	}
	return ids
}

// NoResultRequests returns the rolling count of recent zero-result
// queries.
func (ix *Index) NoResultRequests() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.queue.NoResultRequests()
}
