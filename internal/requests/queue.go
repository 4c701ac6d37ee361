// Package requests wraps the engine's query operations with a rolling
// usage log. Every query advances a virtual clock by one tick; outcomes
// older than the window are dropped, and the number of recent queries
// that returned zero documents is tracked.
package requests

import (
	"github.com/vpetrenko/ranksearch/internal/engine"
)

// DefaultWindowSize is the number of ticks retained: one tick per
// query, a day's worth of minutes.
const DefaultWindowSize = 1440

type outcome struct {
	timestamp uint64
	results   int
}

// Queue records the outcome of every search issued through it.
// Like the engine it wraps, Queue does no internal locking.
type Queue struct {
	eng        *engine.Engine
	window     uint64
	current    uint64
	outcomes   []outcome
	zeroResult int
}

// New creates a Queue over eng with the given window size in ticks.
// Sizes below 1 fall back to DefaultWindowSize.
func New(eng *engine.Engine, windowSize int) *Queue {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	return &Queue{
		eng:    eng,
		window: uint64(windowSize),
	}
}

// AddFindRequest runs a default (StatusActual) search and records the
// outcome.
func (q *Queue) AddFindRequest(rawQuery string) ([]engine.Document, error) {
	docs, err := q.eng.FindTopDocuments(rawQuery)
	q.record(docs, err)
	return docs, err
}

// AddFindRequestWithStatus runs a status-filtered search and records
// the outcome.
func (q *Queue) AddFindRequestWithStatus(rawQuery string, st engine.Status) ([]engine.Document, error) {
	docs, err := q.eng.FindTopDocumentsWithStatus(rawQuery, st)
	q.record(docs, err)
	return docs, err
}

// AddFindRequestFunc runs a predicate-filtered search and records the
// outcome.
func (q *Queue) AddFindRequestFunc(rawQuery string, pred engine.Predicate) ([]engine.Document, error) {
	docs, err := q.eng.FindTopDocumentsFunc(rawQuery, pred)
	q.record(docs, err)
	return docs, err
}

// NoResultRequests returns how many queries in the current window
// returned zero documents. Failed queries count as zero-result.
func (q *Queue) NoResultRequests() int {
	return q.zeroResult
}

// Len returns the number of outcomes currently retained.
func (q *Queue) Len() int {
	return len(q.outcomes)
}

func (q *Queue) record(docs []engine.Document, err error) {
	results := len(docs)
	if err != nil {
		results = 0
	}
	q.Record(results)
}

// Record logs the outcome of a query answered outside the engine, such
// as one served from a result cache. Each call advances the clock by
// one tick and expires outcomes older than the window.
func (q *Queue) Record(results int) {
	q.current++

	for len(q.outcomes) > 0 && q.current-q.outcomes[0].timestamp >= q.window {
		if q.outcomes[0].results == 0 {
			q.zeroResult--
		}
		q.outcomes = q.outcomes[1:]
	}

	q.outcomes = append(q.outcomes, outcome{timestamp: q.current, results: results})
	if results == 0 {
		q.zeroResult++
	}
}
