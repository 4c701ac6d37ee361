// Package engine implements the in-memory ranked search core: an
// inverted index over whitespace-tokenized documents, TF-IDF scoring
// with stop-word filtering and minus-term exclusion, and top-K result
// selection.
//
// The engine holds all mutable state exclusively and performs no
// internal locking; callers that need concurrent access must serialize
// it externally.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	errs "github.com/vpetrenko/ranksearch/pkg/errors"
)

// DefaultMaxResults caps FindTopDocuments output unless overridden with
// WithMaxResults.
const DefaultMaxResults = 5

// relevanceEpsilon is the double-precision machine epsilon. Two
// relevance values closer than this are treated as equal when sorting,
// so floating-point accumulation error cannot reorder ties.
var relevanceEpsilon = math.Nextafter(1, 2) - 1

// Predicate selects documents eligible for ranking. It receives the
// stored id, status, and rating of a candidate.
type Predicate func(id int, status Status, rating int) bool

// Option configures an Engine at construction.
type Option func(*Engine)

// WithMaxResults overrides the result cap used by the FindTopDocuments
// family. Values below 1 are ignored.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxResults = n
		}
	}
}

// Engine is the search core. Documents are add-only: no update or
// delete operation exists, and the inverted index is only ever
// appended to.
type Engine struct {
	stopWords   map[string]struct{}
	wordDocFreq map[string]map[int]float64
	docs        map[int]docRecord
	docIDs      []int
	maxResults  int
}

// New builds an Engine from a collection of stop words. Empty strings
// are discarded and duplicates collapse; any stop word containing a
// control character fails construction.
func New(stopWords []string, opts ...Option) (*Engine, error) {
	set := uniqueNonEmpty(stopWords)
	for w := range set {
		if !IsValidWord(w) {
			return nil, fmt.Errorf("%w: stop word %q contains a control character", errs.ErrInvalidArgument, w)
		}
	}
	e := &Engine{
		stopWords:   set,
		wordDocFreq: make(map[string]map[int]float64),
		docs:        make(map[int]docRecord),
		maxResults:  DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewFromText builds an Engine from a whitespace-delimited stop-word
// string.
func NewFromText(stopWordsText string, opts ...Option) (*Engine, error) {
	return New(SplitIntoWords(stopWordsText), opts...)
}

// AddDocument tokenizes text, drops stop words, and folds the remaining
// terms into the inverted index weighted by term frequency. The
// operation is atomic: on any validation failure neither the index, the
// store, nor the id sequence is touched.
func (e *Engine) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return fmt.Errorf("%w: negative document id %d", errs.ErrInvalidArgument, id)
	}
	if _, exists := e.docs[id]; exists {
		return fmt.Errorf("%w: duplicate document id %d", errs.ErrInvalidArgument, id)
	}
	words, err := e.splitIntoWordsNoStop(text)
	if err != nil {
		return err
	}

	if len(words) > 0 {
		invWordCount := 1.0 / float64(len(words))
		for _, word := range words {
			freqs, ok := e.wordDocFreq[word]
			if !ok {
				freqs = make(map[int]float64)
				e.wordDocFreq[word] = freqs
			}
			freqs[id] += invWordCount
		}
	}

	e.docs[id] = docRecord{rating: averageRating(ratings), status: status}
	e.docIDs = append(e.docIDs, id)
	return nil
}

// FindTopDocuments ranks documents with status StatusActual.
func (e *Engine) FindTopDocuments(rawQuery string) ([]Document, error) {
	return e.FindTopDocumentsWithStatus(rawQuery, StatusActual)
}

// FindTopDocumentsWithStatus ranks documents whose status equals st.
func (e *Engine) FindTopDocumentsWithStatus(rawQuery string, st Status) ([]Document, error) {
	return e.FindTopDocumentsFunc(rawQuery, func(id int, status Status, rating int) bool {
		return status == st
	})
}

// FindTopDocumentsFunc parses rawQuery and returns the highest-scoring
// documents accepted by pred, sorted by relevance descending with
// near-equal relevance broken by rating descending, truncated to the
// configured maximum.
func (e *Engine) FindTopDocumentsFunc(rawQuery string, pred Predicate) ([]Document, error) {
	q, err := e.parseQuery(rawQuery)
	if err != nil {
		return nil, err
	}

	matched := e.findAllDocuments(q, pred)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if math.Abs(a.Relevance-b.Relevance) < relevanceEpsilon {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.ID < b.ID
		}
		return a.Relevance > b.Relevance
	})
	if len(matched) > e.maxResults {
		matched = matched[:e.maxResults]
	}
	return matched, nil
}

// MatchDocument returns the query's plus terms present in the given
// document, together with the document's status. If any minus term hits
// the document the returned term list is empty; the status is still
// reported. An unknown id is an out-of-range failure.
func (e *Engine) MatchDocument(rawQuery string, id int) ([]string, Status, error) {
	q, err := e.parseQuery(rawQuery)
	if err != nil {
		return nil, StatusActual, err
	}
	record, ok := e.docs[id]
	if !ok {
		return nil, StatusActual, fmt.Errorf("%w: no document with id %d", errs.ErrOutOfRange, id)
	}

	matched := make([]string, 0, len(q.plusWords))
	for word := range q.plusWords {
		if _, ok := e.wordDocFreq[word][id]; ok {
			matched = append(matched, word)
		}
	}
	for word := range q.minusWords {
		if _, ok := e.wordDocFreq[word][id]; ok {
			matched = matched[:0]
			break
		}
	}
	sort.Strings(matched)
	return matched, record.status, nil
}

// DocumentCount returns the number of successfully added documents.
func (e *Engine) DocumentCount() int {
	return len(e.docs)
}

// DocumentID returns the id of the index-th added document, in
// insertion order.
func (e *Engine) DocumentID(index int) (int, error) {
	if index < 0 || index >= len(e.docIDs) {
		return 0, fmt.Errorf("%w: document index %d, count %d", errs.ErrOutOfRange, index, len(e.docIDs))
	}
	return e.docIDs[index], nil
}

func (e *Engine) isStopWord(word string) bool {
	_, ok := e.stopWords[word]
	return ok
}

func (e *Engine) splitIntoWordsNoStop(text string) ([]string, error) {
	words := make([]string, 0)
	for _, word := range SplitIntoWords(text) {
		if !IsValidWord(word) {
			return nil, fmt.Errorf("%w: word %q contains a control character", errs.ErrInvalidArgument, word)
		}
		if !e.isStopWord(word) {
			words = append(words, word)
		}
	}
	return words, nil
}

// averageRating truncates toward zero, matching Go integer division.
// An empty ratings list averages to 0.
func averageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}

type queryWord struct {
	word    string
	isMinus bool
	isStop  bool
}

func (e *Engine) parseQueryWord(text string) (queryWord, error) {
	isMinus := false
	if strings.HasPrefix(text, "-") {
		isMinus = true
		text = text[1:]
	}
	if !IsValidWord(text) {
		return queryWord{}, fmt.Errorf("%w: query word %q contains a control character", errs.ErrInvalidArgument, text)
	}
	if text == "" || strings.HasPrefix(text, "-") {
		return queryWord{}, fmt.Errorf("%w: invalid minus word %q", errs.ErrInvalidArgument, "-"+text)
	}
	return queryWord{word: text, isMinus: isMinus, isStop: e.isStopWord(text)}, nil
}

type query struct {
	plusWords  map[string]struct{}
	minusWords map[string]struct{}
}

// parseQuery validates the raw text as a whole and per token, drops
// stop words, and splits the remainder into deduplicated plus and minus
// sets.
func (e *Engine) parseQuery(text string) (query, error) {
	if !IsValidWord(text) {
		return query{}, fmt.Errorf("%w: query contains a control character", errs.ErrInvalidArgument)
	}
	q := query{
		plusWords:  make(map[string]struct{}),
		minusWords: make(map[string]struct{}),
	}
	for _, word := range SplitIntoWords(text) {
		qw, err := e.parseQueryWord(word)
		if err != nil {
			return query{}, err
		}
		if qw.isStop {
			continue
		}
		if qw.isMinus {
			q.minusWords[qw.word] = struct{}{}
		} else {
			q.plusWords[qw.word] = struct{}{}
		}
	}
	return q, nil
}

// findAllDocuments accumulates TF-IDF relevance per document over the
// query's plus terms, restricted by pred, then removes every document
// touched by a minus term. Exclusion ignores the predicate.
func (e *Engine) findAllDocuments(q query, pred Predicate) []Document {
	relevance := make(map[int]float64)
	for word := range q.plusWords {
		freqs, ok := e.wordDocFreq[word]
		if !ok {
			continue
		}
		idf := e.wordIDF(word)
		for id, termFreq := range freqs {
			record := e.docs[id]
			if pred(id, record.status, record.rating) {
				relevance[id] += termFreq * idf
			}
		}
	}
	for word := range q.minusWords {
		for id := range e.wordDocFreq[word] {
			delete(relevance, id)
		}
	}

	matched := make([]Document, 0, len(relevance))
	for id, rel := range relevance {
		matched = append(matched, Document{ID: id, Relevance: rel, Rating: e.docs[id].rating})
	}
	return matched
}

// wordIDF computes ln(total documents / documents containing word).
// Only called for words known to the index, so the denominator is
// never zero.
func (e *Engine) wordIDF(word string) float64 {
	return math.Log(float64(len(e.docs)) / float64(len(e.wordDocFreq[word])))
}
