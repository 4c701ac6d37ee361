package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/internal/ingest"
	"github.com/vpetrenko/ranksearch/internal/stats"
	errs "github.com/vpetrenko/ranksearch/pkg/errors"
	"github.com/vpetrenko/ranksearch/pkg/logger"
	"github.com/vpetrenko/ranksearch/pkg/metrics"
	"github.com/vpetrenko/ranksearch/pkg/paginate"
)

const defaultPageSize = 20

// Handler serves the search API. Cache and collector are optional; the
// handler degrades to direct engine access without them.
type Handler struct {
	index     *Index
	cache     *QueryCache
	collector *stats.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewHandler builds the API handler.
func NewHandler(index *Index, cache *QueryCache, collector *stats.Collector, m *metrics.Metrics) *Handler {
	return &Handler{
		index:     index,
		cache:     cache,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "api-handler"),
	}
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.Match)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
}

// AddDocument indexes one document from a JSON body.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var doc ingest.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, errs.Newf(errs.ErrInvalidArgument, http.StatusBadRequest, "decoding document: %v", err))
		return
	}
	if err := h.index.AddDocument(doc.ID, doc.Text, doc.Status, doc.Ratings); err != nil {
		log.Warn("add document rejected", "id", doc.ID, "error", err)
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.DocsIndexedTotal.Inc()
		h.metrics.IndexedDocuments.Set(float64(h.index.DocumentCount()))
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context())
	}
	log.Info("document indexed", "id", doc.ID, "status", doc.Status.String())
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": doc.ID})
}

// Search answers a ranked top-K query.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	rawQuery := r.URL.Query().Get("q")
	if rawQuery == "" {
		h.writeError(w, errs.New(errs.ErrInvalidArgument, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	status := engine.StatusActual
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := engine.ParseStatus(s)
		if err != nil {
			h.writeError(w, errs.Newf(errs.ErrInvalidArgument, http.StatusBadRequest, "%v", err))
			return
		}
		status = parsed
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, errs.New(errs.ErrInvalidArgument, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	var (
		docs     []engine.Document
		err      error
		cacheHit bool
	)
	if h.cache != nil {
		docs, cacheHit, err = h.cache.GetOrCompute(ctx, rawQuery, status, limit, func() ([]engine.Document, error) {
			found, err := h.index.Search(rawQuery, status)
			if err != nil {
				return nil, err
			}
			return capResults(found, limit), nil
		})
		if cacheHit {
			h.index.RecordServed(len(docs))
		}
		if err == nil {
			h.observeCache(cacheHit)
		}
	} else {
		docs, err = h.index.Search(rawQuery, status)
		docs = capResults(docs, limit)
	}

	if err != nil {
		if h.metrics != nil {
			h.metrics.SearchQueriesTotal.WithLabelValues("invalid").Inc()
		}
		log.Warn("search rejected", "query", rawQuery, "error", err)
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	h.observeSearch(docs, cacheHit, latency)
	log.Info("search completed",
		"query", rawQuery,
		"status", status.String(),
		"results", len(docs),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		h.collector.Track(stats.SearchEvent{
			Query:     rawQuery,
			Status:    status.String(),
			Results:   len(docs),
			CacheHit:  cacheHit,
			LatencyMs: latency.Milliseconds(),
			RequestID: logger.RequestID(ctx),
			Timestamp: time.Now().UTC(),
		})
	}

	if docs == nil {
		docs = []engine.Document{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   rawQuery,
		"status":  status.String(),
		"count":   len(docs),
		"results": docs,
	})
}

// Match reports which query terms match one document.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, errs.New(errs.ErrInvalidArgument, http.StatusBadRequest, "document id must be an integer"))
		return
	}
	rawQuery := r.URL.Query().Get("q")
	if rawQuery == "" {
		h.writeError(w, errs.New(errs.ErrInvalidArgument, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}

	words, status, err := h.index.Match(rawQuery, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if words == nil {
		words = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": status.String(),
		"words":  words,
	})
}

// ListDocuments returns the indexed ids in insertion order, paginated.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	pageSize := defaultPageSize
	if s := r.URL.Query().Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, errs.New(errs.ErrInvalidArgument, http.StatusBadRequest, "page_size must be a positive integer"))
			return
		}
		pageSize = n
	}
	page := 0
	if s := r.URL.Query().Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, errs.New(errs.ErrInvalidArgument, http.StatusBadRequest, "page must be a non-negative integer"))
			return
		}
		page = n
	}

	ids := h.index.DocumentIDs()
	pageIDs := paginate.Page(ids, pageSize, page)
	if pageIDs == nil {
		pageIDs = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(ids),
		"page":      page,
		"page_size": pageSize,
		"pages":     paginate.Count(ids, pageSize),
		"ids":       pageIDs,
	})
}

// Stats reports corpus size, the rolling zero-result count, and cache
// counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"documents":          h.index.DocumentCount(),
		"no_result_requests": h.index.NoResultRequests(),
	}
	if h.cache != nil {
		hits, misses := h.cache.Stats()
		body["cache"] = map[string]int64{"hits": hits, "misses": misses}
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) observeCache(hit bool) {
	if h.metrics == nil {
		return
	}
	if hit {
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
}

func capResults(docs []engine.Document, limit int) []engine.Document {
	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}

func (h *Handler) observeSearch(docs []engine.Document, cacheHit bool, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if len(docs) == 0 {
		outcome = "zero_result"
		h.metrics.ZeroResultQueries.Inc()
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(len(docs)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("writing response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatusCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
