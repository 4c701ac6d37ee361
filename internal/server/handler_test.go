package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/internal/requests"
	"github.com/vpetrenko/ranksearch/pkg/metrics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng, err := engine.NewFromText("и в на")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	index := NewIndex(eng, requests.New(eng, requests.DefaultWindowSize))
	h := NewHandler(index, nil, nil, nil)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postDocument(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/documents", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /documents: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func escape(q string) string {
	return url.QueryEscape(q)
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestAddAndSearch(t *testing.T) {
	srv := newTestServer(t)

	resp := postDocument(t, srv, `{"id": 1, "text": "белый кот и модный ошейник", "status": "actual", "ratings": [8, -3]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d, want 201", resp.StatusCode)
	}
	postDocument(t, srv, `{"id": 2, "text": "пушистый кот пушистый хвост", "status": "actual", "ratings": [7, 2, 7]}`)

	resp = get(t, srv, "/api/v1/search?q="+escape("пушистый кот"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Count   int               `json:"count"`
		Results []engine.Document `json:"results"`
	}
	decode(t, resp, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Results[0].ID != 2 {
		t.Errorf("top result = %d, want 2", body.Results[0].ID)
	}
}

func TestSearchLimit(t *testing.T) {
	srv := newTestServer(t)
	for _, line := range []string{
		`{"id": 1, "text": "кот у двери", "status": "actual", "ratings": [1]}`,
		`{"id": 2, "text": "кот кот", "status": "actual", "ratings": [2]}`,
		`{"id": 3, "text": "кот на окне", "status": "actual", "ratings": [3]}`,
	} {
		postDocument(t, srv, line)
	}

	resp := get(t, srv, "/api/v1/search?q="+escape("кот")+"&limit=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Count   int               `json:"count"`
		Results []engine.Document `json:"results"`
	}
	decode(t, resp, &body)
	if body.Count != 1 || len(body.Results) != 1 {
		t.Fatalf("count = %d, results = %d, want 1 each", body.Count, len(body.Results))
	}
	if body.Results[0].ID != 2 {
		t.Errorf("top result = %d, want 2", body.Results[0].ID)
	}

	// A limit beyond the result count changes nothing.
	resp = get(t, srv, "/api/v1/search?q="+escape("кот")+"&limit=10")
	decode(t, resp, &body)
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}
}

func TestSearchValidation(t *testing.T) {
	srv := newTestServer(t)

	if resp := get(t, srv, "/api/v1/search"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", resp.StatusCode)
	}
	if resp := get(t, srv, "/api/v1/search?q="+escape("кот --пёс")); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed minus word status = %d, want 400", resp.StatusCode)
	}
	if resp := get(t, srv, "/api/v1/search?q=x&status=archived"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status filter = %d, want 400", resp.StatusCode)
	}
	if resp := get(t, srv, "/api/v1/search?q=x&limit=0"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero limit status = %d, want 400", resp.StatusCode)
	}
	if resp := get(t, srv, "/api/v1/search?q=x&limit=abc"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-integer limit status = %d, want 400", resp.StatusCode)
	}
}

func TestAddDocumentValidation(t *testing.T) {
	srv := newTestServer(t)

	postDocument(t, srv, `{"id": 1, "text": "кот", "status": "actual"}`)
	if resp := postDocument(t, srv, `{"id": 1, "text": "кот", "status": "actual"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate id status = %d, want 400", resp.StatusCode)
	}
	if resp := postDocument(t, srv, `{"id": -1, "text": "кот", "status": "actual"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative id status = %d, want 400", resp.StatusCode)
	}
	if resp := postDocument(t, srv, `not json`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp.StatusCode)
	}
}

func TestMatchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	postDocument(t, srv, `{"id": 7, "text": "пушистый кот пушистый хвост", "status": "banned", "ratings": [1]}`)

	resp := get(t, srv, "/api/v1/documents/7/match?q="+escape("пушистый модный"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("match status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string   `json:"status"`
		Words  []string `json:"words"`
	}
	decode(t, resp, &body)
	if body.Status != "banned" {
		t.Errorf("status = %q, want banned", body.Status)
	}
	if len(body.Words) != 1 || body.Words[0] != "пушистый" {
		t.Errorf("words = %v, want [пушистый]", body.Words)
	}

	if resp := get(t, srv, "/api/v1/documents/99/match?q=x"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp.StatusCode)
	}
	if resp := get(t, srv, "/api/v1/documents/abc/match?q=x"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-integer id status = %d, want 400", resp.StatusCode)
	}
}

func TestListDocumentsPagination(t *testing.T) {
	srv := newTestServer(t)
	for _, line := range []string{
		`{"id": 5, "text": "а", "status": "actual"}`,
		`{"id": 3, "text": "б", "status": "actual"}`,
		`{"id": 9, "text": "в", "status": "actual"}`,
	} {
		postDocument(t, srv, line)
	}

	resp := get(t, srv, "/api/v1/documents?page_size=2&page=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Count int   `json:"count"`
		Pages int   `json:"pages"`
		IDs   []int `json:"ids"`
	}
	decode(t, resp, &body)
	if body.Count != 3 || body.Pages != 2 {
		t.Errorf("count/pages = %d/%d, want 3/2", body.Count, body.Pages)
	}
	// Insertion order, second page.
	if len(body.IDs) != 1 || body.IDs[0] != 9 {
		t.Errorf("ids = %v, want [9]", body.IDs)
	}
}

func TestObserveCacheCounters(t *testing.T) {
	m := &metrics.Metrics{
		CacheHitsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cache_hits_total"}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cache_misses_total"}),
	}
	h := &Handler{metrics: m}

	h.observeCache(false)
	h.observeCache(true)
	h.observeCache(true)

	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	postDocument(t, srv, `{"id": 1, "text": "кот", "status": "actual"}`)
	get(t, srv, "/api/v1/search?q="+escape("пёс"))
	get(t, srv, "/api/v1/search?q="+escape("кот"))

	resp := get(t, srv, "/api/v1/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Documents        int `json:"documents"`
		NoResultRequests int `json:"no_result_requests"`
	}
	decode(t, resp, &body)
	if body.Documents != 1 {
		t.Errorf("documents = %d, want 1", body.Documents)
	}
	if body.NoResultRequests != 1 {
		t.Errorf("no_result_requests = %d, want 1", body.NoResultRequests)
	}
}
