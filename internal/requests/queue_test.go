package requests

import (
	"testing"

	"github.com/vpetrenko/ranksearch/internal/engine"
)

func newQueue(t *testing.T, windowSize int) (*Queue, *engine.Engine) {
	t.Helper()
	eng, err := newCorpusEngine()
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return New(eng, windowSize), eng
}

// newCorpusEngine builds a tiny corpus: one document matching "кот".
func newCorpusEngine() (*engine.Engine, error) {
	eng, err := engine.NewFromText("и в на")
	if err != nil {
		return nil, err
	}
	if err := eng.AddDocument(1, "белый кот модный ошейник", engine.StatusActual, []int{5}); err != nil {
		return nil, err
	}
	return eng, nil
}

func TestZeroResultTracking(t *testing.T) {
	q, _ := newQueue(t, 10)

	if _, err := q.AddFindRequest("кот"); err != nil {
		t.Fatalf("AddFindRequest: %v", err)
	}
	if got := q.NoResultRequests(); got != 0 {
		t.Errorf("NoResultRequests = %d, want 0", got)
	}

	for i := 0; i < 3; i++ {
		if _, err := q.AddFindRequest("пёс"); err != nil {
			t.Fatalf("AddFindRequest: %v", err)
		}
	}
	if got := q.NoResultRequests(); got != 3 {
		t.Errorf("NoResultRequests = %d, want 3", got)
	}
}

// Outcomes expire once the window has rolled past them: after
// windowSize further queries, an old zero-result outcome no longer
// counts.
func TestWindowExpiry(t *testing.T) {
	const window = 5
	q, _ := newQueue(t, window)

	if _, err := q.AddFindRequest("пёс"); err != nil {
		t.Fatalf("AddFindRequest: %v", err)
	}
	if got := q.NoResultRequests(); got != 1 {
		t.Fatalf("NoResultRequests = %d, want 1", got)
	}
	for i := 0; i < window; i++ {
		if _, err := q.AddFindRequest("кот"); err != nil {
			t.Fatalf("AddFindRequest: %v", err)
		}
	}
	if got := q.NoResultRequests(); got != 0 {
		t.Errorf("NoResultRequests = %d after window rolled, want 0", got)
	}
	if q.Len() > window {
		t.Errorf("retained %d outcomes, window is %d", q.Len(), window)
	}
}

// A day of zero-result queries followed by one hit leaves exactly
// window-1 zero-result entries, mirroring the reference behaviour of
// the 1440-tick window.
func TestFullDayWindow(t *testing.T) {
	q, _ := newQueue(t, DefaultWindowSize)

	for i := 0; i < DefaultWindowSize+1; i++ {
		if _, err := q.AddFindRequest("empty request"); err != nil {
			t.Fatalf("AddFindRequest: %v", err)
		}
	}
	if got := q.NoResultRequests(); got != DefaultWindowSize {
		t.Errorf("NoResultRequests = %d, want %d", got, DefaultWindowSize)
	}
	if _, err := q.AddFindRequest("кот"); err != nil {
		t.Fatalf("AddFindRequest: %v", err)
	}
	if got := q.NoResultRequests(); got != DefaultWindowSize-1 {
		t.Errorf("NoResultRequests = %d, want %d", got, DefaultWindowSize-1)
	}
}

// Invalid queries surface their error and count as zero-result.
func TestFailedQueryCountsAsZeroResult(t *testing.T) {
	q, _ := newQueue(t, 10)
	if _, err := q.AddFindRequest("кот --пёс"); err == nil {
		t.Fatal("expected error for malformed minus word")
	}
	if got := q.NoResultRequests(); got != 1 {
		t.Errorf("NoResultRequests = %d, want 1", got)
	}
}

func TestRecordServedOutcomes(t *testing.T) {
	q, _ := newQueue(t, 3)
	q.Record(0)
	q.Record(5)
	q.Record(0)
	if got := q.NoResultRequests(); got != 2 {
		t.Errorf("NoResultRequests = %d, want 2", got)
	}
	q.Record(1)
	// The first outcome has now expired.
	if got := q.NoResultRequests(); got != 1 {
		t.Errorf("NoResultRequests = %d, want 1", got)
	}
}

func TestStatusAndPredicateShapes(t *testing.T) {
	q, _ := newQueue(t, 10)
	if _, err := q.AddFindRequestWithStatus("кот", engine.StatusBanned); err != nil {
		t.Fatalf("AddFindRequestWithStatus: %v", err)
	}
	if _, err := q.AddFindRequestFunc("кот", func(id int, st engine.Status, rating int) bool {
		return rating > 0
	}); err != nil {
		t.Fatalf("AddFindRequestFunc: %v", err)
	}
	// Banned search found nothing, predicate search found document 1.
	if got := q.NoResultRequests(); got != 1 {
		t.Errorf("NoResultRequests = %d, want 1", got)
	}
}
