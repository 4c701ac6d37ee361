package ingest

import (
	"strings"
	"testing"

	"github.com/vpetrenko/ranksearch/internal/engine"
)

func TestReadLines(t *testing.T) {
	eng, err := engine.NewFromText("и в на")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	input := `{"id": 1, "text": "белый кот и модный ошейник", "status": "actual", "ratings": [8, -3]}

{"id": 2, "text": "пушистый кот пушистый хвост", "status": "banned", "ratings": [7, 2, 7]}
`
	added, err := ReadLines(strings.NewReader(input), eng)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	if eng.DocumentCount() != 2 {
		t.Errorf("DocumentCount = %d, want 2", eng.DocumentCount())
	}
	_, status, err := eng.MatchDocument("пушистый", 2)
	if err != nil {
		t.Fatalf("MatchDocument: %v", err)
	}
	if status != engine.StatusBanned {
		t.Errorf("status = %v, want banned", status)
	}
}

// Documents the engine rejects are skipped without aborting the load.
func TestReadLinesSkipsRejected(t *testing.T) {
	eng, err := engine.New(nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	input := `{"id": 1, "text": "кот", "status": "actual"}
{"id": 1, "text": "дубликат", "status": "actual"}
{"id": -5, "text": "отрицательный", "status": "actual"}
{"id": 2, "text": "пёс", "status": "actual"}
`
	added, err := ReadLines(strings.NewReader(input), eng)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
}

func TestReadLinesMalformedJSON(t *testing.T) {
	eng, err := engine.New(nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	input := `{"id": 1, "text": "кот", "status": "actual"}
not json
`
	added, err := ReadLines(strings.NewReader(input), eng)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if added != 1 {
		t.Errorf("added = %d before failure, want 1", added)
	}
}

func TestReadLinesUnknownStatus(t *testing.T) {
	eng, err := engine.New(nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	input := `{"id": 1, "text": "кот", "status": "archived"}`
	if _, err := ReadLines(strings.NewReader(input), eng); err == nil {
		t.Fatal("expected status decode error")
	}
}
