package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// ReadLines decodes one JSON document per line from r and feeds each to
// adder. Blank lines are skipped. Malformed JSON aborts the load;
// documents the engine rejects are logged and skipped, and do not
// affect documents already added.
func ReadLines(r io.Reader, adder Adder) (int, error) {
	log := slog.Default().With("component", "line-loader")
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	added := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(line, &doc); err != nil {
			return added, fmt.Errorf("line %d: decoding document: %w", lineNo, err)
		}
		if err := adder.AddDocument(doc.ID, doc.Text, doc.Status, doc.Ratings); err != nil {
			log.Warn("document rejected", "line", lineNo, "id", doc.ID, "error", err)
			continue
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, fmt.Errorf("reading input: %w", err)
	}
	return added, nil
}
