package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/pkg/postgres"
)

// LoadFromPostgres seeds the corpus from a table with columns
// (id integer, text text, status text, ratings integer[]), in id order
// so the engine's insertion sequence is reproducible. Rows the engine
// rejects are logged and skipped.
func LoadFromPostgres(ctx context.Context, client *postgres.Client, table string, adder Adder) (int, error) {
	log := slog.Default().With("component", "postgres-loader", "table", table)

	query := fmt.Sprintf(
		`SELECT id, text, status, ratings FROM %s ORDER BY id`,
		pq.QuoteIdentifier(table),
	)
	rows, err := client.DB.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("querying corpus table: %w", err)
	}
	defer rows.Close()

	added := 0
	for rows.Next() {
		var (
			id         int
			text       string
			statusName string
			ratings    []int64
		)
		if err := rows.Scan(&id, &text, &statusName, pq.Array(&ratings)); err != nil {
			return added, fmt.Errorf("scanning corpus row: %w", err)
		}
		status, err := engine.ParseStatus(statusName)
		if err != nil {
			log.Warn("row skipped", "id", id, "error", err)
			continue
		}
		rs := make([]int, len(ratings))
		for i, r := range ratings {
			rs[i] = int(r)
		}
		if err := adder.AddDocument(id, text, status, rs); err != nil {
			log.Warn("document rejected", "id", id, "error", err)
			continue
		}
		added++
	}
	if err := rows.Err(); err != nil {
		return added, fmt.Errorf("iterating corpus rows: %w", err)
	}
	return added, nil
}
