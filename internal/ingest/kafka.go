package ingest

import (
	"context"
	"log/slog"

	"github.com/vpetrenko/ranksearch/pkg/kafka"
)

// KafkaHandler returns a message handler that decodes ingest events and
// feeds them to adder. Validation failures are returned to the consumer
// loop, which logs and skips without committing a retry.
func KafkaHandler(adder Adder) kafka.MessageHandler {
	log := slog.Default().With("component", "ingest-handler")
	return func(ctx context.Context, key []byte, value []byte) error {
		doc, err := kafka.DecodeJSON[Document](value)
		if err != nil {
			return err
		}
		if err := adder.AddDocument(doc.ID, doc.Text, doc.Status, doc.Ratings); err != nil {
			return err
		}
		log.Debug("document ingested", "id", doc.ID)
		return nil
	}
}
