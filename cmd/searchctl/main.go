// Command searchctl is a console client for the search engine. In local
// mode it loads a corpus from a JSON-lines file and answers queries
// read line by line from stdin; with -publish it streams the corpus to
// the Kafka ingest topic of a running searchd instead.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/internal/ingest"
	"github.com/vpetrenko/ranksearch/internal/requests"
	"github.com/vpetrenko/ranksearch/pkg/config"
	"github.com/vpetrenko/ranksearch/pkg/kafka"
	"github.com/vpetrenko/ranksearch/pkg/logger"
	"github.com/vpetrenko/ranksearch/pkg/paginate"
)

func main() {
	docsPath := flag.String("docs", "", "path to a JSON-lines corpus file")
	stopWords := flag.String("stop-words", "", "whitespace-delimited stop words")
	maxResults := flag.Int("max-results", engine.DefaultMaxResults, "result cap per query")
	pageSize := flag.Int("page-size", 5, "results per printed page")
	publish := flag.Bool("publish", false, "publish the corpus to Kafka instead of querying locally")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers (with -publish)")
	topic := flag.String("topic", "document-ingest", "Kafka ingest topic (with -publish)")
	flag.Parse()

	logger.Setup("warn", "text")

	if *publish {
		if err := publishCorpus(*docsPath, strings.Split(*brokers, ","), *topic); err != nil {
			fmt.Fprintf(os.Stderr, "publish failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := runLocal(*docsPath, *stopWords, *maxResults, *pageSize); err != nil {
		fmt.Fprintf(os.Stderr, "searchctl: %v\n", err)
		os.Exit(1)
	}
}

func publishCorpus(docsPath string, brokers []string, topic string) error {
	r, err := openCorpus(docsPath)
	if err != nil {
		return err
	}
	defer r.Close()

	producer := kafka.NewProducer(config.KafkaConfig{Brokers: brokers}, topic)
	defer producer.Close()

	published, err := ingest.ReadLines(r, publisherAdder{producer: producer})
	if err != nil {
		return err
	}
	fmt.Printf("published %d documents to %s\n", published, topic)
	return nil
}

// publisherAdder routes documents to Kafka instead of a local engine.
type publisherAdder struct {
	producer *kafka.Producer
}

func (p publisherAdder) AddDocument(id int, text string, status engine.Status, ratings []int) error {
	return p.producer.Publish(context.Background(), kafka.Event{
		Key: strconv.Itoa(id),
		Value: ingest.Document{
			ID:      id,
			Text:    text,
			Status:  status,
			Ratings: ratings,
		},
	})
}

func runLocal(docsPath, stopWords string, maxResults, pageSize int) error {
	eng, err := engine.NewFromText(stopWords, engine.WithMaxResults(maxResults))
	if err != nil {
		return err
	}
	if docsPath != "" {
		r, err := openCorpus(docsPath)
		if err != nil {
			return err
		}
		added, err := ingest.ReadLines(r, eng)
		r.Close()
		if err != nil {
			return err
		}
		fmt.Printf("loaded %d documents\n", added)
	}
	queue := requests.New(eng, requests.DefaultWindowSize)

	fmt.Println("enter a query per line; :match <id> <query>, :stats, :quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == ":quit":
			return nil
		case line == ":stats":
			fmt.Printf("documents: %d, queries without results: %d\n",
				eng.DocumentCount(), queue.NoResultRequests())
		case strings.HasPrefix(line, ":match "):
			runMatch(eng, strings.TrimPrefix(line, ":match "))
		default:
			runQuery(queue, line, pageSize)
		}
	}
	return scanner.Err()
}

func runQuery(queue *requests.Queue, query string, pageSize int) {
	docs, err := queue.AddFindRequest(query)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(docs) == 0 {
		fmt.Println("no documents found")
		return
	}
	for i, page := range paginate.Pages(docs, pageSize) {
		fmt.Printf("-- page %d --\n", i+1)
		for _, doc := range page {
			fmt.Printf("{ document_id = %d, relevance = %g, rating = %d }\n",
				doc.ID, doc.Relevance, doc.Rating)
		}
	}
}

func runMatch(eng *engine.Engine, args string) {
	fields := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(fields) != 2 {
		fmt.Println("usage: :match <id> <query>")
		return
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		fmt.Println("usage: :match <id> <query>")
		return
	}
	words, status, err := eng.MatchDocument(fields[1], id)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("document %d (%s): matched %v\n", id, status, words)
}

func openCorpus(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	return f, nil
}
