package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status classifies a document's lifecycle state. Queries filter on it,
// either directly or through a Predicate.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = map[Status]string{
	StatusActual:     "actual",
	StatusIrrelevant: "irrelevant",
	StatusBanned:     "banned",
	StatusRemoved:    "removed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus converts a status name (case-insensitive) to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "actual":
		return StatusActual, nil
	case "irrelevant":
		return StatusIrrelevant, nil
	case "banned":
		return StatusBanned, nil
	case "removed":
		return StatusRemoved, nil
	}
	return StatusActual, fmt.Errorf("unknown document status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Document is a query-result projection: the stored id and rating of a
// matched document together with its relevance for the query that
// produced it. Relevance is never stored.
type Document struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// docRecord is the per-document metadata kept by the engine. Records are
// immutable once inserted.
type docRecord struct {
	rating int
	status Status
}
