package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// Column names every expertise table must carry.
const (
	ColumnResearcher = "ResearcherName"
	ColumnField      = "FieldOfResearch"
	ColumnTopic      = "TopicName"
	ColumnPercentage = "Percentage"
)

// RequiredColumns lists the columns checked before a profile is built.
var RequiredColumns = []string{ColumnResearcher, ColumnField, ColumnTopic, ColumnPercentage}

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is one row of an expertise table: a researcher spending a share of
// their work on a topic within a field of research.
type Record struct {
	Researcher string
	Field      string  // empty when the source cell was missing
	Topic      string
	Percentage float64 // 0-100
}

// Table is an in-memory expertise table as handed over by a loader.
// Columns holds the header the loader saw and is used for schema checks.
type Table struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether the table header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Query is a single recommendation request.
type Query struct {
	Topic  string
	TopK   int
	Metric string
}

// Recommendation is one ranked researcher.
type Recommendation struct {
	Researcher string   `json:"researcher"`
	Field      *string  `json:"field"`
	Score      float64  `json:"score"`
	TopTopics  []string `json:"top_topics"`
}

// Response is the outcome of a recommendation query.
type Response struct {
	QueryTopic      string           `json:"query_topic"`
	MatchedTopic    string           `json:"matched_topic"`
	MatchStage      string           `json:"match_stage"`
	Metric          string           `json:"metric"`
	Model           string           `json:"model"`
	TotalCandidates int              `json:"total_candidates"`
	Results         []Recommendation `json:"results"`
}
