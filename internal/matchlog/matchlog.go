// Package matchlog records entity-resolution decisions for audit. The log is
// kept in memory during a run and serialized as CSV alongside the batch at commit.
package matchlog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crewledger/crewledger/internal/model"
)

// Decision is what happened to a candidate.
type Decision string

const (
	DecisionMatched    Decision = "matched"
	DecisionSuggested  Decision = "suggested"
	DecisionRejected   Decision = "rejected" // scored below the suggestion threshold
	DecisionUnresolved Decision = "unresolved"
	DecisionOverridden Decision = "overridden" // replaced by a reviewer choice at commit
)

// Entry is one row in the match log.
type Entry struct {
	Line        int             `json:"line"`
	Pool        model.Pool      `json:"pool"`
	Input       string          `json:"input"`
	EntityID    string          `json:"entityId,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Confidence  int             `json:"confidence"`
	MatchType   model.MatchType `json:"matchType,omitempty"`
	Decision    Decision        `json:"decision"`
}

// Header is the CSV header of a serialized match log.
const Header = "line,pool,input,entity_id,display_name,confidence,match_type,decision"

const (
	numFields      = 8
	colLine        = 0
	colPool        = 1
	colInput       = 2
	colEntityID    = 3
	colDisplayName = 4
	colConfidence  = 5
	colMatchType   = 6
	colDecision    = 7
)

// FromCandidate builds an entry for a scored candidate.
func FromCandidate(line int, input string, c model.MatchCandidate, d Decision) Entry {
	return Entry{
		Line:        line,
		Pool:        c.Pool,
		Input:       input,
		EntityID:    c.EntityID,
		DisplayName: c.DisplayName,
		Confidence:  c.Confidence,
		MatchType:   c.MatchType,
		Decision:    d,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colLine] = strconv.Itoa(e.Line)
	row[colPool] = string(e.Pool)
	row[colInput] = e.Input
	row[colEntityID] = e.EntityID
	row[colDisplayName] = e.DisplayName
	row[colConfidence] = strconv.Itoa(e.Confidence)
	row[colMatchType] = string(e.MatchType)
	row[colDecision] = string(e.Decision)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	line, err := strconv.Atoi(record[colLine])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing line %q: %w", record[colLine], err)
	}
	conf, err := strconv.Atoi(record[colConfidence])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing confidence %q: %w", record[colConfidence], err)
	}

	return Entry{
		Line:        line,
		Pool:        model.Pool(record[colPool]),
		Input:       record[colInput],
		EntityID:    record[colEntityID],
		DisplayName: record[colDisplayName],
		Confidence:  conf,
		MatchType:   model.MatchType(record[colMatchType]),
		Decision:    Decision(record[colDecision]),
	}, nil
}

// Write writes the header and entries as CSV.
func Write(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries of a serialized log.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading match log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Encode serializes entries for storage with a batch.
func Encode(entries []Entry) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Decode parses a log produced by Encode. An empty string yields no entries.
func Decode(s string) ([]Entry, error) {
	if s == "" {
		return nil, nil
	}
	return Read(strings.NewReader(s))
}
