// Package records serves the static medical-records feed the portal's
// records pages browse. Records are read-only reference data, loaded
// once like the base schedule.
package records

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

type Category string

const (
	CategoryVisitSummary Category = "visit-summary"
	CategoryLabResult    Category = "lab-result"
	CategoryImmunization Category = "immunization"
)

// Record is one medical-record summary shown on the records pages.
type Record struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Doctor   string   `json:"doctor"`
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
}

//go:embed records.json
var embeddedRecords []byte

// Service holds the loaded records in feed order.
type Service struct {
	records []Record
}

// Load reads the feed from path, or the embedded default when path is
// empty.
func Load(path string) (*Service, error) {
	data := embeddedRecords
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read records feed: %w", err)
		}
		data = b
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode records feed: %w", err)
	}
	return &Service{records: recs}, nil
}

// List returns all records in feed order.
func (s *Service) List() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ByCategory returns the records of one category, preserving feed
// order. An empty category returns everything.
func (s *Service) ByCategory(c Category) []Record {
	if c == "" {
		return s.List()
	}
	var out []Record
	for _, r := range s.records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}
