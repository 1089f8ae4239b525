package cohort

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Sample is one row of the tab-delimited cohort sample-annotation table.
// Only sample_id is required; the remaining columns may be empty or absent.
type Sample struct {
	ID         string `csv:"sample_id"`
	Sex        string `csv:"sex"`
	Population string `csv:"population"`
	Batch      string `csv:"batch"`
}

// Table holds per-sample annotations keyed by sample ID.
type Table struct {
	Samples []Sample
	index   map[string]int
}

// ReadTable parses a tab-delimited sample-annotation table with a header line
// naming at least a sample_id column.
func ReadTable(file string) (*Table, error) {
	fileBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
	var rows []*Sample
	if err = gocsv.UnmarshalBytes(fileBytes, &rows); err != nil {
		return nil, fmt.Errorf("parsing sample table %s: %w", file, err)
	}
	t := &Table{index: make(map[string]int)}
	for i := range rows {
		if rows[i].ID == "" {
			return nil, fmt.Errorf("sample table %s: row %d is missing sample_id", file, i+2)
		}
		if _, found := t.index[rows[i].ID]; found {
			return nil, fmt.Errorf("sample table %s: duplicate sample_id %s", file, rows[i].ID)
		}
		t.index[rows[i].ID] = len(t.Samples)
		t.Samples = append(t.Samples, *rows[i])
	}
	return t, nil
}

// Lookup returns the annotation row for a sample ID.
func (t *Table) Lookup(id string) (Sample, bool) {
	if t == nil {
		return Sample{}, false
	}
	idx, found := t.index[id]
	if !found {
		return Sample{}, false
	}
	return t.Samples[idx], true
}

// Groups maps each annotated sample ID to its population label, omitting
// samples without one.
func (t *Table) Groups() map[string]string {
	groups := make(map[string]string)
	if t == nil {
		return groups
	}
	for i := range t.Samples {
		if t.Samples[i].Population != "" {
			groups[t.Samples[i].ID] = t.Samples[i].Population
		}
	}
	return groups
}

// NormalizeSex maps common encodings of reported sex to "male", "female", or
// an empty string when unknown.
func NormalizeSex(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "1", "xy":
		return "male"
	case "f", "female", "2", "xx":
		return "female"
	}
	return ""
}
