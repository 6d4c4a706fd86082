package stockfeed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Column names of the dealer-portal availability export.
const (
	colArticle   = "Article"
	colSize      = "Size"
	colColorCode = "Color Code"
	colUnits     = "Units available"
)

// Positions in the headerless FTP report: TTCC;Available;Dunno;Date;EAN;Empty.
const (
	ftpColAvailable = 1
	ftpColEAN       = 4
)

// ParseComposite reads the dealer-portal CSV (';' separated, with header).
// Description, Color and Wheel Size are dropped.
func ParseComposite(data []byte) (Feed, error) {
	records, err := readSemicolon(data)
	if err != nil {
		return Feed{}, err
	}
	if len(records) == 0 {
		return Feed{}, fmt.Errorf("stock report is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range []string{colArticle, colSize, colColorCode, colUnits} {
		if _, ok := index[name]; !ok {
			return Feed{}, fmt.Errorf("stock report is missing column %q", name)
		}
	}

	cell := func(record []string, name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	feed := Feed{Schema: SchemaComposite, Rows: make([]Row, 0, len(records)-1)}
	for _, record := range records[1:] {
		feed.Rows = append(feed.Rows, Row{
			JoinKey:   cell(record, colArticle),
			Size:      cell(record, colSize),
			ColorCode: cell(record, colColorCode),
			Units:     cell(record, colUnits),
		})
	}
	return feed, nil
}

// ParseEAN reads the headerless FTP report keyed by EAN.
func ParseEAN(data []byte) (Feed, error) {
	records, err := readSemicolon(data)
	if err != nil {
		return Feed{}, err
	}
	feed := Feed{Schema: SchemaEAN, Rows: make([]Row, 0, len(records))}
	for i, record := range records {
		if len(record) <= ftpColEAN {
			return Feed{}, fmt.Errorf("stock report line %d: expected at least %d fields, got %d", i+1, ftpColEAN+1, len(record))
		}
		feed.Rows = append(feed.Rows, Row{
			EAN:   strings.TrimSpace(record[ftpColEAN]),
			Units: strings.TrimSpace(record[ftpColAvailable]),
		})
	}
	return feed, nil
}

// Parse dispatches on schema.
func Parse(schema Schema, data []byte) (Feed, error) {
	switch schema {
	case SchemaComposite:
		return ParseComposite(data)
	case SchemaEAN:
		return ParseEAN(data)
	default:
		return Feed{}, fmt.Errorf("unknown stock schema %q", schema)
	}
}

func readSemicolon(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read stock csv: %w", err)
	}
	return records, nil
}
