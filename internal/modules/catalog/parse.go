package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrUnsupportedFormat is returned when the catalog is neither xlsx nor delimited text.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Parse decodes a catalog spreadsheet (xlsx or csv) into rows, mapping columns by header name.
func Parse(data []byte, cols Columns) ([]Row, error) {
	cols = cols.withDefaults()
	m := mimetype.Detect(data)

	var table [][]string
	var err error
	switch {
	case m.Is(xlsxMIME), m.Is("application/zip"):
		table, err = parseXLSX(data)
	case strings.HasPrefix(m.String(), "text/"):
		table, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, m.String())
	}
	if err != nil {
		return nil, err
	}
	return mapRows(table, cols)
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// sniffDelimiter prefers ';' when the header line carries more of them than ','.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func mapRows(table [][]string, cols Columns) ([]Row, error) {
	if len(table) == 0 {
		return nil, errors.New("catalog is empty")
	}
	index := make(map[string]int, len(table[0]))
	for i, h := range table[0] {
		index[strings.TrimSpace(h)] = i
	}

	required := []string{cols.Family, cols.Model, cols.Year, cols.Size, cols.ColorName, cols.ColorCode, cols.JoinKey}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog is missing columns: %s", strings.Join(missing, ", "))
	}

	cell := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]Row, 0, len(table)-1)
	for _, record := range table[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, Row{
			Family:    cell(record, cols.Family),
			Model:     cell(record, cols.Model),
			Year:      cell(record, cols.Year),
			Size:      cell(record, cols.Size),
			ColorName: cell(record, cols.ColorName),
			ColorCode: cell(record, cols.ColorCode),
			JoinKey:   cell(record, cols.JoinKey),
			EAN:       cell(record, cols.EAN),
			ImageURL:  cell(record, cols.ImageURL),
		})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
