package tracker

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV reads tracker rows from a CSV file. The first line is the
// header; fully-empty rows are dropped. Short rows are padded so a
// ragged export still yields usable rows.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tracker: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads tracker rows from a reader.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tracker header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tracker row: %w", err)
		}

		row := make(Row, len(header))
		empty := true
		for i, name := range header {
			val := ""
			if i < len(fields) {
				val = fields[i]
			}
			if strings.TrimSpace(val) != "" {
				empty = false
			}
			row[name] = val
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
