package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ReadCSV reads a dataset with a header row. A column whose every value parses as a
// float is numeric, any other column holds strings.
func ReadCSV(r io.Reader, label string, classifier Classifier) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	numeric := make([]bool, len(header))
	for j := range header {
		numeric[j] = true
		for _, row := range rows {
			if _, err := strconv.ParseFloat(row[j], 64); err != nil {
				numeric[j] = false
				break
			}
		}
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		record := make(Record, len(header))
		for j, column := range header {
			if numeric[j] {
				v, _ := strconv.ParseFloat(row[j], 64)
				record[column] = v
			} else {
				record[column] = row[j]
			}
		}
		records[i] = record
	}

	schema, err := Classify(classifier, records, header, label)
	if err != nil {
		return nil, err
	}
	return FromRecords(records, schema)
}

func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(f.Schema.Columns()); err != nil {
		return err
	}

	record := make([]string, 0, len(f.Schema.Categorical)+len(f.Schema.Numeric)+1)
	for _, row := range f.Rows {
		record = record[:0]
		record = append(record, row.Categorical...)
		for _, v := range row.Numeric {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		record = append(record, strconv.FormatFloat(row.Label, 'f', -1, 64))
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
