package dataset

import (
	"fmt"
	"math"
)

// Record is a row keyed by column name, the form rows take at the edges of the system
// (csv, mongo documents).
type Record map[string]any

func FromRecords(records []Record, schema Schema) (*Frame, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	frame := &Frame{Schema: schema, Rows: make([]Row, len(records))}
	for i, record := range records {
		row := Row{
			Categorical: make([]string, len(schema.Categorical)),
			Numeric:     make([]float64, len(schema.Numeric)),
		}
		for j, column := range schema.Categorical {
			if v, ok := record[column].(string); !ok {
				return nil, fmt.Errorf("%w: row %d column %s: expected string, got %T", ErrMalformedValue, i, column, record[column])
			} else {
				row.Categorical[j] = v
			}
		}
		for j, column := range schema.Numeric {
			if v, ok := toFloat(record[column]); !ok {
				return nil, fmt.Errorf("%w: row %d column %s: expected number, got %T", ErrMalformedValue, i, column, record[column])
			} else if !finite(v) {
				return nil, fmt.Errorf("%w: row %d column %s: %v is not finite", ErrMalformedValue, i, column, v)
			} else {
				row.Numeric[j] = v
			}
		}
		if v, ok := record[schema.Label]; !ok {
			return nil, fmt.Errorf("%w: row %d has no %s", ErrMissingLabel, i, schema.Label)
		} else if label, ok := toFloat(v); !ok {
			return nil, fmt.Errorf("%w: row %d label %s: expected number, got %T", ErrMalformedValue, i, schema.Label, v)
		} else if !finite(label) {
			return nil, fmt.Errorf("%w: row %d label %s: %v is not finite", ErrMalformedValue, i, schema.Label, label)
		} else {
			row.Label = label
		}
		frame.Rows[i] = row
	}

	return frame, nil
}

func (f *Frame) Records() []Record {
	out := make([]Record, len(f.Rows))
	for i, row := range f.Rows {
		record := make(Record, len(f.Schema.Categorical)+len(f.Schema.Numeric)+1)
		for j, column := range f.Schema.Categorical {
			record[column] = row.Categorical[j]
		}
		for j, column := range f.Schema.Numeric {
			record[column] = row.Numeric[j]
		}
		record[f.Schema.Label] = row.Label
		out[i] = record
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
