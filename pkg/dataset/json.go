package dataset

import (
	"encoding/json"
	"fmt"
)

// Marshal to an array of [categorical, numeric, label]
func (r Row) MarshalJSON() ([]byte, error) {
	categorical := r.Categorical
	if categorical == nil {
		categorical = []string{}
	}
	numeric := r.Numeric
	if numeric == nil {
		numeric = []float64{}
	}
	return json.Marshal([]any{categorical, numeric, r.Label})
}

// Unmarshal from an array
func (r *Row) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("%w: expected 3 elements in row, got %d", ErrMalformedValue, len(arr))
	}

	var row Row
	if err := json.Unmarshal(arr[0], &row.Categorical); err != nil {
		return err
	} else if err := json.Unmarshal(arr[1], &row.Numeric); err != nil {
		return err
	} else if err := json.Unmarshal(arr[2], &row.Label); err != nil {
		return err
	}

	*r = row
	return nil
}
