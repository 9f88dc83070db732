package dataset

import "fmt"

// Row holds one sample, values indexed by the position of the column in the Schema.
type Row struct {
	Categorical []string
	Numeric     []float64
	Label       float64
}

func (r Row) Clone() Row {
	return Row{
		Categorical: append([]string(nil), r.Categorical...),
		Numeric:     append([]float64(nil), r.Numeric...),
		Label:       r.Label,
	}
}

type Frame struct {
	Schema Schema
	Rows   []Row
}

func NewFrame(schema Schema, rows ...Row) *Frame {
	return &Frame{Schema: schema, Rows: rows}
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

func (f *Frame) Append(rows ...Row) {
	f.Rows = append(f.Rows, rows...)
}

// Check verifies every row has the shape the schema describes and holds only finite
// numbers.
func (f *Frame) Check() error {
	if err := f.Schema.Validate(); err != nil {
		return err
	}
	for i, row := range f.Rows {
		if len(row.Categorical) != len(f.Schema.Categorical) {
			return fmt.Errorf("%w: row %d has %d categorical values, expected %d", ErrMalformedValue, i, len(row.Categorical), len(f.Schema.Categorical))
		}
		if len(row.Numeric) != len(f.Schema.Numeric) {
			return fmt.Errorf("%w: row %d has %d numeric values, expected %d", ErrMalformedValue, i, len(row.Numeric), len(f.Schema.Numeric))
		}
		for j, v := range row.Numeric {
			if !finite(v) {
				return fmt.Errorf("%w: row %d column %s: %v is not finite", ErrMalformedValue, i, f.Schema.Numeric[j], v)
			}
		}
		if !finite(row.Label) {
			return fmt.Errorf("%w: row %d label %s: %v is not finite", ErrMalformedValue, i, f.Schema.Label, row.Label)
		}
	}
	return nil
}

// FeatureVectors returns the numeric features of every row. The slices alias the rows
// and must not be modified.
func (f *Frame) FeatureVectors() [][]float64 {
	out := make([][]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row.Numeric
	}
	return out
}

func (f *Frame) Labels() []float64 {
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row.Label
	}
	return out
}

// NumericColumn returns the values of the j-th numeric feature.
func (f *Frame) NumericColumn(j int) []float64 {
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row.Numeric[j]
	}
	return out
}

func (f *Frame) CategoricalColumn(j int) []string {
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row.Categorical[j]
	}
	return out
}

// Subset returns the rows at indices, in that order.
func (f *Frame) Subset(indices []int) *Frame {
	out := &Frame{Schema: f.Schema, Rows: make([]Row, len(indices))}
	for i, idx := range indices {
		out.Rows[i] = f.Rows[idx]
	}
	return out
}

// Filter returns the rows whose label satisfies keep.
func (f *Frame) Filter(keep func(label float64) bool) *Frame {
	out := &Frame{Schema: f.Schema}
	for _, row := range f.Rows {
		if keep(row.Label) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func Concat(schema Schema, frames ...*Frame) *Frame {
	n := 0
	for _, f := range frames {
		n += f.Len()
	}
	out := &Frame{Schema: schema, Rows: make([]Row, 0, n)}
	for _, f := range frames {
		if f != nil {
			out.Rows = append(out.Rows, f.Rows...)
		}
	}
	return out
}
