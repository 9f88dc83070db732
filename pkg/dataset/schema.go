package dataset

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrMissingLabel      = errors.New("missing label column")
	ErrNoNumericFeatures = errors.New("no numeric feature columns")
	ErrMalformedValue    = errors.New("malformed value")
	ErrDuplicateColumn   = errors.New("duplicate column")
)

// Schema names the columns of a dataset. Row values are stored positionally in the
// order given here.
type Schema struct {
	Label       string   `json:"label" bson:"label" yaml:"label"`
	Categorical []string `json:"categorical" bson:"categorical" yaml:"categorical"`
	Numeric     []string `json:"numeric" bson:"numeric" yaml:"numeric"`
}

func (s Schema) Validate() error {
	if s.Label == "" {
		return ErrMissingLabel
	}
	if len(s.Numeric) == 0 {
		return ErrNoNumericFeatures
	}

	seen := map[string]bool{}
	for _, column := range s.Columns() {
		if seen[column] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, column)
		}
		seen[column] = true
	}
	return nil
}

// Columns returns categorical features, numeric features and finally the label.
func (s Schema) Columns() []string {
	out := make([]string, 0, len(s.Categorical)+len(s.Numeric)+1)
	out = append(out, s.Categorical...)
	out = append(out, s.Numeric...)
	return append(out, s.Label)
}

func (s Schema) Equal(o Schema) bool {
	return s.Label == o.Label && slices.Equal(s.Categorical, o.Categorical) && slices.Equal(s.Numeric, o.Numeric)
}
