package dataset

import (
	"fmt"
	"slices"
)

// Classifier splits the feature columns of a dataset into categorical and numeric sets.
type Classifier interface {
	Classify(records []Record, columns []string, label string) (categorical []string, numeric []string, err error)
}

// TypeClassifier classifies a column by the Go type of its values: strings are
// categorical, numbers are numeric. A column mixing both is rejected.
type TypeClassifier struct{}

func (TypeClassifier) Classify(records []Record, columns []string, label string) ([]string, []string, error) {
	if columns == nil {
		seen := map[string]bool{}
		for _, record := range records {
			for column := range record {
				if !seen[column] {
					seen[column] = true
					columns = append(columns, column)
				}
			}
		}
		slices.Sort(columns)
	}

	if !slices.Contains(columns, label) {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingLabel, label)
	}

	categorical, numeric := []string{}, []string{}
	for _, column := range columns {
		if column == label {
			continue
		}

		strings, numbers := 0, 0
		for i, record := range records {
			switch v := record[column].(type) {
			case string:
				strings++
			default:
				if _, ok := toFloat(v); !ok {
					return nil, nil, fmt.Errorf("%w: row %d column %s has unsupported type %T", ErrMalformedValue, i, column, v)
				}
				numbers++
			}
		}

		switch {
		case strings > 0 && numbers > 0:
			return nil, nil, fmt.Errorf("%w: column %s mixes strings and numbers", ErrMalformedValue, column)
		case strings > 0:
			categorical = append(categorical, column)
		default:
			numeric = append(numeric, column)
		}
	}

	if len(numeric) == 0 {
		return nil, nil, ErrNoNumericFeatures
	}
	return categorical, numeric, nil
}

// Classify builds a schema for records using classifier.
func Classify(classifier Classifier, records []Record, columns []string, label string) (Schema, error) {
	if classifier == nil {
		classifier = TypeClassifier{}
	}
	categorical, numeric, err := classifier.Classify(records, columns, label)
	if err != nil {
		return Schema{}, err
	}
	schema := Schema{Label: label, Categorical: categorical, Numeric: numeric}
	return schema, schema.Validate()
}
