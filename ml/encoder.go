package ml

import (
	"sort"

	"github.com/goccy/go-json"
)

// SentinelCode stands in for categorical values never seen during training.
const SentinelCode = 0

// LabelEncoder maps category strings to their index in a fixed class list.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{
		classes: append([]string(nil), classes...),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range e.classes {
		if _, dup := e.index[c]; !dup {
			e.index[c] = i
		}
	}
	return e
}

// FitLabelEncoder builds an encoder over the sorted distinct values.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

func (e *LabelEncoder) Encode(value string) (int, bool) {
	code, ok := e.index[value]
	return code, ok
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.classes)
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return err
	}
	*e = *NewLabelEncoder(classes)
	return nil
}
