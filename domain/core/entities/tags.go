package entities

import (
	"bytes"
	"encoding/json"
)

// Tags is the free-form JSON document stored with an insight. Scan results
// carry an object such as {"source":"reddit_scan"}; trend analysis stores an
// array of labels. Only the array form contributes to tag statistics.
type Tags json.RawMessage

// SourceTags builds the object form {"source": source}
func SourceTags(source string) Tags {
	b, _ := json.Marshal(map[string]string{"source": source})
	return Tags(b)
}

// LabelTags builds the array form
func LabelTags(labels ...string) Tags {
	if labels == nil {
		labels = []string{}
	}
	b, _ := json.Marshal(labels)
	return Tags(b)
}

// Labels returns the string elements when the document is a JSON array and
// nil for any other shape. Non-string elements are skipped.
func (t Tags) Labels() []string {
	trimmed := bytes.TrimSpace(t)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}

	labels := make([]string, 0, len(raw))
	for _, elem := range raw {
		var s string
		if err := json.Unmarshal(elem, &s); err == nil {
			labels = append(labels, s)
		}
	}
	return labels
}

// IsEmpty reports whether no document is stored
func (t Tags) IsEmpty() bool {
	trimmed := bytes.TrimSpace(t)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t.IsEmpty() {
		return []byte("null"), nil
	}
	return []byte(t), nil
}

func (t *Tags) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	*t = append((*t)[:0], data...)
	return nil
}
