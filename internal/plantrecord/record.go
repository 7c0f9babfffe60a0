// Package plantrecord scrapes "Label: value" plant descriptions produced by a
// language model into ordered records.
package plantrecord

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Labels the pipelines depend on.
const (
	LabelCommonName     = "Common name"
	LabelScientificName = "Scientific name"
	LabelDescription    = "Description"
)

// RequiredLabels must all be present for a generated answer to be usable.
var RequiredLabels = []string{LabelCommonName, LabelScientificName, LabelDescription}

// Record is an ordered label to value mapping. The zero value is empty and
// ready to use.
type Record struct {
	keys   []string
	values map[string]string
}

// New builds a record from label/value pairs.
func New(pairs ...string) Record {
	if len(pairs)%2 != 0 {
		panic("plantrecord: New needs label/value pairs")
	}
	var r Record
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Set stores value under label. A new label is appended; an existing one
// keeps its position.
func (r *Record) Set(label, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[label]; !ok {
		r.keys = append(r.keys, label)
	}
	r.values[label] = value
}

// Delete removes label.
func (r *Record) Delete(label string) {
	if _, ok := r.values[label]; !ok {
		return
	}
	delete(r.values, label)
	for i, k := range r.keys {
		if k == label {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value for label.
func (r Record) Get(label string) (string, bool) {
	v, ok := r.values[label]
	return v, ok
}

// GetOr returns the value for label, or fallback when absent.
func (r Record) GetOr(label, fallback string) string {
	if v, ok := r.values[label]; ok && v != "" {
		return v
	}
	return fallback
}

// Keys returns labels in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of labels.
func (r Record) Len() int {
	return len(r.keys)
}

// HasAll reports whether every label is present with a non-empty value.
func (r Record) HasAll(labels ...string) bool {
	for _, l := range labels {
		if r.GetOr(l, "") == "" {
			return false
		}
	}
	return true
}

// Complete reports whether the three required labels are present.
func (r Record) Complete() bool {
	return r.HasAll(RequiredLabels...)
}

// Title is the display name of the plant.
func (r Record) Title() string {
	return r.GetOr(LabelCommonName, "Unknown Plant")
}

// Species is the display scientific name.
func (r Record) Species() string {
	return r.GetOr(LabelScientificName, "Species unknown")
}

// Summary is the display description.
func (r Record) Summary() string {
	return r.GetOr(LabelDescription, "No description available.")
}

// Field is one label/value pair.
type Field struct {
	Label string
	Value string
}

// Fields returns the pairs in order, for templates.
func (r Record) Fields() []Field {
	out := make([]Field, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Field{Label: k, Value: r.values[k]})
	}
	return out
}

// MarshalJSON encodes the record as a JSON object preserving label order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of strings, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("plantrecord: expected object, got %v", tok)
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("plantrecord: expected string key, got %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("plantrecord: value for %q: %w", key, err)
		}
		r.Set(key, value)
	}

	_, err = dec.Token()
	return err
}
