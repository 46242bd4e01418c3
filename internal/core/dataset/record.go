// Package dataset defines the records, pages and error taxonomy shared by the
// dataset viewer components.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Record is one extracted row. Data is a free-form attribute bag; Keys lists the
// attribute names in the order they appeared in the source document.
type Record struct {
	ID   string
	Data map[string]any
	Keys []string
	Raw  json.RawMessage // undecoded data object
}

// ParseRecord decodes a record object. Both the enveloped form
// {"id": ..., "data": {...}} and a flat object carrying an "id" attribute are
// accepted.
func ParseRecord(raw []byte) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Record{}, errors.New("record: invalid json")
	}

	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return Record{}, fmt.Errorf("record: expected object, got %s", obj.Type)
	}

	rec := Record{
		ID:   obj.Get("id").String(),
		Data: map[string]any{},
	}

	data := obj.Get("data")
	flat := !data.IsObject()
	if flat {
		data = obj
	}

	data.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if flat && key == "id" {
			return true
		}
		if _, seen := rec.Data[key]; !seen {
			rec.Keys = append(rec.Keys, key)
		}
		rec.Data[key] = v.Value()
		return true
	})
	rec.Raw = json.RawMessage(data.Raw)

	return rec, nil
}

// UnmarshalJSON implements json.Unmarshaler so query responses preserve
// attribute order.
func (r *Record) UnmarshalJSON(b []byte) error {
	rec, err := ParseRecord(b)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON writes the enveloped form.
func (r Record) MarshalJSON() ([]byte, error) {
	data := r.Raw
	if len(data) == 0 {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(struct {
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}{ID: r.ID, Data: data})
}

// Value returns the attribute for key.
func (r Record) Value(key string) (any, bool) {
	v, ok := r.Data[key]
	return v, ok
}

// Text formats the attribute for key as a single display string. Missing and
// null attributes render as the empty string.
func (r Record) Text(key string) string {
	v, ok := r.Data[key]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// FormatValue renders a decoded JSON value as text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// UnionKeys returns every attribute key across records in first-seen order.
func UnionKeys(records []Record) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, r := range records {
		for _, k := range r.Keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}
