package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/starford/readmana/internal/apperr"
)

// Parse decodes a record document that is not bound to a file, with
// missing required keys back-filled.
func Parse(data []byte) (Tags, error) {
	tags, _, err := decodeTags(data)
	return tags, err
}

// decodeTags parses a record document. It returns the tag set with missing
// required keys back-filled, and whether any back-fill happened.
// Comments and trailing commas are accepted.
func decodeTags(data []byte) (Tags, bool, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Tags{}, false, fmt.Errorf("%w: %w", apperr.ErrFormat, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(std, &raw); err != nil {
		return Tags{}, false, fmt.Errorf("%w: %w", apperr.ErrFormat, err)
	}
	if raw == nil {
		return Tags{}, false, fmt.Errorf("%w: document is not an object", apperr.ErrFormat)
	}

	tags := DefaultTags()
	filled := false
	for _, key := range requiredKeys {
		msg, ok := raw[key]
		if !ok {
			filled = true
			continue
		}
		if err := tags.decodeRequired(key, msg); err != nil {
			return Tags{}, false, fmt.Errorf("%w: key %q: %w", apperr.ErrFormat, key, err)
		}
		delete(raw, key)
	}
	for key, msg := range raw {
		v, err := decodeValue(msg)
		if err != nil {
			return Tags{}, false, fmt.Errorf("%w: key %q: %w", apperr.ErrFormat, key, err)
		}
		tags.Extra[key] = v
	}
	return tags, filled, nil
}

func (t *Tags) decodeRequired(key string, msg json.RawMessage) error {
	isNull := bytes.Equal(bytes.TrimSpace(msg), []byte("null"))

	if f, ok := t.stringField(key); ok {
		if isNull {
			*f = nil
			return nil
		}
		v, err := decodeValue(msg)
		if err != nil {
			return err
		}
		s, ok := scalarString(v)
		if !ok {
			return fmt.Errorf("want string, got %s", msg)
		}
		*f = &s
		return nil
	}
	if f, ok := t.intField(key); ok {
		v, err := decodeValue(msg)
		if err != nil {
			return err
		}
		if s, isStr := v.(string); isStr {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				v = n
			}
		}
		n, ok := toInt(v)
		if !ok {
			return fmt.Errorf("want integer, got %s", msg)
		}
		*f = n
		return nil
	}
	if isNull {
		// Null collections read as empty.
		return nil
	}
	switch key {
	case KeyLog:
		var log map[string]json.Number
		if err := json.Unmarshal(msg, &log); err != nil {
			return err
		}
		for date, num := range log {
			n, err := num.Int64()
			if err != nil {
				return fmt.Errorf("log %s: want integer, got %s", date, num)
			}
			t.Log[date] = int(n)
		}
	case KeyRemark:
		if err := json.Unmarshal(msg, &t.Remark); err != nil {
			return err
		}
		if t.Remark == nil {
			t.Remark = map[string][]string{}
		}
	case KeyTag:
		return json.Unmarshal(msg, &t.Tag)
	}
	return nil
}

// scalarString renders a decoded string or number as a string value.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

// decodeValue decodes an arbitrary JSON value, keeping integers as int.
func decodeValue(msg json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
	}
	return v
}

// toInt accepts the integer kinds callers commonly hold.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// MarshalJSON writes required keys in schema order followed by the extra keys sorted.
func (t Tags) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, v any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := marshalValue(key)
		if err != nil {
			return err
		}
		val, err := marshalValue(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	for _, key := range requiredKeys {
		var v any
		switch key {
		case KeyLog:
			v = nonNilMap(t.Log)
		case KeyRemark:
			v = nonNilMap(t.Remark)
		case KeyTag:
			v = t.Tag
		default:
			v, _ = t.value(key)
		}
		if err := write(key, v); err != nil {
			return nil, err
		}
	}

	extra := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		extra = append(extra, k)
	}
	slices.SortFunc(extra, strings.Compare)
	for _, key := range extra {
		if err := write(key, t.Extra[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeTags renders the tag set as a record document. Characters such as
// & and < are written as is.
func encodeTags(t Tags) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// marshalValue is json.Marshal without HTML escaping.
func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
