package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// Extractor tries to turn a decoded reply candidate into display text.
type Extractor func(candidate any) (string, bool)

// DefaultExtractors is the order in which reply shapes are tried.
var DefaultExtractors = []Extractor{
	Field("output"),
	Field("response"),
	Field("message"),
	BareString,
	JSONText,
}

// Normalize extracts a display string from a webhook success body. Bodies that are not
// a single JSON value are returned verbatim.
func Normalize(body []byte) string {
	v, err := decodeJSON(body)
	if err != nil {
		return string(body)
	}
	return Extract(Candidate(v), DefaultExtractors)
}

// Candidate picks the value to extract from: the first element of a non-empty array,
// otherwise the value itself.
func Candidate(v any) any {
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		return arr[0]
	}
	return v
}

func Extract(candidate any, extractors []Extractor) string {
	for _, e := range extractors {
		if s, ok := e(candidate); ok {
			return s
		}
	}
	return ""
}

// Field reads an object field, coercing non-string values to text. Missing, null and
// empty-string fields fall through to the next extractor.
func Field(name string) Extractor {
	return func(candidate any) (string, bool) {
		m, ok := candidate.(map[string]any)
		if !ok {
			return "", false
		}
		v, ok := m[name]
		if !ok || v == nil {
			return "", false
		}
		s := coerce(v)
		if s == "" {
			return "", false
		}
		return s, true
	}
}

func BareString(candidate any) (string, bool) {
	s, ok := candidate.(string)
	return s, ok
}

func JSONText(candidate any) (string, bool) {
	b, err := json.Marshal(candidate)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func coerce(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

var errTrailingData = errors.New("trailing data after json value")

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
