package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing and storage.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Accepted values are those produced by DecodeObject (map[string]any, []any,
// string, bool, json.Number) plus int, int64 and payload structs, which are
// converted through ToObject first.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats (returns error)
//  5. No null (returns error) - optional fields must be omitted instead
func MarshalCanonical(v any) ([]byte, error) {
	switch v.(type) {
	case map[string]any, []any, string, bool, json.Number, int, int64, nil:
		return marshalCanonical(v)
	}
	obj, err := ToObject(v)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(obj)
}

func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case json.Number:
		if strings.ContainsAny(string(val), ".eE") {
			return fmt.Errorf("floats are forbidden in canonical JSON: %s", val)
		}
		n, err := val.Int64()
		if err != nil {
			return fmt.Errorf("number out of int64 range: %s", val)
		}
		buf.WriteString(strconv.FormatInt(n, 10))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range SortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes s NFC-normalized as a JSON string. Only
// control characters, backslash and quote are escaped; HTML characters and
// U+2028/U+2029 stay literal.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(unescapeLineSeparators(bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape preceded by an odd
// number of backslashes is literal text and stays.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		isSep := data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9')
		if isSep && trailingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func trailingBackslashes(b []byte) int {
	n := 0
	for i := len(b) - 1; i >= 0 && b[i] == '\\'; i-- {
		n++
	}
	return n
}

// SortedKeys returns the keys of obj ordered by UTF-16 code units, which
// differs from byte order for characters outside the BMP.
func SortedKeys(obj map[string]any) []string {
	return slices.SortedFunc(maps.Keys(obj), func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
}
