// Package canon implements the canonical serialization underlying every
// protocol hash.
//
// Structurally equal values MUST canonicalize to identical bytes regardless of
// map key order or numeric literal form. All hashing in this repository passes
// through Canon; nothing else may serialize values for hashing.
package canon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

var (
	// ErrNonFinite is returned for NaN and ±Inf. Non-finite numbers have no
	// canonical literal and are never coerced to null.
	ErrNonFinite = errors.New("canon: non-finite number")

	// ErrUnsupported is returned for values outside the canonical domain
	// (channels, funcs, structs, non-string map keys).
	ErrUnsupported = errors.New("canon: unsupported value")
)

// Undefined marks a map entry for omission. Entries whose value is Undefined
// are dropped before key sorting, mirroring how absent optional fields never
// contribute to a hash.
type undefined struct{}

var Undefined = undefined{}

// Canon serializes v to canonical bytes.
//
// Rules: nil -> null; booleans -> true/false; numbers -> shortest JSON
// literal (non-finite is a hard error); strings -> JSON-quoted; arrays keep
// element order; objects sort keys lexicographically and drop Undefined
// entries.
func Canon(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case undefined:
		return errors.New("canon: Undefined outside a map value")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return writeString(buf, x)
	case float64:
		return writeFloat(buf, x)
	case float32:
		return writeFloat(buf, float64(x))
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
		return nil
	case int8, int16, int32, int64:
		buf.WriteString(strconv.FormatInt(reflect.ValueOf(x).Int(), 10))
		return nil
	case uint, uint8, uint16, uint32, uint64:
		buf.WriteString(strconv.FormatUint(reflect.ValueOf(x).Uint(), 10))
		return nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("canon: invalid number %q: %w", x.String(), err)
		}
		return writeFloat(buf, f)
	case map[string]any:
		return writeObject(buf, x)
	case []any:
		return writeArray(buf, x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return write(buf, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return writeArray(buf, out)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map key type %s", ErrUnsupported, rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return writeObject(buf, out)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

func writeArray(buf *bytes.Buffer, a []any) error {
	buf.WriteByte('[')
	for i, e := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := write(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if _, skip := v.(undefined); skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := write(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline; canonical output has none.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// writeFloat emits the shortest round-trip JSON literal, matching the
// ECMAScript number-to-string convention used by every other node
// implementation (plain notation inside [1e-6, 1e21), exponent otherwise).
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrNonFinite
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, f, format, -1, 64)
	if format == 'e' {
		// Trim a zero-padded exponent: 1e+07 -> 1e+7.
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	buf.Write(b)
	return nil
}
