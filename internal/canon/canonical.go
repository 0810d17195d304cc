package canon

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Marshal produces RFC 8785 canonical JSON for v.
// This is the only serialization used for state hashing.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping, U+2028/U+2029 emitted literally
//  3. Strings are NFC normalized and must be valid UTF-8
//  4. Floats and null are rejected
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshal is like Marshal but panics on error.
// Use only in tests or when the value is known to be valid.
func MustMarshal(v Value) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func encode(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case String:
		return encodeString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Array:
		return encodeArray(buf, val)
	case Object:
		return encodeObject(buf, val)
	default:
		return fmt.Errorf("unsupported canonical value type: %T", v)
	}
}

func encodeArray(buf *bytes.Buffer, arr Array) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeObject sorts keys after NFC normalization, so keys that differ only
// in normalization would encode identically and are rejected.
func encodeObject(buf *bytes.Buffer, obj Object) error {
	byNorm := make(map[string]string, len(obj))
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !utf8.ValidString(k) {
			return fmt.Errorf("key %q: string is not valid UTF-8", k)
		}
		n := norm.NFC.String(k)
		if prev, dup := byNorm[n]; dup {
			return fmt.Errorf("keys %q and %q are equal after NFC normalization", prev, k)
		}
		byNorm[n] = k
		keys = append(keys, n)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, n := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, n); err != nil {
			return fmt.Errorf("key %q: %w", n, err)
		}
		buf.WriteByte(':')
		k := byNorm[n]
		if err := encode(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

const hexDigits = "0123456789abcdef"

// encodeString writes s as an RFC 8785 string literal. Only the quote,
// the backslash and control characters below U+0020 are escaped.
func encodeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("string is not valid UTF-8")
	}
	s = norm.NFC.String(s)

	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
	return nil
}
