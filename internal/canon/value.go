package canon

import (
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over the canonical value types.
// Only String, Int, Bool, Array and Object implement it. There is no float
// type: floating point state must be quantized by the domain before it is
// snapshotted.
type Value interface {
	canonValue()
}

// String is a text value. It is NFC normalized at serialization time.
type String string

func (String) canonValue() {}

// Int is a fixed-width signed integer value.
type Int int64

func (Int) canonValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) canonValue() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) canonValue() {}

// Object maps string keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonValue() {}

// Pair is a key/value pair for typed Object construction.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair.
//
//	canon.Obj(canon.P("food", canon.Int(12)), canon.P("season", canon.String("wet")))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// Obj builds an Object from pairs. Later pairs overwrite earlier ones.
func Obj(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// Arr builds an Array from values.
func Arr(vals ...Value) Array {
	return Array(vals)
}

// Uint encodes an unsigned 64-bit value. Values above math.MaxInt64 do not
// fit Int, so they are carried as decimal strings.
func Uint(n uint64) Value {
	if n > 1<<63-1 {
		return String(strconv.FormatUint(n, 10))
	}
	return Int(int64(n))
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's default string ordering is UTF-8 byte order, which differs for
// characters outside the Basic Multilingual Plane.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
