package canon

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	obj := Obj(
		P("zeta", Int(1)),
		P("alpha", Int(2)),
		P("mid", Bool(true)),
	)

	data, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":true,"zeta":1}`, string(data))
}

func TestMarshalIndependentOfConstructionOrder(t *testing.T) {
	a := Object{}
	a["x"] = Int(1)
	a["y"] = Arr(String("p"), String("q"))

	b := Object{}
	b["y"] = Arr(String("p"), String("q"))
	b["x"] = Int(1)

	assert.Equal(t, MustMarshal(a), MustMarshal(b))
}

func TestMarshalUTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 byte order, but the surrogate
	// pair of U+1F600 (0xD83D) sorts before 0xFF61 in UTF-16.
	obj := Obj(
		P("\uFF61", Int(1)),
		P("\U0001F600", Int(2)),
	)

	data, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF61\":1}", string(data))
}

func TestMarshalStringEscaping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "colony", `"colony"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"html not escaped", "<a&b>", `"<a&b>"`},
		{"short escapes", "\n\t\r\b\f", `"\n\t\r\b\f"`},
		{"control char", "\x01", `"\u0001"`},
		{"line separator literal", "\u2028", "\"\u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(String(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestMarshalNFCNormalizes(t *testing.T) {
	decomposed := String("e\u0301")
	composed := String("\u00e9")

	assert.Equal(t, MustMarshal(composed), MustMarshal(decomposed))
}

func TestMarshalSortsNormalizedKeys(t *testing.T) {
	// "e" + combining acute sorts before "f" raw, but its NFC form U+00E9
	// sorts after it.
	data, err := Marshal(Obj(P("e\u0301", Int(1)), P("f", Int(2))))
	require.NoError(t, err)
	assert.Equal(t, "{\"f\":2,\"\u00e9\":1}", string(data))
}

func TestMarshalRejectsKeysEqualAfterNormalization(t *testing.T) {
	_, err := Marshal(Obj(P("e\u0301", Int(1)), P("\u00e9", Int(2))))
	assert.ErrorContains(t, err, "NFC")
}

func TestMarshalRejectsNullAndInvalidUTF8(t *testing.T) {
	_, err := Marshal(nil)
	require.Error(t, err)

	_, err = Marshal(Obj(P("k", nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "k"`)

	_, err = Marshal(String(string([]byte{0xff, 0xfe})))
	require.Error(t, err)
}

func TestUintEncoding(t *testing.T) {
	assert.Equal(t, Int(42), Uint(42))
	assert.Equal(t, String("18446744073709551615"), Uint(^uint64(0)))
}

func TestHashWithDomainKnownVector(t *testing.T) {
	digest, err := Hash(DomainState, Obj(P("a", Int(1))))
	require.NoError(t, err)

	assert.Equal(t,
		"5ca077280b74481a3e2d65a71d01e09aac12a606f9fc2233cde2c69d26c855b2",
		hex.EncodeToString(digest[:]))
}

func TestHashDomainSeparation(t *testing.T) {
	v := Obj(P("a", Int(1)))

	state, err := Hash(DomainState, v)
	require.NoError(t, err)
	plan, err := Hash(DomainPlan, v)
	require.NoError(t, err)

	assert.NotEqual(t, state, plan)
}
