package value

import (
	"testing"

	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	id, err := ids.New()
	require.NoError(t, err)

	cases := []Value{
		Null,
		String(""),
		String("hello graph"),
		Int(0),
		Int(-42),
		Int(1 << 62),
		Float(0),
		Float(-3.5),
		Bool(true),
		Bool(false),
		NodeRef(id),
		EdgeRef(id),
		ID(id),
	}

	for _, v := range cases {
		encoded := EncodeAll(v)
		decoded, err := DecodeAll(encoded)
		require.NoError(t, err)
		assert.True(t, v.Equal(decoded), "round-trip mismatch for %v", v)
	}
}

func TestDecodeInvalidTag(t *testing.T) {
	_, err := DecodeAll([]byte{99})
	assert.ErrorIs(t, err, ErrInvalidValueTag)
}

func TestDecodeTruncated(t *testing.T) {
	// A string tag with a 5-byte length prefix but only 2 payload bytes.
	buf := []byte{byte(TagString), 0, 0, 0, 5, 'h', 'i'}
	_, err := DecodeAll(buf)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestNumericEquality(t *testing.T) {
	assert.True(t, Int(3).Equal(Float(3.0)))
	assert.True(t, Float(3.0).Equal(Int(3)))
	assert.False(t, Int(3).Equal(Int(4)))
	assert.False(t, String("3").Equal(Int(3)))
	assert.True(t, Null.Equal(Null))
	assert.False(t, Null.Equal(Int(0)))
}

func TestTruthiness(t *testing.T) {
	assert.False(t, Null.Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.False(t, Int(0).Truthy())
	assert.False(t, Float(0).Truthy())
	assert.False(t, String("").Truthy())
	assert.True(t, Int(1).Truthy())
	assert.True(t, String("x").Truthy())
	assert.True(t, Bool(true).Truthy())
}

func TestArithmetic(t *testing.T) {
	assert.True(t, Add(String("foo"), String("bar")).Equal(String("foobar")))
	assert.True(t, Add(Int(2), Int(3)).Equal(Int(5)))
	assert.True(t, Add(Int(2), Float(3.5)).Equal(Float(5.5)))
	assert.True(t, Add(String("x"), Int(1)).Equal(Null))

	assert.True(t, Sub(Int(5), Int(2)).Equal(Int(3)))
	assert.True(t, Sub(Float(5), Int(2)).Equal(Float(3)))
	assert.True(t, Sub(String("x"), Int(1)).Equal(Null))
}

func TestLabelsAndPropertiesRoundTrip(t *testing.T) {
	labels := []string{"Person", "User"}
	buf := EncodeLabels(nil, labels)
	decoded, n, err := DecodeLabels(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, labels, decoded)

	props := []PropertyEntry{
		{Key: "name", Value: String("Alice")},
		{Key: "age", Value: Int(30)},
	}
	pbuf := EncodeProperties(nil, props)
	pdecoded, pn, err := DecodeProperties(pbuf)
	require.NoError(t, err)
	assert.Equal(t, len(pbuf), pn)
	require.Len(t, pdecoded, 2)
	assert.Equal(t, "name", pdecoded[0].Key)
	assert.True(t, pdecoded[0].Value.Equal(String("Alice")))
	assert.Equal(t, "age", pdecoded[1].Key)
	assert.True(t, pdecoded[1].Value.Equal(Int(30)))
}
