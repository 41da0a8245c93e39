package framename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "__sh-abc-10.png", Encode("abc", 10))
	assert.Equal(t, "__sh-abc-2.5.png", Encode("abc", 2.5))
	assert.Equal(t, "__sh-abc-0.png", Encode("abc", 0))
}

func TestRoundTrip(t *testing.T) {
	keys := []string{"abc", "6f1c2a34-8d7e-4b1a-9f00-1d2e3f4a5b6c", "with-dashes-1", ""}
	offsets := []float64{0, 1, 2.5, 59.999, 3600, 0.04}

	for _, k := range keys {
		for _, off := range offsets {
			got, ok := Decode(Encode(k, off))
			require.True(t, ok, "key=%q offset=%v", k, off)
			assert.Equal(t, off, got)

			parsed, ok := Parse(Encode(k, off))
			require.True(t, ok)
			assert.Equal(t, Key{Batch: k, Offset: off}, parsed)
		}
	}
}

func TestDecodeFromPath(t *testing.T) {
	got, ok := Decode("/tmp/screenshots/__sh-guid-12.png")
	require.True(t, ok)
	assert.Equal(t, 12.0, got)
}

func TestDecodeRejectsForeignNames(t *testing.T) {
	for _, name := range []string{
		"",
		"frame_0001.png",
		"__sh-guid-12.jpg",
		"__sh-guid-abc.png",
		"prefix-guid-12.png",
		"__sh-12.png",
	} {
		_, ok := Decode(name)
		assert.False(t, ok, name)
		assert.Nil(t, DecodePtr(name), name)
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Batch: "b", Offset: 4}
	assert.Equal(t, Encode("b", 4), k.String())
}

func TestCleanKey(t *testing.T) {
	assert.Equal(t, "a_b_c_d", CleanKey("a b/c\\d"))
	assert.Equal(t, "plain-key", CleanKey("plain-key"))

	k := CleanKey("my video/2016")
	got, ok := Decode(Encode(k, 3))
	require.True(t, ok)
	assert.Equal(t, 3.0, got)
}
