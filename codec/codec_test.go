package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVarintExactBytes covers E4's exact byte sequences.
func TestVarintExactBytes(t *testing.T) {
	assert.Equal(t, []byte{0x00}, EncodeVarInt(0))
	assert.Equal(t, []byte{0x80, 0x01}, EncodeVarInt(128))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, EncodeVarInt(int32(-1)))
}

func TestVarintRoundTrip(t *testing.T) {
	values := []int32{0, 1, 127, 128, 255, 65535, -1}
	for _, v := range values {
		encoded := EncodeVarInt(v)
		decoded, n, err := DecodeVarInt(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(encoded), n)
		assert.Equal(t, v, decoded)
	}
}

func TestVarintArrayRoundTrip(t *testing.T) {
	values := []int32{0, 1, 127, 128, 255, 65535}
	encoded := EncodeVarIntArray(values)
	decoded, err := DecodeVarIntArray(encoded, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, decoded)
}

// TestPackedBitsInverse covers Testable Property 10.
func TestPackedBitsInverse(t *testing.T) {
	cases := []struct {
		paletteLen int
		seq        []int32
	}{
		{1, []int32{0, 0, 0}},
		{2, []int32{0, 1, 1, 0}},
		{17, func() []int32 {
			s := make([]int32, 16)
			for i := range s {
				s[i] = int32(i + 1)
			}
			return s
		}()},
	}
	for _, c := range cases {
		bits := bitsPerEntryForTest(c.paletteLen)
		packed := PackTight(c.seq, bits)
		unpacked := UnpackTight(packed, bits, len(c.seq))
		assert.Equal(t, c.seq, unpacked)
	}
}

// TestE3SixteenWoolPalette covers E3 exactly: 17-entry palette (air +
// 16 wool colors) needs 5 bits per field and packs 16 entries into
// exactly 2 int64 words.
func TestE3SixteenWoolPalette(t *testing.T) {
	seq := make([]int32, 16)
	for i := range seq {
		seq[i] = int32(i + 1)
	}
	bits := bitsPerEntryForTest(17)
	assert.Equal(t, 5, bits)

	packed := PackTight(seq, bits)
	assert.Len(t, packed, 2)

	unpacked := UnpackTight(packed, bits, len(seq))
	assert.Equal(t, seq, unpacked)
}

func bitsPerEntryForTest(paletteLen int) int {
	bits := 0
	for n := paletteLen - 1; n > 0; n >>= 1 {
		bits++
	}
	if bits < 2 {
		return 2
	}
	return bits
}
