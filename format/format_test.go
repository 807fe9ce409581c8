package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/schematic"
	"github.com/oriumgames/schematic/block"
)

func buildTestSchematic(t *testing.T, format string) *schematic.Schematic {
	t.Helper()
	s := schematic.New()
	require.NoError(t, s.SetBlock(0, 0, 0, block.New("minecraft:stone")))
	require.NoError(t, s.SetBlock(1, 0, 0, block.New("minecraft:dirt")))
	require.NoError(t, s.SetBlock(2, 1, 0, block.New("minecraft:chest").With("facing", "north")))
	s.Metadata.Format = format
	s.Metadata.DataVersion = 3953
	return s
}

// TestCrossFormatRoundTrip covers Testable Property 5: writing a
// schematic to schem v2, reading it back, writing that to litematic,
// and reading it back again must agree with the original on every
// block in its bounding box.
func TestCrossFormatRoundTrip(t *testing.T) {
	s := buildTestSchematic(t, "schem_v2")

	var schemBuf bytes.Buffer
	require.NoError(t, Write(&schemBuf, s))
	viaSchem, err := Read(&schemBuf)
	require.NoError(t, err)

	viaSchem.Metadata.Format = "litematica"
	var litematicBuf bytes.Buffer
	require.NoError(t, Write(&litematicBuf, viaSchem))
	final, err := Read(&litematicBuf)
	require.NoError(t, err)

	box := s.BoundingBox()
	for x := box.Min[0]; x <= box.Max[0]; x++ {
		for y := box.Min[1]; y <= box.Max[1]; y++ {
			for z := box.Min[2]; z <= box.Max[2]; z++ {
				want, ok := s.GetBlock(x, y, z)
				require.True(t, ok)
				have, ok := final.GetBlock(x, y, z)
				require.True(t, ok)
				assert.Equal(t, want.String(), have.String(), "mismatch at (%d,%d,%d)", x, y, z)
			}
		}
	}
}

// TestDetectRoundTripsAllFormats covers auto-detection for every
// registered format: Write(s) followed by Read (with detection, not
// ReadFormat) must recover a schematic reporting the same format.
func TestDetectRoundTripsAllFormats(t *testing.T) {
	for _, formatID := range Formats() {
		formatID := formatID
		t.Run(formatID, func(t *testing.T) {
			s := buildTestSchematic(t, formatID)
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, s))

			got, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, formatID, got.Metadata.Format)
		})
	}
}
