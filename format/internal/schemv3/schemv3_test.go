package schemv3

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/schematic"
	"github.com/oriumgames/schematic/block"
	"github.com/oriumgames/schematic/codec"
)

// TestRoundTrip covers Testable Property 3 for the v3 wire format:
// writing a schematic to Sponge v3 (nested under the "Schematic"
// compound) and reading it back reproduces every block, block entity,
// and entity, up to re-ordering of the palette.
func TestRoundTrip(t *testing.T) {
	s := schematic.New()
	require.NoError(t, s.SetBlock(0, 0, 0, block.New("minecraft:stone")))
	require.NoError(t, s.SetBlock(1, 0, 0, block.New("minecraft:dirt")))
	require.NoError(t, s.SetBlock(2, 0, 0, block.New("minecraft:chest").With("facing", "north")))
	s.Metadata.DataVersion = 3953
	s.Metadata.Name = "Test Schematic"
	s.Metadata.Author = "tester"

	r := s.GetRegion(schematic.DefaultRegionName)
	r.SetBlockEntity(2, 0, 0, &block.BlockEntity{ID: "minecraft:chest", X: 2, Y: 0, Z: 0, Data: map[string]any{}})
	r.AddEntity(&block.Entity{ID: "minecraft:pig", Pos: [3]float64{0.5, 0, 0.5}})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))

	got, err := Read(&buf)
	require.NoError(t, err)

	for _, pos := range [][3]int32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}} {
		want, ok := s.GetBlock(pos[0], pos[1], pos[2])
		require.True(t, ok)
		have, ok := got.GetBlock(pos[0], pos[1], pos[2])
		require.True(t, ok)
		assert.Equal(t, want.String(), have.String())
	}

	gotRegion := got.GetRegion(schematic.DefaultRegionName)
	require.Len(t, gotRegion.Entities(), 1)
	assert.Equal(t, "minecraft:pig", gotRegion.Entities()[0].ID)
	assert.NotNil(t, gotRegion.Entities()[0].UUID, "entity UUID must round-trip through schem v3")

	be := gotRegion.BlockEntity(2, 0, 0)
	require.NotNil(t, be)
	assert.Equal(t, "minecraft:chest", be.ID)

	assert.Equal(t, 3953, got.Metadata.DataVersion)
	assert.Equal(t, "Test Schematic", got.Metadata.Name)
	assert.Equal(t, "tester", got.Metadata.Author)
}

// TestReadRejectsOutOfRangePaletteIndex mirrors schemv2's corruption
// check for the nested v3 envelope.
func TestReadRejectsOutOfRangePaletteIndex(t *testing.T) {
	data := v3NBT{
		Version: 3,
		Width:   1,
		Height:  1,
		Length:  1,
	}
	data.Blocks.Palette = map[string]int32{"minecraft:air": 0}
	data.Blocks.Data = codec.EncodeVarIntArray([]int32{5})
	root := v3Root{Schematic: data}

	var raw bytes.Buffer
	gz := gzip.NewWriter(&raw)
	require.NoError(t, nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(root))
	require.NoError(t, gz.Close())

	_, err := Read(&raw)
	require.Error(t, err)
}
