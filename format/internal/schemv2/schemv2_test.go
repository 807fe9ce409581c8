package schemv2

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

// TestRoundTrip covers Testable Property 3: writing a schematic to
// Sponge v2 and reading it back reproduces every block, block entity,
// and entity, up to re-ordering of the palette.
func TestRoundTrip(t *testing.T) {
	s := schematic.New()
	require.NoError(t, s.SetBlock(0, 0, 0, block.New("minecraft:stone")))
	require.NoError(t, s.SetBlock(1, 0, 0, block.New("minecraft:dirt")))
	require.NoError(t, s.SetBlock(2, 0, 0, block.New("minecraft:chest").With("facing", "north")))
	s.Metadata.DataVersion = 3953
	s.Metadata.Name = "Test Schematic"

	r := s.GetRegion(schematic.DefaultRegionName)
	r.SetBlockEntity(2, 0, 0, &block.BlockEntity{ID: "minecraft:chest", X: 2, Y: 0, Z: 0, Data: map[string]any{"Items": []any{}}})
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
	assert.NotNil(t, gotRegion.Entities()[0].UUID, "entity UUID must round-trip through schem v2")

	be := gotRegion.BlockEntity(2, 0, 0)
	require.NotNil(t, be)
	assert.Equal(t, "minecraft:chest", be.ID)

	assert.Equal(t, 3953, got.Metadata.DataVersion)
	assert.Equal(t, "Test Schematic", got.Metadata.Name)
}

// TestRoundTripPreservesUUID covers the UUID half of entity round
// tripping explicitly: an entity added with a pre-set UUID keeps the
// exact same UUID after a write/read cycle.
func TestRoundTripPreservesUUID(t *testing.T) {
	s := schematic.New()
	require.NoError(t, s.SetBlock(0, 0, 0, block.New("minecraft:stone")))
	r := s.GetRegion(schematic.DefaultRegionName)

	ent := &block.Entity{ID: "minecraft:cow", Pos: [3]float64{1, 2, 3}}
	r.AddEntity(ent)
	require.NotNil(t, ent.UUID, "AddEntity must generate a UUID")
	want := *ent.UUID

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))

	got, err := Read(&buf)
	require.NoError(t, err)

	gotEnt := got.GetRegion(schematic.DefaultRegionName).Entities()[0]
	require.NotNil(t, gotEnt.UUID)
	assert.Equal(t, want, *gotEnt.UUID)
}

// TestReadRejectsOutOfRangePaletteIndex covers the error-propagation
// policy: a corrupt block-data stream referencing a palette index past
// the end of the palette must fail decoding rather than silently
// skipping the block.
func TestReadRejectsOutOfRangePaletteIndex(t *testing.T) {
	data := v2NBT{
		Version:     2,
		Width:       1,
		Height:      1,
		Length:      1,
		PaletteMax:  0,
		Palette:     map[string]int32{"minecraft:air": 0},
		BlockData:   codec.EncodeVarIntArray([]int32{5}),
		Metadata:    map[string]any{"Name": "corrupt"},
	}

	var raw bytes.Buffer
	gz := gzip.NewWriter(&raw)
	require.NoError(t, nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(data))
	require.NoError(t, gz.Close())

	_, err := Read(&raw)
	require.Error(t, err)
}
