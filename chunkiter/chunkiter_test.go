package chunkiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/schematic/bbox"
)

type fakeSource struct {
	box    bbox.Box
	blocks map[[3]int32]string
}

func (f *fakeSource) BoundingBox() bbox.Box { return f.box }

func (f *fakeSource) BlockNameAt(x, y, z int32) (string, bool) {
	if !f.box.Contains([3]int32{x, y, z}) {
		return "", false
	}
	name, ok := f.blocks[[3]int32{x, y, z}]
	if !ok {
		return "minecraft:air", true
	}
	return name, true
}

// TestE6CenterOutwardSingleBlock covers E6: a single block at (100,100,100)
// iterated with 16x16x16 chunks and CenterOutward ordering yields exactly
// one non-empty chunk, at coordinate (6,6,6), containing exactly that
// position.
func TestE6CenterOutwardSingleBlock(t *testing.T) {
	src := &fakeSource{
		box: bbox.Box{Min: [3]int32{100, 100, 100}, Max: [3]int32{100, 100, 100}},
		blocks: map[[3]int32]string{
			{100, 100, 100}: "minecraft:stone",
		},
	}

	chunks := Iterate(src, 16, 16, 16, CenterOutward)
	require.Len(t, chunks, 1)
	assert.Equal(t, int32(6), chunks[0].X)
	assert.Equal(t, int32(6), chunks[0].Y)
	assert.Equal(t, int32(6), chunks[0].Z)
	require.Len(t, chunks[0].Positions, 1)
	assert.Equal(t, [3]int32{100, 100, 100}, chunks[0].Positions[0])
}

// TestIterateCoversAllNonAirBlocks covers Testable Property 9: iterating
// every strategy over the same source visits the same total set of
// non-air positions, regardless of chunk order.
func TestIterateCoversAllNonAirBlocks(t *testing.T) {
	src := &fakeSource{
		box: bbox.Box{Min: [3]int32{0, 0, 0}, Max: [3]int32{31, 31, 31}},
		blocks: map[[3]int32]string{
			{0, 0, 0}:    "minecraft:stone",
			{17, 0, 0}:   "minecraft:dirt",
			{0, 17, 0}:   "minecraft:dirt",
			{0, 0, 17}:   "minecraft:dirt",
			{20, 20, 20}: "minecraft:gold_block",
		},
	}

	strategies := []Strategy{Natural, TopDown, BottomUp, CenterOutward, Random, DistanceToCamera(16, 16, 16)}
	for _, strat := range strategies {
		chunks := Iterate(src, 16, 16, 16, strat)
		total := 0
		seen := make(map[[3]int32]bool)
		for _, c := range chunks {
			for _, p := range c.Positions {
				total++
				seen[p] = true
			}
		}
		assert.Equal(t, 5, total)
		for pos := range src.blocks {
			assert.True(t, seen[pos], "expected %v to be visited under strategy %v", pos, strat)
		}
	}
}

func TestNaturalOrderIsLexicographic(t *testing.T) {
	src := &fakeSource{
		box: bbox.Box{Min: [3]int32{0, 0, 0}, Max: [3]int32{31, 31, 31}},
		blocks: map[[3]int32]string{
			{0, 0, 0}:    "minecraft:stone",
			{17, 17, 17}: "minecraft:stone",
		},
	}
	chunks := Iterate(src, 16, 16, 16, Natural)
	require.Len(t, chunks, 2)
	assert.True(t, lessLex([3]int32{chunks[0].X, chunks[0].Y, chunks[0].Z}, [3]int32{chunks[1].X, chunks[1].Y, chunks[1].Z}))
}

func TestTopDownOrdersHighestFirst(t *testing.T) {
	src := &fakeSource{
		box: bbox.Box{Min: [3]int32{0, 0, 0}, Max: [3]int32{15, 31, 15}},
		blocks: map[[3]int32]string{
			{0, 0, 0}:  "minecraft:stone",
			{0, 17, 0}: "minecraft:stone",
		},
	}
	chunks := Iterate(src, 16, 16, 16, TopDown)
	require.Len(t, chunks, 2)
	assert.Equal(t, int32(1), chunks[0].Y)
	assert.Equal(t, int32(0), chunks[1].Y)
}

func TestDistanceToCameraOrdersByProximity(t *testing.T) {
	src := &fakeSource{
		box: bbox.Box{Min: [3]int32{0, 0, 0}, Max: [3]int32{95, 15, 15}},
		blocks: map[[3]int32]string{
			{8, 0, 0}:  "minecraft:stone",
			{88, 0, 0}: "minecraft:stone",
			{24, 0, 0}: "minecraft:stone",
		},
	}
	chunks := Iterate(src, 16, 16, 16, DistanceToCamera(8, 8, 8))
	require.Len(t, chunks, 3)
	assert.Equal(t, int32(0), chunks[0].X)
	assert.Equal(t, int32(1), chunks[1].X)
	assert.Equal(t, int32(5), chunks[2].X)
}
