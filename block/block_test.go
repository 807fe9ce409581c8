package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	s := New("minecraft:oak_stairs").With("facing", "north").With("half", "bottom")
	assert.Equal(t, "minecraft:oak_stairs[facing=north,half=bottom]", s.String())
}

func TestStateStringNoProperties(t *testing.T) {
	assert.Equal(t, "minecraft:stone", New("minecraft:stone").String())
}

func TestParseStateRoundTrip(t *testing.T) {
	original := New("minecraft:oak_stairs").With("facing", "north").With("half", "bottom")
	parsed := ParseState(original.String())
	assert.Equal(t, original.String(), parsed.String())
}

func TestParseStateNoProperties(t *testing.T) {
	s := ParseState("minecraft:stone")
	assert.Equal(t, "minecraft:stone", s.Name)
	assert.Empty(t, s.Properties)
}

func TestHashIndependentOfOrder(t *testing.T) {
	a := New("x").With("a", "1").With("b", "2")
	b := New("x").With("b", "2").With("a", "1")
	assert.Equal(t, a.String(), b.String())
}

func TestAir(t *testing.T) {
	assert.True(t, Air().IsAir())
	assert.False(t, New("minecraft:stone").IsAir())
}

func TestWithoutProperty(t *testing.T) {
	s := New("x").With("a", "1").With("b", "2").Without("a")
	_, ok := s.Get("a")
	assert.False(t, ok)
	v, ok := s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}
