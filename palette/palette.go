// Package palette implements the de-duplicating BlockState <-> index
// mapping shared by every region.
package palette

import (
	"errors"
	"fmt"
	"math"

	"github.com/oriumgames/schematic/block"
)

// ErrPaletteFull is returned by GetOrIntern when interning a new state
// would push the palette past the 16-bit index range.
var ErrPaletteFull = errors.New("palette: would exceed uint16 range")

// Index is a palette index. Index 0 is always air.
type Index = uint16

// Palette is a de-duplicated, order-preserving list of block states with
// index 0 reserved for air, plus an O(1) reverse lookup.
type Palette struct {
	states []block.State
	lookup map[string]Index
}

// New returns a palette with air already interned at index 0.
func New() *Palette {
	p := &Palette{
		states: make([]block.State, 0, 1),
		lookup: make(map[string]Index),
	}
	p.states = append(p.states, block.Air())
	p.lookup[block.Air().Key()] = 0
	return p
}

// GetOrIntern returns the index of s, interning it if it is not
// already present. Returns ErrPaletteFull if the palette would exceed
// uint16 range.
func (p *Palette) GetOrIntern(s block.State) (Index, error) {
	key := s.Key()
	if idx, ok := p.lookup[key]; ok {
		return idx, nil
	}
	if len(p.states) > math.MaxUint16 {
		return 0, fmt.Errorf("%w: palette has %d entries", ErrPaletteFull, len(p.states))
	}
	idx := Index(len(p.states))
	p.states = append(p.states, s)
	p.lookup[key] = idx
	return idx, nil
}

// Get returns the block state at idx, or false if idx is out of range.
func (p *Palette) Get(idx Index) (block.State, bool) {
	if int(idx) >= len(p.states) {
		return block.State{}, false
	}
	return p.states[idx], true
}

// IndexOf returns the index of s and true if it is present.
func (p *Palette) IndexOf(s block.State) (Index, bool) {
	idx, ok := p.lookup[s.Key()]
	return idx, ok
}

// Len returns the number of entries in the palette.
func (p *Palette) Len() int {
	return len(p.states)
}

// States returns the palette's entries in index order. The returned
// slice must not be mutated by the caller.
func (p *Palette) States() []block.State {
	return p.states
}

// BitsPerEntry returns the minimum field width needed to encode any
// valid index into this palette: max(2, ceil(log2(len))).
func (p *Palette) BitsPerEntry() int {
	return BitsPerEntry(p.Len())
}

// BitsPerEntry computes the minimum field width for a palette of the
// given length, independent of any particular Palette value.
func BitsPerEntry(paletteLen int) int {
	bits := 0
	for n := paletteLen - 1; n > 0; n >>= 1 {
		bits++
	}
	return max(bits, 2)
}

// Merge interns every state of other into p and returns a mapping table
// from other's indices to p's indices.
func (p *Palette) Merge(other *Palette) ([]Index, error) {
	mapping := make([]Index, other.Len())
	for i, s := range other.states {
		idx, err := p.GetOrIntern(s)
		if err != nil {
			return nil, err
		}
		mapping[i] = idx
	}
	return mapping, nil
}
