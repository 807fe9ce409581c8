// Package region implements the sparse chunked voxel store: a named
// sub-volume with its own palette, a sparse map of Chunks keyed by
// absolute chunk coordinate, and the block-entity/entity lists attached
// to it.
package region

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oriumgames/schematic/bbox"
	"github.com/oriumgames/schematic/block"
	"github.com/oriumgames/schematic/chunk"
	"github.com/oriumgames/schematic/codec"
	"github.com/oriumgames/schematic/palette"
)

// ErrPaletteIndexOutOfRange is returned when a packed block stream
// references a palette index beyond the palette's length.
var ErrPaletteIndexOutOfRange = errors.New("region: palette index out of range")

// ErrDimensionMismatch is returned when a decoded block stream's length
// does not match the declared volume.
var ErrDimensionMismatch = errors.New("region: decoded stream length does not match volume")

// Region is a named sub-volume: an anchor position, a size (always
// positive after normalization), a palette, a sparse chunk map, a
// block-entity map, and an entity list. It grows to fit any coordinate
// written to it, never shrinking and never touching already-allocated
// chunks when it grows — chunk coordinates are absolute, so expansion
// never copies.
type Region struct {
	Name string

	box     bbox.Box
	hasBox  bool
	palette *palette.Palette
	chunks  map[chunk.Coord]*chunk.Chunk

	blockEntities map[[3]int32]*block.BlockEntity
	entities      []*block.Entity
}

// New returns an empty named region anchored at position with the given
// size. A negative size component is normalized per
// bbox.FromPositionAndSize.
func New(name string, position, size [3]int32) *Region {
	return &Region{
		Name:          name,
		box:           bbox.FromPositionAndSize(position, size),
		hasBox:        true,
		palette:       palette.New(),
		chunks:        make(map[chunk.Coord]*chunk.Chunk),
		blockEntities: make(map[[3]int32]*block.BlockEntity),
	}
}

// BoundingBox returns the region's current bounding box.
func (r *Region) BoundingBox() bbox.Box {
	return r.box
}

// Position returns the region's anchor (its bounding box minimum).
func (r *Region) Position() [3]int32 {
	return r.box.Min
}

// Size returns the region's current size.
func (r *Region) Size() [3]int32 {
	_, size := r.box.ToPositionAndSize()
	return size
}

// Palette returns the region's palette.
func (r *Region) Palette() *palette.Palette {
	return r.palette
}

// Volume returns the region's bounding-box volume.
func (r *Region) Volume() uint64 {
	return r.box.Volume()
}

// expandToFit unions the current bounding box with the single point
// (x,y,z), without touching any existing chunk storage. This is the
// O(1) growth property the chunked design exists for.
func (r *Region) expandToFit(x, y, z int32) {
	point := bbox.Box{Min: [3]int32{x, y, z}, Max: [3]int32{x, y, z}}
	if !r.hasBox {
		r.box = point
		r.hasBox = true
		return
	}
	r.box = r.box.Union(point)
}

// SetBlock writes s at (x,y,z), expanding the bounding box if needed.
// Writing air to a position whose chunk is absent allocates no chunk
// (the bounding box still grows to include the position); writing air
// that empties an allocated chunk evicts that chunk.
func (r *Region) SetBlock(x, y, z int32, s block.State) error {
	r.expandToFit(x, y, z)
	idx, err := r.palette.GetOrIntern(s)
	if err != nil {
		return err
	}
	r.setBlockAtIndex(x, y, z, idx)
	return nil
}

func (r *Region) setBlockAtIndex(x, y, z int32, idx palette.Index) {
	coord, rx, ry, rz := chunk.Decompose(x, y, z)
	local := chunk.LocalIndex(rx, ry, rz)

	c, ok := r.chunks[coord]
	if !ok {
		if idx == 0 {
			return
		}
		c = new(chunk.Chunk)
		r.chunks[coord] = c
	}
	c[local] = idx
	if c.IsAllAir() {
		delete(r.chunks, coord)
	}
}

// GetBlock returns the block state at (x,y,z) and true if the position
// lies inside the region's bounding box. A position inside the box with
// no allocated chunk reads as air. A position outside the box returns
// the zero State and false.
func (r *Region) GetBlock(x, y, z int32) (block.State, bool) {
	if !r.hasBox || !r.box.Contains([3]int32{x, y, z}) {
		return block.State{}, false
	}
	idx := r.blockIndexAt(x, y, z)
	s, _ := r.palette.Get(idx)
	return s, true
}

func (r *Region) blockIndexAt(x, y, z int32) palette.Index {
	coord, rx, ry, rz := chunk.Decompose(x, y, z)
	c, ok := r.chunks[coord]
	if !ok {
		return 0
	}
	return c[chunk.LocalIndex(rx, ry, rz)]
}

// BlockEntity returns the block entity at (x,y,z), or nil.
func (r *Region) BlockEntity(x, y, z int32) *block.BlockEntity {
	return r.blockEntities[[3]int32{x, y, z}]
}

// SetBlockEntity sets (or, with be == nil, clears) the block entity at
// (x,y,z).
func (r *Region) SetBlockEntity(x, y, z int32, be *block.BlockEntity) {
	key := [3]int32{x, y, z}
	if be == nil {
		delete(r.blockEntities, key)
		return
	}
	be.X, be.Y, be.Z = x, y, z
	r.blockEntities[key] = be
}

// BlockEntities returns every block entity in the region, in no
// particular order.
func (r *Region) BlockEntities() []*block.BlockEntity {
	out := make([]*block.BlockEntity, 0, len(r.blockEntities))
	for _, be := range r.blockEntities {
		out = append(out, be)
	}
	return out
}

// Entities returns a copy of the region's entity list.
func (r *Region) Entities() []*block.Entity {
	out := make([]*block.Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// AddEntity appends ent to the region's entity list, generating a UUID
// for it first if it doesn't already carry one.
func (r *Region) AddEntity(ent *block.Entity) {
	if ent.UUID == nil {
		id := uuid.New()
		ent.UUID = &id
	}
	r.entities = append(r.entities, ent)
}

// RemoveEntity removes the first occurrence of ent (by pointer
// identity) from the entity list.
func (r *Region) RemoveEntity(ent *block.Entity) {
	for i, e := range r.entities {
		if e == ent {
			r.entities = append(r.entities[:i], r.entities[i+1:]...)
			return
		}
	}
}

// CountBlocks returns the number of non-air block positions in the
// region.
func (r *Region) CountBlocks() int {
	n := 0
	for _, c := range r.chunks {
		for _, idx := range c {
			if idx != 0 {
				n++
			}
		}
	}
	return n
}

// CountBlockTypes returns, for every distinct non-air block state
// present, how many positions hold it.
func (r *Region) CountBlockTypes() map[string]int {
	counts := make(map[int]int)
	for _, c := range r.chunks {
		for _, idx := range c {
			if idx != 0 {
				counts[int(idx)]++
			}
		}
	}
	out := make(map[string]int, len(counts))
	for idx, n := range counts {
		s, _ := r.palette.Get(palette.Index(idx))
		out[s.String()] = n
	}
	return out
}

// Merge absorbs other into r: the bounding box becomes the union, the
// palette is merged (other's states interned, remapped), every non-air
// block in other is copied over, entities are concatenated, and block
// entities are merged with other's entries winning on collision.
func (r *Region) Merge(other *Region) error {
	if !other.hasBox {
		return nil
	}
	if !r.hasBox {
		r.box = other.box
		r.hasBox = true
	} else {
		r.box = r.box.Union(other.box)
	}

	mapping, err := r.palette.Merge(other.palette)
	if err != nil {
		return err
	}

	for coord, c := range other.chunks {
		base := [3]int32{coord[0] * chunk.SUB, coord[1] * chunk.SUB, coord[2] * chunk.SUB}
		for local, idx := range c {
			if idx == 0 {
				continue
			}
			rx := int32(local) % chunk.SUB
			ry := int32(local) / (chunk.SUB * chunk.SUB)
			rz := (int32(local) / chunk.SUB) % chunk.SUB
			x, y, z := base[0]+rx, base[1]+ry, base[2]+rz
			r.setBlockAtIndex(x, y, z, mapping[idx])
		}
	}

	r.entities = append(r.entities, other.entities...)
	for key, be := range other.blockEntities {
		r.blockEntities[key] = be
	}
	return nil
}

// Clone returns an independent deep copy of r.
func (r *Region) Clone() *Region {
	clone := &Region{
		Name:          r.Name,
		box:           r.box,
		hasBox:        r.hasBox,
		palette:       palette.New(),
		chunks:        make(map[chunk.Coord]*chunk.Chunk),
		blockEntities: make(map[[3]int32]*block.BlockEntity, len(r.blockEntities)),
	}
	if err := clone.Merge(r); err != nil {
		// Merge only fails on palette overflow, which cannot happen
		// when merging into a fresh palette from a palette that was
		// itself valid.
		panic(fmt.Sprintf("region: clone: %v", err))
	}
	return clone
}

// PackedBlockStates returns the region's contents as a flat, canonical-
// order slice of palette indices packed bitsPerEntry-wide into int64
// words (tight packing: a single value may straddle a word boundary).
func (r *Region) PackedBlockStates() (packed []int64, bitsPerEntry int) {
	indices := r.FlatIndices()
	bitsPerEntry = r.palette.BitsPerEntry()
	return codec.PackTight(indices, bitsPerEntry), bitsPerEntry
}

// FlatIndices returns exactly Volume() palette indices in canonical
// (x-fastest, z-next, y-slowest) order, substituting 0 (air) for any
// position whose chunk is absent.
func (r *Region) FlatIndices() []int32 {
	vol := int(r.box.Volume())
	out := make([]int32, vol)
	it := r.box.IterCoords()
	i := 0
	for {
		x, y, z, ok := it.Next()
		if !ok {
			break
		}
		out[i] = int32(r.blockIndexAt(x, y, z))
		i++
	}
	return out
}

// LoadPacked populates r's chunk storage from a packed block-state
// stream, palette, and declared dimensions read off disk. It is the
// inverse of PackedBlockStates plus an externally supplied palette.
// Every format codec's tight-packed reader (litematic's BlockStates
// array) goes through this rather than hand-unpacking, so the
// PaletteIndexOutOfRange/DimensionMismatch checks below are enforced
// uniformly instead of being reimplemented (or skipped) per codec.
func LoadPacked(name string, position, size [3]int32, states []block.State, packed []int64, bitsPerEntry int) (*Region, error) {
	r := New(name, position, size)
	if len(states) == 0 {
		return nil, fmt.Errorf("region: empty palette")
	}
	for _, s := range states[1:] {
		if _, err := r.palette.GetOrIntern(s); err != nil {
			return nil, err
		}
	}

	vol := int(r.box.Volume())
	wantWords := (vol*bitsPerEntry + 63) / 64
	if len(packed) < wantWords {
		return nil, fmt.Errorf("%w: packed stream has %d words, need %d for %d entries at %d bits/entry", ErrDimensionMismatch, len(packed), wantWords, vol, bitsPerEntry)
	}

	indices := codec.UnpackTight(packed, bitsPerEntry, vol)
	if len(indices) != vol {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(indices), vol)
	}

	it := r.box.IterCoords()
	i := 0
	for {
		x, y, z, ok := it.Next()
		if !ok {
			break
		}
		idx := indices[i]
		i++
		if idx < 0 || int(idx) >= len(states) {
			return nil, fmt.Errorf("%w: index %d, palette length %d", ErrPaletteIndexOutOfRange, idx, len(states))
		}
		if idx != 0 {
			r.setBlockAtIndex(x, y, z, palette.Index(idx))
		}
	}
	return r, nil
}

// CompactIndices returns a minimal palette and a flat canonical-order
// index stream remapped against it: air stays at index 0, and every
// other entry appears iff at least one position in FlatIndices actually
// references it. Stale palette entries (e.g. a block that was set then
// overwritten) are dropped, satisfying the minimal-palette property a
// packed on-disk encoding must have. Format writers use this instead of
// Palette().States()/FlatIndices() directly when serializing.
func (r *Region) CompactIndices() (states []block.State, indices []int32) {
	flat := r.FlatIndices()
	remap := make(map[int32]int32)
	remap[0] = 0
	states = []block.State{block.Air()}
	out := make([]int32, len(flat))
	for i, old := range flat {
		if old == 0 {
			out[i] = 0
			continue
		}
		newIdx, ok := remap[old]
		if !ok {
			st, _ := r.palette.Get(palette.Index(old))
			newIdx = int32(len(states))
			states = append(states, st)
			remap[old] = newIdx
		}
		out[i] = newIdx
	}
	return states, out
}
