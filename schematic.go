// Package schematic implements the Schematic type: an ordered
// collection of named Regions plus metadata, the top-level object every
// format codec reads into and writes out of.
package schematic

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/oriumgames/schematic/bbox"
	"github.com/oriumgames/schematic/block"
	"github.com/oriumgames/schematic/chunkiter"
	"github.com/oriumgames/schematic/region"
)

// DefaultRegionName is the implicit region SetBlock/GetBlock operate on
// when the caller doesn't address a region by name, and the name given
// to the single region a flat (schem) file decodes into.
const DefaultRegionName = "Main"

// Metadata carries the free-form descriptive fields a schematic file
// may declare alongside its block data.
type Metadata struct {
	Name        string
	Author      string
	Description string
	DataVersion int
	// Format is the wire format identifier ("schem_v2", "schem_v3", or
	// "litematica") this schematic was last read from, and the default
	// Write target if none is given explicitly.
	Format string
}

// Schematic is an ordered collection of named Regions. Region order is
// insertion order; it determines GetBlock's cross-region precedence.
type Schematic struct {
	Metadata Metadata

	names   []string
	regions map[string]*region.Region
}

// New returns an empty schematic.
func New() *Schematic {
	return &Schematic{regions: make(map[string]*region.Region)}
}

// AddRegion appends r to the schematic under its own Name, replacing
// any existing region of that name in place (preserving its position
// in the order) rather than moving it to the end.
func (s *Schematic) AddRegion(r *region.Region) {
	if _, exists := s.regions[r.Name]; !exists {
		s.names = append(s.names, r.Name)
	}
	s.regions[r.Name] = r
}

// GetRegion returns the named region, or nil if absent.
func (s *Schematic) GetRegion(name string) *region.Region {
	return s.regions[name]
}

// RegionNames returns region names in insertion order.
func (s *Schematic) RegionNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Regions returns every region in insertion order.
func (s *Schematic) Regions() []*region.Region {
	out := make([]*region.Region, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.regions[name])
	}
	return out
}

func (s *Schematic) mainRegion() *region.Region {
	r, ok := s.regions[DefaultRegionName]
	if ok {
		return r
	}
	r = region.New(DefaultRegionName, [3]int32{0, 0, 0}, [3]int32{1, 1, 1})
	s.AddRegion(r)
	return r
}

// SetBlock writes state at (x,y,z) in the implicit "Main" region,
// creating it on first use.
func (s *Schematic) SetBlock(x, y, z int32, state block.State) error {
	return s.mainRegion().SetBlock(x, y, z, state)
}

// SetBlockInRegion writes state at (x,y,z) in the named region,
// creating an empty region of that name on first use.
func (s *Schematic) SetBlockInRegion(regionName string, x, y, z int32, state block.State) error {
	r, ok := s.regions[regionName]
	if !ok {
		r = region.New(regionName, [3]int32{x, y, z}, [3]int32{1, 1, 1})
		s.AddRegion(r)
	}
	return r.SetBlock(x, y, z, state)
}

// GetBlock returns the block at (x,y,z) from the first region in
// insertion order whose bounding box contains the point.
func (s *Schematic) GetBlock(x, y, z int32) (block.State, bool) {
	for _, name := range s.names {
		r := s.regions[name]
		if st, ok := r.GetBlock(x, y, z); ok {
			return st, true
		}
	}
	return block.State{}, false
}

// BlockNameAt satisfies chunkiter.Source: it returns the identifier
// (without properties) of whatever GetBlock resolves at (x,y,z).
func (s *Schematic) BlockNameAt(x, y, z int32) (string, bool) {
	st, ok := s.GetBlock(x, y, z)
	if !ok {
		return "", false
	}
	return st.Name, true
}

// BoundingBox returns the union of every region's bounding box.
func (s *Schematic) BoundingBox() bbox.Box {
	var box bbox.Box
	has := false
	for _, name := range s.names {
		r := s.regions[name]
		if !has {
			box = r.BoundingBox()
			has = true
			continue
		}
		box = box.Union(r.BoundingBox())
	}
	return box
}

// GetDimensions returns the overall (width, height, length) spanned by
// every region.
func (s *Schematic) GetDimensions() (width, height, length int32) {
	return s.BoundingBox().Dimensions()
}

// TotalBlocks returns the sum of CountBlocks across every region. Note
// this may double-count a position covered by more than one
// overlapping region; it reports stored non-air entries, not the
// number of positions GetBlock would resolve to non-air.
func (s *Schematic) TotalBlocks() int {
	total := 0
	for _, name := range s.names {
		total += s.regions[name].CountBlocks()
	}
	return total
}

// TotalVolume returns the sum of each region's bounding-box volume.
func (s *Schematic) TotalVolume() uint64 {
	var total uint64
	for _, name := range s.names {
		total += s.regions[name].Volume()
	}
	return total
}

// CountBlockTypes merges CountBlockTypes across every region, summing
// counts for block strings that appear in more than one region.
func (s *Schematic) CountBlockTypes() map[string]int {
	out := make(map[string]int)
	for _, name := range s.names {
		for k, v := range s.regions[name].CountBlockTypes() {
			out[k] += v
		}
	}
	return out
}

// GetBlockPaletteAsCanonicalStrings returns the union, in no particular
// order, of every region's palette rendered as canonical block strings.
func (s *Schematic) GetBlockPaletteAsCanonicalStrings() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range s.names {
		for _, st := range s.regions[name].Palette().States() {
			str := st.String()
			if !seen[str] {
				seen[str] = true
				out = append(out, str)
			}
		}
	}
	return out
}

// MergedRegion returns a single region formed by merging every region
// in insertion order, the flat view schem-family codecs (which support
// only one implicit region) serialize from.
func (s *Schematic) MergedRegion() (*region.Region, error) {
	merged := region.New(DefaultRegionName, [3]int32{0, 0, 0}, [3]int32{1, 1, 1})
	first := true
	for _, name := range s.names {
		r := s.regions[name]
		if first {
			merged = r.Clone()
			merged.Name = DefaultRegionName
			first = false
			continue
		}
		if err := merged.Merge(r); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// CreateFromRegion returns a new Schematic containing a single region
// built from r, named DefaultRegionName.
func CreateFromRegion(r *region.Region) *Schematic {
	s := New()
	clone := r.Clone()
	clone.Name = DefaultRegionName
	s.AddRegion(clone)
	return s
}

// CopyRegion copies every non-air block (and its block entity) from
// src, within srcBox, into the schematic's named destination region at
// dst, translated so that srcBox.Min lands on dst. The destination
// region is created if absent.
func (s *Schematic) CopyRegion(destRegionName string, src *region.Region, srcBox bbox.Box, dst cube.Pos) error {
	target, ok := s.regions[destRegionName]
	if !ok {
		target = region.New(destRegionName, [3]int32{int32(dst.X()), int32(dst.Y()), int32(dst.Z())}, [3]int32{1, 1, 1})
		s.AddRegion(target)
	}

	dx := int32(dst.X()) - srcBox.Min[0]
	dy := int32(dst.Y()) - srcBox.Min[1]
	dz := int32(dst.Z()) - srcBox.Min[2]

	it := srcBox.IterCoords()
	for {
		x, y, z, ok := it.Next()
		if !ok {
			break
		}
		st, present := src.GetBlock(x, y, z)
		if !present || st.IsAir() {
			continue
		}
		if err := target.SetBlock(x+dx, y+dy, z+dz, st); err != nil {
			return err
		}
		if be := src.BlockEntity(x, y, z); be != nil {
			clone := be.Clone()
			target.SetBlockEntity(x+dx, y+dy, z+dz, clone)
		}
	}
	return nil
}

// FromLayers builds a schematic one horizontal layer at a time. layers
// is ordered bottom-to-top; each layer is a row-major (x fastest, then
// z) grid of block names, width wide and length long.
func FromLayers(layers [][]string, width, length int32) (*Schematic, error) {
	s := New()
	r := region.New(DefaultRegionName, [3]int32{0, 0, 0}, [3]int32{width, int32(len(layers)), length})
	for y, layer := range layers {
		if int32(len(layer)) != width*length {
			return nil, fmt.Errorf("schematic: layer %d has %d cells, want %d", y, len(layer), width*length)
		}
		for i, name := range layer {
			if name == "" {
				continue
			}
			x := int32(i) % width
			z := int32(i) / width
			if err := r.SetBlock(x, int32(y), z, block.New(name)); err != nil {
				return nil, err
			}
		}
	}
	s.AddRegion(r)
	return s, nil
}

// IterBlocks calls fn for every non-air block position across every
// region, in region insertion order and canonical per-region iteration
// order within each.
func (s *Schematic) IterBlocks(fn func(x, y, z int32, state block.State)) {
	for _, name := range s.names {
		r := s.regions[name]
		it := r.BoundingBox().IterCoords()
		for {
			x, y, z, ok := it.Next()
			if !ok {
				break
			}
			st, present := r.GetBlock(x, y, z)
			if present && !st.IsAir() {
				fn(x, y, z, st)
			}
		}
	}
}

// IterChunks enumerates non-empty chunks across the schematic's full
// bounding box using the given ordering strategy.
func (s *Schematic) IterChunks(chunkWidth, chunkHeight, chunkLength int32, strategy chunkiter.Strategy) []chunkiter.Chunk {
	return chunkiter.Iterate(s, chunkWidth, chunkHeight, chunkLength, strategy)
}

// Version renders Metadata.DataVersion as the Minecraft release it
// corresponds to, or "" if the data version predates tracked releases.
func (s *Schematic) Version() string {
	v := s.Metadata.DataVersion
	switch {
	case v >= 4665:
		return "1.21.11"
	case v >= 4556:
		return "1.21.10"
	case v >= 4554:
		return "1.21.9"
	case v >= 4440:
		return "1.21.8"
	case v >= 4438:
		return "1.21.7"
	case v >= 4435:
		return "1.21.6"
	case v >= 4325:
		return "1.21.5"
	case v >= 4189:
		return "1.21.4"
	case v >= 4082:
		return "1.21.3"
	case v >= 4080:
		return "1.21.2"
	case v >= 3955:
		return "1.21.1"
	case v >= 3953:
		return "1.21"
	case v >= 3839:
		return "1.20.6"
	case v >= 3837:
		return "1.20.5"
	case v >= 3700:
		return "1.20.4"
	case v >= 3578:
		return "1.20.2"
	case v >= 3465:
		return "1.20.1"
	case v >= 3463:
		return "1.20"
	case v >= 3337:
		return "1.19.4"
	case v >= 3218:
		return "1.19.3"
	case v >= 3120:
		return "1.19.2"
	case v >= 3117:
		return "1.19.1"
	case v >= 3105:
		return "1.19"
	case v >= 2975:
		return "1.18.2"
	case v >= 2860:
		return "1.18"
	case v >= 2730:
		return "1.17.1"
	case v >= 2724:
		return "1.17"
	case v >= 2586:
		return "1.16.5"
	case v >= 2566:
		return "1.16"
	case v >= 2230:
		return "1.15.2"
	case v >= 2225:
		return "1.15"
	case v >= 1976:
		return "1.14.4"
	case v >= 1952:
		return "1.14"
	case v >= 1631:
		return "1.13.2"
	case v >= 1628:
		return "1.13.1"
	case v >= 1519:
		return "1.13"
	case v >= 1343:
		return "1.12.2"
	case v >= 1241:
		return "1.12.1"
	case v >= 1139:
		return "1.12"
	case v >= 922:
		return "1.11.2"
	case v >= 921:
		return "1.11.1"
	case v >= 819:
		return "1.11"
	case v >= 512:
		return "1.10.2"
	case v >= 511:
		return "1.10.1"
	case v >= 510:
		return "1.10"
	case v >= 184:
		return "1.9.4"
	case v >= 183:
		return "1.9.3"
	case v >= 176:
		return "1.9.2"
	case v >= 175:
		return "1.9.1"
	case v >= 169:
		return "1.9"
	default:
		return ""
	}
}
