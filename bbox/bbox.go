// Package bbox implements axis-aligned integer bounding boxes: the
// coordinate/index bijection and iteration order shared by every region
// and schematic in this module.
package bbox

// Box is an inclusive axis-aligned integer box: every coordinate with
// Min.X <= x <= Max.X (and likewise for y, z) lies inside it.
type Box struct {
	Min, Max [3]int32
}

// New returns the box spanning min to max, inclusive.
func New(min, max [3]int32) Box {
	return Box{Min: min, Max: max}
}

// Contains reports whether p lies inside the box, inclusive of both faces.
func (b Box) Contains(p [3]int32) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Intersects reports whether b and other share at least one point.
func (b Box) Intersects(other Box) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	return Box{
		Min: [3]int32{
			min32(b.Min[0], other.Min[0]),
			min32(b.Min[1], other.Min[1]),
			min32(b.Min[2], other.Min[2]),
		},
		Max: [3]int32{
			max32(b.Max[0], other.Max[0]),
			max32(b.Max[1], other.Max[1]),
			max32(b.Max[2], other.Max[2]),
		},
	}
}

// Dimensions returns (width, height, length) — max-min+1 per axis.
func (b Box) Dimensions() (width, height, length int32) {
	return b.Max[0] - b.Min[0] + 1, b.Max[1] - b.Min[1] + 1, b.Max[2] - b.Min[2] + 1
}

// ToPositionAndSize returns (position, size) where position is Min and
// size is Dimensions.
func (b Box) ToPositionAndSize() (position, size [3]int32) {
	w, h, l := b.Dimensions()
	return b.Min, [3]int32{w, h, l}
}

// FromPositionAndSize builds a Box from an anchor position and a size
// that may have negative components. A negative component flips the box
// to the other side of position; the signum-based offset below is what
// keeps the resulting box's corners landing exactly on integer
// coordinates instead of off by one. See DESIGN.md for the locked test
// cases this algorithm must satisfy.
func FromPositionAndSize(position, size [3]int32) Box {
	position2 := [3]int32{
		position[0] + size[0],
		position[1] + size[1],
		position[2] + size[2],
	}

	offsetMin := [3]int32{
		-min32(sign32(size[0]), 0),
		-min32(sign32(size[1]), 0),
		-min32(sign32(size[2]), 0),
	}
	offsetMax := [3]int32{
		-max32(sign32(size[0]), 0),
		-max32(sign32(size[1]), 0),
		-max32(sign32(size[2]), 0),
	}

	return Box{
		Min: [3]int32{
			min32(position[0], position2[0]) + offsetMin[0],
			min32(position[1], position2[1]) + offsetMin[1],
			min32(position[2], position2[2]) + offsetMin[2],
		},
		Max: [3]int32{
			max32(position[0], position2[0]) + offsetMax[0],
			max32(position[1], position2[1]) + offsetMax[1],
			max32(position[2], position2[2]) + offsetMax[2],
		},
	}
}

// Volume returns width*height*length as a 64-bit unsigned count.
func (b Box) Volume() uint64 {
	w, h, l := b.Dimensions()
	return uint64(w) * uint64(h) * uint64(l)
}

// CoordsToIndex computes the canonical flat index of (x,y,z) within the
// box: x fastest, then z, then y.
func (b Box) CoordsToIndex(x, y, z int32) int {
	w, _, l := b.Dimensions()
	dx := x - b.Min[0]
	dy := y - b.Min[1]
	dz := z - b.Min[2]
	return int(dx + dz*w + dy*w*l)
}

// IndexToCoords is the inverse of CoordsToIndex.
func (b Box) IndexToCoords(index int) (x, y, z int32) {
	w, _, l := b.Dimensions()
	dx := int32(index) % w
	dy := int32(index) / (w * l)
	dz := (int32(index) / w) % l
	return dx + b.Min[0], dy + b.Min[1], dz + b.Min[2]
}

// Iterator walks every coordinate of a Box in canonical x-fastest,
// z-next, y-slowest order.
type Iterator struct {
	box     Box
	current [3]int32
	done    bool
}

// IterCoords returns an iterator over every coordinate in the box, in
// canonical order. A box with zero volume (Min > Max on some axis)
// yields nothing.
func (b Box) IterCoords() *Iterator {
	it := &Iterator{box: b, current: b.Min}
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2] {
		it.done = true
	}
	return it
}

// Next returns the next coordinate and true, or the zero value and
// false once iteration is exhausted.
func (it *Iterator) Next() (x, y, z int32, ok bool) {
	if it.done {
		return 0, 0, 0, false
	}
	cur := it.current
	nx, ny, nz := cur[0]+1, cur[1], cur[2]
	if nx > it.box.Max[0] {
		nx = it.box.Min[0]
		nz++
		if nz > it.box.Max[2] {
			nz = it.box.Min[2]
			ny++
			if ny > it.box.Max[1] {
				it.done = true
				return cur[0], cur[1], cur[2], true
			}
		}
	}
	it.current = [3]int32{nx, ny, nz}
	return cur[0], cur[1], cur[2], true
}

// Remaining returns the exact count of coordinates not yet returned by
// Next, matching the box's volume when iteration has not started.
func (it *Iterator) Remaining() uint64 {
	if it.done {
		return 0
	}
	visited := uint64(it.box.CoordsToIndex(it.current[0], it.current[1], it.current[2]))
	return it.box.Volume() - visited
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func sign32(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
