// Package chunkiter implements the chunk iteration engine: enumerating
// non-empty SUB_x x SUB_y x SUB_z chunk groups over a source's bounding
// box in one of several spatial orderings.
package chunkiter

import (
	"math"
	"sort"

	"github.com/oriumgames/schematic/bbox"
)

// Source is the minimal read surface the iterator needs. A Schematic
// satisfies it without this package importing it, avoiding an import
// cycle.
type Source interface {
	BoundingBox() bbox.Box
	BlockNameAt(x, y, z int32) (string, bool)
}

// Strategy selects the order in which non-empty chunks are yielded. It
// is a small tagged union rather than a bare enum so that the
// DistanceToCamera variant can carry the camera position alongside the
// other, data-free variants — the way ChunkLoadingStrategy's
// DistanceToCamera case does in the original design.
type Strategy struct {
	kind    strategyKind
	x, y, z float64
}

type strategyKind int

const (
	kindNatural strategyKind = iota
	kindTopDown
	kindBottomUp
	kindCenterOutward
	kindRandom
	kindDistanceToCamera
)

var (
	// Natural orders chunks lexicographically by (cx, cy, cz).
	Natural = Strategy{kind: kindNatural}
	// TopDown orders chunks from the highest cy down, ties broken by (cx, cz).
	TopDown = Strategy{kind: kindTopDown}
	// BottomUp orders chunks from the lowest cy up, ties broken by (cx, cz).
	BottomUp = Strategy{kind: kindBottomUp}
	// CenterOutward orders chunks by Chebyshev distance to the geometric center chunk.
	CenterOutward = Strategy{kind: kindCenterOutward}
	// Random yields chunks in an unspecified shuffled order.
	Random = Strategy{kind: kindRandom}
)

// DistanceToCamera returns a Strategy that orders chunks by Euclidean
// distance from (x, y, z) to each chunk's center.
func DistanceToCamera(x, y, z float64) Strategy {
	return Strategy{kind: kindDistanceToCamera, x: x, y: y, z: z}
}

// Chunk bundles one non-empty chunk's coordinate and the positions
// inside it that hold a block.
type Chunk struct {
	X, Y, Z   int32
	Positions [][3]int32
}

// Iterate enumerates every non-empty chunk of size (cw, ch, cl) covering
// src's bounding box, ordered per strategy. A chunk is non-empty iff at
// least one of its positions holds a block whose identifier does not
// contain the substring "air" — a deliberate inherited quirk (see
// DESIGN.md) rather than an equality check against a fixed air set.
func Iterate(src Source, cw, ch, cl int32, strategy Strategy) []Chunk {
	box := src.BoundingBox()
	minCX := floorDiv(box.Min[0], cw)
	maxCX := floorDiv(box.Max[0], cw)
	minCY := floorDiv(box.Min[1], ch)
	maxCY := floorDiv(box.Max[1], ch)
	minCZ := floorDiv(box.Min[2], cl)
	maxCZ := floorDiv(box.Max[2], cl)

	var coords [][3]int32
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			for cz := minCZ; cz <= maxCZ; cz++ {
				coords = append(coords, [3]int32{cx, cy, cz})
			}
		}
	}

	orderChunks(coords, strategy, box, cw, ch, cl)

	var chunks []Chunk
	for _, c := range coords {
		chunkBox := bbox.Box{
			Min: [3]int32{c[0] * cw, c[1] * ch, c[2] * cl},
			Max: [3]int32{c[0]*cw + cw - 1, c[1]*ch + ch - 1, c[2]*cl + cl - 1},
		}
		if !chunkBox.Intersects(box) {
			continue
		}
		clip := bbox.Box{
			Min: [3]int32{maxI32(chunkBox.Min[0], box.Min[0]), maxI32(chunkBox.Min[1], box.Min[1]), maxI32(chunkBox.Min[2], box.Min[2])},
			Max: [3]int32{minI32(chunkBox.Max[0], box.Max[0]), minI32(chunkBox.Max[1], box.Max[1]), minI32(chunkBox.Max[2], box.Max[2])},
		}

		var positions [][3]int32
		it := clip.IterCoords()
		for {
			x, y, z, ok := it.Next()
			if !ok {
				break
			}
			name, present := src.BlockNameAt(x, y, z)
			if present && !containsAir(name) {
				positions = append(positions, [3]int32{x, y, z})
			}
		}
		if len(positions) > 0 {
			chunks = append(chunks, Chunk{X: c[0], Y: c[1], Z: c[2], Positions: positions})
		}
	}
	return chunks
}

func containsAir(name string) bool {
	return indexOf(name, "air") >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

func orderChunks(coords [][3]int32, strategy Strategy, box bbox.Box, cw, ch, cl int32) {
	switch strategy.kind {
	case kindNatural:
		sort.Slice(coords, func(i, j int) bool { return lessLex(coords[i], coords[j]) })
	case kindTopDown:
		sort.Slice(coords, func(i, j int) bool {
			if coords[i][1] != coords[j][1] {
				return coords[i][1] > coords[j][1]
			}
			return lessXZ(coords[i], coords[j])
		})
	case kindBottomUp:
		sort.Slice(coords, func(i, j int) bool {
			if coords[i][1] != coords[j][1] {
				return coords[i][1] < coords[j][1]
			}
			return lessXZ(coords[i], coords[j])
		})
	case kindCenterOutward:
		center := centerChunk(box, cw, ch, cl)
		sort.Slice(coords, func(i, j int) bool {
			return chebyshev(coords[i], center) < chebyshev(coords[j], center)
		})
	case kindRandom:
		// Determinism is explicitly not required for this strategy.
		shuffle(coords)
	case kindDistanceToCamera:
		sort.Slice(coords, func(i, j int) bool {
			return distToCenter(coords[i], cw, ch, cl, strategy) < distToCenter(coords[j], cw, ch, cl, strategy)
		})
	}
}

func distToCenter(c [3]int32, cw, ch, cl int32, p Strategy) float64 {
	cx := float64(c[0])*float64(cw) + float64(cw)/2
	cy := float64(c[1])*float64(ch) + float64(ch)/2
	cz := float64(c[2])*float64(cl) + float64(cl)/2
	dx, dy, dz := cx-p.x, cy-p.y, cz-p.z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func lessLex(a, b [3]int32) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}

func lessXZ(a, b [3]int32) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[2] < b[2]
}

func centerChunk(box bbox.Box, cw, ch, cl int32) [3]int32 {
	return [3]int32{
		floorDiv((box.Min[0]+box.Max[0])/2, cw),
		floorDiv((box.Min[1]+box.Max[1])/2, ch),
		floorDiv((box.Min[2]+box.Max[2])/2, cl),
	}
}

func chebyshev(a, b [3]int32) int32 {
	dx, dy, dz := absI32(a[0]-b[0]), absI32(a[1]-b[1]), absI32(a[2]-b[2])
	return maxI32(dx, maxI32(dy, dz))
}

// shuffle uses a simple fixed-increment LCG rather than math/rand so
// this package carries no hidden global-state dependency; the strategy
// contract only requires a shuffle, not a particular distribution.
func shuffle(coords [][3]int32) {
	state := uint64(len(coords)) + 1
	for i := len(coords) - 1; i > 0; i-- {
		state = state*6364136223846793005 + 1442695040888963407
		j := int(state>>33) % (i + 1)
		if j < 0 {
			j = -j
		}
		coords[i], coords[j] = coords[j], coords[i]
	}
}

func floorDiv(v, m int32) int32 {
	q := v / m
	if v%m != 0 && (v < 0) != (m < 0) {
		q--
	}
	return q
}

func absI32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
