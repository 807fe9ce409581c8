// Package block holds the immutable value types placed into a region:
// BlockState, BlockEntity, and Entity.
package block

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrParseBlockString is returned by ParseStateChecked when the input
// does not match the canonical "name" or "name[k=v,...]" form.
var ErrParseBlockString = errors.New("block: malformed block string")

// State is an immutable block identifier plus its property set.
// Equality and hashing treat Properties as a set of pairs, independent
// of insertion order — callers must never mutate a State in place; use
// With/Without to derive a new value.
type State struct {
	Name       string
	Properties map[string]string
}

// New returns a bare block state with no properties.
func New(name string) State {
	return State{Name: name}
}

// Air returns the canonical air block state.
func Air() State {
	return State{Name: "minecraft:air"}
}

// IsAir reports whether s is the air block.
func (s State) IsAir() bool {
	return s.Name == "minecraft:air"
}

// With returns a copy of s with property k set to v.
func (s State) With(k, v string) State {
	props := make(map[string]string, len(s.Properties)+1)
	for pk, pv := range s.Properties {
		props[pk] = pv
	}
	props[k] = v
	return State{Name: s.Name, Properties: props}
}

// Without returns a copy of s with property k removed.
func (s State) Without(k string) State {
	props := make(map[string]string, len(s.Properties))
	for pk, pv := range s.Properties {
		if pk != k {
			props[pk] = pv
		}
	}
	return State{Name: s.Name, Properties: props}
}

// Get returns the value of property k and whether it was present.
func (s State) Get(k string) (string, bool) {
	v, ok := s.Properties[k]
	return v, ok
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	props := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return State{Name: s.Name, Properties: props}
}

// String returns the canonical textual form: "name" or
// "name[k1=v1,k2=v2,...]" with keys in lexicographic order.
func (s State) String() string {
	if len(s.Properties) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s.Properties[k])
	}
	return s.Name + "[" + strings.Join(parts, ",") + "]"
}

// ParseState parses the canonical textual form produced by String.
// A malformed "k=v" pair inside the bracket list is silently skipped,
// matching how the wire formats tolerate extension properties.
func ParseState(str string) State {
	name, props, hasProps := strings.Cut(str, "[")
	if !hasProps {
		return State{Name: name}
	}

	props = strings.TrimSuffix(props, "]")
	properties := make(map[string]string)
	for _, part := range strings.Split(props, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		properties[k] = v
	}
	return State{Name: name, Properties: properties}
}

// ParseStateChecked is ParseState's strict counterpart: it rejects a
// bracketed property list containing any segment that isn't a "k=v"
// pair, returning ErrParseBlockString instead of silently dropping it.
// The format codecs use the lenient ParseState; this strict form is for
// callers that must reject malformed input instead of tolerating it.
func ParseStateChecked(str string) (State, error) {
	name, props, hasProps := strings.Cut(str, "[")
	if !hasProps {
		return State{Name: name}, nil
	}
	if !strings.HasSuffix(props, "]") {
		return State{}, fmt.Errorf("%w: %q", ErrParseBlockString, str)
	}
	props = strings.TrimSuffix(props, "]")
	properties := make(map[string]string)
	if props != "" {
		for _, part := range strings.Split(props, ",") {
			k, v, ok := strings.Cut(part, "=")
			if !ok {
				return State{}, fmt.Errorf("%w: %q", ErrParseBlockString, str)
			}
			properties[k] = v
		}
	}
	return State{Name: name, Properties: properties}, nil
}

// Key returns the canonical string form used as a palette lookup key.
// It is identical to String but documented separately since palette
// code calls it on every intern, not just for display.
func (s State) Key() string {
	return s.String()
}

// BlockEntity is an opaque NBT-like value representing a block entity (tile
// entity), anchored to a specific block position.
type BlockEntity struct {
	ID      string
	X, Y, Z int32
	Data    map[string]any
}

// Clone returns a deep copy of be.
func (be *BlockEntity) Clone() *BlockEntity {
	if be == nil {
		return nil
	}
	data := make(map[string]any, len(be.Data))
	for k, v := range be.Data {
		data[k] = deepCopy(v)
	}
	return &BlockEntity{ID: be.ID, X: be.X, Y: be.Y, Z: be.Z, Data: data}
}

// Entity is an opaque NBT-like value representing a movable entity.
type Entity struct {
	ID       string
	Pos      [3]float64
	Rotation [2]float32
	Motion   [3]float64
	UUID     *uuid.UUID
	Data     map[string]any
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = deepCopy(v)
	}
	clone := &Entity{
		ID:       e.ID,
		Pos:      e.Pos,
		Rotation: e.Rotation,
		Motion:   e.Motion,
		Data:     data,
	}
	if e.UUID != nil {
		id := *e.UUID
		clone.UUID = &id
	}
	return clone
}

// UUIDInts returns e.UUID encoded as the 4×int32 big-endian
// most-significant/least-significant-long form Minecraft stores entity
// UUIDs in ("UUID" int-array tag), or nil if e has no UUID.
func (e *Entity) UUIDInts() []int32 {
	if e.UUID == nil {
		return nil
	}
	b := *e.UUID
	most := binary.BigEndian.Uint64(b[0:8])
	least := binary.BigEndian.Uint64(b[8:16])
	return []int32{int32(most >> 32), int32(most), int32(least >> 32), int32(least)}
}

// SetUUIDFromInts sets e.UUID from a 4×int32 big-endian
// most-significant/least-significant-long encoding, the inverse of
// UUIDInts. It is a no-op (returns false) if ints isn't exactly 4 long.
func (e *Entity) SetUUIDFromInts(ints []int32) bool {
	if len(ints) != 4 {
		return false
	}
	var b [16]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(ints[0]))
	binary.BigEndian.PutUint32(b[4:8], uint32(ints[1]))
	binary.BigEndian.PutUint32(b[8:12], uint32(ints[2]))
	binary.BigEndian.PutUint32(b[12:16], uint32(ints[3]))
	id := uuid.UUID(b)
	e.UUID = &id
	return true
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = deepCopy(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = deepCopy(v)
		}
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// ParseInt32Property is a convenience for callers decoding legacy
// string-only NBT property maps that actually carry integers (the
// "schem" formats store all BlockState properties as strings per the
// canonical form, but some source data encodes numeric properties
// without quoting).
func ParseInt32Property(v string) (int32, error) {
	i, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse int32 property %q: %w", v, err)
	}
	return int32(i), nil
}
