// Package litematic reads and writes Litematica V6 files: a gzip +
// big-endian NBT envelope holding one or more named regions, each with
// its own palette and tight-packed block-state array.
package litematic

import (
	"compress/gzip"
	"fmt"
	"io"
	"maps"

	"github.com/sandertv/gophertunnel/minecraft/nbt"

	"github.com/oriumgames/schematic"
	"github.com/oriumgames/schematic/block"
	"github.com/oriumgames/schematic/codec"
	"github.com/oriumgames/schematic/palette"
	"github.com/oriumgames/schematic/region"
)

type xyz struct {
	X int32 `nbt:"x"`
	Y int32 `nbt:"y"`
	Z int32 `nbt:"z"`
}

type blockStatePaletteEntry struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties,omitempty"`
}

type regionNBT struct {
	Position xyz `nbt:"Position"`
	Size     xyz `nbt:"Size"`

	BlockStatePalette []blockStatePaletteEntry `nbt:"BlockStatePalette"`
	BlockStates       []int64                  `nbt:"BlockStates,array"`
	TileEntities      []map[string]any         `nbt:"TileEntities"`
	Entities          []map[string]any         `nbt:"Entities"`
}

type litematicNBT struct {
	Version              int32 `nbt:"Version"`
	MinecraftDataVersion int32 `nbt:"MinecraftDataVersion"`

	Metadata struct {
		Name          string `nbt:"Name"`
		Author        string `nbt:"Author"`
		Description   string `nbt:"Description"`
		RegionCount   int32  `nbt:"RegionCount"`
		TotalBlocks   int32  `nbt:"TotalBlocks"`
		TotalVolume   int32  `nbt:"TotalVolume"`
		EnclosingSize xyz    `nbt:"EnclosingSize"`
	} `nbt:"Metadata"`

	Regions map[string]regionNBT `nbt:"Regions"`
}

// Read decodes a gzip-compressed Litematica V6 file into a Schematic,
// one region per NBT region entry, preserving names, positions, and
// sizes exactly.
func Read(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("litematic: gzip: %w", err)
	}
	defer gz.Close()

	var data litematicNBT
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&data); err != nil {
		return nil, fmt.Errorf("litematic: decode nbt: %w", err)
	}
	if data.Version != 6 {
		return nil, fmt.Errorf("litematic: unsupported version %d (expected 6)", data.Version)
	}
	if len(data.Regions) == 0 {
		return nil, fmt.Errorf("litematic: no regions present")
	}

	s := schematic.New()
	s.Metadata.Format = "litematica"
	s.Metadata.DataVersion = int(data.MinecraftDataVersion)
	s.Metadata.Name = data.Metadata.Name
	s.Metadata.Author = data.Metadata.Author
	s.Metadata.Description = data.Metadata.Description

	for name, rdata := range data.Regions {
		r, err := decodeRegion(name, rdata)
		if err != nil {
			return nil, err
		}
		s.AddRegion(r)
	}
	return s, nil
}

func decodeRegion(name string, rdata regionNBT) (*region.Region, error) {
	states := make([]block.State, len(rdata.BlockStatePalette))
	for i, p := range rdata.BlockStatePalette {
		states[i] = block.State{Name: p.Name, Properties: p.Properties}
	}
	bitsPerEntry := palette.BitsPerEntry(len(states))

	position := [3]int32{rdata.Position.X, rdata.Position.Y, rdata.Position.Z}
	size := [3]int32{rdata.Size.X, rdata.Size.Y, rdata.Size.Z}
	r, err := region.LoadPacked(name, position, size, states, rdata.BlockStates, bitsPerEntry)
	if err != nil {
		return nil, fmt.Errorf("litematic: %w", err)
	}

	for _, teData := range rdata.TileEntities {
		be := decodeBlockEntity(teData)
		r.SetBlockEntity(be.X, be.Y, be.Z, be)
	}
	for _, entData := range rdata.Entities {
		r.AddEntity(decodeEntity(entData))
	}
	return r, nil
}

// Write encodes s as a gzip-compressed Litematica V6 file with one NBT
// region per Schematic region.
func Write(w io.Writer, s *schematic.Schematic) error {
	data := litematicNBT{
		Version:              6,
		MinecraftDataVersion: int32(s.Metadata.DataVersion),
		Regions:              make(map[string]regionNBT, len(s.RegionNames())),
	}
	data.Metadata.Name = s.Metadata.Name
	data.Metadata.Author = s.Metadata.Author
	data.Metadata.Description = s.Metadata.Description

	box := s.BoundingBox()
	width, height, length := box.Dimensions()
	data.Metadata.EnclosingSize = xyz{X: width, Y: height, Z: length}

	totalBlocks, totalVolume := 0, int64(0)
	for _, name := range s.RegionNames() {
		r := s.GetRegion(name)
		encoded, err := encodeRegion(r)
		if err != nil {
			return err
		}
		data.Regions[name] = encoded
		totalBlocks += r.CountBlocks()
		totalVolume += int64(r.Volume())
	}
	data.Metadata.RegionCount = int32(len(data.Regions))
	data.Metadata.TotalBlocks = int32(totalBlocks)
	data.Metadata.TotalVolume = int32(totalVolume)

	gz := gzip.NewWriter(w)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("litematic: encode nbt: %w", err)
	}
	return gz.Close()
}

func encodeRegion(r *region.Region) (regionNBT, error) {
	position := r.Position()
	size := r.Size()
	states, indices := r.CompactIndices()
	bitsPerEntry := palette.BitsPerEntry(len(states))
	packed := codec.PackTight(indices, bitsPerEntry)

	out := regionNBT{
		Position:    xyz{X: position[0], Y: position[1], Z: position[2]},
		Size:        xyz{X: size[0], Y: size[1], Z: size[2]},
		BlockStates: packed,
	}
	for _, st := range states {
		out.BlockStatePalette = append(out.BlockStatePalette, blockStatePaletteEntry{
			Name:       st.Name,
			Properties: st.Properties,
		})
	}
	for _, be := range r.BlockEntities() {
		teData := map[string]any{"x": be.X, "y": be.Y, "z": be.Z, "id": be.ID}
		maps.Copy(teData, be.Data)
		out.TileEntities = append(out.TileEntities, teData)
	}
	for _, ent := range r.Entities() {
		out.Entities = append(out.Entities, encodeEntity(ent))
	}
	return out, nil
}

func decodeBlockEntity(data map[string]any) *block.BlockEntity {
	be := &block.BlockEntity{Data: make(map[string]any)}
	if x, ok := data["x"]; ok {
		be.X = toInt32(x)
	}
	if y, ok := data["y"]; ok {
		be.Y = toInt32(y)
	}
	if z, ok := data["z"]; ok {
		be.Z = toInt32(z)
	}
	if id, ok := data["id"].(string); ok {
		be.ID = id
	}
	for k, v := range data {
		if k != "x" && k != "y" && k != "z" && k != "id" {
			be.Data[k] = v
		}
	}
	return be
}

func decodeEntity(data map[string]any) *block.Entity {
	ent := &block.Entity{Data: make(map[string]any)}
	if pos, ok := data["Pos"].([]any); ok && len(pos) >= 3 {
		ent.Pos = [3]float64{toFloat64(pos[0]), toFloat64(pos[1]), toFloat64(pos[2])}
	}
	if rot, ok := data["Rotation"].([]any); ok && len(rot) >= 2 {
		ent.Rotation = [2]float32{float32(toFloat64(rot[0])), float32(toFloat64(rot[1]))}
	}
	if motion, ok := data["Motion"].([]any); ok && len(motion) >= 3 {
		ent.Motion = [3]float64{toFloat64(motion[0]), toFloat64(motion[1]), toFloat64(motion[2])}
	}
	if id, ok := data["id"].(string); ok {
		ent.ID = id
	}
	if ids, ok := toInt32Slice(data["UUID"]); ok {
		ent.SetUUIDFromInts(ids)
	}
	for k, v := range data {
		if k != "Pos" && k != "Rotation" && k != "Motion" && k != "id" && k != "UUID" {
			ent.Data[k] = v
		}
	}
	return ent
}

func encodeEntity(ent *block.Entity) map[string]any {
	entData := map[string]any{
		"Pos":      []float64{ent.Pos[0], ent.Pos[1], ent.Pos[2]},
		"Rotation": []float32{ent.Rotation[0], ent.Rotation[1]},
		"Motion":   []float64{ent.Motion[0], ent.Motion[1], ent.Motion[2]},
		"id":       ent.ID,
	}
	if ids := ent.UUIDInts(); ids != nil {
		entData["UUID"] = ids
	}
	maps.Copy(entData, ent.Data)
	return entData
}

func toInt32(v any) int32 {
	switch n := v.(type) {
	case int32:
		return n
	case int64:
		return int32(n)
	case float64:
		return int32(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return 0
	}
}

func toInt32Slice(v any) ([]int32, bool) {
	switch ids := v.(type) {
	case []int32:
		return ids, true
	case []any:
		out := make([]int32, len(ids))
		for i, id := range ids {
			out[i] = toInt32(id)
		}
		return out, true
	default:
		return nil, false
	}
}
