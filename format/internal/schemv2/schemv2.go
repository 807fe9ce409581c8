// Package schemv2 reads and writes Sponge Schematic Version 2 files:
// the flat, single-region wire format compressed with gzip and encoded
// as big-endian NBT.
package schemv2

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"maps"

	"github.com/sandertv/gophertunnel/minecraft/nbt"

	"github.com/oriumgames/schematic"
	"github.com/oriumgames/schematic/block"
	"github.com/oriumgames/schematic/codec"
	"github.com/oriumgames/schematic/region"
)

type v2NBT struct {
	Version       int32            `nbt:"Version"`
	DataVersion   int32            `nbt:"DataVersion"`
	Width         int16            `nbt:"Width"`
	Height        int16            `nbt:"Height"`
	Length        int16            `nbt:"Length"`
	Offset        []int32          `nbt:"Offset,omitempty"`
	Metadata      map[string]any   `nbt:"Metadata,omitempty"`
	PaletteMax    int32            `nbt:"PaletteMax"`
	Palette       map[string]int32 `nbt:"Palette"`
	BlockData     []byte           `nbt:"BlockData"`
	BlockEntities []map[string]any `nbt:"BlockEntities,omitempty"`
	Entities      []map[string]any `nbt:"Entities,omitempty"`
}

// Read decodes a gzip-compressed Sponge v2 schematic into a Schematic
// with a single region named schematic.DefaultRegionName.
func Read(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("schemv2: gzip: %w", err)
	}
	defer gz.Close()

	var data v2NBT
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&data); err != nil {
		return nil, fmt.Errorf("schemv2: decode nbt: %w", err)
	}
	if data.Version != 2 {
		return nil, fmt.Errorf("schemv2: expected version 2, got %d", data.Version)
	}

	width, height, length := int32(data.Width), int32(data.Height), int32(data.Length)
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, fmt.Errorf("schemv2: invalid dimensions %dx%dx%d", width, height, length)
	}

	var offset [3]int32
	if len(data.Offset) >= 3 {
		offset = [3]int32{data.Offset[0], data.Offset[1], data.Offset[2]}
	}

	r2 := region.New(schematic.DefaultRegionName, offset, [3]int32{width, height, length})

	states := make([]block.State, data.PaletteMax+1)
	for name, idx := range data.Palette {
		if idx >= 0 && int(idx) < len(states) {
			states[idx] = block.ParseState(name)
		}
	}

	blockCount := int(width) * int(height) * int(length)
	indices, err := codec.DecodeVarIntArray(data.BlockData, blockCount)
	if err != nil {
		return nil, fmt.Errorf("schemv2: decode block data: %w", err)
	}

	for y := int32(0); y < height; y++ {
		for z := int32(0); z < length; z++ {
			for x := int32(0); x < width; x++ {
				idx := int(x + z*width + y*width*length)
				if idx >= len(indices) {
					return nil, fmt.Errorf("schemv2: %w: block data shorter than declared volume", region.ErrDimensionMismatch)
				}
				paletteIdx := indices[idx]
				if paletteIdx < 0 || int(paletteIdx) >= len(states) || states[paletteIdx].Name == "" {
					return nil, fmt.Errorf("schemv2: %w: index %d, palette length %d", region.ErrPaletteIndexOutOfRange, paletteIdx, len(states))
				}
				if states[paletteIdx].IsAir() {
					continue
				}
				if err := r2.SetBlock(offset[0]+x, offset[1]+y, offset[2]+z, states[paletteIdx]); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, beData := range data.BlockEntities {
		be := decodeBlockEntity(beData)
		r2.SetBlockEntity(offset[0]+be.X, offset[1]+be.Y, offset[2]+be.Z, be)
	}
	for _, entData := range data.Entities {
		r2.AddEntity(decodeEntity(entData))
	}

	s := schematic.New()
	s.Metadata.Format = "schem_v2"
	s.Metadata.DataVersion = int(data.DataVersion)
	if name, ok := data.Metadata["Name"].(string); ok {
		s.Metadata.Name = name
	}
	s.AddRegion(r2)
	return s, nil
}

// Write encodes s's merged contents as a gzip-compressed Sponge v2
// schematic.
func Write(w io.Writer, s *schematic.Schematic) error {
	merged, err := s.MergedRegion()
	if err != nil {
		return err
	}

	box := merged.BoundingBox()
	width, height, length := box.Dimensions()

	states, indices := merged.CompactIndices()
	blockData := codec.EncodeVarIntArray(indices)

	paletteMap := make(map[string]int32, len(states))
	for i, st := range states {
		paletteMap[st.String()] = int32(i)
	}

	data := v2NBT{
		Version:     2,
		DataVersion: int32(s.Metadata.DataVersion),
		Width:       int16(width),
		Height:      int16(height),
		Length:      int16(length),
		Offset:      []int32{box.Min[0], box.Min[1], box.Min[2]},
		PaletteMax:  int32(len(states) - 1),
		Palette:     paletteMap,
		BlockData:   blockData,
		Metadata:    map[string]any{"Name": s.Metadata.Name},
	}

	for _, be := range merged.BlockEntities() {
		beData := map[string]any{
			"Pos": []int32{be.X - box.Min[0], be.Y - box.Min[1], be.Z - box.Min[2]},
			"Id":  be.ID,
		}
		maps.Copy(beData, be.Data)
		data.BlockEntities = append(data.BlockEntities, beData)
	}
	for _, ent := range merged.Entities() {
		entData := encodeEntity(ent)
		data.Entities = append(data.Entities, entData)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(data); err != nil {
		return fmt.Errorf("schemv2: encode nbt: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("schemv2: close gzip: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func decodeBlockEntity(data map[string]any) *block.BlockEntity {
	be := &block.BlockEntity{Data: make(map[string]any)}
	if pos, ok := data["Pos"].([]any); ok && len(pos) >= 3 {
		be.X = toInt32(pos[0])
		be.Y = toInt32(pos[1])
		be.Z = toInt32(pos[2])
	}
	if id, ok := data["Id"].(string); ok {
		be.ID = id
	}
	for k, v := range data {
		if k != "Pos" && k != "Id" {
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
	if id, ok := data["Id"].(string); ok {
		ent.ID = id
	}
	if ids, ok := toInt32Slice(data["UUID"]); ok {
		ent.SetUUIDFromInts(ids)
	}
	for k, v := range data {
		if k != "Pos" && k != "Rotation" && k != "Motion" && k != "Id" && k != "UUID" {
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
		"Id":       ent.ID,
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
