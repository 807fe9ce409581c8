// Package schemv3 reads and writes Sponge Schematic Version 3 files:
// the same flat single-region model as v2, nested under a "Schematic"
// root NBT compound with block data and block entities grouped under
// "Blocks".
package schemv3

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

type v3NBT struct {
	Version     int32 `nbt:"Version"`
	DataVersion int32 `nbt:"DataVersion"`

	Metadata struct {
		Name        string `nbt:"Name,omitempty"`
		Author      string `nbt:"Author,omitempty"`
		Date        int64  `nbt:"Date,omitempty"`
		Description string `nbt:"Description,omitempty"`
	} `nbt:"Metadata"`

	Width  int16 `nbt:"Width"`
	Height int16 `nbt:"Height"`
	Length int16 `nbt:"Length"`

	Offset []int32 `nbt:"Offset,omitempty"`

	Blocks struct {
		Palette       map[string]int32 `nbt:"Palette"`
		Data          []byte           `nbt:"Data"`
		BlockEntities []map[string]any `nbt:"BlockEntities,omitempty"`
	} `nbt:"Blocks"`

	Entities []map[string]any `nbt:"Entities,omitempty"`
}

type v3Root struct {
	Schematic v3NBT `nbt:"Schematic"`
}

// Read decodes a gzip-compressed Sponge v3 schematic into a Schematic
// with a single region named schematic.DefaultRegionName.
func Read(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("schemv3: gzip: %w", err)
	}
	defer gz.Close()

	var root v3Root
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&root); err != nil {
		return nil, fmt.Errorf("schemv3: decode nbt: %w", err)
	}
	data := root.Schematic
	if data.Version != 3 {
		return nil, fmt.Errorf("schemv3: expected version 3, got %d", data.Version)
	}

	width, height, length := int32(data.Width), int32(data.Height), int32(data.Length)
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, fmt.Errorf("schemv3: invalid dimensions %dx%dx%d", width, height, length)
	}

	var offset [3]int32
	if len(data.Offset) >= 3 {
		offset = [3]int32{data.Offset[0], data.Offset[1], data.Offset[2]}
	}

	r3 := region.New(schematic.DefaultRegionName, offset, [3]int32{width, height, length})

	states := make([]block.State, len(data.Blocks.Palette))
	for name, idx := range data.Blocks.Palette {
		if int(idx) >= len(states) {
			grown := make([]block.State, idx+1)
			copy(grown, states)
			states = grown
		}
		states[idx] = block.ParseState(name)
	}

	blockCount := int(width) * int(height) * int(length)
	indices, err := codec.DecodeVarIntArray(data.Blocks.Data, blockCount)
	if err != nil {
		return nil, fmt.Errorf("schemv3: decode block data: %w", err)
	}

	for y := int32(0); y < height; y++ {
		for z := int32(0); z < length; z++ {
			for x := int32(0); x < width; x++ {
				idx := int(x + z*width + y*width*length)
				if idx >= len(indices) {
					return nil, fmt.Errorf("schemv3: %w: block data shorter than declared volume", region.ErrDimensionMismatch)
				}
				paletteIdx := indices[idx]
				if paletteIdx < 0 || int(paletteIdx) >= len(states) || states[paletteIdx].Name == "" {
					return nil, fmt.Errorf("schemv3: %w: index %d, palette length %d", region.ErrPaletteIndexOutOfRange, paletteIdx, len(states))
				}
				if states[paletteIdx].IsAir() {
					continue
				}
				if err := r3.SetBlock(offset[0]+x, offset[1]+y, offset[2]+z, states[paletteIdx]); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, beData := range data.Blocks.BlockEntities {
		be := decodeBlockEntity(beData)
		r3.SetBlockEntity(offset[0]+be.X, offset[1]+be.Y, offset[2]+be.Z, be)
	}
	for _, entData := range data.Entities {
		r3.AddEntity(decodeEntity(entData))
	}

	s := schematic.New()
	s.Metadata.Format = "schem_v3"
	s.Metadata.DataVersion = int(data.DataVersion)
	s.Metadata.Name = data.Metadata.Name
	s.Metadata.Author = data.Metadata.Author
	s.Metadata.Description = data.Metadata.Description
	s.AddRegion(r3)
	return s, nil
}

// Write encodes s's merged contents as a gzip-compressed Sponge v3
// schematic.
func Write(w io.Writer, s *schematic.Schematic) error {
	merged, err := s.MergedRegion()
	if err != nil {
		return err
	}
	box := merged.BoundingBox()
	width, height, length := box.Dimensions()

	states, indices := merged.CompactIndices()

	data := v3NBT{
		Version:     3,
		DataVersion: int32(s.Metadata.DataVersion),
		Width:       int16(width),
		Height:      int16(height),
		Length:      int16(length),
		Offset:      []int32{box.Min[0], box.Min[1], box.Min[2]},
	}
	data.Metadata.Name = s.Metadata.Name
	data.Metadata.Author = s.Metadata.Author
	data.Metadata.Description = s.Metadata.Description

	data.Blocks.Palette = make(map[string]int32, len(states))
	for i, st := range states {
		data.Blocks.Palette[st.String()] = int32(i)
	}
	data.Blocks.Data = codec.EncodeVarIntArray(indices)

	for _, be := range merged.BlockEntities() {
		beData := map[string]any{
			"Pos": []int32{be.X - box.Min[0], be.Y - box.Min[1], be.Z - box.Min[2]},
			"Id":  be.ID,
		}
		maps.Copy(beData, be.Data)
		data.Blocks.BlockEntities = append(data.Blocks.BlockEntities, beData)
	}
	for _, ent := range merged.Entities() {
		data.Entities = append(data.Entities, encodeEntity(ent))
	}

	root := v3Root{Schematic: data}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(root); err != nil {
		return fmt.Errorf("schemv3: encode nbt: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("schemv3: close gzip: %w", err)
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
