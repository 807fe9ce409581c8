package format

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// ErrFormatUnknown is returned when data's envelope doesn't match any
// known format.
var ErrFormatUnknown = errors.New("format: unknown schematic format")

// ErrFormatCorrupt is returned when data's envelope is recognized but
// malformed: bad gzip, bad NBT, or a missing mandatory tag.
var ErrFormatCorrupt = errors.New("format: corrupt schematic data")

// Detect identifies which of "litematica", "schem_v2", "schem_v3" data
// is encoded as.
func Detect(data []byte) (string, error) {
	if len(data) < 2 || data[0] != 0x1F || data[1] != 0x8B {
		return "", fmt.Errorf("%w: not a gzip stream", ErrFormatUnknown)
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: gzip: %v", ErrFormatCorrupt, err)
	}
	defer gz.Close()

	nbtData, err := io.ReadAll(gz)
	if err != nil {
		return "", fmt.Errorf("%w: reading gzip stream: %v", ErrFormatCorrupt, err)
	}

	var root map[string]any
	if err := nbt.NewDecoderWithEncoding(bytes.NewReader(nbtData), nbt.BigEndian).Decode(&root); err != nil {
		return "", fmt.Errorf("%w: decode nbt: %v", ErrFormatCorrupt, err)
	}

	// Litematica: root carries its own "Regions" compound directly.
	if _, hasRegions := root["Regions"]; hasRegions {
		version, _ := root["Version"].(int32)
		if version != 6 {
			return "", fmt.Errorf("%w: unsupported litematica version %d", ErrFormatCorrupt, version)
		}
		return "litematica", nil
	}

	// Sponge v3 wraps its whole payload under a single "Schematic" child
	// compound of the (unnamed) NBT root tag; v2's payload sits directly
	// at the root.
	body := root
	if inner, ok := root["Schematic"].(map[string]any); ok {
		body = inner
	}

	if _, hasBlocks := body["Blocks"]; hasBlocks {
		if version, _ := body["Version"].(int32); version != 3 {
			return "", fmt.Errorf("%w: unsupported schem version %d", ErrFormatCorrupt, version)
		}
		return "schem_v3", nil
	}

	_, hasBlockData := root["BlockData"]
	_, hasWidth := root["Width"]
	_, hasHeight := root["Height"]
	_, hasLength := root["Length"]
	if hasBlockData && hasWidth && hasHeight && hasLength {
		if version, _ := root["Version"].(int32); version != 2 {
			return "", fmt.Errorf("%w: unsupported schem version %d", ErrFormatCorrupt, version)
		}
		return "schem_v2", nil
	}

	return "", fmt.Errorf("%w: unrecognized tag structure", ErrFormatUnknown)
}
