package format

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/oriumgames/schematic"
	"github.com/oriumgames/schematic/format/internal/litematic"
	"github.com/oriumgames/schematic/format/internal/schemv2"
	"github.com/oriumgames/schematic/format/internal/schemv3"
)

// Reader reads a schematic from an io.Reader.
type Reader func(io.Reader) (*schematic.Schematic, error)

// Writer writes a schematic to an io.Writer.
type Writer func(io.Writer, *schematic.Schematic) error

var readers = map[string]Reader{
	"litematica": litematic.Read,
	"schem_v2":   schemv2.Read,
	"schem_v3":   schemv3.Read,
}

var writers = map[string]Writer{
	"litematica": litematic.Write,
	"schem_v2":   schemv2.Write,
	"schem_v3":   schemv3.Write,
}

// Read reads all of r, detects its format, and parses it.
func Read(r io.Reader) (*schematic.Schematic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("format: read data: %w", err)
	}

	formatID, err := Detect(data)
	if err != nil {
		return nil, fmt.Errorf("format: detect: %w", err)
	}
	return ReadFormat(bytes.NewReader(data), formatID)
}

// ReadFormat parses r using a specific format identifier, bypassing
// detection.
func ReadFormat(r io.Reader, formatID string) (*schematic.Schematic, error) {
	reader, ok := readers[formatID]
	if !ok {
		return nil, fmt.Errorf("format: unsupported format %q", formatID)
	}
	s, err := reader(r)
	if err != nil {
		return nil, fmt.Errorf("format: read %s: %w", formatID, err)
	}
	return s, nil
}

// Write writes s using its own Metadata.Format.
func Write(w io.Writer, s *schematic.Schematic) error {
	if s.Metadata.Format == "" {
		return fmt.Errorf("format: schematic does not declare a format")
	}
	return WriteFormat(w, s.Metadata.Format, s)
}

// WriteFormat writes s using the given format identifier.
func WriteFormat(w io.Writer, formatID string, s *schematic.Schematic) error {
	writer, ok := writers[formatID]
	if !ok {
		return fmt.Errorf("format: unsupported format %q", formatID)
	}
	if err := writer(w, s); err != nil {
		return fmt.Errorf("format: write %s: %w", formatID, err)
	}
	return nil
}

// Formats returns every supported format identifier, sorted.
func Formats() []string {
	ids := make([]string, 0, len(readers))
	for id := range readers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReadFile reads a schematic from a file path, auto-detecting its format.
func ReadFile(path string) (*schematic.Schematic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes s to a file path using its own Metadata.Format.
func WriteFile(path string, s *schematic.Schematic) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, s)
}
