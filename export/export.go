// Package export writes comparisons in formats consumed by external renderers and by humans.
//
// None of the formats carry styling. Missing timestamps are encoded explicitly: as null in JSON, as empty cells in
// spreadsheets and as "-" in text tables.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"honnef.co/go/pipeview/compare"
)

type Format uint8

const (
	FormatText Format = iota
	FormatJSON
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXLSX:
		return "xlsx"
	default:
		return "text"
	}
}

// ParseFormat parses a format name, as accepted on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", name)
	}
}

// FormatFor picks the format for an output path by its extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatText
	}
}

// Write writes c to w in the given format.
func Write(w io.Writer, c *compare.Comparison, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, c)
	case FormatXLSX:
		return WriteXLSX(w, c)
	default:
		return WriteText(w, c)
	}
}

// WriteFile creates the file at path and writes c to it in the given format.
func WriteFile(path string, c *compare.Comparison, f Format) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if err := Write(out, c, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
