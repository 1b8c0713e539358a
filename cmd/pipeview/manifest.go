package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"honnef.co/go/pipeview/compare"
	"honnef.co/go/pipeview/trace"
)

// manifest describes a comparison in a YAML file:
//
//	max-rows: 20
//	ticks-per-cycle: 500
//	output: comparison.json
//	sources:
//	  - label: With BP
//	    path: trace_bp_on.out
//	  - label: No BP
//	    path: trace_bp_off.out.zst
//
// Relative paths are resolved against the manifest's directory.
type manifest struct {
	MaxRows       *int             `yaml:"max-rows"`
	TicksPerCycle *uint64          `yaml:"ticks-per-cycle"`
	Jobs          *int             `yaml:"jobs"`
	Output        string           `yaml:"output"`
	Sources       []manifestSource `yaml:"sources"`
}

type manifestSource struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Sources {
		if p := m.Sources[i].Path; p != "-" && !filepath.IsAbs(p) {
			m.Sources[i].Path = filepath.Join(dir, p)
		}
	}
	if m.Output != "" && m.Output != "-" && !filepath.IsAbs(m.Output) {
		m.Output = filepath.Join(dir, m.Output)
	}
	return m, nil
}

func parseManifest(data []byte) (*manifest, error) {
	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, err
	}
	for i, src := range m.Sources {
		if src.Path == "" {
			return nil, fmt.Errorf("source %d has no path", i)
		}
		if src.Label == "" {
			m.Sources[i].Label = defaultLabel(src.Path)
		}
	}
	return &m, nil
}

// parseSourceArg parses a command line source of the form label=path. Without a label, the file name minus its
// extensions is used.
func parseSourceArg(arg string) (manifestSource, error) {
	label, path, ok := strings.Cut(arg, "=")
	if !ok {
		path = arg
		label = defaultLabel(arg)
	}
	if path == "" {
		return manifestSource{}, fmt.Errorf("source %q has no path", arg)
	}
	if label == "" {
		return manifestSource{}, fmt.Errorf("source %q has an empty label", arg)
	}
	return manifestSource{Label: label, Path: path}, nil
}

func defaultLabel(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func (src manifestSource) config() compare.Config {
	var s trace.Source
	if src.Path == "-" {
		s = &trace.ReaderSource{Name: "stdin", R: os.Stdin}
	} else {
		s = trace.FileSource(src.Path)
	}
	return compare.Config{Label: src.Label, Source: s}
}
