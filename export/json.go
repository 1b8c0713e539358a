package export

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"honnef.co/go/pipeview/compare"
	"honnef.co/go/pipeview/timeline"
	"honnef.co/go/pipeview/trace"
)

type jsonDocument struct {
	Configurations []jsonConfiguration `json:"configurations"`
	Unavailable    []jsonUnavailable   `json:"unavailable"`
}

type jsonConfiguration struct {
	Title        string        `json:"title"`
	Annotation   string        `json:"annotation"`
	Source       string        `json:"source"`
	IPC          *float64      `json:"ipc"`
	Cycles       *uint64       `json:"cycles"`
	ColumnLabels []string      `json:"columnLabels"`
	RowLabels    []string      `json:"rowLabels"`
	ControlFlow  []bool        `json:"controlFlow"`
	Matrix       [][]*uint64   `json:"matrix"`
	Bounds       *jsonBounds   `json:"bounds"`
	Latency      []jsonLatency `json:"latency"`
	Diagnostics  jsonDiag      `json:"diagnostics"`
}

type jsonBounds struct {
	Min uint64 `json:"min"`
	Max uint64 `json:"max"`
}

type jsonLatency struct {
	Stage  string  `json:"stage"`
	Count  int     `json:"count"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type jsonDiag struct {
	Lines     int `json:"lines"`
	Fetches   int `json:"instructions"`
	Malformed int `json:"malformed"`
	Orphaned  int `json:"orphaned"`
	Truncated int `json:"truncated"`
}

type jsonUnavailable struct {
	Label  string `json:"label"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

// WriteJSON writes c as an indented JSON document. Missing cells and undefined metrics are encoded as null.
func WriteJSON(w io.Writer, c *compare.Comparison) error {
	doc := jsonDocument{
		Configurations: make([]jsonConfiguration, 0, c.Results.Len()),
		Unavailable:    make([]jsonUnavailable, 0, len(c.Unavailable)),
	}
	for _, res := range c.Results.All() {
		doc.Configurations = append(doc.Configurations, newJSONConfiguration(res))
	}
	for _, u := range c.Unavailable {
		doc.Unavailable = append(doc.Unavailable, jsonUnavailable{
			Label:  u.Label,
			Source: u.Source,
			Error:  u.Err.Error(),
		})
	}
	return json.MarshalWrite(w, &doc, jsontext.WithIndent("\t"))
}

func newJSONConfiguration(res *compare.Result) jsonConfiguration {
	p := res.Panel()
	cfg := jsonConfiguration{
		Title:        p.Title,
		Annotation:   p.Annotation,
		Source:       res.Source,
		IPC:          res.Statistics.IPC.Ptr(),
		Cycles:       res.Statistics.Cycles.Ptr(),
		ColumnLabels: p.Columns[:],
		RowLabels:    make([]string, len(p.Rows)),
		ControlFlow:  make([]bool, len(p.Rows)),
		Matrix:       make([][]*uint64, p.Matrix.Len()),
		Latency:      []jsonLatency{},
		Diagnostics: jsonDiag{
			Lines:     res.Diagnostics.Lines,
			Fetches:   res.Diagnostics.Fetches,
			Malformed: res.Diagnostics.Malformed,
			Orphaned:  res.Diagnostics.Orphaned,
			Truncated: res.Diagnostics.Truncated,
		},
	}
	for i, row := range p.Rows {
		cfg.RowLabels[i] = row.Text
		cfg.ControlFlow[i] = row.ControlFlow
	}
	for i := range p.Matrix.Rows {
		cells := make([]*uint64, trace.NumStages)
		for j, cell := range p.Matrix.Rows[i] {
			cells[j] = cell.Ptr()
		}
		cfg.Matrix[i] = cells
	}
	if lo, hi, ok := p.Matrix.Bounds(); ok {
		cfg.Bounds = &jsonBounds{Min: lo, Max: hi}
	}
	for _, s := range trace.Stages {
		if lat, ok := res.Statistics.Latency[s].Get(); ok {
			cfg.Latency = append(cfg.Latency, newJSONLatency(s, lat))
		}
	}
	return cfg
}

func newJSONLatency(s trace.Stage, lat timeline.Latency) jsonLatency {
	return jsonLatency{
		Stage:  s.String(),
		Count:  lat.Count,
		Min:    lat.Min,
		Max:    lat.Max,
		Mean:   lat.Mean,
		Median: lat.Median,
	}
}
