package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"honnef.co/go/pipeview/compare"
	"honnef.co/go/pipeview/container"
)

const summarySheet = "Summary"

// Excel limits sheet names to 31 characters and forbids some characters.
const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// WriteXLSX writes c as a spreadsheet, with a summary sheet followed by one sheet per configuration. Each
// configuration sheet holds one row per instruction and one column per stage; missing timestamps are left empty.
func WriteXLSX(w io.Writer, c *compare.Comparison) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	if err := writeSummarySheet(f, c); err != nil {
		return err
	}

	used := container.Set[string]{strings.ToLower(summarySheet): {}}
	for _, res := range c.Results.All() {
		name := sheetName(res.Label, used)
		used.Add(strings.ToLower(name))
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet for %q: %w", res.Label, err)
		}
		if err := writeConfigurationSheet(f, name, res); err != nil {
			return fmt.Errorf("writing sheet for %q: %w", res.Label, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSummarySheet(f *excelize.File, c *compare.Comparison) error {
	header := []any{"Configuration", "Source", "IPC", "Cycles", "Rows", "Control flow", "Lines", "Malformed", "Orphaned"}
	if err := setRow(f, summarySheet, 1, header); err != nil {
		return err
	}
	row := 2
	for _, res := range c.Results.All() {
		values := []any{
			res.Label,
			res.Source,
			optionalCell(res.Statistics.IPC),
			optionalCell(res.Statistics.Cycles),
			res.Table.Len(),
			res.Table.ControlFlow(),
			res.Diagnostics.Lines,
			res.Diagnostics.Malformed,
			res.Diagnostics.Orphaned,
		}
		if err := setRow(f, summarySheet, row, values); err != nil {
			return err
		}
		row++
	}
	for _, u := range c.Unavailable {
		values := []any{u.Label, u.Source, "unavailable: " + u.Err.Error()}
		if err := setRow(f, summarySheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeConfigurationSheet(f *excelize.File, sheet string, res *compare.Result) error {
	p := res.Panel()
	if err := setRow(f, sheet, 1, []any{p.Title, p.Annotation}); err != nil {
		return err
	}
	header := []any{"#", "Label", "Control flow", "PC"}
	for _, col := range p.Columns {
		header = append(header, col)
	}
	if err := setRow(f, sheet, 3, header); err != nil {
		return err
	}
	for i, label := range p.Rows {
		inst := &res.Table.Instructions[i]
		values := []any{i, label.Text, label.ControlFlow, fmt.Sprintf("0x%x", inst.PC)}
		for _, cell := range p.Matrix.Rows[i] {
			values = append(values, optionalCell(cell))
		}
		if err := setRow(f, sheet, 4+i, values); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values starting at column A of the 1-based row. Nil values leave their cell empty.
func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func optionalCell[T any](opt container.Option[T]) any {
	if v, ok := opt.Get(); ok {
		return v
	}
	return nil
}

func sheetName(label string, used container.Set[string]) string {
	base := truncateRunes(sheetNameReplacer.Replace(strings.Trim(label, "'")), maxSheetName)
	if base == "" {
		base = "Configuration"
	}
	name := base
	// Sheet names are compared case-insensitively.
	for i := 2; used.Has(strings.ToLower(name)); i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
