package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/openchannel/pkg/solver"
)

const (
	resultsSheet = "Results"
	errorsSheet  = "Errors"
)

// WriteResults writes one row per outcome to a "Results" sheet, with a
// column per output field, and every field or request failure to an
// "Errors" sheet. Profiles are left out of the table.
func WriteResults(w io.Writer, outcomes []solver.Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return err
	}

	var columns []string
	index := map[string]int{}
	for _, o := range outcomes {
		for _, fld := range o.Result.Fields {
			if fld.Name == "profile" {
				continue
			}
			if _, ok := index[fld.Name]; !ok {
				index[fld.Name] = len(columns)
				columns = append(columns, fld.Name)
			}
		}
	}

	header := append([]any{"row", "problem"}, toAny(columns)...)
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetSheetRow(errorsSheet, "A1", &[]any{"row", "field", "error"}); err != nil {
		return err
	}

	errRow := 2
	addError := func(row int, field, msg string) error {
		cell, err := excelize.CoordinatesToCellName(1, errRow)
		if err != nil {
			return err
		}
		errRow++
		return f.SetSheetRow(errorsSheet, cell, &[]any{row, field, msg})
	}

	for i, o := range outcomes {
		line := make([]any, len(columns)+2)
		line[0] = i + 1
		line[1] = string(o.Result.Problem)
		if o.Err != nil {
			if err := addError(i+1, "", o.Err.Error()); err != nil {
				return err
			}
		}
		for _, fld := range o.Result.Fields {
			col, ok := index[fld.Name]
			if !ok {
				continue
			}
			if !fld.OK() {
				if err := addError(i+1, fld.Name, fld.Err.Error()); err != nil {
					return err
				}
				continue
			}
			line[col+2] = fld.Value
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &line); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
