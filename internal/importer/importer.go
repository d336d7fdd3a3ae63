// Package importer reads batches of problems from spreadsheets and writes
// their results back out.
//
// The first row of the sheet is a header. One column must be "problem"; every
// other non-empty header names a parameter, with dotted names such as
// "bottom.width" for nested sections. Each following row is one request.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/openchannel/pkg/solver"
)

// ErrNoProblemColumn is returned when the header has no "problem" column.
var ErrNoProblemColumn = errors.New(`sheet has no "problem" column`)

// RowError reports a row that could not be turned into a request.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ReadRequests reads the requests in sheet, or in the first sheet when sheet
// is empty. Blank rows are skipped.
func ReadRequests(r io.Reader, sheet string) ([]solver.Request, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	header := make([]string, len(rows[0]))
	problemCol := -1
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		if header[i] == "problem" {
			problemCol = i
		}
	}
	if problemCol < 0 {
		return nil, ErrNoProblemColumn
	}

	var reqs []solver.Request
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		var name string
		if problemCol < len(row) {
			name = row[problemCol]
		}
		problem, err := solver.ParseProblem(name)
		if err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
		params := solver.Params{}
		for col, cell := range row {
			if col == problemCol || col >= len(header) || header[col] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell == "" {
				continue
			}
			params[header[col]] = cellValue(cell)
		}
		reqs = append(reqs, solver.Request{Problem: problem, Params: params})
	}
	return reqs, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellValue(cell string) any {
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
