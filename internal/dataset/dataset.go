// Package dataset reads scenario test data from an .xlsx workbook. The first
// row of the sheet holds column headers; data rows are addressed from 1.
// Every lookup opens and reads the file again, so edits to the workbook are
// picked up between scenarios and lookups are safe to run concurrently.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet read when none is given.
const DefaultSheet = "Sheet1"

// Column headers of the registration data.
const (
	UsernameColumn = "Username"
	EmailColumn    = "Email"
)

var (
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrRowNotFound    = errors.New("row not found")
	ErrEmptyCell      = errors.New("empty cell")
)

// LookupError describes a failed lookup.
type LookupError struct {
	Path   string
	Sheet  string
	Row    int    // zero when the row is not involved
	Column string // empty when the column is not involved
	Err    error
}

func (e *LookupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dataset %s[%s]", e.Path, e.Sheet)
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Row maps column headers, as written in the sheet, to cell values.
type Row map[string]string

// Provider looks up test data in one sheet of a workbook.
type Provider struct {
	path  string
	sheet string
}

// New returns a Provider for sheet in the workbook at path. An empty sheet
// selects DefaultSheet. The file is not opened until the first lookup.
func New(path, sheet string) *Provider {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Provider{path: path, sheet: sheet}
}

// Path returns the workbook path.
func (p *Provider) Path() string {
	return p.path
}

func (p *Provider) lookupErr(row int, column string, err error) error {
	return &LookupError{Path: p.path, Sheet: p.sheet, Row: row, Column: column, Err: err}
}

// read returns every row of the sheet, header first.
func (p *Provider) read() ([][]string, error) {
	f, err := excelize.OpenFile(p.path)
	if err != nil {
		return nil, p.lookupErr(0, "", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(p.sheet); err != nil || idx < 0 {
		return nil, p.lookupErr(0, "", ErrSheetNotFound)
	}
	rows, err := f.GetRows(p.sheet)
	if err != nil {
		return nil, p.lookupErr(0, "", err)
	}
	if len(rows) == 0 {
		return nil, p.lookupErr(0, "", fmt.Errorf("%w: no header row", ErrRowNotFound))
	}
	glog.V(2).Infof("Read %d rows from %s[%s]", len(rows), p.path, p.sheet)
	return rows, nil
}

// columnIndex finds column in the header, ignoring case and surrounding
// space.
func columnIndex(header []string, column string) int {
	want := strings.TrimSpace(column)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

// Field returns the value in the given data row (1-based) under column.
// An unknown column is reported before a missing row.
func (p *Provider) Field(row int, column string) (string, error) {
	rows, err := p.read()
	if err != nil {
		return "", err
	}
	col := columnIndex(rows[0], column)
	if col < 0 {
		return "", p.lookupErr(row, column, ErrColumnNotFound)
	}
	if row < 1 || row >= len(rows) {
		return "", p.lookupErr(row, column, ErrRowNotFound)
	}
	cells := rows[row]
	if col >= len(cells) || strings.TrimSpace(cells[col]) == "" {
		return "", p.lookupErr(row, column, ErrEmptyCell)
	}
	return cells[col], nil
}

// Row returns every column of the given data row. Missing cells map to the
// empty string.
func (p *Provider) Row(row int) (Row, error) {
	rows, err := p.read()
	if err != nil {
		return nil, err
	}
	if row < 1 || row >= len(rows) {
		return nil, p.lookupErr(row, "", ErrRowNotFound)
	}
	return makeRow(rows[0], rows[row]), nil
}

// Rows returns all data rows in sheet order.
func (p *Provider) Rows() ([]Row, error) {
	rows, err := p.read()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		out = append(out, makeRow(rows[0], cells))
	}
	return out, nil
}

func makeRow(header, cells []string) Row {
	r := make(Row, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		r[h] = v
	}
	return r
}

// Username returns the Username column of a data row.
func (p *Provider) Username(row int) (string, error) {
	return p.Field(row, UsernameColumn)
}

// Email returns the Email column of a data row.
func (p *Provider) Email(row int) (string, error) {
	return p.Field(row, EmailColumn)
}
