// Package sheet reads the fact/forecast workbook.
package sheet

import (
	"strings"

	"github.com/ansel1/merry"
	"github.com/xuri/excelize/v2"
)

const (
	// DataStartRow is the first row holding company data, rows above are headers.
	DataStartRow = 4
	// CompanyColumn holds the company name of each data row.
	CompanyColumn = 2
	// TitleRow holds the name of the group of companies in CompanyColumn.
	TitleRow = 1
)

var ErrSourceFormat = merry.New("source format error")

// Sheet is the active sheet of a workbook, read into memory with raw cell
// values. Rows and columns are 1-based.
type Sheet struct {
	Name string
	rows [][]string
}

func Open(filename string) (*Sheet, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, ErrSourceFormat.Here().WithCause(err).Appendf("open %s", filename)
	}
	defer func() {
		_ = f.Close()
	}()
	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		return nil, ErrSourceFormat.Here().Appendf("%s: no active sheet", filename)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, ErrSourceFormat.Here().WithCause(err).Appendf("%s: read sheet %q", filename, name)
	}
	return &Sheet{Name: name, rows: rows}, nil
}

// New makes a sheet from rows already in memory, rows[0] being row 1.
func New(name string, rows [][]string) *Sheet {
	return &Sheet{Name: name, rows: rows}
}

func (s *Sheet) Cell(row, col int) string {
	if row < 1 || row > len(s.rows) {
		return ""
	}
	xs := s.rows[row-1]
	if col < 1 || col > len(xs) {
		return ""
	}
	return xs[col-1]
}

func (s *Sheet) Title() string {
	return strings.TrimSpace(s.Cell(TitleRow, CompanyColumn))
}

// LengthRow returns the last row of the consecutive block of non-empty
// company names starting at DataStartRow, or DataStartRow-1 if there is none.
func (s *Sheet) LengthRow() int {
	row := DataStartRow
	for strings.TrimSpace(s.Cell(row, CompanyColumn)) != "" {
		row++
	}
	return row - 1
}

// Rows returns the indexes of populated data rows.
func (s *Sheet) Rows() []int {
	var xs []int
	for row, n := DataStartRow, s.LengthRow(); row <= n; row++ {
		xs = append(xs, row)
	}
	return xs
}

func (s *Sheet) Company(row int) string {
	return strings.TrimSpace(s.Cell(row, CompanyColumn))
}
