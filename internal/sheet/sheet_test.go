package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func saveWorkbook(t *testing.T, rows map[int][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	for row, values := range rows {
		for i, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	filename := filepath.Join(t.TempDir(), "wells.xlsx")
	require.NoError(t, f.SaveAs(filename))
	return filename
}

func TestOpen(t *testing.T) {
	filename := saveWorkbook(t, map[int][]interface{}{
		1: {"id", "Wells"},
		2: {nil, "fact", nil, nil, "forecast"},
		4: {1, "CompanyA", 10, 20, 1.5, 2},
		5: {2, "CompanyB", 5, 15},
		6: {3, "CompanyA", 3, 7},
		8: {5, "CompanyC", 1, 1},
	})

	s, err := Open(filename)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", s.Name)
	assert.Equal(t, "Wells", s.Title())
	assert.Equal(t, 6, s.LengthRow(), "scan stops at the first empty company cell")
	assert.Equal(t, []int{4, 5, 6}, s.Rows())
	assert.Equal(t, "CompanyB", s.Company(5))
	assert.Equal(t, "10", s.Cell(4, 3))
	assert.Equal(t, "1.5", s.Cell(4, 5))
	assert.Equal(t, "", s.Cell(5, 9))
	assert.Equal(t, "", s.Cell(100, 1))
	assert.Equal(t, "", s.Cell(0, 0))
}

func TestLengthRowEmpty(t *testing.T) {
	s := New("Sheet1", [][]string{{"", "Wells"}, {}, {}, {"", "  "}})
	assert.Equal(t, DataStartRow-1, s.LengthRow())
	assert.Empty(t, s.Rows())
}

func TestOpenNotWorkbook(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "wells.xlsx")
	require.NoError(t, os.WriteFile(filename, []byte("company;data1;data2\n"), 0644))

	_, err := Open(filename)
	require.Error(t, err)
	assert.True(t, merry.Is(err, ErrSourceFormat))

	_, err = Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.True(t, merry.Is(err, ErrSourceFormat))
}
