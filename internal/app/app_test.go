package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/powerman/structlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func saveWells(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	rows := [][]interface{}{
		{"CompanyA", 10, 20, 1, 2},
		{"CompanyB", 5, 15, 3, 4},
		{"CompanyA", 3, 7, 5, 6},
	}
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Wells"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(2, 4+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	filename := filepath.Join(t.TempDir(), "wells.xlsx")
	require.NoError(t, f.SaveAs(filename))
	return filename
}

func TestOpenConfigDefaults(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.toml")

	c, saved, err := openConfig(filename)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, defaultConfig(), c)
	assert.FileExists(t, filename)

	c, saved, err = openConfig(filename)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, defaultConfig(), c)
	require.NoError(t, c.validate())
	assert.Equal(t, structlog.ParseLevel("inf"), structlog.ParseLevel(c.LogLevel))
}

func TestOpenConfigFileAndEnv(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(filename, []byte(`
input_file = "wells.xlsx"
missing_company = "skip"
parallel = 2

[[tables]]
  table_name = "fact_Qliq"
  col_num_data1 = 3
  col_num_data2 = 4
`), 0644))
	t.Setenv("FFPARSER_OUTPUT_FILE", "env.sqlite")
	t.Setenv("FFPARSER_REPORT_FORMAT", "yaml")
	t.Setenv("FFPARSER_LOG_LEVEL", "wrn")

	c, saved, err := openConfig(filename)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, "wells.xlsx", c.InputFile)
	assert.Equal(t, "env.sqlite", c.OutputFile)
	assert.Equal(t, "skip", c.MissingCompany)
	assert.Equal(t, "random", c.DatePolicy, "default is kept")
	assert.Equal(t, 2, c.Parallel)
	assert.Equal(t, "yaml", c.ReportFormat)
	assert.Equal(t, "wrn", c.LogLevel)
	require.Len(t, c.Tables, 1)
	assert.Equal(t, "fact_Qliq", c.Tables[0].TableName)
	require.NoError(t, c.validate())
}

func TestConfigValidate(t *testing.T) {
	for name, f := range map[string]func(c *Config){
		"no output":      func(c *Config) { c.OutputFile = "" },
		"no tables":      func(c *Config) { c.Tables = nil },
		"column":         func(c *Config) { c.Tables[1].ColNumData2 = 0 },
		"table name":     func(c *Config) { c.Tables[0].TableName = "" },
		"report format":  func(c *Config) { c.ReportFormat = "csv" },
		"date policy":    func(c *Config) { c.DatePolicy = "today" },
		"missing policy": func(c *Config) { c.MissingCompany = "ignore" },
		"parallel":       func(c *Config) { c.Parallel = -1 },
		"log level":      func(c *Config) { c.LogLevel = "verbose" },
		"no log level":   func(c *Config) { c.LogLevel = "" },
	} {
		c := defaultConfig()
		f(&c)
		assert.Error(t, c.validate(), name)
	}
	assert.NoError(t, defaultConfig().validate())
}

func TestRun(t *testing.T) {
	c := defaultConfig()
	c.InputFile = saveWells(t)
	c.OutputFile = filepath.Join(t.TempDir(), "out.sqlite")
	log := structlog.New()

	var buf bytes.Buffer
	require.NoError(t, Run(log, c, actionAll, &buf))
	out := buf.String()
	assert.Contains(t, out, `Total for "fact_Qliq"`)
	assert.Contains(t, out, `Total for "forecast_Qoil"`)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4*5-1)

	buf.Reset()
	require.NoError(t, Run(log, c, actionParse, &buf))
	assert.Empty(t, buf.String())

	c.InputFile = ""
	c.ReportFormat = "yaml"
	buf.Reset()
	require.NoError(t, Run(log, c, actionTotal, &buf))
	assert.Contains(t, buf.String(), "table: fact_Qliq")
	assert.Equal(t, 4*6, strings.Count(buf.String(), "total:"), "two parse runs appended")
}

func TestRunErrors(t *testing.T) {
	log := structlog.New()
	c := defaultConfig()
	c.OutputFile = filepath.Join(t.TempDir(), "out.sqlite")

	assert.Error(t, Run(log, c, "write", &bytes.Buffer{}))
	assert.Error(t, Run(log, c, actionAll, &bytes.Buffer{}), "no input file")
	assert.Error(t, Run(log, c, actionTotal, &bytes.Buffer{}), "no database")
	assert.NoFileExists(t, c.OutputFile)

	c.InputFile = filepath.Join(t.TempDir(), "missing.xlsx")
	assert.Error(t, Run(log, c, actionParse, &bytes.Buffer{}))
}
