package factforecast

import (
	"math/rand"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/factforecast/internal/data"
)

// TableConfig binds two spreadsheet columns (1-based) to a metric table.
type TableConfig struct {
	TableName   string `toml:"table_name" yaml:"table_name" validate:"required"`
	ColNumData1 int    `toml:"col_num_data1" yaml:"col_num_data1" validate:"min=1"`
	ColNumData2 int    `toml:"col_num_data2" yaml:"col_num_data2" validate:"min=1"`
}

func DefaultTables() []TableConfig {
	return []TableConfig{
		{TableName: "fact_Qliq", ColNumData1: 3, ColNumData2: 4},
		{TableName: "fact_Qoil", ColNumData1: 5, ColNumData2: 6},
		{TableName: "forecast_Qliq", ColNumData1: 7, ColNumData2: 8},
		{TableName: "forecast_Qoil", ColNumData1: 9, ColNumData2: 10},
	}
}

// MissingCompanyPolicy decides what the loader does with a row whose company
// is not in the registry.
type MissingCompanyPolicy string

const (
	MissingCompanyAbort MissingCompanyPolicy = "abort"
	MissingCompanySkip  MissingCompanyPolicy = "skip"
)

// DatePolicy decides the date stored with every loaded record.
type DatePolicy string

const (
	// DateRandom picks a uniformly random day of the current month.
	DateRandom DatePolicy = "random"
	// DateUnknown stores NULL.
	DateUnknown DatePolicy = "unknown"
)

type Config struct {
	Tables         []TableConfig
	MissingCompany MissingCompanyPolicy
	DatePolicy     DatePolicy
	// Parallel is the number of metric tables loaded at once, 0 and 1 load
	// them one by one.
	Parallel int

	Now  func() time.Time
	Rand *rand.Rand
}

func (c Config) withDefaults() Config {
	if len(c.Tables) == 0 {
		c.Tables = DefaultTables()
	}
	if c.MissingCompany == "" {
		c.MissingCompany = MissingCompanyAbort
	}
	if c.DatePolicy == "" {
		c.DatePolicy = DateRandom
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

func (c Config) validate() error {
	switch c.MissingCompany {
	case MissingCompanyAbort, MissingCompanySkip:
	default:
		return merry.Errorf("unknown missing company policy %q", c.MissingCompany)
	}
	switch c.DatePolicy {
	case DateRandom, DateUnknown:
	default:
		return merry.Errorf("unknown date policy %q", c.DatePolicy)
	}
	if c.Parallel < 0 {
		return merry.Errorf("parallel must not be negative: %d", c.Parallel)
	}
	names := make(map[string]struct{})
	for _, x := range c.Tables {
		if err := data.ValidateTableName(x.TableName); err != nil {
			return err
		}
		// sqlite table names are case-insensitive
		key := strings.ToLower(x.TableName)
		if _, f := names[key]; f {
			return merry.Errorf("duplicate table %q", x.TableName)
		}
		names[key] = struct{}{}
		if x.ColNumData1 < 1 || x.ColNumData2 < 1 {
			return merry.Errorf("%s: column numbers must be positive: %d, %d",
				x.TableName, x.ColNumData1, x.ColNumData2)
		}
	}
	return nil
}
