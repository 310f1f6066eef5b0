package app

import (
	"os"

	"github.com/ansel1/merry"
	"github.com/fpawel/factforecast/internal/factforecast"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
)

const envPrefix = "FFPARSER"

type Config struct {
	InputFile      string                     `toml:"input_file" comment:"файл Excel с данными факта и прогноза" envconfig:"INPUT_FILE"`
	OutputFile     string                     `toml:"output_file" comment:"файл базы данных sqlite" envconfig:"OUTPUT_FILE" validate:"required"`
	LogLevel       string                     `toml:"log_level" comment:"уровень логирования: dbg, inf, wrn, err" envconfig:"LOG_LEVEL" validate:"oneof=dbg inf wrn err"`
	MissingCompany string                     `toml:"missing_company" comment:"компания не найдена: abort – прервать загрузку таблицы, skip – пропустить строку" envconfig:"MISSING_COMPANY" validate:"oneof=abort skip"`
	DatePolicy     string                     `toml:"date_policy" comment:"дата записи: random – случайный день текущего месяца, unknown – не задана" envconfig:"DATE_POLICY" validate:"oneof=random unknown"`
	Parallel       int                        `toml:"parallel" comment:"число таблиц, загружаемых одновременно" envconfig:"PARALLEL" validate:"min=0,max=16"`
	ReportFormat   string                     `toml:"report_format" comment:"формат итогов: text, yaml" envconfig:"REPORT_FORMAT" validate:"oneof=text yaml"`
	Tables         []factforecast.TableConfig `toml:"tables" comment:"таблицы БД и номера столбцов data1, data2" ignored:"true" validate:"min=1,dive"`
}

func defaultConfig() Config {
	return Config{
		OutputFile:     "factforecast.sqlite",
		LogLevel:       "inf",
		MissingCompany: string(factforecast.MissingCompanyAbort),
		DatePolicy:     string(factforecast.DateRandom),
		ReportFormat:   "text",
		Tables:         factforecast.DefaultTables(),
	}
}

// openConfig reads filename, writing it with default values if it does not
// exist, and applies the environment overrides. saved reports that the
// defaults were written.
func openConfig(filename string) (c Config, saved bool, err error) {
	c = defaultConfig()
	b, err := os.ReadFile(filename)
	switch {
	case os.IsNotExist(err):
		if err := saveConfig(filename, c); err != nil {
			return c, false, err
		}
		saved = true
	case err != nil:
		return c, false, merry.Wrap(err)
	default:
		if err := toml.Unmarshal(b, &c); err != nil {
			return c, false, merry.Prepend(err, filename)
		}
	}
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return c, saved, merry.Prepend(err, "environment")
	}
	return c, saved, nil
}

func saveConfig(filename string, c Config) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return merry.Wrap(err)
	}
	return merry.Wrap(os.WriteFile(filename, b, 0666))
}

func (c Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return merry.Prepend(err, "config")
	}
	return nil
}

func (c Config) parserConfig() factforecast.Config {
	return factforecast.Config{
		Tables:         c.Tables,
		MissingCompany: factforecast.MissingCompanyPolicy(c.MissingCompany),
		DatePolicy:     factforecast.DatePolicy(c.DatePolicy),
		Parallel:       c.Parallel,
	}
}
