package app

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/ansel1/merry"
	"github.com/fpawel/factforecast/internal/data"
	"github.com/fpawel/factforecast/internal/factforecast"
	"github.com/google/uuid"
	"github.com/powerman/structlog"
)

const (
	actionParse = "parse"
	actionTotal = "total"
	actionAll   = "all"
)

func Main() {
	initLog()
	log := structlog.New()

	configFile := flag.String("config", "config.toml", "файл конфигурации")
	inputFile := flag.String("in", "", "файл Excel, заменяет input_file конфигурации")
	outputFile := flag.String("out", "", "файл базы данных, заменяет output_file конфигурации")
	action := flag.String("a", actionAll, `что нужно сделать:
 - parse : загрузить данные из файла Excel в базу данных
 - total : вывести итоги по таблицам базы данных
 - all : parse и total`)
	flag.Parse()

	config, saved, err := openConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *inputFile != "" {
		config.InputFile = *inputFile
	}
	if *outputFile != "" {
		config.OutputFile = *outputFile
	}
	if err := config.validate(); err != nil {
		log.Fatal(err)
	}
	structlog.DefaultLogger.SetLogLevel(structlog.ParseLevel(config.LogLevel))

	log = structlog.New("run", uuid.NewString()).PrependSuffixKeys("run")
	if saved {
		log.Info("config saved", "file", *configFile)
	}
	log.Debug("config", "config", config)

	if err := Run(log, config, *action, os.Stdout); err != nil {
		log.PrintErr(err, "action", *action)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

// Run performs action: loads config.InputFile into config.OutputFile and/or
// writes totals of the configured tables to w.
func Run(log *structlog.Logger, config Config, action string, w io.Writer) error {
	switch action {
	case actionParse, actionTotal, actionAll:
	default:
		return merry.Errorf("не правильный параметр: -a=%q", action)
	}
	if err := config.validate(); err != nil {
		return err
	}

	var (
		p   *factforecast.Parser
		err error
	)
	if action == actionTotal {
		p, err = openReport(log, config)
	} else {
		if config.InputFile == "" {
			return merry.New("не задан файл Excel: input_file")
		}
		log.Debug("open", "input", config.InputFile, "output", config.OutputFile)
		p, err = factforecast.Open(log, config.InputFile, config.OutputFile, config.parserConfig())
	}
	if err != nil {
		return err
	}
	defer log.ErrIfFail(p.Close)

	if action != actionTotal {
		counts, err := p.Parse()
		if err != nil {
			return err
		}
		for _, tc := range p.Tables() {
			log.Info("загружено", "table", tc.TableName, "rows", counts[tc.TableName])
		}
	}
	if action == actionParse {
		return nil
	}
	if config.ReportFormat == "yaml" {
		return p.WriteTotalsYAML(w)
	}
	return p.PrintTotals(w)
}

// openReport opens the database without a workbook, the parser can only
// report totals.
func openReport(log *structlog.Logger, config Config) (*factforecast.Parser, error) {
	if _, err := os.Stat(config.OutputFile); err != nil {
		return nil, merry.Prepend(err, "база данных")
	}
	db, err := data.Open(config.OutputFile)
	if err != nil {
		return nil, err
	}
	p, err := factforecast.New(log, db, nil, config.parserConfig())
	if err != nil {
		log.ErrIfFail(db.Close)
		return nil, err
	}
	return p, nil
}

func initLog() {
	structlog.DefaultLogger.
		SetPrefixKeys(
			structlog.KeyApp, structlog.KeyPID, structlog.KeyLevel, structlog.KeyUnit, structlog.KeyTime,
		).
		SetDefaultKeyvals(
			structlog.KeyApp, filepath.Base(os.Args[0]),
			structlog.KeySource, structlog.Auto,
		).
		SetSuffixKeys(
			structlog.KeyStack,
		).
		SetSuffixKeys(structlog.KeySource).
		SetKeysFormat(map[string]string{
			structlog.KeyTime:   " %[2]s",
			structlog.KeySource: " %6[2]s",
			structlog.KeyUnit:   " %6[2]s",
			"config":            " %+[2]v",
		}).SetTimeFormat("15:04:05")
}
