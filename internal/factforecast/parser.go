// Package factforecast loads fact and forecast production volumes of
// companies from a workbook into sqlite and reports totals of the loaded
// tables.
//
// Parse fills the company table first, then every configured metric table
// in its own transaction. PrintTotals re-reads each table and prints
// data1 + data2 of every record.
package factforecast

import (
	"fmt"
	"io"
	"sync"

	"github.com/ansel1/merry"
	"github.com/fpawel/factforecast/internal/data"
	"github.com/fpawel/factforecast/internal/sheet"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type Parser struct {
	log   *structlog.Logger
	db    *sqlx.DB
	sheet *sheet.Sheet
	cfg   Config
}

// Open reads the workbook inputFile and opens or creates the database
// outputFile.
func Open(log *structlog.Logger, inputFile, outputFile string, cfg Config) (*Parser, error) {
	sh, err := sheet.Open(inputFile)
	if err != nil {
		return nil, err
	}
	db, err := data.Open(outputFile)
	if err != nil {
		return nil, err
	}
	p, err := New(log, db, sh, cfg)
	if err != nil {
		log.ErrIfFail(db.Close)
		return nil, err
	}
	return p, nil
}

// New makes a parser of sh writing to db. A parser with nil sh can only
// report totals.
func New(log *structlog.Logger, db *sqlx.DB, sh *sheet.Sheet, cfg Config) (*Parser, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Parser{log: log, db: db, sheet: sh, cfg: cfg}, nil
}

func (p *Parser) Close() error {
	return p.db.Close()
}

func (p *Parser) Tables() []TableConfig {
	return append([]TableConfig(nil), p.cfg.Tables...)
}

// Parse loads the workbook and returns the number of records added to every
// metric table. Tables loaded before a failure stay committed.
func (p *Parser) Parse() (map[string]int, error) {
	if p.sheet == nil {
		return nil, merry.New("no workbook to parse")
	}
	p.log.Info("parse", "sheet", p.sheet.Name, "title", p.sheet.Title(),
		"length_row", p.sheet.LengthRow())

	companies, err := PopulateCompanies(p.log, p.db, p.sheet)
	if err != nil {
		return nil, merry.Prepend(err, "company")
	}

	loader := tableLoader{
		log:            p.log,
		db:             p.db,
		sheet:          p.sheet,
		companies:      companies,
		missingCompany: p.cfg.MissingCompany,
		dates:          newDateGenerator(p.cfg.DatePolicy, p.cfg.Now(), p.cfg.Rand),
	}

	counts := make(map[string]int, len(p.cfg.Tables))

	if p.cfg.Parallel <= 1 {
		for _, tc := range p.cfg.Tables {
			n, err := loader.load(tc)
			if err != nil {
				return counts, err
			}
			counts[tc.TableName] = n
		}
		return counts, nil
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(p.cfg.Parallel)
	for _, tc := range p.cfg.Tables {
		tc := tc
		g.Go(func() error {
			n, err := loader.load(tc)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[tc.TableName] = n
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return counts, err
}

func (p *Parser) Totals(table string) ([]Total, error) {
	return Totals(p.db, table)
}

// PrintTotals writes the totals of every configured table. A table that can
// not be summed is reported and skipped, the first such error is returned
// once all tables are written.
func (p *Parser) PrintTotals(w io.Writer) error {
	var firstErr error
	for _, tc := range p.cfg.Tables {
		if _, err := fmt.Fprintf(w, "\nTotal for %q\n", tc.TableName); err != nil {
			return merry.Wrap(err)
		}
		xs, err := p.Totals(tc.TableName)
		if err != nil {
			p.log.PrintErr(err, "table", tc.TableName)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, x := range xs {
			if _, err := fmt.Fprintln(w, x.FormatDate(), x.Value.String()); err != nil {
				return merry.Wrap(err)
			}
		}
	}
	return firstErr
}

type yamlTableTotals struct {
	Table  string      `yaml:"table"`
	Totals []yamlTotal `yaml:"totals"`
}

type yamlTotal struct {
	ID    int64  `yaml:"id"`
	Date  string `yaml:"date"`
	Total string `yaml:"total"`
}

// WriteTotalsYAML writes the totals of every configured table as one YAML
// document. Unlike PrintTotals it stops at the first table that fails.
func (p *Parser) WriteTotalsYAML(w io.Writer) error {
	var doc []yamlTableTotals
	for _, tc := range p.cfg.Tables {
		xs, err := p.Totals(tc.TableName)
		if err != nil {
			return err
		}
		t := yamlTableTotals{Table: tc.TableName, Totals: []yamlTotal{}}
		for _, x := range xs {
			t.Totals = append(t.Totals, yamlTotal{ID: x.ID, Date: x.FormatDate(), Total: x.Value.String()})
		}
		doc = append(doc, t)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return merry.Wrap(err)
	}
	return merry.Wrap(enc.Close())
}
