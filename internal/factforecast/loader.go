package factforecast

import (
	"database/sql"
	"strings"

	"github.com/ansel1/merry"
	"github.com/fpawel/factforecast/internal/data"
	"github.com/fpawel/factforecast/internal/sheet"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"
)

var ErrReferenceResolution = merry.New("company not found")

type tableLoader struct {
	log            *structlog.Logger
	db             *sqlx.DB
	sheet          *sheet.Sheet
	companies      *CompanyRegistry
	missingCompany MissingCompanyPolicy
	dates          *dateGenerator
}

// load appends a record per populated row of the sheet to the table of tc.
// The table is created and filled in one transaction, so a failed load
// leaves it as it was.
func (x tableLoader) load(tc TableConfig) (int, error) {
	log := logPrependSuffixKeys(x.log, "table", tc.TableName)

	var (
		records []data.MetricRecord
		skipped int
	)
	for _, row := range x.sheet.Rows() {
		name := x.sheet.Company(row)
		companyID, f := x.companies.Lookup(name)
		if !f {
			if x.missingCompany == MissingCompanySkip {
				log.Debug("skip row", "row", row, "company", name)
				skipped++
				continue
			}
			return 0, ErrReferenceResolution.Here().Appendf("%s: row %d: %q", tc.TableName, row, name)
		}
		records = append(records, data.MetricRecord{
			CompanyID: companyID,
			Data1:     cellValue(x.sheet.Cell(row, tc.ColNumData1)),
			Data2:     cellValue(x.sheet.Cell(row, tc.ColNumData2)),
			Date:      x.dates.next(),
		})
	}

	err := data.WithTx(x.db, func(tx *sqlx.Tx) error {
		if err := data.CreateMetricTable(tx, tc.TableName); err != nil {
			return err
		}
		return data.InsertMetricRecords(tx, tc.TableName, records)
	})
	if err != nil {
		return 0, merry.Prepend(err, tc.TableName)
	}
	if skipped > 0 {
		log.Warn("rows with unknown company skipped", "skipped", skipped)
	}
	log.Info("loaded", "rows", len(records))
	return len(records), nil
}

func cellValue(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
