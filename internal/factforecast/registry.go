package factforecast

import (
	"github.com/fpawel/factforecast/internal/data"
	"github.com/fpawel/factforecast/internal/sheet"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"
)

// CompanyRegistry maps company names to ids of the company table.
type CompanyRegistry struct {
	ids map[string]int64
}

func LoadCompanyRegistry(db sqlx.Queryer) (*CompanyRegistry, error) {
	companies, err := data.ListCompanies(db)
	if err != nil {
		return nil, err
	}
	r := &CompanyRegistry{ids: make(map[string]int64, len(companies))}
	for _, c := range companies {
		r.ids[c.Name] = c.ID
	}
	return r, nil
}

// PopulateCompanies adds to the company table every name of the populated
// rows of sh that is not there yet, in order of first appearance.
func PopulateCompanies(log *structlog.Logger, db *sqlx.DB, sh *sheet.Sheet) (*CompanyRegistry, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, row := range sh.Rows() {
		name := sh.Company(row)
		if _, f := seen[name]; f {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	var added int
	err := data.WithTx(db, func(tx *sqlx.Tx) error {
		for _, name := range names {
			exists, err := data.CompanyExists(tx, name)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if _, err := data.InsertCompany(tx, name); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("companies", "found", len(names), "added", added)
	return LoadCompanyRegistry(db)
}

func (r *CompanyRegistry) Lookup(name string) (int64, bool) {
	id, f := r.ids[name]
	return id, f
}

func (r *CompanyRegistry) Len() int {
	return len(r.ids)
}
