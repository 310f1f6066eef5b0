package data

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/ansel1/merry"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var ErrStore = merry.New("store error")

func Open(filename string) (*sqlx.DB, error) {
	db, err := openSqliteDBx(filename)
	if err != nil {
		return nil, wrapStore(err, "open %s", filename)
	}
	if _, err := db.Exec(SQLCreate); err != nil {
		_ = db.Close()
		return nil, wrapStore(err, "create schema: %s", filename)
	}
	if err := checkSchemaVersion(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type Company struct {
	ID   int64  `db:"id" yaml:"id"`
	Name string `db:"name" yaml:"name"`
}

// MetricRecord is a row of a fact or forecast table. Empty spreadsheet cells
// are kept as NULL values.
type MetricRecord struct {
	ID        int64          `db:"id"`
	CompanyID int64          `db:"company_id"`
	Data1     sql.NullString `db:"data1"`
	Data2     sql.NullString `db:"data2"`
	Date      sql.NullString `db:"date"`
}

// ValidateTableName reports whether name can be used as a metric table.
// Metric table names are the only identifiers that reach SQL text, and only
// after this check.
func ValidateTableName(name string) error {
	if err := checkIdent(name); err != nil {
		return err
	}
	lower := strings.ToLower(name)
	if lower == "company" || strings.HasPrefix(lower, "sqlite_") {
		return ErrStore.Here().Appendf("reserved table name %q", name)
	}
	return nil
}

func CreateMetricTable(db sqlx.Execer, table string) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	if _, err := db.Exec(fmt.Sprintf(sqlCreateMetricTable, quoteIdent(table))); err != nil {
		return wrapStore(err, "create table %q", table)
	}
	return nil
}

func InsertCompany(db sqlx.Execer, name string) (int64, error) {
	r, err := db.Exec(`INSERT INTO company (name) VALUES (?)`, name)
	if err != nil {
		return 0, wrapStore(err, "insert company %q", name)
	}
	return getNewInsertedID(r)
}

func CompanyExists(db sqlx.Queryer, name string) (bool, error) {
	var exists bool
	if err := sqlx.Get(db, &exists, `SELECT EXISTS(SELECT 1 FROM company WHERE name = ?)`, name); err != nil {
		return false, wrapStore(err, "company exists %q", name)
	}
	return exists, nil
}

func ListCompanies(db sqlx.Queryer) (companies []Company, err error) {
	if err = sqlx.Select(db, &companies, `SELECT id, name FROM company ORDER BY id`); err != nil {
		return nil, wrapStore(err, "list companies")
	}
	return
}

// InsertMetricRecords appends xs to table with one prepared statement.
// IDs of xs are ignored.
func InsertMetricRecords(db sqlx.Preparer, table string, xs []MetricRecord) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	stmt, err := db.Prepare(fmt.Sprintf(
		`INSERT INTO %s (company_id, data1, data2, date) VALUES (?, ?, ?, ?)`, quoteIdent(table)))
	if err != nil {
		return wrapStore(err, "prepare insert %q", table)
	}
	defer func() {
		_ = stmt.Close()
	}()
	for i, x := range xs {
		r, err := stmt.Exec(x.CompanyID, x.Data1, x.Data2, x.Date)
		if err != nil {
			return wrapStore(err, "insert %q: record %d: %+v", table, i, x)
		}
		if _, err := getNewInsertedID(r); err != nil {
			return err
		}
	}
	return nil
}

func ListMetricRecords(db sqlx.Queryer, table string) (xs []MetricRecord, err error) {
	if err = ValidateTableName(table); err != nil {
		return nil, err
	}
	err = sqlx.Select(db, &xs, fmt.Sprintf(
		`SELECT id, company_id, data1, data2, date FROM %s ORDER BY id`, quoteIdent(table)))
	if err != nil {
		return nil, wrapStore(err, "list %q", table)
	}
	return
}

func CountRows(db sqlx.Queryer, table string) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	var n int
	if err := sqlx.Get(db, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table))); err != nil {
		return 0, wrapStore(err, "count %q", table)
	}
	return n, nil
}

// WithTx runs f in a transaction which is committed if f succeeds and rolled
// back otherwise.
func WithTx(db *sqlx.DB, f func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return wrapStore(err, "begin")
	}
	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapStore(err, "commit")
	}
	return nil
}

func checkSchemaVersion(db *sqlx.DB) error {
	var version int
	if err := db.Get(&version, `PRAGMA user_version`); err != nil {
		return wrapStore(err, "read schema version")
	}
	switch {
	case version == 0:
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
			return wrapStore(err, "write schema version")
		}
	case version > SchemaVersion:
		return ErrStore.Here().Appendf("schema version %d is newer than supported %d", version, SchemaVersion)
	}
	return nil
}

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(name string) error {
	if !reIdent.MatchString(name) {
		return ErrStore.Here().Appendf("invalid table name %q", name)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func wrapStore(err error, format string, args ...interface{}) error {
	return ErrStore.Here().WithCause(err).Appendf(format, args...)
}

func openSqliteDB(fileName string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", fileName+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	return conn, err
}

func openSqliteDBx(fileName string) (*sqlx.DB, error) {
	conn, err := openSqliteDB(fileName)
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(conn, "sqlite3"), nil
}

func getNewInsertedID(r sql.Result) (int64, error) {
	id, err := r.LastInsertId()
	if err != nil {
		return 0, wrapStore(err, "last insert id")
	}
	if id <= 0 {
		return 0, ErrStore.Here().Append("was not inserted")
	}
	return id, nil
}
