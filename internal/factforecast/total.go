package factforecast

import (
	"database/sql"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/factforecast/internal/data"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrDataCoercion = merry.New("data coercion error")

// Total is data1 + data2 of one metric record.
type Total struct {
	ID int64
	// Date is zero for records loaded with DateUnknown.
	Date  time.Time
	Value decimal.Decimal
}

func (x Total) DateKnown() bool {
	return !x.Date.IsZero()
}

func (x Total) FormatDate() string {
	if !x.DateKnown() {
		return "unknown"
	}
	return x.Date.Format("2006-01-02")
}

// Totals reads the whole table and sums the values of every record in id
// order. Missing values count as zero.
func Totals(db sqlx.Queryer, table string) ([]Total, error) {
	records, err := data.ListMetricRecords(db, table)
	if err != nil {
		return nil, err
	}
	xs := make([]Total, 0, len(records))
	for _, r := range records {
		x := Total{ID: r.ID}
		if r.Date.Valid {
			if x.Date, err = time.Parse(dateLayout, strings.TrimSpace(r.Date.String)); err != nil {
				return nil, ErrDataCoercion.Here().WithCause(err).
					Appendf("%s: id %d: date %q", table, r.ID, r.Date.String)
			}
		}
		v1, err := parseValue(r.Data1)
		if err != nil {
			return nil, merry.Prependf(err, "%s: id %d: data1", table, r.ID)
		}
		v2, err := parseValue(r.Data2)
		if err != nil {
			return nil, merry.Prependf(err, "%s: id %d: data2", table, r.ID)
		}
		x.Value = v1.Add(v2)
		xs = append(xs, x)
	}
	return xs, nil
}

// maxExponent bounds the decimal exponent of a stored value, Add rescales
// both operands to a common exponent.
const maxExponent = 1000

func parseValue(s sql.NullString) (decimal.Decimal, error) {
	str := strings.TrimSpace(s.String)
	if !s.Valid || str == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero, ErrDataCoercion.Here().WithCause(err).Appendf("%q", str)
	}
	if e := v.Exponent(); e > maxExponent || e < -maxExponent {
		return decimal.Zero, ErrDataCoercion.Here().Appendf("%q: exponent out of range", str)
	}
	return v, nil
}
