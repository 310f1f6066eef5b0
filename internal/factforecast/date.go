package factforecast

import (
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const dateLayout = "2006-1-2"

// DaysInMonth counts February 29 in leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateGenerator hands out record dates of one run. The year and month are
// fixed when the run starts.
type dateGenerator struct {
	policy DatePolicy
	year   int
	month  time.Month

	mu   sync.Mutex
	rand *rand.Rand
}

func newDateGenerator(policy DatePolicy, now time.Time, r *rand.Rand) *dateGenerator {
	return &dateGenerator{
		policy: policy,
		year:   now.Year(),
		month:  now.Month(),
		rand:   r,
	}
}

func (g *dateGenerator) next() sql.NullString {
	if g.policy == DateUnknown {
		return sql.NullString{}
	}
	g.mu.Lock()
	day := g.rand.Intn(DaysInMonth(g.year, g.month)) + 1
	g.mu.Unlock()
	return sql.NullString{
		String: fmt.Sprintf("%d-%d-%d", g.year, int(g.month), day),
		Valid:  true,
	}
}
