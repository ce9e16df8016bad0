package rates

import (
	"sort"
	"time"

	"cruisepulse/pkg/contracts/domain"
)

// Table is an immutable, date-ascending series of daily rates with at most one
// entry per calendar day. It is safe to share between goroutines.
type Table struct {
	entries []domain.Rate
}

// NewTable sorts entries by date and keeps the last entry seen for each day
func NewTable(entries []domain.Rate) *Table {
	byDay := make(map[time.Time]int, len(entries))
	out := make([]domain.Rate, 0, len(entries))

	for _, e := range entries {
		day := truncateDay(e.Date)
		values := make(map[domain.Currency]float64, len(e.Values))
		for c, v := range e.Values {
			values[c] = v
		}
		rate := domain.Rate{Date: day, Values: values}

		if i, ok := byDay[day]; ok {
			out[i] = rate
			continue
		}
		byDay[day] = len(out)
		out = append(out, rate)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return &Table{entries: out}
}

// Len returns the number of daily entries
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in ascending date order
func (t *Table) Entries() []domain.Rate {
	if t == nil {
		return nil
	}
	out := make([]domain.Rate, len(t.entries))
	copy(out, t.entries)
	return out
}

// Earliest returns the oldest entry
func (t *Table) Earliest() (domain.Rate, bool) {
	if t.Len() == 0 {
		return domain.Rate{}, false
	}
	return t.entries[0], true
}

// Latest returns the newest entry
func (t *Table) Latest() (domain.Rate, bool) {
	if t.Len() == 0 {
		return domain.Rate{}, false
	}
	return t.entries[len(t.entries)-1], true
}

// Lookup returns the latest entry dated on or before date. When every entry is
// newer than date the earliest entry is returned with fallback set. ok is false
// only for an empty table.
func (t *Table) Lookup(date time.Time) (rate domain.Rate, fallback bool, ok bool) {
	if t.Len() == 0 {
		return domain.Rate{}, false, false
	}

	// first index strictly after date
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Date.After(date)
	})
	if i == 0 {
		return t.entries[0], true, true
	}
	return t.entries[i-1], false, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
