package rates

import (
	"errors"
	"io/fs"
	"math"
	"time"
)

// Level classifies how current the rate file is
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Status messages, shown as-is in the upload page
const (
	MessageFresh    = "✅ Актуальны"
	MessageAging    = "⚠️ Требуют обновления"
	MessageStale    = "❌ Устарели"
	MessageNotFound = "Файл курсов валют не найден"
)

// Status describes the rate file freshness
type Status struct {
	Status       Level  `json:"status"`
	Message      string `json:"message"`
	MinDate      string `json:"min_date,omitempty"`
	MaxDate      string `json:"max_date,omitempty"`
	TotalRecords int    `json:"total_records"`
	DaysOld      int    `json:"days_old"`
}

// Thresholds bound the success and warning levels
type Thresholds struct {
	FreshWithin time.Duration
	StaleAfter  time.Duration
}

// DefaultThresholds are two and seven days
var DefaultThresholds = Thresholds{
	FreshWithin: 48 * time.Hour,
	StaleAfter:  7 * 24 * time.Hour,
}

// CheckFile loads the rate file at path and evaluates it against now
func CheckFile(path string, now time.Time, th Thresholds) Status {
	table, err := LoadFile(path)
	if err != nil {
		if isNotFound(err) {
			return Status{Status: LevelError, Message: MessageNotFound}
		}
		return Status{Status: LevelError, Message: "Ошибка: " + err.Error()}
	}
	return Check(table, now, th)
}

// Check evaluates an already loaded table. Age is counted in whole days from the
// newest entry to now.
func Check(t *Table, now time.Time, th Thresholds) Status {
	earliest, ok := t.Earliest()
	if !ok {
		return Status{Status: LevelError, Message: "Ошибка: rate file has no entries"}
	}
	latest, _ := t.Latest()

	daysOld := int(math.Floor(now.Sub(latest.Date).Hours() / 24))

	st := Status{
		MinDate:      earliest.Date.Format("02.01.2006"),
		MaxDate:      latest.Date.Format("02.01.2006"),
		TotalRecords: t.Len(),
		DaysOld:      daysOld,
	}

	switch {
	case daysOld <= wholeDays(th.FreshWithin):
		st.Status, st.Message = LevelSuccess, MessageFresh
	case daysOld <= wholeDays(th.StaleAfter):
		st.Status, st.Message = LevelWarning, MessageAging
	default:
		st.Status, st.Message = LevelError, MessageStale
	}
	return st
}

func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
