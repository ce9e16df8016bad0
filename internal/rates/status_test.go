package rates

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruisepulse/pkg/contracts/domain"
)

func TestCheck(t *testing.T) {
	table := NewTable([]domain.Rate{
		mkRate("2024-01-01", 90, 98),
		mkRate("2024-03-10", 91, 99),
	})

	tests := []struct {
		name      string
		now       time.Time
		wantLevel Level
		wantDays  int
	}{
		{"same day", day("2024-03-10").Add(9 * time.Hour), LevelSuccess, 0},
		{"two days", day("2024-03-12").Add(23 * time.Hour), LevelSuccess, 2},
		{"three days", day("2024-03-13").Add(time.Hour), LevelWarning, 3},
		{"seven days", day("2024-03-17"), LevelWarning, 7},
		{"eight days", day("2024-03-18"), LevelError, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Check(table, tt.now, DefaultThresholds)
			assert.Equal(t, tt.wantLevel, st.Status)
			assert.Equal(t, tt.wantDays, st.DaysOld)
			assert.Equal(t, "01.01.2024", st.MinDate)
			assert.Equal(t, "10.03.2024", st.MaxDate)
			assert.Equal(t, 2, st.TotalRecords)
		})
	}
}

func TestCheckFile_Missing(t *testing.T) {
	st := CheckFile(filepath.Join(t.TempDir(), "none.csv"), time.Now(), DefaultThresholds)
	assert.Equal(t, LevelError, st.Status)
	assert.Equal(t, MessageNotFound, st.Message)
}

func TestCheckFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	require.NoError(t, SaveFile(path, NewTable([]domain.Rate{mkRate("2024-03-10", 91, 99)})))

	st := CheckFile(path, day("2024-03-11"), DefaultThresholds)
	assert.Equal(t, LevelSuccess, st.Status)
	assert.Equal(t, MessageFresh, st.Message)
}
