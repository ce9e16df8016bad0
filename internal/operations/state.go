package operations

import (
	"cruisepulse/internal/dataprocessing"
	"cruisepulse/internal/rates"
	"cruisepulse/pkg/contracts/domain"
)

// RunState carries the data of one pipeline run from Step to Step. It is
// created per run and never shared between runs.
type RunState struct {
	ID string

	// Table is the working table until records are built from it
	Table *domain.Table
	// Records are built lazily from Table by the first Step that needs them
	Records  []domain.BookingRecord
	Enriched []domain.EnrichedRecord

	// Rates is nil when no rate table could be loaded
	Rates *rates.Table
	Stats *domain.ProcessingStats

	Steps []*StepState
}

// NewRunState creates the state for a run over input
func NewRunState(id string, input *domain.Table) *RunState {
	stats := domain.NewProcessingStats()
	stats.OriginalRows = input.NumRows()
	stats.OriginalCols = input.NumCols()

	return &RunState{
		ID:    id,
		Table: input,
		Stats: stats,
	}
}

// BookingRecords returns the records of the working table, building them on
// first use. The table must not change afterwards.
func (s *RunState) BookingRecords() []domain.BookingRecord {
	if s.Records == nil {
		s.Records = dataprocessing.BuildRecords(s.Table)
	}
	return s.Records
}

// GetStep returns the state of a Step, nil when the Step is not part of the run
func (s *RunState) GetStep(id string) *StepState {
	for _, st := range s.Steps {
		if st.ID == id {
			return st
		}
	}
	return nil
}

func (s *RunState) annotate(stepID, key string, value any) {
	if st := s.GetStep(stepID); st != nil {
		st.SetMetadata(key, value)
	}
}
