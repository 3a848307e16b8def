package screening

import (
	"time"

	"resumescreener/internal/types"
)

// StatusFunc observes progress snapshots. It is called synchronously; a
// panic inside it propagates to the caller of the run.
type StatusFunc func(types.ProcessingStatus)

// statusTracker owns the latest snapshot of one run.
type statusTracker struct {
	start    time.Time
	now      func() time.Time
	onStatus StatusFunc
	publish  func(*types.ProcessingStatus)
}

func (s *statusTracker) emit(stage string, processed, total int) {
	s.emitWith(stage, processed, total, "", false)
}

func (s *statusTracker) fail(stage string, processed, total int, message string) {
	s.emitWith(stage, processed, total, message, false)
}

func (s *statusTracker) complete(count int) {
	s.emitWith(types.StageComplete, count, count, "", true)
}

func (s *statusTracker) emitWith(stage string, processed, total int, message string, done bool) {
	snapshot := types.ProcessingStatus{
		CurrentAgent:   stage,
		ProcessedCount: processed,
		TotalCount:     total,
		IsComplete:     done,
		StartTime:      s.start,
		ElapsedSeconds: s.now().Sub(s.start).Seconds(),
		SchemaVersion:  types.SchemaVersion,
	}
	if message != "" {
		msg := message
		snapshot.ErrorMessage = &msg
	}

	s.publish(&snapshot)
	if s.onStatus != nil {
		s.onStatus(snapshot)
	}
}
