package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yongy146/dota-brain-sub002/internal/report"
)

// Latest holds the outcome of the most recent validation run. The zero value
// is ready to use and safe for concurrent use.
type Latest struct {
	mu  sync.RWMutex
	rep *report.Report
	err error
	at  time.Time
}

// Store records the outcome of a run finished at at. rep may be nil when
// the run failed before producing a report.
func (l *Latest) Store(rep *report.Report, err error, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rep, l.err, l.at = rep, err, at
}

// Load returns the latest outcome. at is zero before the first Store.
func (l *Latest) Load() (rep *report.Report, at time.Time, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rep, l.at, l.err
}

// Check fails unless the latest run completed with a pass verdict.
func (l *Latest) Check(_ context.Context) error {
	rep, at, err := l.Load()
	switch {
	case at.IsZero():
		return errNoReport
	case rep == nil && err != nil:
		return err
	case rep == nil:
		return errNoReport
	case rep.State == report.StateAborted:
		if len(rep.Findings) > 0 {
			return fmt.Errorf("run aborted: %s", rep.Findings[0].Message)
		}
		return errors.New("run aborted")
	case !rep.Passed():
		return fmt.Errorf("verdict %s: %d errors", rep.Verdict, rep.Stats.Errors)
	}
	return nil
}
