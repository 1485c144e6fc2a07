// Package report collects validator findings into a deterministic report and
// decides the verdict of a run.
//
// A run moves through NotStarted → Running → Completed, or ends Aborted when a
// fatal condition stops it. Findings arrive as per-worker buffers and are only
// merged by the goroutine that owns the [Aggregator], so no locking is needed.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

// ErrInvalidTransition is returned when an [Aggregator] method is called in a
// state that does not allow it.
var ErrInvalidTransition = errors.New("report: invalid state transition")

// State is the lifecycle state of a run.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

// Verdict is the outcome of a run.
type Verdict string

const (
	// VerdictPass means no finding of severity error or fatal.
	VerdictPass Verdict = "pass"
	// VerdictFail means the data has at least one error.
	VerdictFail Verdict = "fail"
	// VerdictError means the run was aborted; the data was not fully checked.
	VerdictError Verdict = "error"
)

// Stats summarises a report.
type Stats struct {
	Heroes   int `json:"heroes" yaml:"heroes"`
	Records  int `json:"records" yaml:"records"`
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Fatal    int `json:"fatal" yaml:"fatal"`
}

// Report is the result of one validation run. Two runs over the same inputs
// produce equal reports.
type Report struct {
	State    State              `json:"state" yaml:"state"`
	Verdict  Verdict            `json:"verdict" yaml:"verdict"`
	Stats    Stats              `json:"stats" yaml:"stats"`
	Findings []validate.Finding `json:"findings" yaml:"findings"`
}

// Passed reports whether the run completed without errors.
func (r *Report) Passed() bool {
	return r != nil && r.Verdict == VerdictPass
}

// Aggregator drives the state machine of one run and merges findings. It is
// not safe for concurrent use; workers hand their buffers to the single
// goroutine that owns it.
type Aggregator struct {
	state    State
	findings []validate.Finding
}

// NewAggregator returns an aggregator in state NotStarted.
func NewAggregator() *Aggregator {
	return &Aggregator{state: StateNotStarted}
}

// State returns the current state.
func (a *Aggregator) State() State { return a.state }

// Start moves NotStarted → Running.
func (a *Aggregator) Start() error {
	if a.state != StateNotStarted {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, a.state)
	}
	a.state = StateRunning
	return nil
}

// Collect appends the given buffers in order. It only works while Running.
func (a *Aggregator) Collect(buffers ...[]validate.Finding) error {
	if a.state != StateRunning {
		return fmt.Errorf("%w: collect in %s", ErrInvalidTransition, a.state)
	}
	for _, b := range buffers {
		a.findings = append(a.findings, b...)
	}
	return nil
}

// Complete moves Running → Completed and builds the report. heroes and
// records are the totals that were checked.
func (a *Aggregator) Complete(heroes, records int) (*Report, error) {
	if a.state != StateRunning {
		return nil, fmt.Errorf("%w: complete from %s", ErrInvalidTransition, a.state)
	}
	for _, f := range a.findings {
		if f.Severity == validate.SeverityFatal {
			return nil, fmt.Errorf("%w: fatal %s finding collected, abort instead", ErrInvalidTransition, f.Kind)
		}
	}
	a.state = StateCompleted

	fs := make([]validate.Finding, len(a.findings))
	copy(fs, a.findings)
	Sort(fs)
	r := &Report{
		State:    StateCompleted,
		Verdict:  VerdictPass,
		Findings: fs,
		Stats:    Stats{Heroes: heroes, Records: records},
	}
	for _, f := range fs {
		switch f.Severity {
		case validate.SeverityError:
			r.Stats.Errors++
			r.Verdict = VerdictFail
		case validate.SeverityWarning:
			r.Stats.Warnings++
		}
	}
	return r, nil
}

// Abort ends a Running run with a single fatal finding. Everything collected
// so far is discarded: findings produced before a fatal condition are not
// trustworthy.
func (a *Aggregator) Abort(f validate.Finding) (*Report, error) {
	if a.state != StateRunning {
		return nil, fmt.Errorf("%w: abort from %s", ErrInvalidTransition, a.state)
	}
	if f.Severity != validate.SeverityFatal {
		return nil, fmt.Errorf("report: abort needs a fatal finding, got %s %s", f.Severity, f.Kind)
	}
	a.state = StateAborted
	a.findings = nil
	return &Report{
		State:    StateAborted,
		Verdict:  VerdictError,
		Findings: []validate.Finding{f},
		Stats:    Stats{Fatal: 1},
	}, nil
}

// Sort orders findings by hero, build (hero level first), field path in
// natural order, kind, offset and message.
func Sort(fs []validate.Finding) {
	sort.SliceStable(fs, func(i, j int) bool { return less(&fs[i], &fs[j]) })
}

func less(a, b *validate.Finding) bool {
	la, lb := a.Location, b.Location
	if la.Hero != lb.Hero {
		return la.Hero < lb.Hero
	}
	if la.Build != lb.Build {
		return la.Build < lb.Build
	}
	if c := naturalCompare(la.Field, lb.Field); c != 0 {
		return c < 0
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if oa, ob := offset(la), offset(lb); oa != ob {
		return oa < ob
	}
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	return a.Token < b.Token
}

func offset(l validate.Location) int {
	if l.Offset == nil {
		return -1
	}
	return *l.Offset
}

// naturalCompare compares strings treating runs of digits as numbers, so
// "abilities[9]" sorts before "abilities[10]".
func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na, _ := strconv.ParseUint(a[si:i], 10, 64)
			nb, _ := strconv.ParseUint(b[sj:j], 10, 64)
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			// Equal values with different padding: fewer digits first.
			if i-si != j-sj {
				if i-si < j-sj {
					return -1
				}
				return 1
			}
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return 0
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
