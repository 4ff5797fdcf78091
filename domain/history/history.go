// Package history provides the plan history: an append-only record of
// every planning call and how it ended.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/search"
)

// Domain errors for history stores.
var (
	ErrNotFound  = errors.New("history record not found")
	ErrExists    = errors.New("history record already exists")
	ErrInvalidID = errors.New("invalid history record ID")
)

// Record is one planning call.
type Record struct {
	ID        string        `json:"id"`
	Goal      string        `json:"goal"`
	Outcome   plan.Outcome  `json:"outcome"`
	Actions   string        `json:"actions,omitempty"`
	Cost      float64       `json:"cost"`
	Expanded  int           `json:"expanded"`
	Heuristic string        `json:"heuristic,omitempty"`
	Cached    bool          `json:"cached,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// FromPlan records a successful call.
func FromPlan(p *plan.Plan) Record {
	return Record{
		ID:        p.ID,
		Goal:      p.Goal,
		Outcome:   p.Outcome,
		Actions:   p.Tokens(),
		Cost:      p.Cost,
		Expanded:  p.Stats.Expanded,
		Heuristic: p.Heuristic,
		Cached:    p.Cached,
		Duration:  p.Duration,
		CreatedAt: p.CreatedAt,
	}
}

// FromFailure records a failed call.
func FromFailure(id, goal, heuristic string, err error, stats search.Stats, at time.Time) Record {
	return Record{
		ID:        id,
		Goal:      goal,
		Outcome:   plan.Classify(err),
		Expanded:  stats.Expanded,
		Heuristic: heuristic,
		Error:     err.Error(),
		Duration:  stats.Elapsed,
		CreatedAt: at,
	}
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	Outcomes     []plan.Outcome
	Since        time.Time
	GoalContains string
	// Limit caps the result; 0 means no limit.
	Limit int
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if len(f.Outcomes) > 0 {
		found := false
		for _, o := range f.Outcomes {
			if o == r.Outcome {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if f.GoalContains != "" && !strings.Contains(r.Goal, f.GoalContains) {
		return false
	}
	return true
}

// Summary aggregates records.
type Summary struct {
	Total           int64         `json:"total"`
	Planned         int64         `json:"planned"`
	AlreadyTrue     int64         `json:"already_true"`
	Failed          int64         `json:"failed"`
	CacheHits       int64         `json:"cache_hits"`
	AverageCost     float64       `json:"average_cost"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Summarize aggregates records. Averages cover only calls that produced a plan.
func Summarize(records []Record) Summary {
	var (
		s     Summary
		cost  float64
		total time.Duration
	)
	for _, r := range records {
		s.Total++
		switch {
		case r.Outcome == plan.OutcomePlanned:
			s.Planned++
		case r.Outcome == plan.OutcomeAlreadyTrue:
			s.AlreadyTrue++
		default:
			s.Failed++
		}
		if r.Cached {
			s.CacheHits++
		}
		if !r.Outcome.IsFailure() {
			cost += r.Cost
			total += r.Duration
		}
	}
	if ok := s.Planned + s.AlreadyTrue; ok > 0 {
		s.AverageCost = cost / float64(ok)
		s.AverageDuration = total / time.Duration(ok)
	}
	return s
}

// Store persists history records. List returns newest first.
type Store interface {
	Append(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Summary(ctx context.Context, f Filter) (Summary, error)
}
