// Package cron implements the built-in scheduler (spec.md §4.6, C7): a
// restricted 5-field expression grammar (wildcard, exact, or step only —
// no ranges or lists), an at-most-once-per-minute firing guarantee, and
// tombstone-based job removal.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxJobs bounds the scheduler's job table, matching the C original's
// fixed-size array.
const MaxJobs = 64

// field encodes one of a cron expression's five fields: -1 means
// wildcard, <= -101 means a step value (encoded as -(100+N)), anything
// else is an exact match.
type field int

const wildcard field = -1

func (f field) matches(v int) bool {
	if f == wildcard {
		return true
	}
	if f <= -101 {
		step := -(int(f) + 100)
		return v%step == 0
	}
	return int(f) == v
}

func parseField(raw string) (field, error) {
	if raw == "*" {
		return wildcard, nil
	}
	if step, ok := strings.CutPrefix(raw, "*/"); ok {
		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step field %q", raw)
		}
		return field(-(100 + n)), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid field %q", raw)
	}
	return field(n), nil
}

// Expr is a parsed 5-field cron expression (minute hour mday month wday).
type Expr struct {
	minute, hour, mday, month, wday field
}

// ParseExpr parses a space-separated 5-field expression. Only exact
// integers, "*", and "*/N" are accepted — ranges and lists are rejected,
// a deliberate restriction from the spec's grammar.
func ParseExpr(expr string) (Expr, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Expr{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	parsed := make([]field, 5)
	for i, raw := range fields {
		f, err := parseField(raw)
		if err != nil {
			return Expr{}, err
		}
		parsed[i] = f
	}
	return Expr{minute: parsed[0], hour: parsed[1], mday: parsed[2], month: parsed[3], wday: parsed[4]}, nil
}

// Matches reports whether t falls within this expression, in t's own
// location.
func (e Expr) Matches(t time.Time) bool {
	return e.minute.matches(t.Minute()) &&
		e.hour.matches(t.Hour()) &&
		e.mday.matches(t.Day()) &&
		e.month.matches(int(t.Month())) &&
		e.wday.matches(int(t.Weekday()))
}

// JobFunc is a scheduled callback.
type JobFunc func(ctx context.Context)

type job struct {
	id      string
	name    string
	expr    Expr
	fn      JobFunc
	lastRun time.Time
	active  bool
}

// Scheduler runs jobs on a fixed poll interval, matching each against
// wall-clock time.
type Scheduler struct {
	PollInterval time.Duration
	Log          *slog.Logger

	jobs []*job
}

// NewScheduler returns a Scheduler polling every 30 seconds, matching
// the C original's cron_run.
func NewScheduler(log *slog.Logger) *Scheduler {
	return &Scheduler{PollInterval: 30 * time.Second, Log: log}
}

// Add registers a job under name, returning an opaque handle the caller
// can log or correlate but that Remove does not need — removal stays
// name-keyed, matching the C original's cron_remove. Returns an error if
// the expression is invalid or the job table is full.
func (s *Scheduler) Add(name, expr string, fn JobFunc) (string, error) {
	if len(s.jobs) >= MaxJobs {
		return "", fmt.Errorf("cron: max jobs (%d) reached", MaxJobs)
	}
	parsed, err := ParseExpr(expr)
	if err != nil {
		return "", fmt.Errorf("cron: invalid expression %q for job %q: %w", expr, name, err)
	}
	id := uuid.NewString()
	s.jobs = append(s.jobs, &job{id: id, name: name, expr: parsed, active: true, fn: fn})
	if s.Log != nil {
		s.Log.Info("cron: added job", "id", id, "name", name, "expr", expr)
	}
	return id, nil
}

// Remove tombstones a job by name rather than shifting the slice, so an
// in-flight iteration over jobs never observes a reindex.
func (s *Scheduler) Remove(name string) bool {
	for _, j := range s.jobs {
		if j.name == name && j.active {
			j.active = false
			if s.Log != nil {
				s.Log.Info("cron: removed job", "name", name)
			}
			return true
		}
	}
	return false
}

// Run blocks, checking every PollInterval for due jobs, until ctx is
// canceled. Each active job fires at most once per wall-clock minute.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Log != nil {
		s.Log.Info("cron: scheduler started", "jobs", len(s.jobs))
	}
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			if s.Log != nil {
				s.Log.Info("cron: scheduler stopped")
			}
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()
	minuteStart := now.Truncate(time.Minute)
	for _, j := range s.jobs {
		if !j.active {
			continue
		}
		if !j.lastRun.Before(minuteStart) {
			continue
		}
		if j.expr.Matches(now) {
			if s.Log != nil {
				s.Log.Debug("cron: firing job", "name", j.name)
			}
			j.lastRun = now
			j.fn(ctx)
		}
	}
}
