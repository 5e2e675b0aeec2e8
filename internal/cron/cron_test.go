package cron

import (
	"context"
	"testing"
	"time"
)

func TestParseExprWildcard(t *testing.T) {
	e, err := ParseExpr("* * * * *")
	if err != nil {
		t.Fatalf("ParseExpr() error = %v", err)
	}
	now := time.Date(2026, 3, 15, 9, 41, 0, 0, time.UTC)
	if !e.Matches(now) {
		t.Fatalf("expected wildcard expression to match any time")
	}
}

func TestParseExprStep(t *testing.T) {
	e, err := ParseExpr("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseExpr() error = %v", err)
	}
	cases := []struct {
		minute int
		want   bool
	}{
		{0, true}, {5, true}, {10, true}, {3, false}, {17, false},
	}
	for _, c := range cases {
		tm := time.Date(2026, 3, 15, 9, c.minute, 0, 0, time.UTC)
		if got := e.Matches(tm); got != c.want {
			t.Errorf("minute=%d: Matches() = %v, want %v", c.minute, got, c.want)
		}
	}
}

func TestParseExprExact(t *testing.T) {
	e, err := ParseExpr("30 9 1 1 *")
	if err != nil {
		t.Fatalf("ParseExpr() error = %v", err)
	}
	if !e.Matches(time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected exact match")
	}
	if e.Matches(time.Date(2026, 1, 1, 9, 31, 0, 0, time.UTC)) {
		t.Fatalf("expected no match at different minute")
	}
}

func TestParseExprRejectsRanges(t *testing.T) {
	for _, bad := range []string{"1-5 * * * *", "1,2,3 * * * *", "* * * * * *", "* * * *"} {
		if _, err := ParseExpr(bad); err == nil {
			t.Errorf("ParseExpr(%q) expected error, got nil", bad)
		}
	}
}

func TestSchedulerFiresAtMostOncePerMinute(t *testing.T) {
	s := NewScheduler(nil)
	fired := 0
	if _, err := s.Add("every-minute", "* * * * *", func(ctx context.Context) { fired++ }); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	s.tick(context.Background())
	s.tick(context.Background())
	s.tick(context.Background())
	if fired != 1 {
		t.Fatalf("expected job to fire once within the same minute, fired %d times", fired)
	}
}

func TestSchedulerRemoveTombstones(t *testing.T) {
	s := NewScheduler(nil)
	fired := 0
	if _, err := s.Add("job", "* * * * *", func(ctx context.Context) { fired++ }); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !s.Remove("job") {
		t.Fatalf("expected Remove to find the job")
	}
	s.tick(context.Background())
	if fired != 0 {
		t.Fatalf("expected removed job not to fire, fired %d times", fired)
	}
}

func TestSchedulerMaxJobs(t *testing.T) {
	s := NewScheduler(nil)
	for i := 0; i < MaxJobs; i++ {
		if _, err := s.Add("job", "* * * * *", func(ctx context.Context) {}); err != nil {
			t.Fatalf("Add() #%d error = %v", i, err)
		}
	}
	if _, err := s.Add("overflow", "* * * * *", func(ctx context.Context) {}); err == nil {
		t.Fatalf("expected overflow error past MaxJobs")
	}
}
