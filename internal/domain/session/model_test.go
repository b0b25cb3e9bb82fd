package session

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusWaiting, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusActive, false}, // must pass through waiting
		{StatusWaiting, StatusActive, true},
		{StatusWaiting, StatusEnded, true},
		{StatusWaiting, StatusCancelled, true},
		{StatusActive, StatusEnded, true},
		{StatusActive, StatusWaiting, false},
		{StatusScheduled, StatusFailed, true},
		{StatusWaiting, StatusFailed, true},
		{StatusActive, StatusFailed, true},
		{StatusEnded, StatusFailed, false},
		{StatusEnded, StatusActive, false},
		{StatusCancelled, StatusWaiting, false},
		{StatusFailed, StatusEnded, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSession_CanJoin(t *testing.T) {
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	s := &Session{Status: StatusScheduled, ScheduledStart: start, ScheduledEnd: end}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"too early", start.Add(-11 * time.Minute), false},
		{"window opens 10min before", start.Add(-10 * time.Minute), true},
		{"at start", start, true},
		{"mid slot", start.Add(15 * time.Minute), true},
		{"at scheduled end", end, true},
		{"after end", end.Add(time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.CanJoin(tc.now); got != tc.want {
				t.Errorf("CanJoin(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}

	for _, status := range []Status{StatusActive, StatusEnded, StatusCancelled, StatusFailed} {
		s := &Session{Status: status, ScheduledStart: start, ScheduledEnd: end}
		if s.CanJoin(start) {
			t.Errorf("CanJoin in %s should be false", status)
		}
	}
}

func TestSession_Missed(t *testing.T) {
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	s := &Session{Status: StatusScheduled, ScheduledStart: start, ScheduledEnd: end}
	if s.Missed(end.Add(-time.Minute)) {
		t.Error("not missed while slot is open")
	}
	if !s.Missed(end.Add(time.Minute)) {
		t.Error("missed once the slot passed")
	}

	s.Status = StatusWaiting
	if s.Missed(end.Add(time.Hour)) {
		t.Error("a joined session is never missed")
	}
}

func TestSession_Duration(t *testing.T) {
	s := &Session{}
	if s.Duration() != 0 {
		t.Error("duration before start should be zero")
	}
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(25 * time.Minute)
	s.ActualStart, s.ActualEnd = &start, &end
	if s.Duration() != 25*time.Minute {
		t.Errorf("duration = %v", s.Duration())
	}
}
