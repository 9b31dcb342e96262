package record

import (
	"fmt"
	"time"

	"github.com/starford/readmana/internal/apperr"
)

// Progress holds the reading and schedule percentages of a record.
// Plan exceeds 100 when the plan date has passed.
type Progress struct {
	Current int
	Plan    int
}

// PlanClamped returns Plan limited to [0, 100] for display.
func (p Progress) PlanClamped() int {
	return min(max(p.Plan, 0), 100)
}

// Overdue reports whether the plan date has passed.
func (p Progress) Overdue() bool { return p.Plan > 100 }

// ComputeProgress returns the current percentage of pages read and the
// percentage of the planned reading period elapsed as of today.
func (r *Record) ComputeProgress() (Progress, error) {
	if r.tags.PageTotal <= 0 {
		return Progress{}, fmt.Errorf("record: %s: pageTotal is %d: %w", r.path, r.tags.PageTotal, apperr.ErrInconsistent)
	}
	current := r.tags.PageCurrent * 100 / r.tags.PageTotal
	if current < 0 || current > 100 {
		return Progress{}, fmt.Errorf("record: %s: current progress %d%%: %w", r.path, current, apperr.ErrInconsistent)
	}

	plan, err := PlanPercent(deref(r.tags.DateAdded), deref(r.tags.DatePlan), r.now())
	if err != nil {
		return Progress{}, fmt.Errorf("record: %s: %w", r.path, err)
	}
	return Progress{Current: current, Plan: plan}, nil
}

// PlanPercent returns floor((today-added)/(plan-added)*100) on calendar days.
func PlanPercent(added, plan string, now time.Time) (int, error) {
	a, err := ParseDate(added)
	if err != nil {
		return 0, fmt.Errorf("dateAdded: %w", err)
	}
	p, err := ParseDate(plan)
	if err != nil {
		return 0, fmt.Errorf("datePlan: %w", err)
	}
	today := CalendarDay(now)

	span := daysBetween(a, p)
	if span <= 0 {
		return 0, fmt.Errorf("datePlan %s is not after dateAdded %s: %w", plan, added, apperr.ErrDateOrder)
	}
	elapsed := daysBetween(a, today)
	if elapsed < 0 {
		return 0, fmt.Errorf("dateAdded %s is later than today %s: %w", added, today.Format(DateLayout), apperr.ErrDateOrder)
	}
	return int(elapsed * 100 / span), nil
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date: %w", s, apperr.ErrFormat)
	}
	return t, nil
}

// CalendarDay drops the time of day of t in its own location and returns
// the date at UTC midnight, comparable with ParseDate results.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days between two UTC midnights. time.Duration
// cannot span the default 1900–9999 schedule, so Unix seconds are used.
func daysBetween(from, to time.Time) int64 {
	const secondsPerDay = 24 * 60 * 60
	return (to.Unix() - from.Unix()) / secondsPerDay
}
