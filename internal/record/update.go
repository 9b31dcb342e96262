package record

import (
	"fmt"
	"strings"

	"github.com/starford/readmana/internal/apperr"
)

// PageKind selects which page counter UpdatePage changes.
type PageKind string

const (
	PageCurrent PageKind = "current"
	PageTotal   PageKind = "total"
)

// DateKind selects which schedule date UpdateDate changes.
type DateKind string

const (
	DateAdded DateKind = "added"
	DatePlan  DateKind = "plan"
)

// DateOutcome reports what UpdateDate did with its input.
type DateOutcome int

const (
	// DateApplied means the date was valid and stored (possibly unchanged).
	DateApplied DateOutcome = iota
	// DateSkipped means a malformed plan date was ignored on purpose.
	DateSkipped
)

func (o DateOutcome) String() string {
	if o == DateSkipped {
		return "skipped"
	}
	return "applied"
}

// UpdatePage sets the current page (0 ≤ value ≤ pageTotal) or the total
// page count (value ≥ pageCurrent, non-negative).
func (r *Record) UpdatePage(kind PageKind, value int) error {
	switch kind {
	case PageCurrent:
		return r.Set(KeyPageCurrent, value)
	case PageTotal:
		return r.Set(KeyPageTotal, value)
	}
	return fmt.Errorf("record: page kind %q: %w", kind, apperr.ErrKeyNotSupported)
}

// UpdateDate sets dateAdded or datePlan; an empty date means today.
// A malformed added date is an error, a malformed plan date is skipped.
func (r *Record) UpdateDate(kind DateKind, date string) (DateOutcome, error) {
	var key string
	switch kind {
	case DateAdded:
		key = KeyDateAdded
	case DatePlan:
		key = KeyDatePlan
	default:
		return DateApplied, fmt.Errorf("record: date kind %q: %w", kind, apperr.ErrKeyNotSupported)
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = r.today()
	}
	if _, err := ParseDate(date); err != nil {
		if kind == DatePlan {
			return DateSkipped, nil
		}
		return DateApplied, fmt.Errorf("record: %s: %w", key, err)
	}
	if err := r.Set(key, date); err != nil {
		return DateApplied, err
	}
	return DateApplied, nil
}

// UpdateTag adds or removes labels, comparing case-insensitively. Added
// labels keep the casing given here; removal drops the first match.
// It reports whether the list changed.
func (r *Record) UpdateTag(tags []string, add bool) bool {
	list := r.tags.Tag
	changed := false
	for _, t := range tags {
		var ok bool
		if add {
			list, ok = list.add(t)
		} else {
			list, ok = list.remove(t)
		}
		changed = changed || ok
	}
	if !changed {
		return false
	}
	r.tags.Tag = list
	r.dirty = true
	r.touch()
	return true
}

// UpdateLog records today's current page, replacing an entry for today.
// The record is always marked dirty.
func (r *Record) UpdateLog() {
	if r.tags.Log == nil {
		r.tags.Log = map[string]int{}
	}
	r.tags.Log[r.today()] = r.tags.PageCurrent
	r.dirty = true
}

// AddRemark appends text to today's remarks. Empty text is ignored.
func (r *Record) AddRemark(text string) {
	if text == "" {
		return
	}
	if r.tags.Remark == nil {
		r.tags.Remark = map[string][]string{}
	}
	day := r.today()
	r.tags.Remark[day] = append(r.tags.Remark[day], text)
	r.dirty = true
	r.touch()
}

// UpdateLastRead stamps timeLastRead with the current time. timeLastMod is
// left alone.
func (r *Record) UpdateLastRead() {
	stamp := r.now().Format(TimeLayout)
	if r.tags.TimeLastRead != nil && *r.tags.TimeLastRead == stamp {
		return
	}
	r.tags.TimeLastRead = &stamp
	r.dirty = true
}

// Log returns a copy of the reading log, keyed by ISO date.
func (r *Record) Log() map[string]int {
	v, _ := r.tags.value(KeyLog)
	return v.(map[string]int)
}

// Remarks returns a copy of the remarks, keyed by ISO date.
func (r *Record) Remarks() map[string][]string {
	return r.tags.Clone().Remark
}
