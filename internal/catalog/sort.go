package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/record"
)

// SortKey selects a list ordering.
type SortKey string

// Supported orderings.
const (
	SortTitle    SortKey = "title"    // ascending, case-insensitive
	SortAuthor   SortKey = "author"   // ascending, case-insensitive
	SortModified SortKey = "modified" // most recently modified first
	SortRead     SortKey = "read"     // most recently read first
)

// SortKeys lists every supported ordering.
func SortKeys() []SortKey {
	return []SortKey{SortTitle, SortAuthor, SortModified, SortRead}
}

// SortBy reorders both lists. Equal elements keep their relative order;
// unset values sort last.
func (c *Catalog) SortBy(key SortKey) error {
	if !slices.Contains(SortKeys(), key) {
		return fmt.Errorf("catalog: sort by %q: %w", key, apperr.ErrKeyNotSupported)
	}
	c.sort(key)
	return nil
}

func (c *Catalog) sort(key SortKey) {
	cmp := comparator(key)
	slices.SortStableFunc(c.active, cmp)
	slices.SortStableFunc(c.archived, cmp)
}

func comparator(key SortKey) func(a, b *record.Record) int {
	switch key {
	case SortTitle:
		return byText(func(r *record.Record) (string, bool) {
			v, _ := r.Get(record.KeyTitle)
			s, ok := v.(string)
			return s, ok
		})
	case SortAuthor:
		return byText(func(r *record.Record) (string, bool) {
			v, _ := r.Get(record.KeyAuthor)
			s, ok := v.(string)
			return s, ok
		})
	case SortRead:
		return byTimeDesc((*record.Record).TimeLastRead)
	default:
		return byTimeDesc((*record.Record).TimeLastMod)
	}
}

func byText(field func(*record.Record) (string, bool)) func(a, b *record.Record) int {
	return func(a, b *record.Record) int {
		av, aok := field(a)
		bv, bok := field(b)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		return strings.Compare(record.Fold(av), record.Fold(bv))
	}
}

func byTimeDesc(field func(*record.Record) (time.Time, bool)) func(a, b *record.Record) int {
	return func(a, b *record.Record) int {
		at, aok := field(a)
		bt, bok := field(b)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		return bt.Compare(at)
	}
}
