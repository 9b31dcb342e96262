package record

import "strings"

// Query describes a record search. Empty fields are not criteria.
type Query struct {
	Title    string   // case-insensitive substring of the title
	Author   string   // case-insensitive substring of the author
	Tags     []string // each entry must be a label, ignoring case
	MatchAll bool     // combine criteria with AND instead of OR
}

// Empty reports whether the query has no criteria.
func (q Query) Empty() bool {
	if q.Title != "" || q.Author != "" {
		return false
	}
	for _, t := range q.Tags {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}

// Filter reports whether the record satisfies q. A query without criteria
// matches every record.
func (r *Record) Filter(q Query) bool {
	var outcomes []bool
	if q.Title != "" {
		outcomes = append(outcomes, containsFold(r.tags.Title, q.Title))
	}
	if q.Author != "" {
		outcomes = append(outcomes, containsFold(r.tags.Author, q.Author))
	}
	for _, t := range q.Tags {
		if strings.TrimSpace(t) == "" {
			continue
		}
		outcomes = append(outcomes, r.tags.Tag.Contains(strings.TrimSpace(t)))
	}
	if len(outcomes) == 0 {
		return true
	}

	for _, ok := range outcomes {
		if q.MatchAll && !ok {
			return false
		}
		if !q.MatchAll && ok {
			return true
		}
	}
	return q.MatchAll
}

func containsFold(field *string, pattern string) bool {
	if field == nil {
		return false
	}
	return strings.Contains(Fold(*field), Fold(pattern))
}
