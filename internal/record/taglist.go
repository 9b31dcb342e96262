package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Tag is one label: the display form as first inserted and its case-folded lookup key.
type Tag struct {
	Display string
	Key     string
}

// NewTag builds a Tag from its display form.
func NewTag(display string) Tag {
	return Tag{Display: display, Key: Fold(display)}
}

// TagList is an ordered label list with case-insensitive identity.
type TagList []Tag

// Fold returns the case-folded form of s used for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// NewTagList builds a list from display values, dropping case-insensitive duplicates.
func NewTagList(values ...string) TagList {
	var l TagList
	for _, v := range values {
		l, _ = l.add(v)
	}
	return l
}

// Values returns the display values in order.
func (l TagList) Values() []string {
	out := make([]string, len(l))
	for i, t := range l {
		out[i] = t.Display
	}
	return out
}

// Index returns the position of the first tag equal to name ignoring case, or -1.
func (l TagList) Index(name string) int {
	key := Fold(name)
	for i, t := range l {
		if t.Key == key {
			return i
		}
	}
	return -1
}

// Contains reports whether name is in the list ignoring case.
func (l TagList) Contains(name string) bool {
	return l.Index(name) >= 0
}

func (l TagList) add(name string) (TagList, bool) {
	name = strings.TrimSpace(name)
	if name == "" || l.Contains(name) {
		return l, false
	}
	return append(l, NewTag(name)), true
}

func (l TagList) remove(name string) (TagList, bool) {
	i := l.Index(strings.TrimSpace(name))
	if i < 0 {
		return l, false
	}
	return append(l[:i:i], l[i+1:]...), true
}

// MarshalJSON writes the display values as a JSON array.
func (l TagList) MarshalJSON() ([]byte, error) {
	return marshalValue(l.Values())
}

// UnmarshalJSON reads a JSON array of strings. Null yields an empty list.
// Entries are kept as stored, duplicates included.
func (l *TagList) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("tag list: %w", err)
	}
	out := make(TagList, 0, len(values))
	for _, v := range values {
		out = append(out, NewTag(v))
	}
	*l = out
	return nil
}
