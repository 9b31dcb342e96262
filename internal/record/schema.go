package record

import (
	"maps"
	"slices"
)

// Tag-set keys.
const (
	KeyTitle           = "title"
	KeyAuthor          = "author"
	KeyPageTotal       = "pageTotal"
	KeyPageCurrent     = "pageCurrent"
	KeyNoteType        = "noteType"
	KeyNoteLocation    = "noteLocation"
	KeyBookLocalSource = "bookLocalSource"
	KeyTimeLastRead    = "timeLastRead"
	KeyTimeLastMod     = "timeLastMod"
	KeyDateAdded       = "dateAdded"
	KeyDatePlan        = "datePlan"
	KeyLog             = "log"
	KeyRemark          = "remark"
	KeyTag             = "tag"

	KeyPress      = "press"
	KeyEdition    = "edition"
	KeyYear       = "year"
	KeyTitleShort = "titleShort"
	KeyISBN       = "isbn"
	KeyURL        = "url"
)

// Schema defaults for the date keys. The far-future plan keeps the default
// plan percentage at zero.
const (
	DefaultDateAdded = "1900-01-01"
	DefaultDatePlan  = "9999-12-31"
)

// requiredKeys lists the keys every record carries, in file order.
var requiredKeys = []string{ //nolint:gochecknoglobals // fixed schema
	KeyTitle, KeyAuthor,
	KeyPageTotal, KeyPageCurrent,
	KeyNoteType, KeyNoteLocation,
	KeyBookLocalSource,
	KeyTimeLastRead, KeyTimeLastMod,
	KeyDateAdded, KeyDatePlan,
	KeyLog, KeyRemark, KeyTag,
}

// optionalKeys are informational keys without defaults.
var optionalKeys = []string{KeyPress, KeyEdition, KeyYear, KeyTitleShort, KeyISBN, KeyURL} //nolint:gochecknoglobals // fixed schema

// RequiredKeys returns the schema keys in file order.
func RequiredKeys() []string { return slices.Clone(requiredKeys) }

// OptionalKeys returns the recognised optional keys.
func OptionalKeys() []string { return slices.Clone(optionalKeys) }

// IsRequired reports whether key is part of the required schema.
func IsRequired(key string) bool { return slices.Contains(requiredKeys, key) }

// Tags is the full tag set of a record. Nullable string keys are pointers;
// optional and unrecognised keys live in Extra.
type Tags struct {
	Title           *string
	Author          *string
	PageTotal       int
	PageCurrent     int
	NoteType        *string
	NoteLocation    *string
	BookLocalSource *string
	TimeLastRead    *string
	TimeLastMod     *string
	DateAdded       *string
	DatePlan        *string
	Log             map[string]int
	Remark          map[string][]string
	Tag             TagList
	Extra           map[string]any
}

// DefaultTags returns a freshly allocated tag set holding the schema defaults.
func DefaultTags() Tags {
	return Tags{
		PageTotal:   1,
		PageCurrent: 0,
		DateAdded:   ptr(DefaultDateAdded),
		DatePlan:    ptr(DefaultDatePlan),
		Log:         map[string]int{},
		Remark:      map[string][]string{},
		Tag:         TagList{},
		Extra:       map[string]any{},
	}
}

// Clone returns a deep copy.
func (t Tags) Clone() Tags {
	out := t
	out.Title = clonePtr(t.Title)
	out.Author = clonePtr(t.Author)
	out.NoteType = clonePtr(t.NoteType)
	out.NoteLocation = clonePtr(t.NoteLocation)
	out.BookLocalSource = clonePtr(t.BookLocalSource)
	out.TimeLastRead = clonePtr(t.TimeLastRead)
	out.TimeLastMod = clonePtr(t.TimeLastMod)
	out.DateAdded = clonePtr(t.DateAdded)
	out.DatePlan = clonePtr(t.DatePlan)
	out.Log = maps.Clone(t.Log)
	out.Remark = make(map[string][]string, len(t.Remark))
	for d, texts := range t.Remark {
		out.Remark[d] = slices.Clone(texts)
	}
	out.Tag = slices.Clone(t.Tag)
	out.Extra = make(map[string]any, len(t.Extra))
	for k, v := range t.Extra {
		out.Extra[k] = cloneValue(v)
	}
	return out
}

// stringField returns the storage slot of a nullable string key.
func (t *Tags) stringField(key string) (**string, bool) {
	switch key {
	case KeyTitle:
		return &t.Title, true
	case KeyAuthor:
		return &t.Author, true
	case KeyNoteType:
		return &t.NoteType, true
	case KeyNoteLocation:
		return &t.NoteLocation, true
	case KeyBookLocalSource:
		return &t.BookLocalSource, true
	case KeyTimeLastRead:
		return &t.TimeLastRead, true
	case KeyTimeLastMod:
		return &t.TimeLastMod, true
	case KeyDateAdded:
		return &t.DateAdded, true
	case KeyDatePlan:
		return &t.DatePlan, true
	}
	return nil, false
}

// intField returns the storage slot of an integer key.
func (t *Tags) intField(key string) (*int, bool) {
	switch key {
	case KeyPageTotal:
		return &t.PageTotal, true
	case KeyPageCurrent:
		return &t.PageCurrent, true
	}
	return nil, false
}

// value returns the public form of key and whether it is present.
func (t *Tags) value(key string) (any, bool) {
	if f, ok := t.stringField(key); ok {
		if *f == nil {
			return nil, true
		}
		return **f, true
	}
	if f, ok := t.intField(key); ok {
		return *f, true
	}
	switch key {
	case KeyLog:
		return maps.Clone(t.Log), true
	case KeyRemark:
		return t.Clone().Remark, true
	case KeyTag:
		return t.Tag.Values(), true
	}
	v, ok := t.Extra[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

func ptr(s string) *string { return &s }

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	return ptr(*p)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(x)
	}
	return v
}
