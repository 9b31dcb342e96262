package record

import "testing"

func TestFilter(t *testing.T) {
	r := loadComplete(t) // "A Brief History of Time" by "Stephen Gaius", tag Physics

	cases := []struct {
		name string
		q    Query
		want bool
	}{
		{"no criteria", Query{}, true},
		{"no criteria any", Query{MatchAll: false}, true},
		{"title and author all", Query{Title: "time", Author: "Gai", MatchAll: true}, true},
		{"title or wrong author", Query{Title: "time", Author: "Sagan"}, true},
		{"title and wrong author", Query{Title: "time", Author: "Sagan", MatchAll: true}, false},
		{"nothing matches any", Query{Title: "dune", Author: "Herbert"}, false},
		{"tag exact ignoring case", Query{Tags: []string{"physics"}, MatchAll: true}, true},
		{"tag substring is not membership", Query{Tags: []string{"phys"}, MatchAll: true}, false},
		{"tags all", Query{Tags: []string{"physics", "math"}, MatchAll: true}, false},
		{"tags any", Query{Tags: []string{"physics", "math"}}, true},
		{"blank tags skipped", Query{Tags: []string{" "}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Filter(tc.q); got != tc.want {
				t.Errorf("Filter(%+v) = %v, want %v", tc.q, got, tc.want)
			}
		})
	}
}

func TestFilter_NullTitleNeverMatches(t *testing.T) {
	r := newBlank(t, "2020-01-06")
	if r.Filter(Query{Title: "a"}) {
		t.Error("null title matched a pattern")
	}
}

func TestQueryEmpty(t *testing.T) {
	if !(Query{Tags: []string{"", "  "}, MatchAll: true}).Empty() {
		t.Error("blank tags should not count as criteria")
	}
	if (Query{Author: "x"}).Empty() {
		t.Error("author is a criterion")
	}
}
