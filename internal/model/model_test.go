package model

import "testing"

func TestStatusRoundTrip(t *testing.T) {
	for _, s := range []ReviewStatus{StatusTodo, StatusInProgress, StatusDone} {
		if got := ParseStatus(s.String()); got != s {
			t.Errorf("ParseStatus(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseStatusUnknownDefaultsToTodo(t *testing.T) {
	for _, in := range []string{"", "bogus", "TODO", "Done"} {
		if got := ParseStatus(in); got != StatusTodo {
			t.Errorf("ParseStatus(%q) = %v, want StatusTodo", in, got)
		}
	}
}
