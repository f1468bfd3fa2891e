package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseTodoStatusIsCaseInsensitive(t *testing.T) {
	for _, raw := range []string{"Open", "open", " OPEN "} {
		status, ok := ParseTodoStatus(raw)
		if !ok || status != StatusOpen {
			t.Fatalf("ParseTodoStatus(%q) = %v, %v", raw, status, ok)
		}
	}
	if _, ok := ParseTodoStatus("Pending"); ok {
		t.Fatalf("unknown status must not parse")
	}
}

func TestPriorityRankIsSemantic(t *testing.T) {
	if !(PriorityLow.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityHigh.Rank()) {
		t.Fatalf("priority rank order broken: Low=%d Medium=%d High=%d",
			PriorityLow.Rank(), PriorityMedium.Rank(), PriorityHigh.Rank())
	}
	// "High" < "Low" lexically; Rank exists so sorting never does that.
	if PriorityHigh.Rank() < PriorityLow.Rank() {
		t.Fatalf("High must rank above Low")
	}
}

func TestValidTag(t *testing.T) {
	cases := []struct {
		tag string
		ok  bool
	}{
		{"work", true},
		{"back-end_v2", true},
		{"", false},
		{"has space", false},
		{"emoji🎉", false},
		{string(make([]byte, MaxTagLength+1)), false},
	}
	for _, tc := range cases {
		if got := ValidTag(tc.tag); got != tc.ok {
			t.Fatalf("ValidTag(%q) = %v, want %v", tc.tag, got, tc.ok)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Now().UTC()
	original := &Todo{
		ID:      uuid.New(),
		Title:   "original",
		Tags:    []string{"a", "b"},
		DueDate: &due,
	}

	clone := original.Clone()
	clone.Tags[0] = "mutated"
	*clone.DueDate = clone.DueDate.Add(time.Hour)

	if original.Tags[0] != "a" {
		t.Fatalf("tags alias the original slice")
	}
	if !original.DueDate.Equal(due) {
		t.Fatalf("due date aliases the original pointer")
	}
}
