package task

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_AcceptsCalendarDateAndRFC3339(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "calendar_date", in: `"2025-01-01"`, want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", in: `"2025-01-01T10:30:00Z"`, want: time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := json.Unmarshal([]byte(tt.in), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !d.Time().Equal(tt.want) {
				t.Fatalf("got %v, want %v", d.Time(), tt.want)
			}
		})
	}
}

func TestDate_RejectsGarbage(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"next tuesday"`), &d); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
}

func TestPatch_OnlyTouchesSuppliedFields(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tk := Task{
		ID:          "t1",
		Title:       "Write report",
		Description: "Q1 numbers",
		Status:      StatusPending,
		AssignedTo:  "u1",
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	done := StatusComplete
	now := created.Add(time.Hour)
	Patch{Status: &done}.Apply(&tk, now)

	if tk.Status != StatusComplete {
		t.Fatalf("status not applied: %s", tk.Status)
	}
	if tk.Title != "Write report" || tk.Description != "Q1 numbers" || tk.AssignedTo != "u1" {
		t.Fatalf("unrelated fields changed: %+v", tk)
	}
	if !tk.UpdatedAt.Equal(now) {
		t.Fatalf("updatedAt not bumped")
	}
}

func TestStatus_AnyTransitionAllowed(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			tk := Task{Status: from}
			s := to
			Patch{Status: &s}.Apply(&tk, time.Now())
			if tk.Status != to {
				t.Fatalf("%s -> %s not applied", from, to)
			}
		}
	}
}

func TestSortForStatus(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d1 := base.Add(24 * time.Hour)
	d2 := base.Add(48 * time.Hour)

	t.Run("pending_by_deadline_undated_last", func(t *testing.T) {
		tasks := []Task{
			{ID: "none"},
			{ID: "late", Deadline: &d2},
			{ID: "soon", Deadline: &d1},
		}
		SortForStatus(StatusPending, tasks)

		got := []string{tasks[0].ID, tasks[1].ID, tasks[2].ID}
		want := []string{"soon", "late", "none"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("complete_by_recent_update", func(t *testing.T) {
		tasks := []Task{
			{ID: "old", UpdatedAt: base},
			{ID: "new", UpdatedAt: d2},
			{ID: "mid", UpdatedAt: d1},
		}
		SortForStatus(StatusComplete, tasks)

		if tasks[0].ID != "new" || tasks[1].ID != "mid" || tasks[2].ID != "old" {
			t.Fatalf("unexpected order: %s %s %s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
		}
	})
}
