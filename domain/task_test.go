package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalUsesStoredFieldNames(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", Title: "Title", Category: CategoryWork, Priority: PriorityLow, Frequency: FrequencyOnce, CreatedAt: created, Subtasks: []Subtask{}}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	for _, want := range []string{`"subtasks":[]`, `"completed":false`, `"createdAt":"2024-03-01T09:00:00Z"`} {
		if !strings.Contains(string(payload), want) {
			t.Fatalf("expected %s in %s", want, payload)
		}
	}
	if strings.Contains(string(payload), "completedAt") {
		t.Fatalf("expected completedAt to be omitted, got %s", payload)
	}
}

func TestTaskValidate(t *testing.T) {
	base := Task{ID: "t1", Title: "Title", Category: CategoryHealth, Priority: PriorityHigh, Frequency: FrequencyDaily}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid task, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Task)
		want   error
	}{
		{"category", func(t *Task) { t.Category = "normal" }, ErrInvalidCategory},
		{"priority", func(t *Task) { t.Priority = "urgent" }, ErrInvalidPriority},
		{"frequency", func(t *Task) { t.Frequency = "hourly" }, ErrInvalidFrequency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := base
			tc.mutate(&task)
			if err := task.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	blank := base
	blank.Title = "  "
	if err := blank.Validate(); err == nil {
		t.Fatalf("expected error for blank title")
	}
}

func TestCompletedSubtasks(t *testing.T) {
	task := Task{Subtasks: []Subtask{{ID: "a", Completed: true}, {ID: "b"}, {ID: "c", Completed: true}}}
	if got := task.CompletedSubtasks(); got != 2 {
		t.Fatalf("expected 2 completed subtasks, got %d", got)
	}
}
