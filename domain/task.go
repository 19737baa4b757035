package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTask      = errors.New("domain: invalid task")
	ErrInvalidCategory  = errors.New("domain: invalid task category")
	ErrInvalidPriority  = errors.New("domain: invalid task priority")
	ErrInvalidFrequency = errors.New("domain: invalid task frequency")
)

type Category string

const (
	CategoryWork      Category = "work"
	CategoryPersonal  Category = "personal"
	CategoryHealth    Category = "health"
	CategoryFinance   Category = "finance"
	CategoryEducation Category = "education"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryHealth,
	CategoryFinance,
	CategoryEducation,
	CategoryOther,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategoryFinance, CategoryEducation, CategoryOther:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyOnce    Frequency = "once"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOnce:
		return true
	default:
		return false
	}
}

// Subtask is owned by its parent Task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a single item in the task list blob.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     Category   `json:"category"`
	Priority     Priority   `json:"priority"`
	Frequency    Frequency  `json:"frequency"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ReminderTime string     `json:"reminderTime,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	Subtasks     []Subtask  `json:"subtasks"`
}

// IsValidationError reports whether err came from Task or UserPreferences validation.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrInvalidTask, ErrInvalidCategory, ErrInvalidPriority, ErrInvalidFrequency, ErrInvalidPreferences} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Validate checks the enum fields and required values of a task.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Frequency)
	}
	for _, s := range t.Subtasks {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: subtask id is required", ErrInvalidTask)
		}
	}
	return nil
}

// CompletedSubtasks counts the finished subtasks of t.
func (t Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			n++
		}
	}
	return n
}
