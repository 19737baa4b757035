package domain

import "time"

// Habit is the document served by the habit REST routes. It is unrelated to the
// task/progression model.
type Habit struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewHabit is the request body accepted when creating a habit.
type NewHabit struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
