package model

import (
	"time"

	"github.com/dukerupert/simp/internal/duration"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

type Schedule struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	Description          *string    `json:"description"`
	TotalDurationSeconds int        `json:"totalDurationSeconds"`
	Status               Status     `json:"status"`
	PersonID             int64      `json:"personId"`
	CreatedAt            time.Time  `json:"createdAt"`
	StartDate            *time.Time `json:"startDate"`
	SubTasks             []SubTask  `json:"subTasks"`
	Person               *Owner     `json:"person,omitempty"`
}

type SubTask struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationSeconds int    `json:"durationSeconds"`
	Status          Status `json:"status"`
	ScheduleID      int64  `json:"scheduleId"`
}

// NewSchedule holds validated, converted input ready to be persisted.
type NewSchedule struct {
	Title                string
	Description          *string
	StartDate            *time.Time
	TotalDurationSeconds int
	SubTasks             []NewSubTask
}

type NewSubTask struct {
	Name            string
	DurationSeconds int
}

// ScheduleRequest is the body of POST /api/schedules.
type ScheduleRequest struct {
	MainTask MainTaskRequest  `json:"mainTask"`
	SubTasks []SubTaskRequest `json:"subTasks"`
}

type MainTaskRequest struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	StartDate     string            `json:"startDate"`
	TotalDuration duration.Duration `json:"totalDuration"`
}

type SubTaskRequest struct {
	Name     string            `json:"name"`
	Duration duration.Duration `json:"duration"`
}

type SchedulePage struct {
	Schedules  []Schedule `json:"schedules"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	CurrentPage    int `json:"currentPage"`
	TotalPages     int `json:"totalPages"`
	TotalSchedules int `json:"totalSchedules"`
	Limit          int `json:"limit"`
}

type Dashboard struct {
	Next7Days []Schedule `json:"next7Days"`
	Past3Days []Schedule `json:"past3Days"`
}
