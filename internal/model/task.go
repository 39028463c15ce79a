package model

import (
	"time"
)

type TaskID string

type TaskKind string

const (
	TaskWatering  TaskKind = "watering"
	TaskRepotting TaskKind = "repotting"

	// Reserved kinds; no generator produces them yet.
	TaskFertilizing TaskKind = "fertilizing"
	TaskPruning     TaskKind = "pruning"
	TaskLight       TaskKind = "light"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Task is a derived care action for one plant. Tasks are not durable
// state: they are recomputed from plant attributes on every generation
// cycle, and only completion state is carried across cycles. The ID is
// deterministic in (kind, plant, anchor instant) so an unchanged plant
// reproduces the same task identity.
type Task struct {
	ID            TaskID     `json:"id"`
	PlantID       PlantID    `json:"plantId"`
	PlantName     string     `json:"plantName,omitempty"`
	PlantImageURL string     `json:"plantImageUrl,omitempty"`
	Kind          TaskKind   `json:"kind"`
	DueAt         time.Time  `json:"dueAt"`
	Status        TaskStatus `json:"status"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

func (t Task) IsCompleted() bool {
	return t.Status == TaskCompleted
}
