package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period            string            `json:"period"`
	EventCounts       map[EventType]int `json:"event_counts"`
	TaskCompletions   int               `json:"task_completions"`
	CompletionsByKind map[string]int    `json:"completions_by_kind"`
	PlantsRegistered  int               `json:"plants_registered"`
	PlantsRemoved     int               `json:"plants_removed"`
	Regenerations     int               `json:"regenerations"`
	CareInfoFetches   int               `json:"care_info_fetches"`
	CompletionsPerDay float64           `json:"completions_per_day"`
}

// CalculateStats summarizes care activity from events since the given time.
func CalculateStats(events []Event, since, now time.Time) (Stats, error) {
	stats := Stats{
		Period:            since.Format("2006-01-02"),
		EventCounts:       make(map[EventType]int),
		CompletionsByKind: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCompleted:
			stats.TaskCompletions++
			if kind, ok := metadata["kind"].(string); ok {
				stats.CompletionsByKind[kind]++
			}
		case EventPlantRegistered:
			stats.PlantsRegistered++
		case EventPlantRemoved:
			stats.PlantsRemoved++
		case EventTasksRegenerated:
			stats.Regenerations++
		case EventCareInfoFetched:
			stats.CareInfoFetches++
		}
	}

	days := now.Sub(since).Hours() / 24
	if days >= 1 {
		stats.CompletionsPerDay = float64(stats.TaskCompletions) / days
	} else {
		stats.CompletionsPerDay = float64(stats.TaskCompletions)
	}

	return stats, nil
}
