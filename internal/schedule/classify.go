package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/Tai-DucTran/Panny/internal/model"
)

type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
	UrgencyNone     Urgency = "none"
)

// Display colors, carried over from the mobile app's palette.
const (
	colorRed   = "#D32F2F"
	colorAmber = "#FFC107"
	colorBlue  = "#2196F3"
	colorGray  = "#757575"
	colorGreen = "#4CAF50"
)

// Status is the display state of one task at one instant.
type Status struct {
	Label       string  `json:"label"`
	Urgency     Urgency `json:"urgency"`
	Color       string  `json:"color"`
	Completable bool    `json:"completable"`
}

// Rules holds the tunable classification horizons. The defaults encode
// the product behavior: watering can be ticked off from one day early
// through any degree of overdue, repotting up to a month early.
type Rules struct {
	WateringCompletableWithinDays  int `json:"wateringCompletableWithinDays"`
	RepottingCompletableWithinDays int `json:"repottingCompletableWithinDays"`
}

func DefaultRules() Rules {
	return Rules{
		WateringCompletableWithinDays:  2,
		RepottingCompletableWithinDays: 30,
	}
}

// daysUntilDue counts whole days from now until the due instant,
// rounding partial days up. Negative means overdue.
func daysUntilDue(t model.Task, now time.Time) int {
	return int(math.Ceil(t.DueAt.Sub(now).Hours() / 24))
}

// IsCompletable reports whether the task may be marked done right now.
// Completed tasks never are, regardless of kind.
func (r Rules) IsCompletable(t model.Task, now time.Time) bool {
	if t.IsCompleted() {
		return false
	}
	d := daysUntilDue(t, now)
	switch t.Kind {
	case model.TaskWatering:
		return d < r.WateringCompletableWithinDays
	case model.TaskRepotting:
		return d <= r.RepottingCompletableWithinDays
	default:
		return false
	}
}

// Classify computes the display state for a task. Completed tasks read
// "Watered" / "Repotted" — with one defensive exception: a completed
// watering task whose due date elapsed after the recorded completion
// renders as needing water again. That state should not occur when
// reconciliation keeps task identity anchored to lastWatered; when it
// does occur, only the rendering changes, never the stored status.
func (r Rules) Classify(t model.Task, now time.Time) Status {
	if t.IsCompleted() {
		return r.classifyCompleted(t, now)
	}

	d := daysUntilDue(t, now)
	completable := r.IsCompletable(t, now)

	switch t.Kind {
	case model.TaskWatering:
		return classifyWatering(d, completable)
	case model.TaskRepotting:
		return classifyRepotting(d, completable)
	default:
		return Status{Label: "Pending", Urgency: UrgencyLow, Color: colorGray}
	}
}

func (r Rules) classifyCompleted(t model.Task, now time.Time) Status {
	if t.Kind == model.TaskWatering && wateringElapsedAgain(t, now) {
		return Status{Label: "Needs water", Urgency: UrgencyCritical, Color: colorRed}
	}
	label := "Done"
	switch t.Kind {
	case model.TaskWatering:
		label = "Watered"
	case model.TaskRepotting:
		label = "Repotted"
	}
	return Status{Label: label, Urgency: UrgencyNone, Color: colorGreen}
}

// wateringElapsedAgain detects the stale-completion case: the task was
// completed before its due date and that due date has since passed
// without the schedule advancing.
func wateringElapsedAgain(t model.Task, now time.Time) bool {
	if t.CompletedAt == nil {
		return false
	}
	return t.CompletedAt.Before(t.DueAt) && t.DueAt.Before(now)
}

func classifyWatering(d int, completable bool) Status {
	switch {
	case d < 0:
		return Status{Label: "Needs water", Urgency: UrgencyCritical, Color: colorRed, Completable: completable}
	case d == 0:
		return Status{Label: "Today", Urgency: UrgencyHigh, Color: colorAmber, Completable: completable}
	case d == 1:
		return Status{Label: "Tomorrow", Urgency: UrgencyMedium, Color: colorBlue, Completable: completable}
	default:
		return Status{Label: fmt.Sprintf("In %d days", d), Urgency: UrgencyLow, Color: colorGray, Completable: completable}
	}
}

func classifyRepotting(d int, completable bool) Status {
	switch {
	case d < 0:
		return Status{Label: "Overdue", Urgency: UrgencyCritical, Color: colorRed, Completable: completable}
	case d == 0:
		return Status{Label: "Today", Urgency: UrgencyHigh, Color: colorAmber, Completable: completable}
	case d == 1:
		return Status{Label: "Tomorrow", Urgency: UrgencyMedium, Color: colorBlue, Completable: completable}
	case d <= 7:
		return Status{Label: "This week", Urgency: UrgencyMedium, Color: colorAmber, Completable: completable}
	case d <= 30:
		return Status{Label: "This month", Urgency: UrgencyLow, Color: colorBlue, Completable: completable}
	default:
		return Status{Label: fmt.Sprintf("In %d months", d/30), Urgency: UrgencyLow, Color: colorGray, Completable: completable}
	}
}

// IsCompletable applies the default rules.
func IsCompletable(t model.Task, now time.Time) bool {
	return DefaultRules().IsCompletable(t, now)
}

// Classify applies the default rules.
func Classify(t model.Task, now time.Time) Status {
	return DefaultRules().Classify(t, now)
}
