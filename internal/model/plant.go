package model

import (
	"time"
)

type PlantID string

// AcquiredTime records roughly how long the owner has had the plant.
// Newly bought plants get a default repotting suggestion even without
// any repotting history.
type AcquiredTime string

const (
	AcquiredJustBought  AcquiredTime = "just_bought"
	AcquiredLastWeek    AcquiredTime = "last_week"
	AcquiredLongTimeAgo AcquiredTime = "long_time_ago"
)

type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
	HealthCritical  HealthStatus = "critical"
)

type SunlightLevel string

const (
	SunlightLow            SunlightLevel = "low"
	SunlightMedium         SunlightLevel = "medium"
	SunlightBrightIndirect SunlightLevel = "bright_indirect"
	SunlightDirect         SunlightLevel = "direct"
)

type Plant struct {
	ID       PlantID `json:"id"`
	UserID   string  `json:"userId,omitempty"`
	Name     string  `json:"name" validate:"required,min=1,max=120"`
	Species  string  `json:"species" validate:"required,min=1,max=120"`
	Nickname string  `json:"nickname,omitempty" validate:"max=120"`
	ImageURL string  `json:"imageUrl,omitempty"`

	AcquiredTime AcquiredTime `json:"acquiredTime,omitempty" validate:"omitempty,oneof=just_bought last_week long_time_ago"`

	// Care requirements. Zero frequency means "unknown"; a nil last-care
	// timestamp means the event never happened (or was never recorded).
	WateringFrequencyDays    int           `json:"wateringFrequencyDays,omitempty" validate:"omitempty,min=1"`
	LastWatered              *time.Time    `json:"lastWatered,omitempty"`
	SunlightNeeds            SunlightLevel `json:"sunlightNeeds,omitempty" validate:"omitempty,oneof=low medium bright_indirect direct"`
	RepottingFrequencyMonths int           `json:"repottingFrequencyMonths,omitempty" validate:"omitempty,min=1"`
	LastRepotted             *time.Time    `json:"lastRepotted,omitempty"`

	HealthStatus HealthStatus `json:"healthStatus,omitempty" validate:"omitempty,oneof=excellent good fair poor critical"`
	Notes        string       `json:"notes,omitempty" validate:"max=2000"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
