package plant

import (
	"context"
	"errors"
	"time"

	"github.com/Tai-DucTran/Panny/internal/model"
)

var (
	ErrNotFound           = errors.New("plant not found")
	ErrStorageUnavailable = errors.New("plant storage unavailable")
)

// Patch is a partial plant update. A nil pointer means "no change"; for
// the optional string fields an empty string clears the value.
type Patch struct {
	Name     *string `json:"name,omitempty"`
	Nickname *string `json:"nickname,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Notes    *string `json:"notes,omitempty"`

	AcquiredTime *model.AcquiredTime `json:"acquiredTime,omitempty"`

	WateringFrequencyDays    *int                 `json:"wateringFrequencyDays,omitempty"`
	LastWatered              *time.Time           `json:"lastWatered,omitempty"`
	SunlightNeeds            *model.SunlightLevel `json:"sunlightNeeds,omitempty"`
	RepottingFrequencyMonths *int                 `json:"repottingFrequencyMonths,omitempty"`
	LastRepotted             *time.Time           `json:"lastRepotted,omitempty"`

	HealthStatus *model.HealthStatus `json:"healthStatus,omitempty"`
}

type Repo interface {
	Create(ctx context.Context, p model.Plant) (model.Plant, error)
	Get(ctx context.Context, id model.PlantID) (model.Plant, error)
	Update(ctx context.Context, id model.PlantID, patch Patch) (model.Plant, error)
	List(ctx context.Context) ([]model.Plant, error)
	Delete(ctx context.Context, id model.PlantID) error
}

func applyPatch(p *model.Plant, patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Nickname != nil {
		p.Nickname = *patch.Nickname
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.AcquiredTime != nil {
		p.AcquiredTime = *patch.AcquiredTime
	}
	if patch.WateringFrequencyDays != nil {
		p.WateringFrequencyDays = *patch.WateringFrequencyDays
	}
	if patch.LastWatered != nil {
		t := *patch.LastWatered
		p.LastWatered = &t
	}
	if patch.SunlightNeeds != nil {
		p.SunlightNeeds = *patch.SunlightNeeds
	}
	if patch.RepottingFrequencyMonths != nil {
		p.RepottingFrequencyMonths = *patch.RepottingFrequencyMonths
	}
	if patch.LastRepotted != nil {
		t := *patch.LastRepotted
		p.LastRepotted = &t
	}
	if patch.HealthStatus != nil {
		p.HealthStatus = *patch.HealthStatus
	}
}
