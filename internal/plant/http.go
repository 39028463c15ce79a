package plant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Tai-DucTran/Panny/internal/model"
	"github.com/Tai-DucTran/Panny/internal/plantinfo"
)

type Handler struct {
	repo         Repo
	repoResolver func(*http.Request) Repo
	lookup       *plantinfo.Client
	taskHandler  func(http.ResponseWriter, *http.Request, model.PlantID)
	recorder     func(eventType string, metadata map[string]any)
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetRepoResolver(fn func(*http.Request) Repo) {
	h.repoResolver = fn
}

// SetCareLookup enables care-default prefill on plant creation.
func (h *Handler) SetCareLookup(c *plantinfo.Client) {
	h.lookup = c
}

// SetTaskHandler mounts the per-plant task listing under
// /api/plants/{id}/tasks.
func (h *Handler) SetTaskHandler(fn func(http.ResponseWriter, *http.Request, model.PlantID)) {
	h.taskHandler = fn
}

func (h *Handler) SetRecorder(fn func(eventType string, metadata map[string]any)) {
	h.recorder = fn
}

func (h *Handler) repoForRequest(r *http.Request) Repo {
	if h.repoResolver != nil {
		if repo := h.repoResolver(r); repo != nil {
			return repo
		}
	}
	return h.repo
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

type createRequest struct {
	model.Plant
	// PrefillCare asks the plant-information service for care defaults
	// when the caller left them blank.
	PrefillCare bool `json:"prefillCare,omitempty"`
}

// PlantsRoot handles /api/plants: GET lists the user's plants, POST
// registers a new one.
func (h *Handler) PlantsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		plants, err := h.repoForRequest(r).List(r.Context())
		if err != nil {
			writeErr(w, http.StatusServiceUnavailable, "could not list plants")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"plants": plants})

	case http.MethodPost:
		var in createRequest
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := model.ValidateStruct(in.Plant); err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}

		p := in.Plant
		if in.PrefillCare {
			h.prefillCare(r, &p)
		}

		created, err := h.repoForRequest(r).Create(r.Context(), p)
		if err != nil {
			writeErr(w, http.StatusServiceUnavailable, "could not save plant")
			return
		}
		if h.recorder != nil {
			h.recorder("plant_registered", map[string]any{
				"plant":   string(created.ID),
				"species": created.Species,
			})
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// prefillCare fills unset care fields from the information service.
// Lookup failures are deliberately silent: a plant can always be
// registered without defaults, and the card just shows no schedule yet.
func (h *Handler) prefillCare(r *http.Request, p *model.Plant) {
	if h.lookup == nil || strings.TrimSpace(p.Species) == "" {
		return
	}
	res, err := h.lookup.CompleteInfo(r.Context(), p.Species)
	if err != nil || res.Care == nil {
		return
	}
	if p.WateringFrequencyDays == 0 && res.Care.WateringFrequencyDays > 0 {
		p.WateringFrequencyDays = res.Care.WateringFrequencyDays
	}
	if p.RepottingFrequencyMonths == 0 && res.Care.RepottingFrequencyMonths > 0 {
		p.RepottingFrequencyMonths = res.Care.RepottingFrequencyMonths
	}
	if p.SunlightNeeds == "" && res.Care.SunlightNeeds != "" {
		p.SunlightNeeds = res.Care.SunlightNeeds
	}
}

// PlantsSub handles /api/plants/{id} and /api/plants/{id}/tasks.
func (h *Handler) PlantsSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/plants/"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.plantByID(w, r, model.PlantID(parts[0]))
	case len(parts) == 2 && parts[1] == "tasks" && h.taskHandler != nil:
		h.taskHandler(w, r, model.PlantID(parts[0]))
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) plantByID(w http.ResponseWriter, r *http.Request, id model.PlantID) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		p, err := repo.Get(r.Context(), id)
		if err != nil {
			h.writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodPatch:
		var patch Patch
		if err := decodeJSON(r, &patch); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := validatePatch(patch); err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		p, err := repo.Update(r.Context(), id, patch)
		if err != nil {
			h.writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		if err := repo.Delete(r.Context(), id); err != nil {
			h.writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) writeRepoErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeErr(w, http.StatusNotFound, "plant not found")
		return
	}
	writeErr(w, http.StatusServiceUnavailable, "plant storage unavailable")
}

// validatePatch rejects values that would corrupt the care schedule.
func validatePatch(p Patch) error {
	if p.WateringFrequencyDays != nil && *p.WateringFrequencyDays < 1 {
		return errors.New("wateringFrequencyDays must be at least 1")
	}
	if p.RepottingFrequencyMonths != nil && *p.RepottingFrequencyMonths < 1 {
		return errors.New("repottingFrequencyMonths must be at least 1")
	}
	if p.AcquiredTime != nil {
		switch *p.AcquiredTime {
		case model.AcquiredJustBought, model.AcquiredLastWeek, model.AcquiredLongTimeAgo:
		default:
			return errors.New("unknown acquiredTime")
		}
	}
	if p.HealthStatus != nil {
		switch *p.HealthStatus {
		case model.HealthExcellent, model.HealthGood, model.HealthFair, model.HealthPoor, model.HealthCritical:
		default:
			return errors.New("unknown healthStatus")
		}
	}
	return nil
}
