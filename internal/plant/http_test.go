package plant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Tai-DucTran/Panny/internal/model"
	"github.com/Tai-DucTran/Panny/internal/plantinfo"
)

func TestPlantsRoot_CreateAndList(t *testing.T) {
	h := NewHandler(NewMemoryRepo())

	body := `{"name":"Monstera","species":"Monstera deliciosa","wateringFrequencyDays":7}`
	rec := httptest.NewRecorder()
	h.PlantsRoot(rec, httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}

	var created model.Plant
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Name != "Monstera" {
		t.Fatalf("unexpected created plant: %+v", created)
	}

	rec = httptest.NewRecorder()
	h.PlantsRoot(rec, httptest.NewRequest(http.MethodGet, "/api/plants", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var listed struct {
		Plants []model.Plant `json:"plants"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Plants) != 1 {
		t.Fatalf("expected 1 plant, got %d", len(listed.Plants))
	}
}

func TestPlantsRoot_RejectsInvalidPlant(t *testing.T) {
	h := NewHandler(NewMemoryRepo())

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"species":"Ficus"}`},
		{"missing species", `{"name":"Figgy"}`},
		{"negative watering frequency", `{"name":"Figgy","species":"Ficus","wateringFrequencyDays":-1}`},
		{"bad health status", `{"name":"Figgy","species":"Ficus","healthStatus":"thriving"}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.PlantsRoot(rec, httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPlantsSub_GetPatchDelete(t *testing.T) {
	repo := NewMemoryRepo()
	h := NewHandler(repo)

	created, err := repo.Create(context.Background(), model.Plant{Name: "Aloe", Species: "Aloe vera"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	path := "/api/plants/" + string(created.ID)

	rec := httptest.NewRecorder()
	h.PlantsSub(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.PlantsSub(rec, httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"nickname":"Al"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d, body %s", rec.Code, rec.Body.String())
	}
	var patched model.Plant
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if patched.Nickname != "Al" {
		t.Fatalf("nickname not applied: %+v", patched)
	}

	rec = httptest.NewRecorder()
	h.PlantsSub(rec, httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"wateringFrequencyDays":0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.PlantsSub(rec, httptest.NewRequest(http.MethodDelete, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.PlantsSub(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rec.Code)
	}
}

func TestPlantsSub_RoutesTasksSuffix(t *testing.T) {
	repo := NewMemoryRepo()
	h := NewHandler(repo)

	var gotPlant model.PlantID
	h.SetTaskHandler(func(w http.ResponseWriter, r *http.Request, id model.PlantID) {
		gotPlant = id
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h.PlantsSub(rec, httptest.NewRequest(http.MethodGet, "/api/plants/p123/tasks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotPlant != "p123" {
		t.Fatalf("task handler got plant %q", gotPlant)
	}
}

func TestPlantsRoot_PrefillCareFromLookup(t *testing.T) {
	// Stub of the plant-information service, fenced JSON block included.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			http.NotFound(w, r)
			return
		}
		text := "A hardy vine.\n```json\n{\"wateringFrequencyDays\":9,\"repottingFrequencyMonths\":12,\"sunlightNeeds\":\"bright_indirect\"}\n```"
		_ = json.NewEncoder(w).Encode(map[string]string{"text": text})
	}))
	defer srv.Close()

	repo := NewMemoryRepo()
	h := NewHandler(repo)
	h.SetCareLookup(plantinfo.NewClient(srv.URL, "test-key"))

	body := `{"name":"Pothos","species":"Epipremnum aureum","prefillCare":true}`
	rec := httptest.NewRecorder()
	h.PlantsRoot(rec, httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var created model.Plant
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.WateringFrequencyDays != 9 || created.RepottingFrequencyMonths != 12 {
		t.Fatalf("care defaults not prefilled: %+v", created)
	}
	if created.SunlightNeeds != model.SunlightBrightIndirect {
		t.Fatalf("sunlight not prefilled: %q", created.SunlightNeeds)
	}
}

func TestPlantsRoot_PrefillNeverOverridesCallerValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text := "```json\n{\"wateringFrequencyDays\":9}\n```"
		_ = json.NewEncoder(w).Encode(map[string]string{"text": text})
	}))
	defer srv.Close()

	repo := NewMemoryRepo()
	h := NewHandler(repo)
	h.SetCareLookup(plantinfo.NewClient(srv.URL, "test-key"))

	body := `{"name":"Pothos","species":"Epipremnum aureum","wateringFrequencyDays":3,"prefillCare":true}`
	rec := httptest.NewRecorder()
	h.PlantsRoot(rec, httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d", rec.Code)
	}
	var created model.Plant
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.WateringFrequencyDays != 3 {
		t.Fatalf("caller value overridden: %d", created.WateringFrequencyDays)
	}
}

func TestPlantsRoot_PrefillFailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := NewMemoryRepo()
	h := NewHandler(repo)
	h.SetCareLookup(plantinfo.NewClient(srv.URL, "test-key"))

	body := `{"name":"Pothos","species":"Epipremnum aureum","prefillCare":true}`
	rec := httptest.NewRecorder()
	h.PlantsRoot(rec, httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("lookup failure must not block registration: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPlantsRoot_RecordsRegistrationEvent(t *testing.T) {
	repo := NewMemoryRepo()
	h := NewHandler(repo)

	var events []string
	h.SetRecorder(func(eventType string, metadata map[string]any) {
		events = append(events, fmt.Sprintf("%s:%v", eventType, metadata["species"]))
	})

	body := `{"name":"Jade","species":"Crassula ovata"}`
	rec := httptest.NewRecorder()
	h.PlantsRoot(rec, httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d", rec.Code)
	}
	if len(events) != 1 || events[0] != "plant_registered:Crassula ovata" {
		t.Fatalf("unexpected events: %v", events)
	}
}
