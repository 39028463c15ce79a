package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Tai-DucTran/Panny/internal/auth"
	"github.com/Tai-DucTran/Panny/internal/config"
	"github.com/Tai-DucTran/Panny/internal/httpmw"
	"github.com/Tai-DucTran/Panny/internal/plant"
	"github.com/Tai-DucTran/Panny/internal/plantinfo"
	"github.com/Tai-DucTran/Panny/internal/schedule"
	"github.com/Tai-DucTran/Panny/internal/telemetry"
)

type Options struct {
	Config     *config.Config
	DataDir    string
	Logger     *log.Logger
	Clock      schedule.Clock
	InfoClient *plantinfo.Client
	Events     telemetry.Repository
}

// App wires storage, auth, scheduling and the HTTP surface together.
// Schedulers are created lazily per user and survive for the process
// lifetime; ApplyConfig pushes fresh care rules into all of them.
type App struct {
	handler http.Handler
	logger  *log.Logger
	clock   schedule.Clock
	events  telemetry.Repository

	plantRepo *plant.FileRepo

	mu         sync.Mutex
	rules      schedule.Rules
	schedulers map[string]*schedule.Scheduler
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = opts.Config.Server.DataDir
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = "data"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = schedule.RealClock{}
	}
	if opts.Events == nil {
		opts.Events = telemetry.NewMemoryRepository()
	}

	app := &App{
		logger:     opts.Logger,
		clock:      opts.Clock,
		events:     opts.Events,
		rules:      opts.Config.Care.Rules(),
		schedulers: make(map[string]*schedule.Scheduler),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "panny",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	authRepo, err := auth.NewFileRepo(filepath.Join(opts.DataDir, "auth"))
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(authRepo, opts.Logger,
		auth.WithTTLs(opts.Config.Auth.OTPTTL(), opts.Config.Auth.SessionTTL()))
	logSecurityHints(opts.Logger)
	authHandler := auth.NewHandler(authService)
	mux.HandleFunc("/api/auth/request-otp", authHandler.RequestOTP)
	mux.HandleFunc("/api/auth/verify-otp", authHandler.VerifyOTP)
	mux.HandleFunc("/api/auth/session", authHandler.Session)
	mux.HandleFunc("/api/auth/logout", authHandler.Logout)

	plantRepo, err := plant.NewFileRepo(filepath.Join(opts.DataDir, "plants"))
	if err != nil {
		return nil, err
	}
	app.plantRepo = plantRepo

	plantHandler := plant.NewHandler(plantRepo)
	plantHandler.SetRepoResolver(func(r *http.Request) plant.Repo {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			return plantRepo
		}
		return plantRepo.ForUser(u.ID)
	})
	if opts.InfoClient != nil {
		plantHandler.SetCareLookup(opts.InfoClient)
	}
	plantHandler.SetRecorder(app.record)

	taskHandler := schedule.NewHandler(nil)
	taskHandler.SetSchedulerResolver(func(r *http.Request) *schedule.Scheduler {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			return nil
		}
		return app.schedulerFor(u.ID)
	})
	plantHandler.SetTaskHandler(taskHandler.PlantTasks)

	mux.Handle("/api/plants", authService.RequireAPI(http.HandlerFunc(plantHandler.PlantsRoot)))
	mux.Handle("/api/plants/", authService.RequireAPI(http.HandlerFunc(plantHandler.PlantsSub)))
	mux.Handle("/api/tasks", authService.RequireAPI(http.HandlerFunc(taskHandler.TasksRoot)))
	mux.Handle("/api/tasks/", authService.RequireAPI(http.HandlerFunc(taskHandler.TasksSub)))

	mux.Handle("/api/stats", authService.RequireAPI(http.HandlerFunc(app.stats)))

	mux.Handle("/api/config", authService.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(opts.Config); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})))

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := plantRepo.List(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "plant storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "panny",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.handler = httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithCORS(os.Getenv("PANNY_CORS_ORIGIN")),
		httpmw.WithRecover(opts.Logger),
	)
	return app, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// ApplyConfig pushes reloadable settings (care rules) into every live
// scheduler. Server address and storage paths require a restart.
func (a *App) ApplyConfig(c *config.Config) {
	if c == nil {
		return
	}
	rules := c.Care.Rules()

	a.mu.Lock()
	a.rules = rules
	scheds := make([]*schedule.Scheduler, 0, len(a.schedulers))
	for _, s := range a.schedulers {
		scheds = append(scheds, s)
	}
	a.mu.Unlock()

	for _, s := range scheds {
		s.SetRules(rules)
	}
	a.logger.Printf("[app] care rules updated: watering window %dd, repotting window %dd",
		rules.WateringCompletableWithinDays, rules.RepottingCompletableWithinDays)
}

// schedulerFor returns the user's scheduler, creating it on first use.
func (a *App) schedulerFor(userID string) *schedule.Scheduler {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.schedulers[userID]; ok {
		return s
	}
	s := schedule.NewScheduler(
		a.plantRepo.ForUser(userID),
		a.clock,
		schedule.WithRules(a.rules),
		schedule.WithLogger(a.logger),
		schedule.WithRecorder(recorderFunc(a.record)),
	)
	a.schedulers[userID] = s
	return s
}

type recorderFunc func(eventType string, metadata map[string]any)

func (f recorderFunc) Record(eventType string, metadata map[string]any) {
	f(eventType, metadata)
}

func (a *App) record(eventType string, metadata map[string]any) {
	if err := a.events.RecordEvent(telemetry.EventType(eventType), metadata); err != nil {
		a.logger.Printf("[telemetry] record %s failed: %v", eventType, err)
	}
}

// stats handles GET /api/stats?days=N (default 7).
func (a *App) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	days := 7
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "days must be 1-365"})
			return
		}
		days = n
	}

	now := a.clock.Now()
	since := now.AddDate(0, 0, -days)
	events, err := a.events.GetEvents(since, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "could not load events"})
		return
	}
	stats, err := telemetry.CalculateStats(events, since, now)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "could not compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logSecurityHints(logger *log.Logger) {
	if logger == nil {
		return
	}
	env := strings.ToLower(strings.TrimSpace(os.Getenv("PANNY_ENV")))
	cookieSecure := strings.ToLower(strings.TrimSpace(os.Getenv("PANNY_COOKIE_SECURE")))

	if env == "production" || env == "prod" {
		if cookieSecure != "1" && cookieSecure != "true" && cookieSecure != "yes" {
			logger.Printf("[security] PANNY_ENV=%s but PANNY_COOKIE_SECURE is not explicitly true", env)
		}
	}
}
