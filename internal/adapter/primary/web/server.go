package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adhan-manager/internal/domain"
	"adhan-manager/internal/format"
	"adhan-manager/internal/logging"
	"adhan-manager/internal/usecase"
)

// Server is a primary adapter that exposes HTTP API + UI.
// It depends on the use case (primary port).
type Server struct {
	usecase usecase.AdhanUseCase
	server  *http.Server
}

// NewServer creates the HTTP server bound to addr.
func NewServer(uc usecase.AdhanUseCase, addr string) *Server {
	srv := &Server{usecase: uc}
	srv.server = &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/times", s.handleTimes)
		r.Get("/next", s.handleNext)
		r.Get("/qibla", s.handleQibla)
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
	})
	return r
}

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) formatter() (*format.Formatter, error) {
	return format.FromSettings(s.usecase.Settings())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	f, err := s.formatter()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshotToView(s.usecase.GetSnapshot(), f))
}

func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	settings := s.usecase.Settings()
	loc, err := settings.Location()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	date := time.Now().In(loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
	}

	set, err := s.usecase.PrayerTimes(date)
	if err != nil {
		respondError(w, timesErrorStatus(err), err)
		return
	}
	f, err := s.formatter()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format("2006-01-02"),
		"times": timesToView(set, f),
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	current, err := s.usecase.CurrentPrayer(now)
	if err != nil {
		respondError(w, timesErrorStatus(err), err)
		return
	}
	next, err := s.usecase.NextPrayer(now)
	if err != nil {
		respondError(w, timesErrorStatus(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"current": current.Prayer,
		"next":    next.Prayer,
		"at":      next.At,
		"in":      next.At.Sub(now).Round(time.Second).String(),
	})
}

func timesErrorStatus(err error) int {
	if errors.Is(err, domain.ErrPolarUnresolved) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleQibla(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"bearing": s.usecase.Qibla()})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, settingsToView(s.usecase.Settings()))
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req updatePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid JSON"))
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.usecase.UpdateConfig(patch); err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err)
		return
	}
	respondJSON(w, http.StatusOK, settingsToView(s.usecase.Settings()))
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidLatitude,
		domain.ErrInvalidLongitude,
		domain.ErrInvalidTimezone,
		domain.ErrInvalidOption,
		domain.ErrUnknownPrayer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func snapshotToView(snap usecase.Snapshot, f *format.Formatter) map[string]any {
	view := map[string]any{
		"method":  snap.Params.Method,
		"madhab":  snap.Params.Madhab.String(),
		"armed":   snap.Armed,
		"state":   snap.State.String(),
		"pending": snap.Pending,
		"current": snap.Current,
		"next":    snap.Next,
	}
	if !snap.Date.IsZero() {
		view["date"] = snap.Date.Format("2006-01-02")
		view["times"] = timesToView(snap.Times, f)
	}
	if snap.LastNotified != "" {
		view["lastNotified"] = snap.LastNotified
		view["lastNotifiedAt"] = snap.LastNotifiedAt
	}
	if snap.LastError != nil {
		view["lastError"] = snap.LastError.Error()
	}
	return view
}

func timesToView(set domain.PrayerTimeSet, f *format.Formatter) map[string]string {
	out := make(map[string]string, len(domain.Prayers))
	for p, v := range f.Format(set) {
		out[string(p)] = v
	}
	return out
}

func settingsToView(s domain.Settings) map[string]any {
	c := s.Calculation
	view := map[string]any{
		"latitude":              c.Latitude,
		"longitude":             c.Longitude,
		"method":                c.Method.String(),
		"asrTime":               c.AsrTime,
		"highLatitudeRule":      c.HighLatitudeRule,
		"polarCircleResolution": c.PolarCircleResolution,
		"timezone":              s.Timezone,
		"hour12":                s.Hour12,
		"showWeekday":           s.ShowWeekday,
		"notifyCommand":         s.NotifyCommand,
	}
	if len(c.Adjustments) > 0 {
		adj := make(map[string]int, len(c.Adjustments))
		for p, v := range c.Adjustments {
			adj[string(p)] = v
		}
		view["adjustments"] = adj
	}
	return view
}

type customPayload struct {
	FajrAngle         *float64       `json:"fajrAngle"`
	IshaAngle         *float64       `json:"ishaAngle"`
	IshaInterval      *int           `json:"ishaInterval"`
	MaghribAngle      *float64       `json:"maghribAngle"`
	MethodAdjustments map[string]int `json:"methodAdjustments"`
}

type updatePayload struct {
	Latitude              *float64       `json:"latitude"`
	Longitude             *float64       `json:"longitude"`
	Method                *string        `json:"method"`
	CustomMethod          *customPayload `json:"customMethod"`
	Adjustments           map[string]int `json:"adjustments"`
	AsrTime               *string        `json:"asrTime"`
	HighLatitudeRule      *string        `json:"highLatitudeRule"`
	PolarCircleResolution *string        `json:"polarCircleResolution"`
	Timezone              *string        `json:"timezone"`
	Hour12                *bool          `json:"hour12"`
	ShowWeekday           *bool          `json:"showWeekday"`
	NotifyCommand         *string        `json:"notifyCommand"`
}

func (p updatePayload) toPatch() (domain.SettingsPatch, error) {
	patch := domain.SettingsPatch{
		Timezone:      p.Timezone,
		Hour12:        p.Hour12,
		ShowWeekday:   p.ShowWeekday,
		NotifyCommand: p.NotifyCommand,
	}
	calc := &patch.Calculation
	calc.Latitude = p.Latitude
	calc.Longitude = p.Longitude

	switch {
	case p.CustomMethod != nil:
		adj, err := domain.ParseAdjustments(p.CustomMethod.MethodAdjustments)
		if err != nil {
			return patch, err
		}
		spec := domain.Custom(domain.CustomMethod{
			FajrAngle:         p.CustomMethod.FajrAngle,
			IshaAngle:         p.CustomMethod.IshaAngle,
			IshaInterval:      p.CustomMethod.IshaInterval,
			MaghribAngle:      p.CustomMethod.MaghribAngle,
			MethodAdjustments: adj,
		})
		calc.Method = &spec
	case p.Method != nil:
		m, ok := domain.ParseMethod(*p.Method)
		if !ok {
			return patch, errors.New("unknown method " + *p.Method + "; choose one of " + methodNames())
		}
		spec := domain.NamedMethod(m)
		calc.Method = &spec
	}

	adj, err := domain.ParseAdjustments(p.Adjustments)
	if err != nil {
		return patch, err
	}
	calc.Adjustments = adj

	if p.AsrTime != nil {
		v, err := domain.ParseAsrTime(*p.AsrTime)
		if err != nil {
			return patch, err
		}
		calc.AsrTime = &v
	}
	if p.HighLatitudeRule != nil {
		v, err := domain.ParseHighLatitudeRule(*p.HighLatitudeRule)
		if err != nil {
			return patch, err
		}
		calc.HighLatitudeRule = &v
	}
	if p.PolarCircleResolution != nil {
		v, err := domain.ParsePolarCircleResolution(*p.PolarCircleResolution)
		if err != nil {
			return patch, err
		}
		calc.PolarCircleResolution = &v
	}
	return patch, nil
}

func methodNames() string {
	methods := domain.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warnf("encode JSON: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Logger().Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
