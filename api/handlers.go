/*
handlers.go - HTTP API handlers for the calendar heatmap service

PURPOSE:
  Exposes the interval engine and heatmap builder via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Intervals:
    GET    /api/intervals/{unit}/start       Start (and end) of the interval containing ?at
    GET    /api/intervals/{unit}/sequence    Interval starts from ?at, by ?count or ?until

  Series:
    GET    /api/series                       List stored series
    GET    /api/series/{series}/points       Points in [?from, ?to)
    POST   /api/series/{series}/points       Append points (atomic batch)

  Calendars:
    GET    /api/calendars                    List calendar definitions
    POST   /api/calendars                    Create or update a definition
    GET    /api/calendars/{id}               Get a definition
    DELETE /api/calendars/{id}               Delete a definition
    GET    /api/calendars/{id}/heatmap       Laid-out, aggregated calendar

  Scenarios:
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario
    POST   /api/reset                        Clear all data

ENGINE SELECTION:
  Interval endpoints accept ?locale and ?timezone. Missing values fall back
  to the server defaults. Engines are cached per configuration. Calendar
  endpoints always use the calendar's own locale and timezone.

INSTANTS:
  Query and body instants are RFC 3339, YYYY-MM-DD (midnight in the engine
  zone) or integer epoch milliseconds.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid unit, range, locale, timezone, instant or calendar options
  - 404: Calendar not found
  - 409: Duplicate idempotency key
  - 429: Rate limited (see ratelimit.go)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/calheatmap/factory"
	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
	"github.com/warp/calheatmap/store/sqlite"
)

// MaxSequenceLength caps the number of intervals one sequence request returns.
const MaxSequenceLength = 10_000

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Calendars *factory.CalendarFactory
	Logger    *slog.Logger

	defaults interval.Config
	now      func() time.Time

	mu      sync.Mutex
	engines map[interval.Config]*interval.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler. defaults is the engine configuration used
// when a request names no locale or timezone; it is validated here.
func NewHandler(store *sqlite.Store, defaults interval.Config, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		Store:     store,
		Calendars: factory.NewCalendarFactory(),
		Logger:    logger,
		defaults:  defaults,
		now:       time.Now,
		engines:   make(map[interval.Config]*interval.Engine),
	}
	if _, err := h.engine(defaults); err != nil {
		return nil, fmt.Errorf("default engine: %w", err)
	}
	return h, nil
}

// WithClock replaces the clock used when a request omits ?at.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	h.Calendars = h.Calendars.WithClock(now)
	return h
}

// engine returns the cached engine for cfg, building it on first use. The
// cache is keyed on the normalized locale and zone names, so spellings that
// resolve to the same pair share one entry.
func (h *Handler) engine(cfg interval.Config) (*interval.Engine, error) {
	locale, err := interval.ParseLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}
	loc, err := interval.ParseTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	key := interval.Config{Locale: locale.String(), Timezone: loc.String()}

	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.engines[key]; ok {
		return e, nil
	}
	e := interval.NewEngine(locale, loc)
	h.engines[key] = e
	return e, nil
}

// engineFor applies the request's ?locale and ?timezone over the defaults.
func (h *Handler) engineFor(r *http.Request) (*interval.Engine, error) {
	cfg := h.defaults
	q := r.URL.Query()
	if v := q.Get("locale"); v != "" {
		cfg.Locale = v
	}
	if v := q.Get("timezone"); v != "" {
		cfg.Timezone = v
	}
	return h.engine(cfg)
}

// =============================================================================
// INTERVAL HANDLERS
// =============================================================================

// StartOf returns the interval of {unit} containing ?at (default: now).
func (h *Handler) StartOf(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engineFor(r)
	if err != nil {
		h.writeFailure(w, "Invalid engine configuration", err)
		return
	}
	u, err := interval.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		h.writeFailure(w, "Invalid unit", err)
		return
	}
	at, err := h.instantParam(r, "at", engine.Location())
	if err != nil {
		h.writeFailure(w, "Invalid at", err)
		return
	}

	iv, err := engine.Interval(u, at)
	if err != nil {
		h.writeFailure(w, "Failed to compute interval", err)
		return
	}

	writeJSON(w, http.StatusOK, toStartOfDTO(engine, u, at, iv))
}

// Sequence returns consecutive intervals of {unit} starting with the one
// containing ?at. Exactly one of ?count and ?until is required.
func (h *Handler) Sequence(w http.ResponseWriter, r *http.Request) {
	engine, err := h.engineFor(r)
	if err != nil {
		h.writeFailure(w, "Invalid engine configuration", err)
		return
	}
	u, err := interval.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		h.writeFailure(w, "Invalid unit", err)
		return
	}
	at, err := h.instantParam(r, "at", engine.Location())
	if err != nil {
		h.writeFailure(w, "Invalid at", err)
		return
	}

	q := r.URL.Query()
	countStr, untilStr := q.Get("count"), q.Get("until")
	if (countStr == "") == (untilStr == "") {
		writeError(w, http.StatusBadRequest, "Exactly one of count or until is required", nil)
		return
	}

	var rng interval.Range
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid count", err)
			return
		}
		if n > MaxSequenceLength {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be at most %d", MaxSequenceLength), nil)
			return
		}
		rng = interval.Count(n)
	} else {
		until, err := interval.ParseInstant(untilStr, engine.Location())
		if err != nil {
			h.writeFailure(w, "Invalid until", err)
			return
		}
		if err := checkSequenceLength(engine, u, at, until); err != nil {
			h.writeFailure(w, "Sequence too long", err)
			return
		}
		rng = interval.Bound(until)
	}

	seq, err := engine.Sequence(u, at, rng)
	if err != nil {
		h.writeFailure(w, "Failed to compute sequence", err)
		return
	}

	intervals := make([]IntervalDTO, len(seq))
	for i, start := range seq {
		var end time.Time
		if i+1 < len(seq) {
			end = seq[i+1]
		} else if end, err = engine.Shift(u, interval.At(start), 1); err != nil {
			h.writeFailure(w, "Failed to compute sequence", err)
			return
		}
		intervals[i] = toIntervalDTO(start, end)
	}

	cfg := engine.Config()
	writeJSON(w, http.StatusOK, SequenceDTO{
		Unit:      u.String(),
		Locale:    cfg.Locale,
		Timezone:  cfg.Timezone,
		Intervals: intervals,
	})
}

// checkSequenceLength rejects bounds further than MaxSequenceLength intervals away.
func checkSequenceLength(engine *interval.Engine, u interval.Unit, at, until interval.Instant) error {
	last, err := engine.StartOfTime(u, until)
	if err != nil {
		return err
	}
	capped, err := engine.Shift(u, at, MaxSequenceLength-1)
	if err != nil {
		return err
	}
	if last.After(capped) {
		return fmt.Errorf("%w: more than %d %s intervals", interval.ErrInvalidRange, MaxSequenceLength, u)
	}
	return nil
}

// =============================================================================
// SERIES HANDLERS
// =============================================================================

// ListSeries returns all stored series.
func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.Store.ListSeries(r.Context())
	if err != nil {
		h.writeFailure(w, "Failed to list series", err)
		return
	}

	dtos := make([]SeriesDTO, len(series))
	for i, s := range series {
		dtos[i] = SeriesDTO{
			ID:     string(s.ID),
			Points: s.Points,
			First:  s.First.Format(time.RFC3339),
			Last:   s.Last.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// AppendPoints appends a batch of points to {series}. The batch is atomic.
func (h *Handler) AppendPoints(w http.ResponseWriter, r *http.Request) {
	series := heatmap.SeriesID(chi.URLParam(r, "series"))

	engine, err := h.engineFor(r)
	if err != nil {
		h.writeFailure(w, "Invalid engine configuration", err)
		return
	}

	var req AppendPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Points) == 0 {
		writeError(w, http.StatusBadRequest, "At least one point is required", nil)
		return
	}

	points := make([]heatmap.Point, len(req.Points))
	for i, in := range req.Points {
		at, err := interval.ParseInstant(in.At, engine.Location())
		if err != nil {
			h.writeFailure(w, fmt.Sprintf("Invalid at for point %d", i), err)
			return
		}
		points[i] = heatmap.NewPoint(series, at.Time(), in.Value)
		points[i].IdempotencyKey = in.IdempotencyKey
	}

	if err := h.Store.AppendBatch(r.Context(), points); err != nil {
		h.writeFailure(w, "Failed to append points", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"series":   series,
		"appended": len(points),
	})
}

// ListPoints returns the points of {series} in [?from, ?to).
func (h *Handler) ListPoints(w http.ResponseWriter, r *http.Request) {
	series := heatmap.SeriesID(chi.URLParam(r, "series"))

	engine, err := h.engineFor(r)
	if err != nil {
		h.writeFailure(w, "Invalid engine configuration", err)
		return
	}

	q := r.URL.Query()
	from, err := interval.ParseInstant(q.Get("from"), engine.Location())
	if err != nil {
		h.writeFailure(w, "Invalid from", err)
		return
	}
	to, err := interval.ParseInstant(q.Get("to"), engine.Location())
	if err != nil {
		h.writeFailure(w, "Invalid to", err)
		return
	}

	points, err := h.Store.LoadRange(r.Context(), series, from.Time(), to.Time())
	if err != nil {
		h.writeFailure(w, "Failed to load points", err)
		return
	}

	dtos := make([]PointDTO, len(points))
	for i, p := range points {
		dtos[i] = toPointDTO(p, engine.Location())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"series": series,
		"points": dtos,
	})
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendars returns all calendar definitions.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		h.writeFailure(w, "Failed to list calendars", err)
		return
	}

	dtos := make([]CalendarDTO, 0, len(records))
	for _, rec := range records {
		var cj factory.CalendarJSON
		if err := json.Unmarshal([]byte(rec.ConfigJSON), &cj); err != nil {
			h.Logger.Warn("skipping unreadable calendar", "id", rec.ID, "error", err)
			continue
		}
		dtos = append(dtos, toCalendarDTO(rec, cj))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateCalendar validates and stores a calendar definition. Saving an
// existing ID replaces it and bumps its version.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var cj factory.CalendarJSON
	if err := json.NewDecoder(r.Body).Decode(&cj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.saveCalendar(r.Context(), cj)
	if err != nil {
		h.writeFailure(w, "Failed to create calendar", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCalendarDTO(*rec, cj))
}

// saveCalendar validates cj through the factory, then persists it as submitted.
// An omitted start stays omitted, so the calendar keeps following the current year.
func (h *Handler) saveCalendar(ctx context.Context, cj factory.CalendarJSON) (*sqlite.CalendarRecord, error) {
	def, err := h.Calendars.FromJSON(cj)
	if err != nil {
		return nil, err
	}

	configJSON, err := json.Marshal(cj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}

	err = h.Store.SaveCalendar(ctx, sqlite.CalendarRecord{
		ID:         def.ID,
		Name:       def.Name,
		Series:     string(def.Series),
		ConfigJSON: string(configJSON),
	})
	if err != nil {
		return nil, err
	}
	return h.Store.GetCalendar(ctx, def.ID)
}

// GetCalendar returns one calendar definition.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetCalendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Calendar not found", err)
		return
	}

	var cj factory.CalendarJSON
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &cj); err != nil {
		h.writeFailure(w, "Stored calendar is unreadable", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarDTO(*rec, cj))
}

// DeleteCalendar removes a calendar definition. Its series is kept.
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCalendar(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, "Failed to delete calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetHeatmap lays out calendar {id} and aggregates its series into it.
// ?start and ?range override the stored options; ?shift then moves the
// window by that many domains (negative for earlier).
func (h *Handler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.Store.GetCalendar(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Calendar not found", err)
		return
	}
	def, err := h.Calendars.ParseCalendar(rec.ConfigJSON)
	if err != nil {
		h.Logger.Error("stored calendar no longer parses", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Stored calendar is invalid", err)
		return
	}

	opts := def.Options
	q := r.URL.Query()
	if s := q.Get("start"); s != "" {
		at, err := interval.ParseInstant(s, def.Engine.Location())
		if err != nil {
			h.writeFailure(w, "Invalid start", err)
			return
		}
		opts.Start = at.Time()
	}
	if s := q.Get("range"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid range", err)
			return
		}
		opts.Range = n
	}
	if s := q.Get("shift"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid shift", err)
			return
		}
		if opts, err = heatmap.Navigate(def.Engine, opts, n); err != nil {
			h.writeFailure(w, "Failed to shift calendar", err)
			return
		}
	}

	cal, err := def.Builder().BuildFromStore(ctx, h.Store, def.Series, opts)
	if err != nil {
		h.writeFailure(w, "Failed to build heatmap", err)
		return
	}

	writeJSON(w, http.StatusOK, ToHeatmapDTO(def, cal))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all points and calendars.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeFailure(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// instantParam reads an instant query parameter, defaulting to now.
func (h *Handler) instantParam(r *http.Request, name string, loc *time.Location) (interval.Instant, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return interval.At(h.now()), nil
	}
	return interval.ParseInstant(v, loc)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, heatmap.ErrDuplicateIdempotencyKey):
		return http.StatusConflict
	case heatmap.IsNotFound(err):
		return http.StatusNotFound
	case heatmap.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure writes err with the status its class maps to. Server-side
// failures are logged.
func (h *Handler) writeFailure(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "error", err)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
