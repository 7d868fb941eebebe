/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario defines one or more calendars and fills
	their series with generated points that show a specific feature.

AVAILABLE SCENARIOS:

	contributions:  A year of commits, month domains with day cells
	dst-week:       Hourly load across the Paris spring-forward (23-hour day)
	weekly-habits:  Week domains starting Saturday (Arabic locale)
	sensor-minutes: Minute averages in a half-hour offset zone (Kolkata)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Parse calendar definitions via factory (YAML)
 3. Save calendars
 4. Generate points with a fixed seed and append them in one batch

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "dst-week"}

ADDING NEW SCENARIOS:
 1. Add an entry to 'scenarios' with its calendar YAML and generator

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
	Generated data is deterministic, so the same scenario always renders the
	same heatmap.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - factory/calendar.go: Calendar definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/calheatmap/factory"
	"github.com/warp/calheatmap/heatmap"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	calendars []string // YAML definitions
	generate  func(rng *rand.Rand) []heatmap.Point
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "contributions",
			Name:        "Contributions",
			Description: "A year of commits: month domains, day cells, summed",
		},
		calendars: []string{`
id: contributions
name: Contributions 2024
series: commits
date:
  start: "2024-01-01"
  locale: en
  timezone: UTC
domain:
  type: month
subDomain:
  type: day
range: 12
data:
  groupY: sum
`},
		generate: generateCommits,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "dst-week",
			Name:        "DST Week",
			Description: "Hourly requests around the Paris spring-forward; 31 March has 23 cells",
		},
		calendars: []string{`
id: dst-week
name: Paris load, DST week
series: requests
date:
  start: "2024-03-28"
  locale: fr
  timezone: Europe/Paris
domain:
  type: day
subDomain:
  type: hour
range: 7
data:
  groupY: max
`},
		generate: generateRequests,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "weekly-habits",
			Name:        "Weekly Habits",
			Description: "Workouts counted per day, weeks starting Saturday",
		},
		calendars: []string{`
id: weekly-habits
name: Workouts
series: workouts
date:
  start: "2024-06-01"
  locale: ar
  timezone: Asia/Dubai
domain:
  type: week
subDomain:
  type: day
range: 8
data:
  groupY: count
`},
		generate: generateWorkouts,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "sensor-minutes",
			Name:        "Sensor Minutes",
			Description: "Temperature averaged per minute in a UTC+05:30 zone",
		},
		calendars: []string{`
id: sensor-minutes
name: Greenhouse temperature
series: temperature
date:
  start: "2024-05-01T09:00:00+05:30"
  locale: en-GB
  timezone: Asia/Kolkata
domain:
  type: hour
subDomain:
  type: minute
range: 3
data:
  groupY: average
`},
		generate: generateTemperatures,
	},
}

func init() {
	for i := range scenarios {
		for _, y := range scenarios[i].calendars {
			var cj factory.CalendarJSON
			if err := yaml.Unmarshal([]byte(y), &cj); err == nil {
				scenarios[i].Calendars = append(scenarios[i].Calendars, cj.ID)
			}
		}
	}
}

func findScenario(id string) (*scenario, bool) {
	for i := range scenarios {
		if scenarios[i].ID == id {
			return &scenarios[i], true
		}
	}
	return nil, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), s); err != nil {
		h.writeFailure(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID})
}

func (h *Handler) loadScenario(ctx context.Context, s *scenario) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	for _, y := range s.calendars {
		def, err := h.Calendars.ParseCalendarYAML(y)
		if err != nil {
			return err
		}
		if _, err := h.saveCalendar(ctx, h.Calendars.ToJSON(def)); err != nil {
			return err
		}
	}

	rng := rand.New(rand.NewSource(42))
	if err := h.Store.AppendBatch(ctx, s.generate(rng)); err != nil {
		return fmt.Errorf("append points: %w", err)
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", s.ID, "calendars", len(s.calendars))
	return nil
}

// =============================================================================
// POINT GENERATORS
// =============================================================================

func generateCommits(rng *rand.Rand) []heatmap.Point {
	var points []heatmap.Point
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == 2024 {
		n := rng.Intn(5)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			n = rng.Intn(2)
		}
		for i := 0; i < n; i++ {
			at := day.Add(time.Duration(9+rng.Intn(10))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)
			p := heatmap.NewPoint("commits", at, decimal.NewFromInt(int64(1+rng.Intn(3))))
			p.IdempotencyKey = fmt.Sprintf("commit-%s-%d", day.Format("20060102"), i)
			points = append(points, p)
		}
		day = day.AddDate(0, 0, 1)
	}
	return points
}

func generateRequests(rng *rand.Rand) []heatmap.Point {
	var points []heatmap.Point
	// 2024-03-28T00:00 Paris through 2024-04-04T00:00 Paris, every 15 minutes.
	from := time.Date(2024, 3, 27, 23, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 3, 22, 0, 0, 0, time.UTC)
	for at := from; at.Before(to); at = at.Add(15 * time.Minute) {
		base := 200 + 100*int64(at.Hour()%12)
		points = append(points, heatmap.NewPoint("requests", at, decimal.NewFromInt(base+int64(rng.Intn(150)))))
	}
	return points
}

func generateWorkouts(rng *rand.Rand) []heatmap.Point {
	dubai := time.FixedZone("GST", 4*3600)
	var points []heatmap.Point
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, dubai)
	for i := 0; i < 8*7; i++ {
		sessions := rng.Intn(3)
		for s := 0; s < sessions; s++ {
			at := day.AddDate(0, 0, i).Add(time.Duration(6+s*11) * time.Hour)
			points = append(points, heatmap.NewPoint("workouts", at, decimal.NewFromInt(int64(20+rng.Intn(40)))))
		}
	}
	return points
}

func generateTemperatures(rng *rand.Rand) []heatmap.Point {
	var points []heatmap.Point
	from := time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC) // 09:00 in Kolkata
	for i := 0; i < 3*60*4; i++ {
		at := from.Add(time.Duration(i) * 15 * time.Second)
		tenths := 220 + int64(i/24) + int64(rng.Intn(15))
		points = append(points, heatmap.NewPoint("temperature", at, decimal.New(tenths, -1)))
	}
	return points
}
