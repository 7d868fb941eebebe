/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine and heatmap types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TIME ENCODING:
  Every instant is returned twice: RFC 3339 in the engine's zone (so the
  wall clock is visible) and epoch milliseconds.

DECIMALS:
  Values are strings so no precision is lost in transit.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/calendar.go: CalendarJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/calheatmap/factory"
	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
	"github.com/warp/calheatmap/store/sqlite"
)

// =============================================================================
// INTERVAL TYPES
// =============================================================================

// IntervalDTO is one interval [start, end).
type IntervalDTO struct {
	Start   string `json:"start"`
	StartMs int64  `json:"start_ms"`
	End     string `json:"end"`
	EndMs   int64  `json:"end_ms"`
}

// StartOfDTO is the response of the start endpoint.
type StartOfDTO struct {
	Unit     string `json:"unit"`
	At       string `json:"at"`
	Locale   string `json:"locale"`
	Timezone string `json:"timezone"`
	IntervalDTO
}

// SequenceDTO is the response of the sequence endpoint.
type SequenceDTO struct {
	Unit      string        `json:"unit"`
	Locale    string        `json:"locale"`
	Timezone  string        `json:"timezone"`
	Intervals []IntervalDTO `json:"intervals"`
}

// =============================================================================
// SERIES TYPES
// =============================================================================

// PointDTO represents a data point.
type PointDTO struct {
	ID             string `json:"id"`
	At             string `json:"at"`
	AtMs           int64  `json:"at_ms"`
	Value          string `json:"value"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// PointInput is one point in an append request.
type PointInput struct {
	At             string          `json:"at"` // RFC 3339, YYYY-MM-DD or epoch ms
	Value          decimal.Decimal `json:"value"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// AppendPointsRequest is the request to append points to a series.
type AppendPointsRequest struct {
	Points []PointInput `json:"points"`
}

// SeriesDTO summarizes a stored series.
type SeriesDTO struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
	First  string `json:"first"`
	Last   string `json:"last"`
}

// =============================================================================
// CALENDAR TYPES
// =============================================================================

// CalendarDTO represents a stored calendar definition.
type CalendarDTO struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Series    string               `json:"series"`
	Config    factory.CalendarJSON `json:"config"`
	Version   int                  `json:"version"`
	CreatedAt string               `json:"created_at,omitempty"`
	UpdatedAt string               `json:"updated_at,omitempty"`
}

// CellDTO is one subdomain cell.
type CellDTO struct {
	Start     string  `json:"start"`
	StartMs   int64   `json:"start_ms"`
	Value     *string `json:"value"` // null when no point fell in the cell
	Count     int     `json:"count"`
	Highlight bool    `json:"highlight,omitempty"`
}

// DomainDTO is one domain block and its cells.
type DomainDTO struct {
	IntervalDTO
	Cells []CellDTO `json:"cells"`
}

// HeatmapDTO is a laid-out, aggregated calendar.
type HeatmapDTO struct {
	CalendarID string      `json:"calendar_id"`
	Series     string      `json:"series"`
	Locale     string      `json:"locale"`
	Timezone   string      `json:"timezone"`
	Domain     string      `json:"domain"`
	SubDomain  string      `json:"sub_domain"`
	GroupY     string      `json:"group_y"`
	Range      int         `json:"range"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	Min        *string     `json:"min"`
	Max        *string     `json:"max"`
	Domains    []DomainDTO `json:"domains"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Calendars   []string `json:"calendars,omitempty"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toIntervalDTO(start, end time.Time) IntervalDTO {
	return IntervalDTO{
		Start:   start.Format(time.RFC3339),
		StartMs: start.UnixMilli(),
		End:     end.Format(time.RFC3339),
		EndMs:   end.UnixMilli(),
	}
}

func toPointDTO(p heatmap.Point, loc *time.Location) PointDTO {
	return PointDTO{
		ID:             string(p.ID),
		At:             p.At.In(loc).Format(time.RFC3339Nano),
		AtMs:           p.At.UnixMilli(),
		Value:          p.Value.String(),
		IdempotencyKey: p.IdempotencyKey,
	}
}

func toCalendarDTO(rec sqlite.CalendarRecord, cj factory.CalendarJSON) CalendarDTO {
	return CalendarDTO{
		ID:        rec.ID,
		Name:      rec.Name,
		Series:    rec.Series,
		Config:    cj,
		Version:   rec.Version,
		CreatedAt: formatTime(rec.CreatedAt),
		UpdatedAt: formatTime(rec.UpdatedAt),
	}
}

// ToHeatmapDTO converts a built calendar to its API form.
func ToHeatmapDTO(def *factory.Definition, cal *heatmap.Calendar) HeatmapDTO {
	engine := def.Engine
	cfg := engine.Config()
	from, to := cal.Span()

	dto := HeatmapDTO{
		CalendarID: def.ID,
		Series:     string(def.Series),
		Locale:     cfg.Locale,
		Timezone:   cfg.Timezone,
		Domain:     cal.Options.Domain.String(),
		SubDomain:  cal.Options.SubDomain.String(),
		GroupY:     string(cal.Options.GroupY),
		Range:      cal.Options.Range,
		Start:      from.Format(time.RFC3339),
		End:        to.Format(time.RFC3339),
		Domains:    make([]DomainDTO, len(cal.Domains)),
	}
	if v, ok := cal.Min(); ok {
		dto.Min = decimalPtr(v)
	}
	if v, ok := cal.Max(); ok {
		dto.Max = decimalPtr(v)
	}

	for i, d := range cal.Domains {
		cells := make([]CellDTO, len(d.Cells))
		for j, c := range d.Cells {
			cells[j] = CellDTO{
				Start:     c.Start.Format(time.RFC3339),
				StartMs:   c.Start.UnixMilli(),
				Count:     c.Count,
				Highlight: c.Highlight,
			}
			if c.HasData() {
				cells[j].Value = decimalPtr(c.Value)
			}
		}
		dto.Domains[i] = DomainDTO{IntervalDTO: toIntervalDTO(d.Start, d.End), Cells: cells}
	}
	return dto
}

func toStartOfDTO(engine *interval.Engine, u interval.Unit, at interval.Instant, iv interval.Interval) StartOfDTO {
	cfg := engine.Config()
	return StartOfDTO{
		Unit:        u.String(),
		At:          at.Time().In(engine.Location()).Format(time.RFC3339Nano),
		Locale:      cfg.Locale,
		Timezone:    cfg.Timezone,
		IntervalDTO: toIntervalDTO(iv.Start, iv.End),
	}
}

func decimalPtr(d decimal.Decimal) *string {
	s := d.String()
	return &s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
