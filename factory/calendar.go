/*
Package factory provides JSON/YAML to Go calendar conversion.

PURPOSE:
  Converts calendar definitions into a configured interval.Engine and
  heatmap.Options. Calendars can then be stored, edited in an admin UI or
  checked into version control without code changes.

SCHEMA (JSON shown, YAML uses the same keys):
  {
    "id": "commits",
    "name": "Commits",
    "series": "git",
    "date": {
      "start": "2020-01-01",
      "locale": "fr",
      "timezone": "Europe/Paris",
      "highlight": ["2020-03-15"]
    },
    "domain": {"type": "month"},
    "subDomain": {"type": "day"},
    "range": 12,
    "data": {"groupY": "sum"}
  }

DEFAULTS:
  - locale: en, timezone: host local zone
  - domain: month, subDomain: day, range: 12
  - groupY: sum
  - start: start of the current year in the calendar's zone

VALIDATION:
  Locale and timezone are checked here, when the calendar is loaded, so a
  bad definition fails once instead of on every render.

USAGE:
  f := factory.NewCalendarFactory()
  def, err := f.ParseCalendar(jsonString)
  cal, err := heatmap.NewBuilder(def.Engine).BuildFromStore(ctx, store, def.Series, def.Options)

SEE ALSO:
  - interval/engine.go: Engine configuration
  - heatmap/options.go: Layout options
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// CalendarJSON is the serialized form of a calendar definition.
type CalendarJSON struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Series    string    `json:"series" yaml:"series"`
	Date      DateJSON  `json:"date" yaml:"date"`
	Domain    UnitJSON  `json:"domain" yaml:"domain"`
	SubDomain UnitJSON  `json:"subDomain" yaml:"subDomain"`
	Range     int       `json:"range,omitempty" yaml:"range,omitempty"`
	Data      *DataJSON `json:"data,omitempty" yaml:"data,omitempty"`
}

// DateJSON holds the time settings of a calendar.
type DateJSON struct {
	Start     string   `json:"start,omitempty" yaml:"start,omitempty"` // RFC 3339, YYYY-MM-DD or epoch ms
	Locale    string   `json:"locale,omitempty" yaml:"locale,omitempty"`
	Timezone  string   `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Highlight []string `json:"highlight,omitempty" yaml:"highlight,omitempty"`
}

// UnitJSON names an interval unit.
type UnitJSON struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// DataJSON holds data aggregation settings.
type DataJSON struct {
	GroupY string `json:"groupY,omitempty" yaml:"groupY,omitempty"`
}

// Definition is a parsed, validated calendar.
type Definition struct {
	ID      string
	Name    string
	Series  heatmap.SeriesID
	Engine  *interval.Engine
	Options heatmap.Options
}

// Builder returns a heatmap builder bound to the definition's engine.
func (d *Definition) Builder() *heatmap.Builder {
	return heatmap.NewBuilder(d.Engine)
}

// =============================================================================
// CALENDAR FACTORY
// =============================================================================

// CalendarFactory converts serialized calendars to Definitions.
type CalendarFactory struct {
	now func() time.Time
}

// NewCalendarFactory creates a factory using the wall clock for default starts.
func NewCalendarFactory() *CalendarFactory {
	return &CalendarFactory{now: time.Now}
}

// WithClock returns a copy of the factory that reads the current time from now.
func (f *CalendarFactory) WithClock(now func() time.Time) *CalendarFactory {
	return &CalendarFactory{now: now}
}

// ParseCalendar parses a JSON calendar definition.
func (f *CalendarFactory) ParseCalendar(jsonStr string) (*Definition, error) {
	var cj CalendarJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseCalendarYAML parses a YAML calendar definition.
func (f *CalendarFactory) ParseCalendarYAML(yamlStr string) (*Definition, error) {
	var cj CalendarJSON
	if err := yaml.Unmarshal([]byte(yamlStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar YAML: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON validates cj and applies defaults.
func (f *CalendarFactory) FromJSON(cj CalendarJSON) (*Definition, error) {
	if cj.ID == "" {
		return nil, &heatmap.OptionsError{Field: "id", Reason: "is required"}
	}
	if cj.Series == "" {
		return nil, &heatmap.OptionsError{Field: "series", Reason: "is required"}
	}

	engine, err := interval.New(interval.Config{Locale: cj.Date.Locale, Timezone: cj.Date.Timezone})
	if err != nil {
		return nil, err
	}

	domain, err := parseUnit(cj.Domain.Type, interval.UnitMonth)
	if err != nil {
		return nil, err
	}
	subDomain, err := parseUnit(cj.SubDomain.Type, interval.UnitDay)
	if err != nil {
		return nil, err
	}

	start, err := f.parseStart(engine, cj.Date.Start)
	if err != nil {
		return nil, err
	}

	opts := heatmap.DefaultOptions(start)
	opts.Domain = domain
	opts.SubDomain = subDomain
	if cj.Range != 0 {
		opts.Range = cj.Range
	}
	if cj.Data != nil {
		if opts.GroupY, err = heatmap.ParseAggregator(cj.Data.GroupY); err != nil {
			return nil, err
		}
	}
	for _, h := range cj.Date.Highlight {
		at, err := interval.ParseInstant(h, engine.Location())
		if err != nil {
			return nil, fmt.Errorf("date.highlight: %w", err)
		}
		opts.Highlight = append(opts.Highlight, at.Time())
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	name := cj.Name
	if name == "" {
		name = cj.ID
	}

	return &Definition{
		ID:      cj.ID,
		Name:    name,
		Series:  heatmap.SeriesID(cj.Series),
		Engine:  engine,
		Options: opts,
	}, nil
}

// ToJSON converts a Definition back to its serialized form.
func (f *CalendarFactory) ToJSON(d *Definition) CalendarJSON {
	cfg := d.Engine.Config()
	cj := CalendarJSON{
		ID:     d.ID,
		Name:   d.Name,
		Series: string(d.Series),
		Date: DateJSON{
			Start:    d.Options.Start.In(d.Engine.Location()).Format(time.RFC3339),
			Locale:   cfg.Locale,
			Timezone: cfg.Timezone,
		},
		Domain:    UnitJSON{Type: d.Options.Domain.String()},
		SubDomain: UnitJSON{Type: d.Options.SubDomain.String()},
		Range:     d.Options.Range,
		Data:      &DataJSON{GroupY: string(d.Options.GroupY)},
	}
	for _, h := range d.Options.Highlight {
		cj.Date.Highlight = append(cj.Date.Highlight, h.In(d.Engine.Location()).Format(time.RFC3339))
	}
	return cj
}

// MarshalCalendar encodes a Definition as JSON.
func (f *CalendarFactory) MarshalCalendar(d *Definition) (string, error) {
	b, err := json.Marshal(f.ToJSON(d))
	if err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseUnit(s string, def interval.Unit) (interval.Unit, error) {
	if s == "" {
		return def, nil
	}
	return interval.ParseUnit(s)
}

func (f *CalendarFactory) parseStart(engine *interval.Engine, s string) (time.Time, error) {
	if s == "" {
		return engine.StartOfTime(interval.UnitYear, interval.At(f.now()))
	}
	at, err := interval.ParseInstant(s, engine.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("date.start: %w", err)
	}
	return at.Time(), nil
}
