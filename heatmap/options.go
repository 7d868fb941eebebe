package heatmap

import (
	"fmt"
	"time"

	"github.com/warp/calheatmap/interval"
)

// MaxCells caps the number of cells a single calendar may contain.
const MaxCells = 50_000

// MaxShift caps how many domains Navigate moves in one call.
const MaxShift = MaxCells

// Options describes which calendar to lay out.
type Options struct {
	Domain    interval.Unit // Unit of each domain block (e.g. month)
	SubDomain interval.Unit // Unit of each cell (e.g. day); strictly finer than Domain
	Range     int           // Number of domains
	Start     time.Time     // Any instant in the first domain
	GroupY    Aggregator
	Highlight []time.Time // Cells containing these instants are flagged
}

// DefaultOptions mirrors the classic one-year-of-days calendar.
func DefaultOptions(start time.Time) Options {
	return Options{
		Domain:    interval.UnitMonth,
		SubDomain: interval.UnitDay,
		Range:     12,
		Start:     start,
		GroupY:    AggregateSum,
	}
}

// Validate checks the options without consulting an engine.
func (o Options) Validate() error {
	if !o.Domain.Valid() {
		return &interval.UnitError{Unit: o.Domain}
	}
	if !o.SubDomain.Valid() {
		return &interval.UnitError{Unit: o.SubDomain}
	}
	if !o.SubDomain.Finer(o.Domain) {
		return &OptionsError{Field: "subDomain", Reason: "must be finer than domain " + o.Domain.String() + ", got " + o.SubDomain.String()}
	}
	if o.Range < 1 {
		return &OptionsError{Field: "range", Reason: "must be at least 1"}
	}
	// Every domain holds at least one cell.
	if o.Range > MaxCells {
		return &OptionsError{Field: "range", Reason: fmt.Sprintf("must be at most %d", MaxCells)}
	}
	if o.Start.IsZero() {
		return &OptionsError{Field: "start", Reason: "is required"}
	}
	if o.GroupY != "" && !o.GroupY.Valid() {
		return &OptionsError{Field: "groupY", Reason: "is not a known aggregator"}
	}
	return nil
}

// Navigate returns o moved by steps whole domains. Negative steps move back.
func Navigate(engine *interval.Engine, o Options, steps int) (Options, error) {
	if err := o.Validate(); err != nil {
		return o, err
	}
	if steps > MaxShift || steps < -MaxShift {
		return o, &OptionsError{Field: "shift", Reason: fmt.Sprintf("must be within ±%d domains", MaxShift)}
	}
	start, err := engine.Shift(o.Domain, interval.At(o.Start), steps)
	if err != nil {
		return o, err
	}
	o.Start = start
	return o, nil
}
