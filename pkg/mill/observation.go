// Package mill models daily yarn-mill operations observations and the pure
// aggregation functions that shape them into dashboard views.
//
// An Observation is one plant × machine × day record. A Dataset is an
// immutable snapshot of observations produced once by a source (see
// pkg/adapters) and shared read-only by every request. All aggregation
// functions in this package are synchronous, deterministic and never mutate
// their input:
//
//	subset := mill.Filter(ds.Observations, "Plant A", mill.All)
//	util := mill.MeanByDate(subset, mill.FieldUtilization)
//	series, totals := mill.SelectReasonSeries(subset, mill.ReasonBreakages)
package mill

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Tolerance is the absolute tolerance used when checking the additive
// invariants of an Observation.
const Tolerance = 1e-9

// Reason is a categorical cause of downtime.
type Reason string

// Reason codes in their canonical display order.
const (
	ReasonRMShortage  Reason = "RM Shortage"
	ReasonMachineIdle Reason = "Machine Idle"
	ReasonBreakages   Reason = "Breakages"
	ReasonElectrical  Reason = "Electrical"
	ReasonMechanical  Reason = "Mechanical"
	ReasonOthers      Reason = "Others"
)

// reasonTable fixes the canonical reason order and the proportional share of
// downtime attributed to each reason. The shares sum to 1.
var reasonTable = [...]struct {
	reason Reason
	weight float64
}{
	{ReasonRMShortage, 0.25},
	{ReasonMachineIdle, 0.05},
	{ReasonBreakages, 0.40},
	{ReasonElectrical, 0.10},
	{ReasonMechanical, 0.15},
	{ReasonOthers, 0.05},
}

// NumReasons is the number of reason codes.
const NumReasons = len(reasonTable)

// Reasons lists every reason code in canonical order.
var Reasons = func() []Reason {
	out := make([]Reason, NumReasons)
	for i, row := range reasonTable {
		out[i] = row.reason
	}
	return out
}()

// ReasonWeights holds each reason's share of downtime, indexed like Reasons.
var ReasonWeights = func() Breakdown {
	var w Breakdown
	for i, row := range reasonTable {
		w[i] = row.weight
	}
	return w
}()

// Index returns the position of r in Reasons, or -1 if r is not a known code.
func (r Reason) Index() int {
	for i, row := range reasonTable {
		if r == row.reason {
			return i
		}
	}
	return -1
}

// ParseReason returns the Reason whose display name is s.
func ParseReason(s string) (Reason, error) {
	r := Reason(s)
	if r.Index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownReason, s)
	}
	return r, nil
}

// Breakdown holds downtime contributions indexed by Reason.Index().
type Breakdown [NumReasons]float64

// NewBreakdown splits downtime across reasons using ReasonWeights.
func NewBreakdown(downtime float64) Breakdown {
	var b Breakdown
	for i, w := range ReasonWeights {
		b[i] = downtime * w
	}
	return b
}

// Get returns the contribution for r, or 0 for an unknown reason.
func (b Breakdown) Get(r Reason) float64 {
	i := r.Index()
	if i < 0 {
		return 0
	}
	return b[i]
}

// Sum returns the total of all contributions.
func (b Breakdown) Sum() float64 {
	var s float64
	for _, v := range b {
		s += v
	}
	return s
}

// MarshalJSON encodes the breakdown as an object keyed by reason name.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return marshalReasonMap(b)
}

// UnmarshalJSON decodes an object keyed by reason name.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	return unmarshalReasonMap(data, b)
}

// Downgrade is the share of output reclassified to a lower grade, split by cause.
type Downgrade struct {
	Material float64 `json:"material"`
	Quality  float64 `json:"quality"`
	Packing  float64 `json:"packing"`
}

// Total returns the sum of the three components.
func (d Downgrade) Total() float64 {
	return d.Material + d.Quality + d.Packing
}

// Energy is the percentage split of energy intensity.
type Energy struct {
	Machine float64 `json:"machine"`
	Utility float64 `json:"utility"`
	Other   float64 `json:"other"`
}

// Sum returns Machine + Utility + Other, which should be 100.
func (e Energy) Sum() float64 {
	return e.Machine + e.Utility + e.Other
}

// Observation is one plant × machine × day record.
type Observation struct {
	Date        time.Time `json:"date"`
	Plant       string    `json:"plant"`
	Machine     string    `json:"machine"`
	Utilization float64   `json:"utilization"`
	Downtime    float64   `json:"downtime"`
	Breakdown   Breakdown `json:"breakdown"`
	Downgrade   Downgrade `json:"downgrade"`
	Energy      Energy    `json:"energy"`
	BPT         float64   `json:"bpt"`
	Evenness    float64   `json:"evenness"`
}

// EvennessFromBPT returns the evenness percentage correlated with bpt.
func EvennessFromBPT(bpt float64) float64 {
	return 91 - (bpt-0.7)*10
}

// Derive builds an Observation from the independently measured values and
// computes every dependent field (downtime, breakdown, other energy, evenness).
func Derive(date time.Time, plant, machine string, utilization float64, dg Downgrade, machineEnergy, utilityEnergy, bpt float64) Observation {
	downtime := 100 - utilization
	return Observation{
		Date:        Day(date),
		Plant:       plant,
		Machine:     machine,
		Utilization: utilization,
		Downtime:    downtime,
		Breakdown:   NewBreakdown(downtime),
		Downgrade:   dg,
		Energy: Energy{
			Machine: machineEnergy,
			Utility: utilityEnergy,
			Other:   100 - (machineEnergy + utilityEnergy),
		},
		BPT:      bpt,
		Evenness: EvennessFromBPT(bpt),
	}
}

// Validate checks ranges and the additive invariants of o.
func (o Observation) Validate() error {
	if o.Date.IsZero() {
		return errors.New("date is required")
	}
	if o.Plant == "" {
		return errors.New("plant is required")
	}
	if o.Machine == "" {
		return errors.New("machine is required")
	}
	if o.Utilization < 0 || o.Utilization > 100 {
		return fmt.Errorf("utilization %.4f out of range [0,100]", o.Utilization)
	}
	if math.Abs(o.Utilization+o.Downtime-100) > Tolerance {
		return fmt.Errorf("utilization %.4f + downtime %.4f != 100", o.Utilization, o.Downtime)
	}
	for i, v := range o.Breakdown {
		if v < 0 {
			return fmt.Errorf("breakdown %q is negative", Reasons[i])
		}
	}
	if math.Abs(o.Breakdown.Sum()-o.Downtime) > Tolerance {
		return fmt.Errorf("breakdown sum %.4f != downtime %.4f", o.Breakdown.Sum(), o.Downtime)
	}
	if o.Downgrade.Material < 0 || o.Downgrade.Quality < 0 || o.Downgrade.Packing < 0 {
		return errors.New("downgrade components must be non-negative")
	}
	if o.Energy.Machine < 0 || o.Energy.Utility < 0 || o.Energy.Other < 0 {
		return errors.New("energy components must be non-negative")
	}
	if math.Abs(o.Energy.Sum()-100) > Tolerance {
		return fmt.Errorf("energy components sum to %.4f, want 100", o.Energy.Sum())
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dataset is an immutable snapshot of observations loaded from a source.
type Dataset struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Seed         int64         `json:"seed,omitempty"`
	GeneratedAt  time.Time     `json:"generatedAt"`
	Observations []Observation `json:"observations"`
}

// Validate checks every observation, reporting the first failing index.
func (d Dataset) Validate() error {
	for i, o := range d.Observations {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("observation %d: %w", i, err)
		}
	}
	return nil
}
