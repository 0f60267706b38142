// Package synth generates a deterministic sample mill dataset. It stands in
// for a real telemetry feed: the same Params always produce the same
// observations, so tests can assert exact values.
package synth

import (
	"errors"
	"math/rand"
	"time"

	"github.com/HatiCode/millboard/pkg/mill"
)

// Default generation parameters.
const (
	DefaultDays = 30
	DefaultSeed = 42
)

// DefaultStart is the first day of the default window.
var DefaultStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// Params controls dataset generation. Zero fields take defaults, so a zero
// Seed means DefaultSeed.
type Params struct {
	Start    time.Time
	Days     int
	Plants   []string
	Machines []string
	Seed     int64
}

// WithDefaults returns p with every zero field set to its default.
func (p Params) WithDefaults() Params {
	if p.Seed == 0 {
		p.Seed = DefaultSeed
	}
	if p.Start.IsZero() {
		p.Start = DefaultStart
	}
	if p.Days == 0 {
		p.Days = DefaultDays
	}
	c := mill.DefaultCatalog()
	if len(p.Plants) == 0 {
		p.Plants = c.Plants
	}
	if len(p.Machines) == 0 {
		p.Machines = c.Machines
	}
	return p
}

// Generate draws one observation per day × plant × machine from a source
// seeded with p.Seed.
func Generate(p Params) ([]mill.Observation, error) {
	p = p.WithDefaults()
	if p.Days < 0 {
		return nil, errors.New("days must be >= 0")
	}
	return GenerateFrom(rand.New(rand.NewSource(p.Seed)), p), nil
}

// GenerateFrom draws observations from rng. Iteration order is date, then
// plant, then machine.
func GenerateFrom(rng *rand.Rand, p Params) []mill.Observation {
	p = p.WithDefaults()
	start := mill.Day(p.Start)

	out := make([]mill.Observation, 0, max(p.Days, 0)*len(p.Plants)*len(p.Machines))
	for day := 0; day < p.Days; day++ {
		date := start.AddDate(0, 0, day)
		for _, plant := range p.Plants {
			for _, machine := range p.Machines {
				utilization := uniform(rng, 80, 92)
				dg := mill.Downgrade{
					Material: uniform(rng, 1, 3),
					Quality:  uniform(rng, 2, 4),
					Packing:  uniform(rng, 1, 2),
				}
				machineEnergy := uniform(rng, 28, 32)
				utilityEnergy := uniform(rng, 40, 50)
				bpt := uniform(rng, 0.7, 1.3)

				out = append(out, mill.Derive(date, plant, machine, utilization, dg, machineEnergy, utilityEnergy, bpt))
			}
		}
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
