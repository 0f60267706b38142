// Package adapters provides millboard data sources that load observation
// records from external systems and normalize them into an immutable
// [mill.Dataset].
//
// Each adapter implements the Adapter interface. Available adapters:
//   - SyntheticAdapter - deterministic sample data from pkg/synth
//   - HTTPAdapter - JSON telemetry export, records extracted with gjson paths
//   - PostgresAdapter - rows from an observations table
//   - KafkaAdapter - JSON observation messages drained from a topic
//
// Adapters only load and validate. Filtering and aggregation happen in
// pkg/mill on the stored dataset.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HatiCode/millboard/pkg/mill"
)

// Adapter is the interface that all millboard data sources implement.
//
// Load is synchronous and should respect context cancellation and deadlines.
// It returns an error if any record fails mill.Observation.Validate.
type Adapter interface {
	// Load fetches the full observation set and returns it as a new Dataset.
	Load(ctx context.Context) (*mill.Dataset, error)

	// Name returns a short identifier for the adapter, e.g. "synthetic", "http".
	Name() string
}

// newDataset stamps observations with an ID and validates them.
func newDataset(source string, seed int64, observations []mill.Observation) (*mill.Dataset, error) {
	ds := &mill.Dataset{
		ID:           uuid.NewString(),
		Source:       source,
		Seed:         seed,
		GeneratedAt:  time.Now().UTC(),
		Observations: observations,
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%s adapter: %w", source, err)
	}
	return ds, nil
}

// record is the source shape shared by the HTTP, Postgres and Kafka adapters.
// Dependent fields (downtime, breakdown, other energy, evenness) are not
// trusted from the source and are recomputed by toObservation.
type record struct {
	Date          time.Time
	Plant         string
	Machine       string
	Utilization   float64
	Material      float64
	Quality       float64
	Packing       float64
	MachineEnergy float64
	UtilityEnergy float64
	BPT           float64
}

func (r record) toObservation() mill.Observation {
	return mill.Derive(
		r.Date,
		r.Plant,
		r.Machine,
		r.Utilization,
		mill.Downgrade{Material: r.Material, Quality: r.Quality, Packing: r.Packing},
		r.MachineEnergy,
		r.UtilityEnergy,
		r.BPT,
	)
}
