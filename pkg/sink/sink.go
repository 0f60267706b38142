// Package sink writes observations to the systems the adapters in
// pkg/adapters read from. It is used to seed a Postgres table, a Kafka topic
// or a JSON export with sample data so a dashboard can be pointed at a real
// source.
//
// Every sink writes the measured fields only. Downtime, the reason breakdown,
// other energy and evenness are derived again when the data is loaded.
package sink

import (
	"context"
	"time"

	"github.com/HatiCode/millboard/pkg/mill"
)

// Sink is implemented by every observation writer.
type Sink interface {
	Write(ctx context.Context, observations []mill.Observation) error
	Name() string
}

// Record is the wire shape shared by the JSON export and Kafka messages.
// It matches what HTTPAdapter and KafkaAdapter parse.
type Record struct {
	Date          string  `json:"date"`
	Plant         string  `json:"plant"`
	Machine       string  `json:"machine"`
	Utilization   float64 `json:"utilization"`
	Material      float64 `json:"material"`
	Quality       float64 `json:"quality"`
	Packing       float64 `json:"packing"`
	MachineEnergy float64 `json:"machineEnergy"`
	UtilityEnergy float64 `json:"utilityEnergy"`
	BPT           float64 `json:"bpt"`
}

// NewRecord extracts the measured fields of o.
func NewRecord(o mill.Observation) Record {
	return Record{
		Date:          o.Date.Format(time.DateOnly),
		Plant:         o.Plant,
		Machine:       o.Machine,
		Utilization:   o.Utilization,
		Material:      o.Downgrade.Material,
		Quality:       o.Downgrade.Quality,
		Packing:       o.Downgrade.Packing,
		MachineEnergy: o.Energy.Machine,
		UtilityEnergy: o.Energy.Utility,
		BPT:           o.BPT,
	}
}
