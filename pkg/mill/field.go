package mill

// Field is a named numeric accessor over an Observation.
type Field struct {
	Name  string
	value func(Observation) float64
}

// Value returns the field's value for o.
func (f Field) Value(o Observation) float64 {
	return f.value(o)
}

var (
	FieldUtilization = Field{"utilization", func(o Observation) float64 { return o.Utilization }}
	FieldDowntime    = Field{"downtime", func(o Observation) float64 { return o.Downtime }}

	FieldMaterialDowngrade = Field{"materialDowngrade", func(o Observation) float64 { return o.Downgrade.Material }}
	FieldQualityDowngrade  = Field{"qualityDowngrade", func(o Observation) float64 { return o.Downgrade.Quality }}
	FieldPackingDowngrade  = Field{"packingDowngrade", func(o Observation) float64 { return o.Downgrade.Packing }}
	FieldTotalDowngrade    = Field{"totalDowngrade", func(o Observation) float64 { return o.Downgrade.Total() }}

	FieldMachineEnergy = Field{"machineEnergy", func(o Observation) float64 { return o.Energy.Machine }}
	FieldUtilityEnergy = Field{"utilityEnergy", func(o Observation) float64 { return o.Energy.Utility }}
	FieldOtherEnergy   = Field{"otherEnergy", func(o Observation) float64 { return o.Energy.Other }}

	FieldBPT      = Field{"bpt", func(o Observation) float64 { return o.BPT }}
	FieldEvenness = Field{"evenness", func(o Observation) float64 { return o.Evenness }}
)

// ReasonField returns the field selecting r's share of downtime.
func ReasonField(r Reason) Field {
	return Field{
		Name:  string(r),
		value: func(o Observation) float64 { return o.Breakdown.Get(r) },
	}
}
